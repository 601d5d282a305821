package models

import (
	"time"

	"github.com/charlesng35/posadmin/internal/access"
)

// User is a platform or organization staff account.
type User struct {
	BaseModel

	Email        string  `gorm:"uniqueIndex;not null" json:"email"`
	Name         string  `json:"name"`
	PasswordHash string  `gorm:"not null" json:"-"`
	Role         string  `gorm:"type:varchar(32);index;not null;default:'UNASSIGNED'" json:"role"`
	OrgID        *string `gorm:"column:organization_id;type:uuid;index" json:"organization_id"`
	IsActive     bool    `gorm:"default:true;index" json:"is_active"`

	Organization *Organization `gorm:"foreignKey:OrgID" json:"organization,omitempty"`

	LastLoginAt *time.Time `json:"last_login_at"`
}

// CanonicalRole returns the normalised role of the user.
func (u *User) CanonicalRole() access.Role {
	return access.NormalizeRole(u.Role)
}

// OrganizationID returns the tenant id or an empty string for platform users.
func (u *User) OrganizationID() string {
	if u.OrgID == nil {
		return ""
	}
	return *u.OrgID
}
