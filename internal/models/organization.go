package models

// Organization is a tenant running one or more points of sale.
type Organization struct {
	BaseModel

	Name     string `gorm:"not null" json:"name"`
	Slug     string `gorm:"uniqueIndex;not null" json:"slug"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	Users []User `gorm:"foreignKey:OrgID" json:"users,omitempty"`
}
