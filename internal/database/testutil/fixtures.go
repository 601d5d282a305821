package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/posadmin/internal/access"
	"github.com/charlesng35/posadmin/internal/models"
)

// MustCreateOrganization inserts an organization with a fixed id.
func MustCreateOrganization(t *testing.T, db *gorm.DB, id, name string) *models.Organization {
	t.Helper()

	org := &models.Organization{
		BaseModel: models.BaseModel{ID: id},
		Name:      name,
		Slug:      id,
		IsActive:  true,
	}
	require.NoError(t, db.Create(org).Error)
	return org
}

// MustCreateUser inserts an active user with the given role. An empty
// organizationID creates a platform-level user.
func MustCreateUser(t *testing.T, db *gorm.DB, id string, role access.Role, organizationID string) *models.User {
	t.Helper()

	user := &models.User{
		BaseModel:    models.BaseModel{ID: id},
		Email:        id + "@example.com",
		Name:         id,
		PasswordHash: "not-a-real-hash",
		Role:         role.String(),
		IsActive:     true,
	}
	if organizationID != "" {
		orgID := organizationID
		user.OrgID = &orgID
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// MustDeactivateUser flips a user to inactive.
func MustDeactivateUser(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", id).Update("is_active", false).Error)
}
