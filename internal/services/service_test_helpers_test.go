package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/posadmin/internal/access"
	"github.com/charlesng35/posadmin/internal/models"
)

func identityFor(user *models.User) *access.Identity {
	return access.NewIdentity(user.ID, user.Email, user.Role, user.OrganizationID())
}

func notificationTitles(t *testing.T, db *gorm.DB, recipient string) []string {
	t.Helper()
	var titles []string
	require.NoError(t, db.Model(&models.Notification{}).
		Where("recipient_user_id = ?", recipient).
		Order("created_at ASC").
		Pluck("title", &titles).Error)
	return titles
}
