package models

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/posadmin/internal/access"
)

func TestBeforeCreateGeneratesIDs(t *testing.T) {
	var base BaseModel
	require.NoError(t, base.BeforeCreate(nil))
	require.NotEmpty(t, base.ID)

	kept := BaseModel{ID: "fixed"}
	require.NoError(t, kept.BeforeCreate(nil))
	require.Equal(t, "fixed", kept.ID)

	var n Notification
	require.NoError(t, n.BeforeCreate(nil))
	require.NotEmpty(t, n.ID)
}

func TestEnumerations(t *testing.T) {
	require.True(t, NotificationWarning.Valid())
	require.False(t, NotificationType("critical").Valid())
	require.True(t, PriorityHigh.Valid())
	require.False(t, NotificationPriority("urgent").Valid())
	require.True(t, TicketInProgress.Valid())
	require.False(t, TicketStatus("reopened").Valid())
}

func TestUserAccessors(t *testing.T) {
	org := "org-1"
	u := User{Role: "manager", OrgID: &org}
	require.Equal(t, access.RoleManager, u.CanonicalRole())
	require.Equal(t, "org-1", u.OrganizationID())

	platform := User{Role: "SUPER_ADMIN"}
	require.Equal(t, "", platform.OrganizationID())
	require.Equal(t, access.RoleSuperAdmin, platform.CanonicalRole())
}
