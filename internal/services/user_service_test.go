package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/charlesng35/posadmin/internal/access"
	"github.com/charlesng35/posadmin/internal/auth"
	"github.com/charlesng35/posadmin/internal/database/testutil"
	"github.com/charlesng35/posadmin/internal/models"
	apperrors "github.com/charlesng35/posadmin/pkg/errors"
)

func newUserService(t *testing.T, db *gorm.DB) *UserService {
	t.Helper()
	notifications, err := NewNotificationService(db)
	require.NoError(t, err)
	svc, err := NewUserService(db, notifications, bcrypt.MinCost)
	require.NoError(t, err)
	return svc
}

func TestUserServiceAuthenticate(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := newUserService(t, db)
	ctx := context.Background()

	user := testutil.MustCreateUser(t, db, "cashier", access.RoleUser, "")
	hash, err := auth.HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("password_hash", hash).Error)

	got, err := svc.Authenticate(ctx, "  CASHIER@example.com ", "correct horse")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.NotNil(t, got.LastLoginAt)

	_, err = svc.Authenticate(ctx, "cashier@example.com", "wrong password")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "correct horse")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	testutil.MustDeactivateUser(t, db, user.ID)
	_, err = svc.Authenticate(ctx, "cashier@example.com", "correct horse")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestUserServiceEnrollNotifiesNewUserAndAdmins(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := newUserService(t, db)
	ctx := context.Background()

	testutil.MustCreateOrganization(t, db, "org-1", "Corner Shop")
	actor := testutil.MustCreateUser(t, db, "admin-1", access.RoleAdmin, "org-1")
	other := testutil.MustCreateUser(t, db, "admin-2", access.RoleAdmin, "org-1")

	user, err := svc.Enroll(ctx, identityFor(actor), EnrollUserInput{
		OrganizationID: "org-1",
		Email:          "New.Hire@Example.com",
		Password:       "s3cret-pass",
		Role:           "manager",
	})
	require.NoError(t, err)
	require.Equal(t, "new.hire@example.com", user.Email)
	require.Equal(t, "MANAGER", user.Role)
	require.Equal(t, "org-1", user.OrganizationID())

	ok, err := auth.VerifyPassword(user.PasswordHash, "s3cret-pass")
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, []string{"Welcome to Corner Shop"}, notificationTitles(t, db, user.ID))
	require.Equal(t, []string{"New team member"}, notificationTitles(t, db, other.ID))
	require.Empty(t, notificationTitles(t, db, actor.ID))
}

func TestUserServiceEnrollAuthorization(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := newUserService(t, db)
	ctx := context.Background()

	testutil.MustCreateOrganization(t, db, "org-1", "Corner Shop")
	testutil.MustCreateOrganization(t, db, "org-2", "Bakery")
	root := testutil.MustCreateUser(t, db, "root", access.RoleSuperAdmin, "")
	foreignAdmin := testutil.MustCreateUser(t, db, "admin-2", access.RoleAdmin, "org-2")
	manager := testutil.MustCreateUser(t, db, "manager-1", access.RoleManager, "org-1")

	input := EnrollUserInput{OrganizationID: "org-1", Email: "x@example.com", Password: "password1", Role: "USER"}

	_, err := svc.Enroll(ctx, identityFor(foreignAdmin), input)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.Enroll(ctx, identityFor(manager), input)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	bad := input
	bad.Role = "SUPER_ADMIN"
	_, err = svc.Enroll(ctx, identityFor(root), bad)
	require.ErrorIs(t, err, apperrors.ErrBadRequest)

	short := input
	short.Password = "short"
	_, err = svc.Enroll(ctx, identityFor(root), short)
	require.ErrorIs(t, err, apperrors.ErrBadRequest)

	missing := input
	missing.OrganizationID = "org-404"
	_, err = svc.Enroll(ctx, identityFor(root), missing)
	require.ErrorIs(t, err, ErrOrganizationNotFound)

	_, err = svc.Enroll(ctx, identityFor(root), input)
	require.NoError(t, err)

	_, err = svc.Enroll(ctx, identityFor(root), input)
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestUserServiceListByOrganization(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := newUserService(t, db)
	ctx := context.Background()

	testutil.MustCreateOrganization(t, db, "org-1", "Corner Shop")
	testutil.MustCreateOrganization(t, db, "org-2", "Bakery")
	admin := testutil.MustCreateUser(t, db, "admin-1", access.RoleAdmin, "org-1")
	testutil.MustCreateUser(t, db, "user-1", access.RoleUser, "org-1")
	outsider := testutil.MustCreateUser(t, db, "admin-2", access.RoleAdmin, "org-2")
	root := testutil.MustCreateUser(t, db, "root", access.RoleSuperAdmin, "")

	users, err := svc.ListByOrganization(ctx, identityFor(admin), "org-1")
	require.NoError(t, err)
	require.Len(t, users, 2)

	users, err = svc.ListByOrganization(ctx, identityFor(root), "org-1")
	require.NoError(t, err)
	require.Len(t, users, 2)

	_, err = svc.ListByOrganization(ctx, identityFor(outsider), "org-1")
	require.ErrorIs(t, err, ErrOrganizationNotFound)
}

func TestUserServiceUpdateRole(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := newUserService(t, db)
	ctx := context.Background()

	testutil.MustCreateOrganization(t, db, "org-1", "Corner Shop")
	testutil.MustCreateOrganization(t, db, "org-2", "Bakery")
	admin := testutil.MustCreateUser(t, db, "admin-1", access.RoleAdmin, "org-1")
	member := testutil.MustCreateUser(t, db, "user-1", access.RoleUser, "org-1")
	outsider := testutil.MustCreateUser(t, db, "admin-2", access.RoleAdmin, "org-2")

	_, err := svc.UpdateRole(ctx, identityFor(outsider), member.ID, "MANAGER")
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.UpdateRole(ctx, identityFor(admin), admin.ID, "USER")
	require.ErrorIs(t, err, apperrors.ErrBadRequest)

	_, err = svc.UpdateRole(ctx, identityFor(admin), member.ID, "OWNER")
	require.ErrorIs(t, err, apperrors.ErrBadRequest)

	updated, err := svc.UpdateRole(ctx, identityFor(admin), member.ID, "manager")
	require.NoError(t, err)
	require.Equal(t, access.RoleManager, updated.CanonicalRole())
	require.Equal(t, []string{"Your role changed"}, notificationTitles(t, db, member.ID))

	reloaded, err := svc.GetByID(ctx, member.ID)
	require.NoError(t, err)
	require.Equal(t, "MANAGER", reloaded.Role)

	_, err = svc.GetByID(ctx, "missing")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserServiceSendDirectScopesRecipients(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := newUserService(t, db)
	ctx := context.Background()

	testutil.MustCreateOrganization(t, db, "org-a", "Corner Shop")
	testutil.MustCreateOrganization(t, db, "org-b", "Harbour Deli")
	admin := testutil.MustCreateUser(t, db, "admin-a", access.RoleAdmin, "org-a")
	local := testutil.MustCreateUser(t, db, "cashier-a", access.RoleUser, "org-a")
	foreign := testutil.MustCreateUser(t, db, "cashier-b", access.RoleUser, "org-b")
	retired := testutil.MustCreateUser(t, db, "retired-a", access.RoleUser, "org-a")
	testutil.MustDeactivateUser(t, db, retired.ID)
	root := testutil.MustCreateUser(t, db, "root", access.RoleSuperAdmin, "")

	send := func(actor *models.User, recipient, actionURL string) (*NotificationDTO, error) {
		return svc.SendDirect(ctx, identityFor(actor), SendInput{
			RecipientUserID:     recipient,
			NotificationContent: NotificationContent{Title: "Stock count", ActionURL: actionURL},
		})
	}

	dto, err := send(admin, local.ID, " /dashboard ")
	require.NoError(t, err)
	require.Equal(t, local.ID, dto.RecipientUserID)
	require.Equal(t, "/dashboard", dto.ActionURL)

	for _, recipient := range []string{foreign.ID, retired.ID, "missing"} {
		_, err = send(admin, recipient, "")
		require.ErrorIs(t, err, ErrUserNotFound, recipient)
	}

	_, err = send(admin, local.ID, "https://evil.example")
	require.ErrorIs(t, err, apperrors.ErrBadRequest)

	_, err = send(local, admin.ID, "")
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = send(root, foreign.ID, "")
	require.NoError(t, err)

	require.Len(t, notificationTitles(t, db, local.ID), 1)
	require.Len(t, notificationTitles(t, db, foreign.ID), 1)
	require.Empty(t, notificationTitles(t, db, retired.ID))
}
