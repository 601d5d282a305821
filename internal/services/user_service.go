package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/posadmin/internal/access"
	"github.com/charlesng35/posadmin/internal/auth"
	"github.com/charlesng35/posadmin/internal/models"
	apperrors "github.com/charlesng35/posadmin/pkg/errors"
	"github.com/charlesng35/posadmin/pkg/logger"
)

// EnrollUserInput describes a staff account added to an organization.
type EnrollUserInput struct {
	OrganizationID string
	Email          string
	Name           string
	Password       string
	Role           string
}

// UserService manages staff accounts and credential checks.
type UserService struct {
	db            *gorm.DB
	notifications *NotificationService
	bcryptCost    int
	log           *zap.Logger
	now           func() time.Time
}

// NewUserService constructs a UserService instance. A zero bcryptCost selects the bcrypt default.
func NewUserService(db *gorm.DB, notifications *NotificationService, bcryptCost int) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{
		db:            db,
		notifications: notifications,
		bcryptCost:    bcryptCost,
		log:           logger.WithModule("users"),
		now:           time.Now,
	}, nil
}

// Authenticate checks an email and password pair. Unknown emails, inactive
// accounts and wrong passwords all yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	ctx = ensureContext(ctx)

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("user service: load user: %w", err)
	}
	if !user.IsActive {
		return nil, apperrors.ErrInvalidCredentials
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("user service: verify password: %w", err)
	}
	if !ok {
		return nil, apperrors.ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", user.ID).
		UpdateColumn("last_login_at", now).Error; err != nil {
		s.log.Warn("failed to record last login", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLoginAt = &now
	}

	return &user, nil
}

// GetByID loads an active or inactive user by identifier.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}

// Enroll creates a staff account inside an organization. Only SUPER_ADMIN or
// an ADMIN of the same organization may enroll. The new user receives a
// welcome notification and the organization's other admins are told.
func (s *UserService) Enroll(ctx context.Context, actor *access.Identity, input EnrollUserInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	orgID := strings.TrimSpace(input.OrganizationID)
	if !canManageOrganization(actor, orgID) {
		return nil, apperrors.ErrForbidden
	}

	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	role := access.NormalizeRole(input.Role)
	if !role.Assignable() {
		return nil, apperrors.NewBadRequest("role must be one of: ADMIN, MANAGER, USER")
	}

	org, err := s.loadOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	hashed, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, apperrors.NewBadRequest(err.Error())
		}
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Name:         defaultIfEmpty(strings.TrimSpace(input.Name), email),
		PasswordHash: hashed,
		Role:         role.String(),
		OrgID:        &org.ID,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}

	s.notifyUser(ctx, SendInput{
		RecipientUserID: user.ID,
		NotificationContent: NotificationContent{
			Title:     fmt.Sprintf("Welcome to %s", org.Name),
			Message:   fmt.Sprintf("Your account was created with the %s role.", role),
			Type:      models.NotificationSuccess,
			ActionURL: "/dashboard",
		},
	})
	if s.notifications != nil {
		s.notifications.NotifyOrganizationAdmins(ctx, org.ID, NotificationContent{
			Title:    "New team member",
			Message:  fmt.Sprintf("%s joined %s as %s.", user.Email, org.Name, role),
			Type:     models.NotificationInfo,
			Metadata: map[string]any{"user_id": user.ID},
		}, actor.SubjectID, user.ID)
	}

	return user, nil
}

// ListByOrganization returns the staff of one organization, oldest first.
func (s *UserService) ListByOrganization(ctx context.Context, actor *access.Identity, organizationID string) ([]models.User, error) {
	ctx = ensureContext(ctx)

	organizationID = strings.TrimSpace(organizationID)
	if actor == nil || (actor.Role != access.RoleSuperAdmin && !actor.SameOrganization(organizationID)) {
		return nil, ErrOrganizationNotFound
	}

	var users []models.User
	if err := s.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("created_at ASC").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("user service: list users: %w", err)
	}
	return users, nil
}

// UpdateRole changes the role of an organization member and tells them about it.
func (s *UserService) UpdateRole(ctx context.Context, actor *access.Identity, userID, rawRole string) (*models.User, error) {
	ctx = ensureContext(ctx)

	role := access.NormalizeRole(rawRole)
	if !role.Assignable() {
		return nil, apperrors.NewBadRequest("role must be one of: ADMIN, MANAGER, USER")
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !canManageOrganization(actor, user.OrganizationID()) {
		return nil, ErrUserNotFound
	}
	if actor.SubjectID == user.ID {
		return nil, apperrors.NewBadRequest("you cannot change your own role")
	}
	if user.CanonicalRole() == role {
		return user, nil
	}

	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("role", role.String()).Error; err != nil {
		return nil, fmt.Errorf("user service: update role: %w", err)
	}
	user.Role = role.String()

	s.notifyUser(ctx, SendInput{
		RecipientUserID: user.ID,
		NotificationContent: NotificationContent{
			Title:    "Your role changed",
			Message:  fmt.Sprintf("You now have the %s role. Sign in again to pick up the change.", role),
			Type:     models.NotificationWarning,
			Priority: models.PriorityHigh,
		},
	})

	return user, nil
}

// SendDirect delivers a manual notification from an admin-like actor. The
// recipient must be an active user of the actor's organization unless the
// actor is SUPER_ADMIN; anyone else looks missing. Action links must stay on
// this site.
func (s *UserService) SendDirect(ctx context.Context, actor *access.Identity, input SendInput) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)

	if actor == nil || !actor.IsAdminLike {
		return nil, apperrors.ErrForbidden
	}
	if s.notifications == nil {
		return nil, errors.New("user service: notifications are not configured")
	}

	input.ActionURL = strings.TrimSpace(input.ActionURL)
	if input.ActionURL != "" && !access.IsLocalPath(input.ActionURL) {
		return nil, apperrors.NewBadRequest("action_url must be a path on this site")
	}

	recipient, err := s.GetByID(ctx, input.RecipientUserID)
	if err != nil {
		return nil, err
	}
	if !recipient.IsActive {
		return nil, ErrUserNotFound
	}
	if actor.Role != access.RoleSuperAdmin && !actor.SameOrganization(recipient.OrganizationID()) {
		return nil, ErrUserNotFound
	}

	input.RecipientUserID = recipient.ID
	return s.notifications.Send(ctx, input)
}

func (s *UserService) loadOrganization(ctx context.Context, id string) (*models.Organization, error) {
	var org models.Organization
	if err := s.db.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("user service: load organization: %w", err)
	}
	if !org.IsActive {
		return nil, ErrOrganizationNotFound
	}
	return &org, nil
}

func (s *UserService) notifyUser(ctx context.Context, input SendInput) {
	if s.notifications == nil {
		return
	}
	if _, err := s.notifications.Send(ctx, input); err != nil {
		s.log.Warn("notification delivery failed",
			zap.String("recipient_user_id", input.RecipientUserID),
			zap.Error(err),
		)
	}
}

// canManageOrganization is true for SUPER_ADMIN and for an ADMIN of organizationID.
func canManageOrganization(actor *access.Identity, organizationID string) bool {
	if actor == nil || organizationID == "" {
		return false
	}
	if actor.Role == access.RoleSuperAdmin {
		return true
	}
	return actor.Role == access.RoleAdmin && actor.SameOrganization(organizationID)
}
