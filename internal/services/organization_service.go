package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/posadmin/internal/access"
	"github.com/charlesng35/posadmin/internal/models"
	apperrors "github.com/charlesng35/posadmin/pkg/errors"
)

// CreateOrganizationInput captures the attributes required to register an organization.
type CreateOrganizationInput struct {
	Name string
	Slug string
}

// OrganizationService manages tenant lifecycle operations.
type OrganizationService struct {
	db            *gorm.DB
	notifications *NotificationService
}

// NewOrganizationService constructs an OrganizationService instance.
func NewOrganizationService(db *gorm.DB, notifications *NotificationService) (*OrganizationService, error) {
	if db == nil {
		return nil, errors.New("organization service: db is required")
	}
	return &OrganizationService{
		db:            db,
		notifications: notifications,
	}, nil
}

// Create registers a new organization. Only SUPER_ADMIN may create tenants;
// the other super admins are notified.
func (s *OrganizationService) Create(ctx context.Context, actor *access.Identity, input CreateOrganizationInput) (*models.Organization, error) {
	ctx = ensureContext(ctx)

	if actor == nil || actor.Role != access.RoleSuperAdmin {
		return nil, apperrors.ErrForbidden
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}
	slug := slugify(defaultIfEmpty(input.Slug, name))
	if slug == "" {
		return nil, apperrors.NewBadRequest("slug must contain letters or digits")
	}

	org := &models.Organization{
		Name:     name,
		Slug:     slug,
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(org).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrOrganizationExists
		}
		return nil, fmt.Errorf("organization service: create organization: %w", err)
	}

	if s.notifications != nil {
		s.notifications.NotifySuperAdmins(ctx, NotificationContent{
			Title:     "Organization created",
			Message:   fmt.Sprintf("%s was added to the platform.", org.Name),
			Type:      models.NotificationSuccess,
			ActionURL: "/admin/organizations/" + org.ID,
			Metadata:  map[string]any{"organization_id": org.ID, "created_by": actor.SubjectID},
		}, actor.SubjectID)
	}

	return org, nil
}

// List returns every organization for SUPER_ADMIN and the caller's own otherwise.
func (s *OrganizationService) List(ctx context.Context, actor *access.Identity) ([]models.Organization, error) {
	ctx = ensureContext(ctx)

	if actor == nil {
		return nil, apperrors.ErrUnauthorized
	}

	query := s.db.WithContext(ctx).Model(&models.Organization{})
	if actor.Role != access.RoleSuperAdmin {
		if !actor.HasOrganization() {
			return []models.Organization{}, nil
		}
		query = query.Where("id = ?", actor.OrganizationID)
	}

	var orgs []models.Organization
	if err := query.Order("name ASC").Find(&orgs).Error; err != nil {
		return nil, fmt.Errorf("organization service: list organizations: %w", err)
	}
	return orgs, nil
}

// Get loads an organization visible to the caller.
func (s *OrganizationService) Get(ctx context.Context, actor *access.Identity, id string) (*models.Organization, error) {
	ctx = ensureContext(ctx)

	id = strings.TrimSpace(id)
	if actor == nil || (actor.Role != access.RoleSuperAdmin && !actor.SameOrganization(id)) {
		return nil, ErrOrganizationNotFound
	}

	var org models.Organization
	if err := s.db.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("organization service: get organization: %w", err)
	}
	return &org, nil
}
