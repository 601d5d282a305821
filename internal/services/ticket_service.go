package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/posadmin/internal/access"
	"github.com/charlesng35/posadmin/internal/models"
	apperrors "github.com/charlesng35/posadmin/pkg/errors"
	"github.com/charlesng35/posadmin/pkg/logger"
)

// CreateTicketInput captures a new support request.
type CreateTicketInput struct {
	Subject     string
	Description string
	Priority    models.NotificationPriority
}

// ListTicketsOptions narrows ticket listings.
type ListTicketsOptions struct {
	Status models.TicketStatus
}

// TicketService handles support tickets and the notifications they trigger.
type TicketService struct {
	db            *gorm.DB
	notifications *NotificationService
	log           *zap.Logger
}

// NewTicketService constructs a TicketService instance.
func NewTicketService(db *gorm.DB, notifications *NotificationService) (*TicketService, error) {
	if db == nil {
		return nil, errors.New("ticket service: db is required")
	}
	return &TicketService{
		db:            db,
		notifications: notifications,
		log:           logger.WithModule("tickets"),
	}, nil
}

// Create opens a ticket owned by the actor and alerts every super admin
// other than the actor.
func (s *TicketService) Create(ctx context.Context, actor *access.Identity, input CreateTicketInput) (*models.Ticket, error) {
	ctx = ensureContext(ctx)

	if actor == nil || actor.SubjectID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return nil, apperrors.NewBadRequest("subject is required")
	}
	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unsupported priority %q", priority))
	}

	ticket := &models.Ticket{
		Subject:     subject,
		Description: strings.TrimSpace(input.Description),
		Status:      models.TicketOpen,
		Priority:    priority,
		CreatedByID: actor.SubjectID,
	}
	if actor.HasOrganization() {
		org := actor.OrganizationID
		ticket.OrgID = &org
	}

	if err := s.db.WithContext(ctx).Create(ticket).Error; err != nil {
		return nil, fmt.Errorf("ticket service: create ticket: %w", err)
	}

	if s.notifications != nil {
		s.notifications.NotifySuperAdmins(ctx, NotificationContent{
			Title:       "New support ticket",
			Message:     fmt.Sprintf("%s opened %q.", defaultIfEmpty(actor.Email, actor.SubjectID), ticket.Subject),
			Type:        models.NotificationInfo,
			Priority:    ticket.Priority,
			ActionURL:   "/admin/tickets/" + ticket.ID,
			ActionLabel: "View ticket",
			Metadata:    map[string]any{"ticket_id": ticket.ID},
		}, actor.SubjectID)
	}

	return ticket, nil
}

// List returns the tickets visible to the actor, newest first. SUPER_ADMIN
// sees every ticket, ADMIN and MANAGER see their organization's and
// everyone else sees their own.
func (s *TicketService) List(ctx context.Context, actor *access.Identity, opts ListTicketsOptions) ([]models.Ticket, error) {
	ctx = ensureContext(ctx)

	if actor == nil || actor.SubjectID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	query := s.db.WithContext(ctx).Model(&models.Ticket{})
	switch {
	case actor.Role == access.RoleSuperAdmin:
	case isOrganizationStaff(actor):
		query = query.Where("organization_id = ? OR created_by_id = ?", actor.OrganizationID, actor.SubjectID)
	default:
		query = query.Where("created_by_id = ?", actor.SubjectID)
	}

	if opts.Status != "" {
		if !opts.Status.Valid() {
			return nil, apperrors.NewBadRequest(fmt.Sprintf("unsupported status %q", opts.Status))
		}
		query = query.Where("status = ?", opts.Status)
	}

	var tickets []models.Ticket
	if err := query.Order("created_at DESC").Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("ticket service: list tickets: %w", err)
	}
	return tickets, nil
}

// Get loads a ticket with its replies when the actor may see it.
func (s *TicketService) Get(ctx context.Context, actor *access.Identity, id string) (*models.Ticket, error) {
	ctx = ensureContext(ctx)

	var ticket models.Ticket
	err := s.db.WithContext(ctx).
		Preload("Replies", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC")
		}).
		First(&ticket, "id = ?", strings.TrimSpace(id)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("ticket service: get ticket: %w", err)
	}
	if !canAccessTicket(actor, &ticket) {
		return nil, ErrTicketNotFound
	}
	return &ticket, nil
}

// Reply appends a message to a ticket. A staff reply notifies the ticket
// owner; a reply by the owner notifies the super admins.
func (s *TicketService) Reply(ctx context.Context, actor *access.Identity, ticketID, message string) (*models.TicketReply, error) {
	ctx = ensureContext(ctx)

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewBadRequest("message is required")
	}

	ticket, err := s.load(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == models.TicketClosed {
		return nil, ErrTicketClosed
	}

	reply := &models.TicketReply{
		TicketID: ticket.ID,
		AuthorID: actor.SubjectID,
		Message:  message,
	}
	if err := s.db.WithContext(ctx).Create(reply).Error; err != nil {
		return nil, fmt.Errorf("ticket service: create reply: %w", err)
	}

	content := NotificationContent{
		Title:       "New reply on your ticket",
		Message:     fmt.Sprintf("There is a new reply on %q.", ticket.Subject),
		Type:        models.NotificationInfo,
		ActionURL:   "/dashboard/tickets/" + ticket.ID,
		ActionLabel: "View reply",
		Metadata:    map[string]any{"ticket_id": ticket.ID, "reply_id": reply.ID},
	}
	if actor.SubjectID == ticket.CreatedByID {
		content.Title = "Ticket updated by requester"
		content.ActionURL = "/admin/tickets/" + ticket.ID
		if s.notifications != nil {
			s.notifications.NotifySuperAdmins(ctx, content, actor.SubjectID)
		}
	} else {
		s.notifyOwner(ctx, ticket, content)
	}

	return reply, nil
}

// UpdateStatus moves a ticket to a new status. Only admin-like callers who
// can see the ticket may do so; the owner is notified of the change.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *access.Identity, ticketID string, status models.TicketStatus) (*models.Ticket, error) {
	ctx = ensureContext(ctx)

	if !status.Valid() {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unsupported status %q", status))
	}

	ticket, err := s.load(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdminLike {
		return nil, apperrors.ErrForbidden
	}
	if ticket.Status == status {
		return ticket, nil
	}

	if err := s.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("id = ?", ticket.ID).
		Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("ticket service: update status: %w", err)
	}
	ticket.Status = status

	if actor.SubjectID != ticket.CreatedByID {
		s.notifyOwner(ctx, ticket, NotificationContent{
			Title:     "Ticket status changed",
			Message:   fmt.Sprintf("%q is now %s.", ticket.Subject, strings.ReplaceAll(string(status), "_", " ")),
			Type:      statusNotificationType(status),
			ActionURL: "/dashboard/tickets/" + ticket.ID,
			Metadata:  map[string]any{"ticket_id": ticket.ID, "status": string(status)},
		})
	}

	return ticket, nil
}

func (s *TicketService) load(ctx context.Context, actor *access.Identity, ticketID string) (*models.Ticket, error) {
	if actor == nil || actor.SubjectID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	var ticket models.Ticket
	if err := s.db.WithContext(ctx).First(&ticket, "id = ?", strings.TrimSpace(ticketID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("ticket service: load ticket: %w", err)
	}
	if !canAccessTicket(actor, &ticket) {
		return nil, ErrTicketNotFound
	}
	return &ticket, nil
}

func (s *TicketService) notifyOwner(ctx context.Context, ticket *models.Ticket, content NotificationContent) {
	if s.notifications == nil {
		return
	}
	if _, err := s.notifications.Send(ctx, SendInput{RecipientUserID: ticket.CreatedByID, NotificationContent: content}); err != nil {
		s.log.Warn("notification delivery failed",
			zap.String("ticket_id", ticket.ID),
			zap.String("recipient_user_id", ticket.CreatedByID),
			zap.Error(err),
		)
	}
}

func canAccessTicket(actor *access.Identity, ticket *models.Ticket) bool {
	if actor == nil || ticket == nil {
		return false
	}
	if actor.Role == access.RoleSuperAdmin || ticket.CreatedByID == actor.SubjectID {
		return true
	}
	return isOrganizationStaff(actor) && actor.SameOrganization(ticket.OrganizationID())
}

func isOrganizationStaff(actor *access.Identity) bool {
	return (actor.Role == access.RoleAdmin || actor.Role == access.RoleManager) && actor.HasOrganization()
}

func statusNotificationType(status models.TicketStatus) models.NotificationType {
	switch status {
	case models.TicketResolved:
		return models.NotificationSuccess
	case models.TicketClosed:
		return models.NotificationWarning
	default:
		return models.NotificationInfo
	}
}
