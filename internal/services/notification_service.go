package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/posadmin/internal/access"
	"github.com/charlesng35/posadmin/internal/models"
	apperrors "github.com/charlesng35/posadmin/pkg/errors"
	"github.com/charlesng35/posadmin/pkg/logger"
	"github.com/charlesng35/posadmin/pkg/metrics"
)

// NotificationDTO represents the API-friendly notification payload.
type NotificationDTO struct {
	ID              string                      `json:"id"`
	RecipientUserID string                      `json:"recipient_user_id"`
	Title           string                      `json:"title"`
	Message         string                      `json:"message"`
	Type            models.NotificationType     `json:"type"`
	Priority        models.NotificationPriority `json:"priority"`
	Read            bool                        `json:"read"`
	ActionURL       string                      `json:"action_url,omitempty"`
	ActionLabel     string                      `json:"action_label,omitempty"`
	Metadata        map[string]any              `json:"metadata,omitempty"`
	CreatedAt       time.Time                   `json:"created_at"`
}

// NotificationContent is the displayable part of a notification.
type NotificationContent struct {
	Title       string
	Message     string
	Type        models.NotificationType
	Priority    models.NotificationPriority
	ActionURL   string
	ActionLabel string
	Metadata    map[string]any
}

// SendInput addresses a notification to a single user.
type SendInput struct {
	RecipientUserID string
	NotificationContent
}

// RoleTarget selects the recipients of a broadcast. An empty OrganizationID
// targets every organization.
type RoleTarget struct {
	Roles          []access.Role
	OrganizationID string
}

// BroadcastInput addresses a notification to every active user matching Target.
type BroadcastInput struct {
	Target         RoleTarget
	ExcludeUserIDs []string
	NotificationContent
}

// DeliveryReport summarises a broadcast. Err aggregates every failure.
type DeliveryReport struct {
	Recipients int
	Delivered  []string
	Failed     []string
	Err        error
}

// NotificationFilter narrows list queries.
type NotificationFilter string

const (
	FilterAll    NotificationFilter = "all"
	FilterUnread NotificationFilter = "unread"
)

// ParseNotificationFilter maps a query value onto a filter; empty means all.
func ParseNotificationFilter(raw string) (NotificationFilter, error) {
	switch NotificationFilter(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterUnread:
		return FilterUnread, nil
	default:
		return "", apperrors.NewBadRequest("filter must be one of: all, unread")
	}
}

// NotificationService persists notifications and tracks their read state.
type NotificationService struct {
	db       *gorm.DB
	log      *zap.Logger
	now      func() time.Time
	location *time.Location
}

// NotificationOption customises the NotificationService.
type NotificationOption func(*NotificationService)

// WithNotificationClock overrides the clock used for recency grouping.
func WithNotificationClock(now func() time.Time) NotificationOption {
	return func(s *NotificationService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithNotificationLocation sets the time zone that defines "today".
func WithNotificationLocation(loc *time.Location) NotificationOption {
	return func(s *NotificationService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(db *gorm.DB, opts ...NotificationOption) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	svc := &NotificationService{
		db:       db,
		log:      logger.WithModule("notifications"),
		now:      time.Now,
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Send inserts exactly one unread notification for the recipient. Repeated
// calls create repeated rows.
func (s *NotificationService) Send(ctx context.Context, input SendInput) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)

	recipient := strings.TrimSpace(input.RecipientUserID)
	if recipient == "" {
		return nil, apperrors.NewBadRequest("recipient user id is required")
	}

	row, err := buildNotification(recipient, input.NotificationContent)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		metrics.NotificationsDelivered.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("notification service: create notification: %w", err)
	}

	metrics.NotificationsDelivered.WithLabelValues("delivered").Inc()
	dto := mapNotification(*row)
	return &dto, nil
}

// Broadcast expands a role target into one notification per matching active
// user at call time. A failure for one recipient does not stop delivery to
// the others; failures are logged and collected in the report.
func (s *NotificationService) Broadcast(ctx context.Context, input BroadcastInput) DeliveryReport {
	ctx = ensureContext(ctx)

	var report DeliveryReport
	recipients, err := s.resolveRecipients(ctx, input.Target, input.ExcludeUserIDs)
	if err != nil {
		report.Err = err
		s.log.Warn("broadcast recipient lookup failed",
			zap.Strings("roles", roleStrings(input.Target.Roles)),
			zap.String("organization_id", input.Target.OrganizationID),
			zap.Error(err),
		)
		return report
	}

	report.Recipients = len(recipients)
	for _, recipient := range recipients {
		dto, sendErr := s.Send(ctx, SendInput{
			RecipientUserID:     recipient,
			NotificationContent: input.NotificationContent,
		})
		if sendErr != nil {
			report.Failed = append(report.Failed, recipient)
			report.Err = multierr.Append(report.Err, fmt.Errorf("recipient %s: %w", recipient, sendErr))
			s.log.Warn("notification delivery failed",
				zap.String("recipient_user_id", recipient),
				zap.String("title", input.Title),
				zap.Error(sendErr),
			)
			continue
		}
		report.Delivered = append(report.Delivered, dto.ID)
	}

	return report
}

// NotifySuperAdmins broadcasts to every active SUPER_ADMIN except the excluded users.
func (s *NotificationService) NotifySuperAdmins(ctx context.Context, content NotificationContent, exclude ...string) DeliveryReport {
	return s.Broadcast(ctx, BroadcastInput{
		Target:              RoleTarget{Roles: []access.Role{access.RoleSuperAdmin}},
		ExcludeUserIDs:      exclude,
		NotificationContent: content,
	})
}

// NotifyOrganizationAdmins broadcasts to the ADMIN users of one organization
// except the excluded users.
func (s *NotificationService) NotifyOrganizationAdmins(ctx context.Context, organizationID string, content NotificationContent, exclude ...string) DeliveryReport {
	if strings.TrimSpace(organizationID) == "" {
		return DeliveryReport{}
	}
	return s.Broadcast(ctx, BroadcastInput{
		Target:              RoleTarget{Roles: []access.Role{access.RoleAdmin}, OrganizationID: organizationID},
		ExcludeUserIDs:      exclude,
		NotificationContent: content,
	})
}

// MarkRead flips a notification owned by userID to read. Marking an already
// read notification succeeds without changes. Notifications owned by other
// users are reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)

	row, err := s.loadOwned(ctx, userID, notificationID)
	if err != nil {
		return nil, err
	}

	if !row.Read {
		if err := s.db.WithContext(ctx).
			Model(&models.Notification{}).
			Where("id = ? AND recipient_user_id = ?", row.ID, row.RecipientUserID).
			Update("is_read", true).Error; err != nil {
			return nil, fmt.Errorf("notification service: mark read: %w", err)
		}
		row.Read = true
	}

	dto := mapNotification(*row)
	return &dto, nil
}

// MarkAllRead flips every unread notification of userID and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, apperrors.ErrUnauthorized
	}

	result := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("notification service: mark all read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Delete permanently removes a notification owned by userID.
func (s *NotificationService) Delete(ctx context.Context, userID, notificationID string) error {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	notificationID = strings.TrimSpace(notificationID)
	if userID == "" {
		return apperrors.ErrUnauthorized
	}
	if notificationID == "" {
		return apperrors.ErrNotFound
	}

	result := s.db.WithContext(ctx).
		Where("id = ? AND recipient_user_id = ?", notificationID, userID).
		Delete(&models.Notification{})
	if result.Error != nil {
		return fmt.Errorf("notification service: delete notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UnreadCount counts the unread notifications of userID at query time.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	ctx = ensureContext(ctx)

	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_user_id = ? AND is_read = ?", strings.TrimSpace(userID), false).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("notification service: unread count: %w", err)
	}
	return count, nil
}

// List returns the notifications of userID newest first.
func (s *NotificationService) List(ctx context.Context, userID string, filter NotificationFilter) ([]NotificationDTO, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	query := s.db.WithContext(ctx).Where("recipient_user_id = ?", userID)
	if filter == FilterUnread {
		query = query.Where("is_read = ?", false)
	}

	var rows []models.Notification
	if err := query.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("notification service: list notifications: %w", err)
	}
	return mapNotificationRows(rows), nil
}

// Feed returns the notifications of userID grouped by recency together with
// the current unread count.
func (s *NotificationService) Feed(ctx context.Context, userID string, filter NotificationFilter) (*NotificationFeed, error) {
	items, err := s.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	unread, err := s.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &NotificationFeed{
		Groups:      GroupByRecency(items, s.now(), s.location),
		Total:       len(items),
		UnreadCount: unread,
	}, nil
}

func (s *NotificationService) loadOwned(ctx context.Context, userID, notificationID string) (*models.Notification, error) {
	userID = strings.TrimSpace(userID)
	notificationID = strings.TrimSpace(notificationID)
	if userID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	if notificationID == "" {
		return nil, apperrors.ErrNotFound
	}

	var row models.Notification
	if err := s.db.WithContext(ctx).
		Where("id = ? AND recipient_user_id = ?", notificationID, userID).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("notification service: load notification: %w", err)
	}
	return &row, nil
}

func (s *NotificationService) resolveRecipients(ctx context.Context, target RoleTarget, exclude []string) ([]string, error) {
	if len(target.Roles) == 0 {
		return nil, errors.New("notification service: broadcast requires at least one role")
	}

	query := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("is_active = ?", true).
		Where("role IN ?", roleStrings(target.Roles))
	if org := strings.TrimSpace(target.OrganizationID); org != "" {
		query = query.Where("organization_id = ?", org)
	}
	if ids := normaliseIDs(exclude); len(ids) > 0 {
		query = query.Where("id NOT IN ?", ids)
	}

	var ids []string
	if err := query.Order("created_at ASC").Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("notification service: resolve recipients: %w", err)
	}
	return ids, nil
}

func buildNotification(recipient string, content NotificationContent) (*models.Notification, error) {
	title := strings.TrimSpace(content.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}

	kind := content.Type
	if kind == "" {
		kind = models.NotificationInfo
	}
	if !kind.Valid() {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unsupported notification type %q", kind))
	}

	priority := content.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unsupported notification priority %q", priority))
	}

	row := &models.Notification{
		RecipientUserID: recipient,
		Title:           title,
		Message:         strings.TrimSpace(content.Message),
		Type:            kind,
		Priority:        priority,
		ActionURL:       strings.TrimSpace(content.ActionURL),
		ActionLabel:     strings.TrimSpace(content.ActionLabel),
	}

	if len(content.Metadata) > 0 {
		data, err := json.Marshal(content.Metadata)
		if err != nil {
			return nil, fmt.Errorf("notification service: marshal metadata: %w", err)
		}
		row.Metadata = datatypes.JSON(data)
	}
	return row, nil
}

func mapNotificationRows(rows []models.Notification) []NotificationDTO {
	items := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapNotification(row))
	}
	return items
}

func mapNotification(row models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:              row.ID,
		RecipientUserID: row.RecipientUserID,
		Title:           row.Title,
		Message:         row.Message,
		Type:            row.Type,
		Priority:        row.Priority,
		Read:            row.Read,
		ActionURL:       row.ActionURL,
		ActionLabel:     row.ActionLabel,
		Metadata:        decodeJSON(row.Metadata),
		CreatedAt:       row.CreatedAt,
	}
}

func decodeJSON(data datatypes.JSON) map[string]any {
	if len(data) == 0 {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

func roleStrings(roles []access.Role) []string {
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		out = append(out, role.String())
	}
	return out
}
