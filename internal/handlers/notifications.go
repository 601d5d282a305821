package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/posadmin/internal/models"
	"github.com/charlesng35/posadmin/internal/services"
	"github.com/charlesng35/posadmin/pkg/response"
)

// NotificationHandler exposes HTTP endpoints for notifications.
type NotificationHandler struct {
	service *services.NotificationService
	users   *services.UserService
}

// NewNotificationHandler constructs a notification handler. Manual sends are
// scoped through users.
func NewNotificationHandler(service *services.NotificationService, users *services.UserService) *NotificationHandler {
	return &NotificationHandler{service: service, users: users}
}

// List returns the caller's notifications grouped by recency.
func (h *NotificationHandler) List(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	filter, err := services.ParseNotificationFilter(c.Query("filter"))
	if err != nil {
		response.Error(c, err)
		return
	}

	feed, err := h.service.Feed(requestContext(c), identity.SubjectID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, feed, &response.Meta{
		Total:       feed.Total,
		UnreadCount: int(feed.UnreadCount),
	})
}

// UnreadCount returns the number of unread notifications.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	count, err := h.service.UnreadCount(requestContext(c), identity.SubjectID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"count": count})
}

// MarkRead flips one notification to read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	dto, err := h.service.MarkRead(requestContext(c), identity.SubjectID, strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, dto)
}

// MarkAllRead marks all notifications read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	updated, err := h.service.MarkAllRead(requestContext(c), identity.SubjectID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"updated": updated})
}

// Delete removes a notification.
func (h *NotificationHandler) Delete(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	if err := h.service.Delete(requestContext(c), identity.SubjectID, strings.TrimSpace(c.Param("id"))); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

type createNotificationRequest struct {
	UserID      string         `json:"user_id" validate:"required"`
	Title       string         `json:"title" validate:"required,notblank,max=255"`
	Message     string         `json:"message"`
	Type        string         `json:"type" validate:"omitempty,oneof=info success warning error"`
	Priority    string         `json:"priority" validate:"omitempty,oneof=low medium high"`
	ActionURL   string         `json:"action_url"`
	ActionLabel string         `json:"action_label" validate:"max=64"`
	Metadata    map[string]any `json:"metadata"`
}

// Create sends a manual notification to a single member of the caller's organization.
func (h *NotificationHandler) Create(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var payload createNotificationRequest
	if !bindAndValidate(c, &payload) {
		return
	}

	dto, err := h.users.SendDirect(requestContext(c), identity, services.SendInput{
		RecipientUserID: payload.UserID,
		NotificationContent: services.NotificationContent{
			Title:       payload.Title,
			Message:     payload.Message,
			Type:        models.NotificationType(payload.Type),
			Priority:    models.NotificationPriority(payload.Priority),
			ActionURL:   payload.ActionURL,
			ActionLabel: payload.ActionLabel,
			Metadata:    payload.Metadata,
		},
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, dto)
}
