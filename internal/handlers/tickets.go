package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/posadmin/internal/models"
	"github.com/charlesng35/posadmin/internal/services"
	"github.com/charlesng35/posadmin/pkg/response"
)

// TicketHandler serves the support ticket endpoints.
type TicketHandler struct {
	svc *services.TicketService
}

func NewTicketHandler(svc *services.TicketService) *TicketHandler {
	return &TicketHandler{svc: svc}
}

type createTicketRequest struct {
	Subject     string `json:"subject" validate:"required,notblank,max=200"`
	Description string `json:"description" validate:"max=10000"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high"`
}

type replyTicketRequest struct {
	Message string `json:"message" validate:"required,notblank,max=10000"`
}

type updateTicketStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// POST /api/tickets
func (h *TicketHandler) Create(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var body createTicketRequest
	if !bindAndValidate(c, &body) {
		return
	}

	ticket, err := h.svc.Create(requestContext(c), identity, services.CreateTicketInput{
		Subject:     strings.TrimSpace(body.Subject),
		Description: strings.TrimSpace(body.Description),
		Priority:    models.NotificationPriority(body.Priority),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, ticket)
}

// GET /api/tickets
func (h *TicketHandler) List(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	tickets, err := h.svc.List(requestContext(c), identity, services.ListTicketsOptions{
		Status: models.TicketStatus(strings.TrimSpace(c.Query("status"))),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, tickets, &response.Meta{Total: len(tickets)})
}

// GET /api/tickets/:id
func (h *TicketHandler) Get(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	ticket, err := h.svc.Get(requestContext(c), identity, strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, ticket)
}

// POST /api/tickets/:id/replies
func (h *TicketHandler) Reply(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var body replyTicketRequest
	if !bindAndValidate(c, &body) {
		return
	}

	reply, err := h.svc.Reply(requestContext(c), identity, strings.TrimSpace(c.Param("id")), strings.TrimSpace(body.Message))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, reply)
}

// PATCH /api/tickets/:id/status
func (h *TicketHandler) UpdateStatus(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var body updateTicketStatusRequest
	if !bindAndValidate(c, &body) {
		return
	}

	ticket, err := h.svc.UpdateStatus(requestContext(c), identity, strings.TrimSpace(c.Param("id")), models.TicketStatus(strings.TrimSpace(body.Status)))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, ticket)
}
