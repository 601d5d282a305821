package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/posadmin/internal/services"
	"github.com/charlesng35/posadmin/pkg/response"
)

type OrganizationHandler struct {
	svc *services.OrganizationService
}

func NewOrganizationHandler(svc *services.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{svc: svc}
}

type createOrganizationRequest struct {
	Name string `json:"name" validate:"required,notblank,min=2,max=128"`
	Slug string `json:"slug" validate:"omitempty,max=64"`
}

// GET /api/organizations
func (h *OrganizationHandler) List(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	orgs, err := h.svc.List(requestContext(c), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, orgs, &response.Meta{Total: len(orgs)})
}

// GET /api/organizations/:id
func (h *OrganizationHandler) Get(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	org, err := h.svc.Get(requestContext(c), identity, strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, org)
}

// POST /api/organizations
func (h *OrganizationHandler) Create(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var body createOrganizationRequest
	if !bindAndValidate(c, &body) {
		return
	}

	org, err := h.svc.Create(requestContext(c), identity, services.CreateOrganizationInput{
		Name: strings.TrimSpace(body.Name),
		Slug: strings.TrimSpace(body.Slug),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, org)
}
