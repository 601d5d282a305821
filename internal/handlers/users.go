package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/posadmin/internal/models"
	"github.com/charlesng35/posadmin/internal/services"
	"github.com/charlesng35/posadmin/pkg/response"
)

type UserHandler struct {
	svc *services.UserService
}

func NewUserHandler(svc *services.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

type enrollUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,notblank,max=128"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required"`
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type userDTO struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	OrganizationID string `json:"organization_id,omitempty"`
	IsActive       bool   `json:"is_active"`
}

func toUserDTO(user *models.User) userDTO {
	return userDTO{
		ID:             user.ID,
		Email:          user.Email,
		Name:           user.Name,
		Role:           user.CanonicalRole().String(),
		OrganizationID: user.OrganizationID(),
		IsActive:       user.IsActive,
	}
}

// GET /api/organizations/:id/users
func (h *UserHandler) ListByOrganization(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	users, err := h.svc.ListByOrganization(requestContext(c), identity, strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]userDTO, 0, len(users))
	for i := range users {
		out = append(out, toUserDTO(&users[i]))
	}
	response.SuccessWithMeta(c, http.StatusOK, out, &response.Meta{Total: len(out)})
}

// POST /api/organizations/:id/users
func (h *UserHandler) Enroll(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var body enrollUserRequest
	if !bindAndValidate(c, &body) {
		return
	}

	user, err := h.svc.Enroll(requestContext(c), identity, services.EnrollUserInput{
		OrganizationID: strings.TrimSpace(c.Param("id")),
		Email:          body.Email,
		Name:           strings.TrimSpace(body.Name),
		Password:       body.Password,
		Role:           body.Role,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, toUserDTO(user))
}

// PATCH /api/users/:id/role
func (h *UserHandler) UpdateRole(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var body updateRoleRequest
	if !bindAndValidate(c, &body) {
		return
	}

	user, err := h.svc.UpdateRole(requestContext(c), identity, strings.TrimSpace(c.Param("id")), body.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserDTO(user))
}
