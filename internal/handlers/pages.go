package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/posadmin/internal/middleware"
	"github.com/charlesng35/posadmin/pkg/response"
)

// PageHandler answers the redirect targets the gatekeeper points browsers at.
// The UI itself is served elsewhere; these placeholders only describe the page.
type PageHandler struct {
	callbackParam string
}

func NewPageHandler(callbackParam string) *PageHandler {
	if strings.TrimSpace(callbackParam) == "" {
		callbackParam = "callbackUrl"
	}
	return &PageHandler{callbackParam: callbackParam}
}

type pagePayload struct {
	Page         string `json:"page"`
	CallbackURL  string `json:"callback_url,omitempty"`
	Organization string `json:"organization_id,omitempty"`
	Role         string `json:"role,omitempty"`
}

// Login describes the sign-in page and the sanitized return path.
func (h *PageHandler) Login(c *gin.Context) {
	payload := pagePayload{Page: "login"}
	if raw := c.Query(h.callbackParam); raw != "" {
		payload.CallbackURL = safeCallback(raw)
	}
	response.Success(c, http.StatusOK, payload)
}

// Onboarding serves /onboarding/*path.
func (h *PageHandler) Onboarding(c *gin.Context) {
	payload := pagePayload{
		Page:         "onboarding",
		Organization: strings.Trim(c.Param("path"), "/"),
	}
	if identity, ok := middleware.IdentityFromContext(c); ok {
		payload.Role = identity.Role.String()
	}
	response.Success(c, http.StatusOK, payload)
}

// Static returns a handler for a named page with no parameters.
func (h *PageHandler) Static(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload := pagePayload{Page: name}
		if identity, ok := middleware.IdentityFromContext(c); ok {
			payload.Role = identity.Role.String()
			payload.Organization = identity.OrganizationID
		}
		response.Success(c, http.StatusOK, payload)
	}
}
