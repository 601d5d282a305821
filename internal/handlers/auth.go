package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/posadmin/internal/access"
	iauth "github.com/charlesng35/posadmin/internal/auth"
	"github.com/charlesng35/posadmin/internal/middleware"
	"github.com/charlesng35/posadmin/internal/services"
	"github.com/charlesng35/posadmin/pkg/errors"
	"github.com/charlesng35/posadmin/pkg/metrics"
	"github.com/charlesng35/posadmin/pkg/response"
)

// CookieSettings controls the session cookie written on login.
type CookieSettings struct {
	Name   string
	Domain string
	Secure bool
}

// AuthHandler manages authentication flows (login/logout/me).
type AuthHandler struct {
	users  *services.UserService
	jwt    *iauth.JWTService
	cookie CookieSettings
}

func NewAuthHandler(users *services.UserService, jwt *iauth.JWTService, cookie CookieSettings) *AuthHandler {
	if strings.TrimSpace(cookie.Name) == "" {
		cookie.Name = middleware.DefaultSessionCookie
	}
	return &AuthHandler{users: users, jwt: jwt, cookie: cookie}
}

type loginRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	CallbackURL string `json:"callback_url"`
}

type sessionUser struct {
	ID             string      `json:"id"`
	Email          string      `json:"email"`
	Name           string      `json:"name"`
	Role           access.Role `json:"role"`
	OrganizationID string      `json:"organization_id,omitempty"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	Redirect  string      `json:"redirect"`
	User      sessionUser `json:"user"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Authenticate(requestContext(c), req.Email, req.Password)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, err)
		return
	}

	role := user.CanonicalRole()
	token, err := h.jwt.IssueSessionToken(iauth.SessionTokenInput{
		UserID:         user.ID,
		Email:          user.Email,
		Role:           role,
		OrganizationID: user.OrganizationID(),
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	h.setSessionCookie(c, token, int(h.jwt.TTL().Seconds()))

	response.Success(c, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(h.jwt.TTL()),
		Redirect:  safeCallback(req.CallbackURL),
		User: sessionUser{
			ID:             user.ID,
			Email:          user.Email,
			Name:           user.Name,
			Role:           role,
			OrganizationID: user.OrganizationID(),
		},
	})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	response.Success(c, http.StatusOK, gin.H{"logged_out": true})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	payload := gin.H{"identity": identity}
	if user, err := h.users.GetByID(requestContext(c), identity.SubjectID); err == nil {
		payload["user"] = sessionUser{
			ID:             user.ID,
			Email:          user.Email,
			Name:           user.Name,
			Role:           user.CanonicalRole(),
			OrganizationID: user.OrganizationID(),
		}
	}

	response.Success(c, http.StatusOK, payload)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, value, maxAge, "/", h.cookie.Domain, h.cookie.Secure || c.Request.TLS != nil, true)
}

// safeCallback keeps only same-site relative paths.
func safeCallback(raw string) string {
	raw = strings.TrimSpace(raw)
	if !access.IsLocalPath(raw) {
		return "/dashboard"
	}
	return raw
}
