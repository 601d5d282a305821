package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/posadmin/internal/access"
	"github.com/charlesng35/posadmin/internal/middleware"
	"github.com/charlesng35/posadmin/pkg/errors"
	"github.com/charlesng35/posadmin/pkg/response"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentIdentity returns the caller resolved by the gatekeeper. When none is
// present a 401 is written and false returned.
func currentIdentity(c *gin.Context) (*access.Identity, bool) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return nil, false
	}
	return identity, true
}
