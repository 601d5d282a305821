package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/posadmin/internal/access"
	"github.com/charlesng35/posadmin/pkg/errors"
	"github.com/charlesng35/posadmin/pkg/response"
)

// RequireIdentity rejects requests that reached the handler without a
// resolved identity, such as public or onboarding paths.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := IdentityFromContext(c); !ok {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole allows only callers holding one of roles.
func RequireRole(roles ...access.Role) gin.HandlerFunc {
	allowed := make(map[access.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)
		if !ok {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[identity.Role]; !ok {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdminLike allows SUPER_ADMIN, ADMIN and MANAGER callers.
func RequireAdminLike() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)
		if !ok {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !identity.IsAdminLike {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
