package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/posadmin/internal/access"
	"github.com/charlesng35/posadmin/pkg/logger"
	"github.com/charlesng35/posadmin/pkg/metrics"
)

const (
	CtxIdentityKey = "identity"
	CtxUserIDKey   = "userID"
	CtxDecisionKey = "gatekeeperDecision"

	// DefaultSessionCookie carries the session token for browser clients.
	DefaultSessionCookie = "session_token"
)

// Identity headers attached to forwarded requests.
const (
	HeaderUserID         = "X-User-Id"
	HeaderUserEmail      = "X-User-Email"
	HeaderUserRole       = "X-User-Role"
	HeaderOrganizationID = "X-Organization-Id"
	HeaderIsAdmin        = "X-Is-Admin"
)

var identityHeaders = []string{HeaderUserID, HeaderUserEmail, HeaderUserRole, HeaderOrganizationID, HeaderIsAdmin}

// IdentityResolver turns a raw session token into a caller identity.
type IdentityResolver interface {
	ResolveIdentity(token string) (*access.Identity, error)
}

// Gatekeeper evaluates every request against policy before any handler runs.
// Redirect outcomes abort the chain with a 307. Forwarded requests carry the
// resolved identity in the gin context and in the identity headers; headers
// supplied by the client are always discarded.
func Gatekeeper(policy *access.Policy, resolver IdentityResolver, cookieName string) gin.HandlerFunc {
	if strings.TrimSpace(cookieName) == "" {
		cookieName = DefaultSessionCookie
	}
	log := logger.WithModule("gatekeeper")

	return func(c *gin.Context) {
		for _, header := range identityHeaders {
			c.Request.Header.Del(header)
		}

		requestPath := c.Request.URL.Path
		if policy.IsPublic(requestPath) {
			metrics.GatekeeperDecisions.WithLabelValues(access.OutcomeForward.String()).Inc()
			c.Next()
			return
		}

		state := access.TokenMissing
		var identity *access.Identity
		if token := sessionToken(c, cookieName); token != "" {
			resolved, err := resolver.ResolveIdentity(token)
			if err != nil {
				state = access.TokenInvalid
				log.Debug("session token rejected", zap.String("path", requestPath), zap.Error(err))
			} else {
				state = access.TokenValid
				identity = resolved
			}
		}

		decision := policy.Evaluate(requestPath, state, identity)
		metrics.GatekeeperDecisions.WithLabelValues(decision.Outcome.String()).Inc()
		c.Set(CtxDecisionKey, decision)

		if decision.Redirect() {
			if decision.Outcome == access.OutcomeUnauthorizedRedirect {
				log.Info("policy denied",
					zap.String("path", requestPath),
					zap.String("method", c.Request.Method),
					zap.String("subject_id", identity.SubjectID),
					zap.String("role", identity.Role.String()),
					zap.String("reason", string(decision.Reason)),
				)
			}
			c.Redirect(http.StatusTemporaryRedirect, decision.Location)
			c.Abort()
			return
		}

		if identity != nil {
			attachIdentity(c, identity)
		}
		c.Next()
	}
}

// IdentityFromContext returns the identity attached by Gatekeeper.
func IdentityFromContext(c *gin.Context) (*access.Identity, bool) {
	value, ok := c.Get(CtxIdentityKey)
	if !ok {
		return nil, false
	}
	identity, ok := value.(*access.Identity)
	return identity, ok && identity != nil
}

func attachIdentity(c *gin.Context, identity *access.Identity) {
	c.Set(CtxIdentityKey, identity)
	c.Set(CtxUserIDKey, identity.SubjectID)

	header := c.Request.Header
	header.Set(HeaderUserID, identity.SubjectID)
	header.Set(HeaderUserRole, identity.Role.String())
	header.Set(HeaderIsAdmin, strconv.FormatBool(identity.IsAdminLike))
	if identity.Email != "" {
		header.Set(HeaderUserEmail, identity.Email)
	}
	if identity.OrganizationID != "" {
		header.Set(HeaderOrganizationID, identity.OrganizationID)
	}
}

// sessionToken reads the session cookie, falling back to a bearer token.
func sessionToken(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && strings.TrimSpace(cookie) != "" {
		return strings.TrimSpace(cookie)
	}
	authz := c.GetHeader("Authorization")
	if len(authz) > 7 && strings.EqualFold(authz[:7], "Bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return ""
}
