package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/charlesng35/posadmin/internal/access"
)

// DefaultSessionTTL defines the fallback validity period for session tokens.
const DefaultSessionTTL = 12 * time.Hour

// JWTConfig bundles the configuration required to build a JWTService.
type JWTConfig struct {
	Secret     string
	Issuer     string
	SessionTTL time.Duration
	Clock      func() time.Time
}

// Claims represents the custom claims embedded in session tokens.
type Claims struct {
	UserID         string `json:"uid"`
	Email          string `json:"email,omitempty"`
	Role           string `json:"role,omitempty"`
	OrganizationID string `json:"org,omitempty"`
	jwt.RegisteredClaims
}

// SessionTokenInput holds the identity fields written into a new token.
type SessionTokenInput struct {
	UserID         string
	Email          string
	Role           access.Role
	OrganizationID string
}

// JWTService issues and validates signed session tokens.
type JWTService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService constructs a JWTService instance.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt: secret must be provided")
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &JWTService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    now,
	}, nil
}

// TTL returns the lifetime of issued tokens.
func (s *JWTService) TTL() time.Duration {
	return s.ttl
}

// IssueSessionToken signs a token carrying the caller's identity.
func (s *JWTService) IssueSessionToken(input SessionTokenInput) (string, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return "", errors.New("jwt: user id is required")
	}

	now := s.now()
	role := ""
	if input.Role != access.RoleUnassigned {
		role = input.Role.String()
	}

	claims := &Claims{
		UserID:         input.UserID,
		Email:          input.Email,
		Role:           role,
		OrganizationID: input.OrganizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   input.UserID,
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}

// ValidateSessionToken parses and validates a signed token.
func (s *JWTService) ValidateSessionToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("jwt: token string is empty")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("jwt: parse token: %w", err)
	}

	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, errors.New("jwt: invalid issuer")
	}
	if claims.UserID == "" {
		return nil, errors.New("jwt: missing user id claim")
	}

	return &claims, nil
}

// ResolveIdentity validates tokenString and returns the normalised caller.
func (s *JWTService) ResolveIdentity(tokenString string) (*access.Identity, error) {
	claims, err := s.ValidateSessionToken(tokenString)
	if err != nil {
		return nil, err
	}
	return claims.Identity(), nil
}

// Identity converts the claims into an access.Identity.
func (c *Claims) Identity() *access.Identity {
	return access.NewIdentity(c.UserID, c.Email, c.Role, c.OrganizationID)
}
