package access

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Outcome is the single terminal result of evaluating a request.
type Outcome int

const (
	OutcomeForward Outcome = iota + 1
	OutcomeLoginRedirect
	OutcomeUnauthorizedRedirect
	OutcomeOnboardingRedirect
	OutcomeProfileRedirect
)

func (o Outcome) String() string {
	switch o {
	case OutcomeForward:
		return "forward"
	case OutcomeLoginRedirect:
		return "login_redirect"
	case OutcomeUnauthorizedRedirect:
		return "unauthorized_redirect"
	case OutcomeOnboardingRedirect:
		return "onboarding_redirect"
	case OutcomeProfileRedirect:
		return "profile_redirect"
	default:
		return "unknown"
	}
}

// TokenState describes what the token lookup produced for a request.
type TokenState int

const (
	TokenMissing TokenState = iota
	TokenInvalid
	TokenValid
)

// Reason names the branch that produced a Decision. Used for logs and metrics.
type Reason string

const (
	ReasonPublic       Reason = "public"
	ReasonOnboarding   Reason = "onboarding"
	ReasonTokenMissing Reason = "token_missing"
	ReasonTokenInvalid Reason = "token_invalid"
	ReasonSuperAdmin   Reason = "super_admin"
	ReasonRoleMatched  Reason = "role_matched"
	ReasonRoleMismatch Reason = "role_mismatch"
	ReasonRoleAbsent   Reason = "role_absent"
	ReasonRoleUnknown  Reason = "role_unknown"

	// ReasonProfileCompletion lets an unassigned caller reach the page the
	// role-absent branch redirects to.
	ReasonProfileCompletion Reason = "profile_completion"
)

// Decision is the gatekeeper verdict for one request.
type Decision struct {
	Outcome  Outcome
	Reason   Reason
	Location string
}

// Redirect reports whether the decision sends the caller elsewhere.
func (d Decision) Redirect() bool {
	return d.Outcome != OutcomeForward
}

// Config lists the paths the policy works with.
type Config struct {
	PublicPaths      []string
	PublicPrefixes   []string
	StaticExtensions []string
	OnboardingPrefix string
	LoginPath        string
	UnauthorizedPath string
	ProfilePath      string
	CallbackParam    string
	RolePrefixes     map[Role][]string
}

// DefaultConfig returns the built-in policy table.
func DefaultConfig() Config {
	return Config{
		PublicPaths:      []string{"/", "/login", "/register", "/unauthorized", "/favicon.ico"},
		PublicPrefixes:   []string{"/api/auth/login", "/api/auth/logout", "/api/health", "/api/public", "/_next", "/static"},
		StaticExtensions: []string{"css", "js", "map", "png", "jpg", "jpeg", "gif", "svg", "ico", "webp", "woff", "woff2", "ttf", "txt"},
		OnboardingPrefix: "/onboarding",
		LoginPath:        "/login",
		UnauthorizedPath: "/unauthorized",
		ProfilePath:      "/profile/complete",
		CallbackParam:    "callbackUrl",
		RolePrefixes: map[Role][]string{
			RoleAdmin:   {"/admin", "/dashboard", "/profile", "/api/auth/me", "/api/notifications", "/api/tickets", "/api/organizations", "/api/users"},
			RoleManager: {"/manager", "/dashboard", "/profile", "/api/auth/me", "/api/notifications", "/api/tickets"},
			RoleUser:    {"/user", "/dashboard", "/profile", "/api/auth/me", "/api/notifications", "/api/tickets"},
		},
	}
}

// Policy is the static role to path-prefix table plus the public allowlist.
// It is immutable after construction and safe for concurrent use.
type Policy struct {
	cfg          Config
	publicExact  map[string]struct{}
	staticFile   *regexp.Regexp
	rolePrefixes map[Role][]string
}

// NewPolicy validates cfg and builds a Policy.
func NewPolicy(cfg Config) (*Policy, error) {
	for _, p := range []struct{ name, value string }{
		{"onboarding prefix", cfg.OnboardingPrefix},
		{"login path", cfg.LoginPath},
		{"unauthorized path", cfg.UnauthorizedPath},
		{"profile path", cfg.ProfilePath},
	} {
		if !strings.HasPrefix(p.value, "/") {
			return nil, fmt.Errorf("access policy: %s must start with '/': %q", p.name, p.value)
		}
	}
	if strings.TrimSpace(cfg.CallbackParam) == "" {
		cfg.CallbackParam = "callbackUrl"
	}

	policy := &Policy{
		cfg:          cfg,
		publicExact:  make(map[string]struct{}, len(cfg.PublicPaths)),
		rolePrefixes: make(map[Role][]string, len(cfg.RolePrefixes)),
	}
	for _, p := range cfg.PublicPaths {
		policy.publicExact[cleanPath(p)] = struct{}{}
	}

	for role, prefixes := range cfg.RolePrefixes {
		if role != RoleAdmin && role != RoleManager && role != RoleUser {
			return nil, fmt.Errorf("access policy: prefixes configured for unsupported role %q", role)
		}
		cleaned := make([]string, 0, len(prefixes))
		for _, prefix := range prefixes {
			if !strings.HasPrefix(prefix, "/") {
				return nil, fmt.Errorf("access policy: %s prefix must start with '/': %q", role, prefix)
			}
			cleaned = append(cleaned, cleanPath(prefix))
		}
		policy.rolePrefixes[role] = cleaned
	}

	if len(cfg.StaticExtensions) > 0 {
		quoted := make([]string, 0, len(cfg.StaticExtensions))
		for _, ext := range cfg.StaticExtensions {
			quoted = append(quoted, regexp.QuoteMeta(strings.TrimPrefix(strings.ToLower(ext), ".")))
		}
		pattern, err := regexp.Compile(`(?i)\.(` + strings.Join(quoted, "|") + `)$`)
		if err != nil {
			return nil, fmt.Errorf("access policy: static pattern: %w", err)
		}
		policy.staticFile = pattern
	}

	return policy, nil
}

// MustDefaultPolicy builds the default policy, panicking on a broken table.
func MustDefaultPolicy() *Policy {
	p, err := NewPolicy(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return p
}

// Config returns the policy configuration.
func (p *Policy) Config() Config {
	return p.cfg
}

// IsPublic reports whether requestPath bypasses identity resolution.
func (p *Policy) IsPublic(requestPath string) bool {
	clean := cleanPath(requestPath)
	if _, ok := p.publicExact[clean]; ok {
		return true
	}
	for _, prefix := range p.cfg.PublicPrefixes {
		if matchesPrefix(clean, cleanPath(prefix)) {
			return true
		}
	}
	return p.staticFile != nil && p.staticFile.MatchString(clean)
}

// IsOnboarding reports whether requestPath lies under the onboarding prefix.
func (p *Policy) IsOnboarding(requestPath string) bool {
	return matchesPrefix(cleanPath(requestPath), cleanPath(p.cfg.OnboardingPrefix))
}

// Allows reports whether role may reach requestPath according to the table.
// SUPER_ADMIN is allowed everywhere; roles without a table entry nowhere.
func (p *Policy) Allows(role Role, requestPath string) bool {
	if role == RoleSuperAdmin {
		return true
	}
	clean := cleanPath(requestPath)
	for _, prefix := range p.rolePrefixes[role] {
		if matchesPrefix(clean, prefix) {
			return true
		}
	}
	return false
}

// Evaluate decides the fate of a request. Every input yields exactly one
// Decision; gaps in the table deny.
func (p *Policy) Evaluate(requestPath string, state TokenState, identity *Identity) Decision {
	if p.IsPublic(requestPath) {
		return Decision{Outcome: OutcomeForward, Reason: ReasonPublic}
	}
	if p.IsOnboarding(requestPath) {
		return Decision{Outcome: OutcomeForward, Reason: ReasonOnboarding}
	}

	if state != TokenValid || identity == nil {
		reason := ReasonTokenMissing
		if state == TokenInvalid {
			reason = ReasonTokenInvalid
		}
		return Decision{Outcome: OutcomeLoginRedirect, Reason: reason, Location: p.LoginLocation(requestPath)}
	}

	switch identity.Role {
	case RoleSuperAdmin:
		return Decision{Outcome: OutcomeForward, Reason: ReasonSuperAdmin}
	case RoleAdmin, RoleManager, RoleUser:
		if p.Allows(identity.Role, requestPath) {
			return Decision{Outcome: OutcomeForward, Reason: ReasonRoleMatched}
		}
		return Decision{Outcome: OutcomeUnauthorizedRedirect, Reason: ReasonRoleMismatch, Location: p.cfg.UnauthorizedPath}
	case RoleUnassigned:
		if matchesPrefix(cleanPath(requestPath), cleanPath(p.cfg.ProfilePath)) {
			return Decision{Outcome: OutcomeForward, Reason: ReasonProfileCompletion}
		}
		if identity.HasOrganization() {
			return Decision{
				Outcome:  OutcomeOnboardingRedirect,
				Reason:   ReasonRoleAbsent,
				Location: cleanPath(p.cfg.OnboardingPrefix) + "/" + url.PathEscape(identity.OrganizationID),
			}
		}
		return Decision{Outcome: OutcomeProfileRedirect, Reason: ReasonRoleAbsent, Location: p.cfg.ProfilePath}
	default:
		return Decision{Outcome: OutcomeUnauthorizedRedirect, Reason: ReasonRoleUnknown, Location: p.cfg.UnauthorizedPath}
	}
}

// LoginLocation builds the login redirect carrying the original path.
func (p *Policy) LoginLocation(requestPath string) string {
	values := url.Values{}
	values.Set(p.cfg.CallbackParam, requestPath)
	return p.cfg.LoginPath + "?" + values.Encode()
}

// IsLocalPath reports whether raw is a same-site absolute path. Browsers drop
// tabs and newlines while parsing URLs, so any control character is rejected
// along with protocol-relative and backslash forms.
func IsLocalPath(raw string) bool {
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, `\`) {
		return false
	}
	for _, r := range raw {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}

func cleanPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "/"
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return path.Clean(raw)
}

// matchesPrefix is true for an exact match or a match followed by '/'.
func matchesPrefix(clean, prefix string) bool {
	if prefix == "/" {
		return clean == "/"
	}
	return clean == prefix || strings.HasPrefix(clean, prefix+"/")
}
