package access

import "strings"

// Role is the canonical, closed set of platform roles.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleManager    Role = "MANAGER"
	RoleUser       Role = "USER"
	RoleUnassigned Role = "UNASSIGNED"

	// RoleUnknown marks a role string outside the enumeration. It is never
	// stored; the gatekeeper denies it.
	RoleUnknown Role = "UNKNOWN"
)

var roleAliases = map[string]Role{
	"SUPER_ADMIN": RoleSuperAdmin,
	"SUPERADMIN":  RoleSuperAdmin,
	"ADMIN":       RoleAdmin,
	"MANAGER":     RoleManager,
	"USER":        RoleUser,
	"UNASSIGNED":  RoleUnassigned,
}

// NormalizeRole maps a raw role string onto the canonical enumeration.
// Matching ignores case and treats '-' and ' ' like '_'. An empty value is
// UNASSIGNED; anything unrecognised is RoleUnknown.
func NormalizeRole(raw string) Role {
	value := strings.TrimSpace(raw)
	if value == "" {
		return RoleUnassigned
	}
	value = strings.ToUpper(value)
	value = strings.NewReplacer("-", "_", " ", "_").Replace(value)
	if role, ok := roleAliases[value]; ok {
		return role
	}
	return RoleUnknown
}

// Valid reports whether r is one of the canonical roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleManager, RoleUser, RoleUnassigned:
		return true
	default:
		return false
	}
}

// IsAdminLike is true for roles that administer an organization or the platform.
func (r Role) IsAdminLike() bool {
	return r == RoleSuperAdmin || r == RoleAdmin || r == RoleManager
}

// Assignable reports whether r may be given to a user enrolled into an organization.
func (r Role) Assignable() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleUser
}

func (r Role) String() string {
	return string(r)
}
