package access

import "strings"

// Identity is the caller resolved from a session token. It is rebuilt on
// every request and never persisted.
type Identity struct {
	SubjectID      string `json:"subject_id"`
	Email          string `json:"email,omitempty"`
	Role           Role   `json:"role"`
	OrganizationID string `json:"organization_id,omitempty"`
	IsAdminLike    bool   `json:"is_admin_like"`
}

// NewIdentity normalises the raw token fields into an Identity.
func NewIdentity(subjectID, email, role, organizationID string) *Identity {
	canonical := NormalizeRole(role)
	return &Identity{
		SubjectID:      strings.TrimSpace(subjectID),
		Email:          strings.TrimSpace(email),
		Role:           canonical,
		OrganizationID: strings.TrimSpace(organizationID),
		IsAdminLike:    canonical.IsAdminLike(),
	}
}

// HasOrganization reports whether the identity is scoped to a tenant.
func (i *Identity) HasOrganization() bool {
	return i != nil && i.OrganizationID != ""
}

// SameOrganization reports whether the identity belongs to organizationID.
func (i *Identity) SameOrganization(organizationID string) bool {
	return i.HasOrganization() && i.OrganizationID == strings.TrimSpace(organizationID)
}
