package auth

import (
	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/pkg/apperror"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// DisplayName returns the name recorded in audit entries.
func (i Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Email
}

// Scope narrows which records a caller may read.
type Scope int

const (
	// ScopeAny places no restriction on the records returned.
	ScopeAny Scope = iota
	// ScopeOwn restricts non-admin callers to records they own.
	ScopeOwn
)

// Requirement describes what an operation needs from its caller.
type Requirement struct {
	Role  string
	Scope Scope
}

// Decision is the outcome of a successful authorization.
type Decision struct {
	// OwnerID is set when queries must be limited to this user's records.
	OwnerID string
}

// Restricted reports whether the decision limits reads to a single owner.
func (d Decision) Restricted() bool {
	return d.OwnerID != ""
}

// Authorize is the single role predicate shared by every endpoint.
func Authorize(identity Identity, req Requirement) (Decision, error) {
	if identity.ID == "" {
		return Decision{}, apperror.Unauthenticated("authentication required")
	}

	if req.Role != "" && identity.Role != req.Role {
		return Decision{}, apperror.Forbidden(req.Role + " access required")
	}

	if req.Scope == ScopeOwn && !identity.IsAdmin() {
		return Decision{OwnerID: identity.ID}, nil
	}

	return Decision{}, nil
}
