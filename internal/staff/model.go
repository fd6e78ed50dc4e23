// Package staff provides models and repositories for administrative
// staff accounts: the principals that authenticate against the admin
// surface and whose actions land in the audit trail.
package staff

import "time"

// Role values form a closed set. Ordering here is by privilege for
// documentation only; route guards check set membership, never hierarchy.
const (
	RoleSuperadmin = "superadmin"
	RoleAdmin      = "admin"
	RoleAnalyst    = "analyst"
	RoleViewer     = "viewer"
)

// ValidRoles is the closed set of assignable roles.
var ValidRoles = map[string]bool{
	RoleSuperadmin: true,
	RoleAdmin:      true,
	RoleAnalyst:    true,
	RoleViewer:     true,
}

// Account represents a staff account. PasswordHash is a bcrypt hash and
// must never appear in logs, audit details, or API responses.
type Account struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FullName     string     `json:"full_name"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	LoginCount   int        `json:"login_count"`
}

// Patch carries the mutable account fields for a superadmin update.
// Nil fields are left unchanged.
type Patch struct {
	Role     *string
	IsActive *bool
}
