// Package domain defines the core identity domain entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/imeiguard/internal/errors"
)

// Role defines the authorization level of an account.
type Role string

// Account roles ordered by privilege.
const (
	// RoleUser is tenant-scoped: sees only data belonging to its own tenant
	// and never the decrypted person identification.
	RoleUser Role = "user"

	// RoleAdmin is global: sees all tenants and decrypted identifiers.
	RoleAdmin Role = "admin"

	// RoleSuperAdmin is global and may additionally create admin accounts.
	RoleSuperAdmin Role = "superadmin"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Privileged reports whether the role grants global visibility and
// access to decrypted identifiers.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Account represents an operator account in the system.
type Account struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	Role         Role
	// TenantID is required for user-role accounts and nil for global roles.
	TenantID  *uuid.UUID
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Domain-specific errors for identity operations.
var (
	// ErrAccountNotFound indicates the requested account does not exist.
	ErrAccountNotFound = errors.Wrap(errors.ErrNotFound, "account not found")

	// ErrAccountAlreadyExists indicates an account with the same username already exists.
	ErrAccountAlreadyExists = errors.Wrap(errors.ErrConflict, "account already exists")

	// ErrInvalidCredentials indicates a failed login. The message is uniform on
	// purpose: it never reveals whether the username or the password was wrong.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")

	// ErrInvalidToken indicates the session token is missing, malformed, or expired.
	ErrInvalidToken = errors.Wrap(errors.ErrUnauthorized, "invalid session token")

	// ErrSelfProtection indicates an account tried to deactivate or delete itself.
	ErrSelfProtection = errors.Wrap(errors.ErrForbidden, "accounts cannot deactivate or delete themselves")

	// ErrLastAdmin indicates the operation would remove the last active admin account.
	ErrLastAdmin = errors.Wrap(errors.ErrConflict, "cannot remove the last active admin account")

	// ErrAdminCreationForbidden indicates a non-superadmin tried to create a privileged account.
	ErrAdminCreationForbidden = errors.Wrap(errors.ErrForbidden, "only superadmin accounts can create privileged accounts")

	// ErrInvalidRole indicates an unknown role value.
	ErrInvalidRole = errors.Wrap(errors.ErrInvalidInput, "invalid role")

	// ErrTenantRequired indicates a user-role account was created without a tenant.
	ErrTenantRequired = errors.Wrap(errors.ErrInvalidInput, "user accounts require a tenant")
)
