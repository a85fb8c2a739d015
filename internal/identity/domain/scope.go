package domain

import (
	"github.com/google/uuid"

	"github.com/allisson/imeiguard/internal/errors"
)

// Claims carries the verified identity of the caller, extracted from the
// session token exactly once per request by the authentication middleware.
type Claims struct {
	AccountID uuid.UUID
	Role      Role
	TenantID  *uuid.UUID
}

// Scope is the visibility boundary derived from Claims. Use cases consult
// the scope instead of re-reading claims so that authorization decisions
// have a single source of truth per request.
type Scope struct {
	AccountID uuid.UUID
	Role      Role
	TenantID  *uuid.UUID
}

// NewScope derives a Scope from verified claims.
func NewScope(claims *Claims) Scope {
	return Scope{
		AccountID: claims.AccountID,
		Role:      claims.Role,
		TenantID:  claims.TenantID,
	}
}

// Privileged reports whether the scope may see all tenants and
// decrypted identifiers.
func (s Scope) Privileged() bool {
	return s.Role.Privileged()
}

// TenantFilter returns the tenant the scope is confined to. The second
// return value is false for privileged scopes, meaning no filter applies.
//
// A non-privileged scope without a tenant is confined to the nil tenant,
// which matches no real data. Token verification accepts user-role tokens
// that lack a tenant claim, so this case must fail closed rather than
// widen to all tenants.
func (s Scope) TenantFilter() (uuid.UUID, bool) {
	if s.Privileged() {
		return uuid.Nil, false
	}
	if s.TenantID == nil {
		return uuid.Nil, true
	}
	return *s.TenantID, true
}

// CanAccessTenant checks whether the scope may touch data owned by the given
// tenant. Out-of-tenant access is denied openly with ErrForbidden rather than
// disguised as not-found: the caller learns the resource exists but is off
// limits.
func (s Scope) CanAccessTenant(tenantID uuid.UUID) error {
	if filter, ok := s.TenantFilter(); ok && filter != tenantID {
		return errors.ErrForbidden
	}
	return nil
}
