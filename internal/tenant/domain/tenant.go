// Package domain defines the core tenant domain entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/imeiguard/internal/errors"
)

// Tenant represents a company whose persons and devices are registered
// in the system. Tenants are soft deleted: deactivated rows keep their
// history but disappear from active listings.
type Tenant struct {
	ID        uuid.UUID
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Domain-specific errors for tenant operations.
var (
	// ErrTenantNotFound indicates the requested tenant does not exist.
	ErrTenantNotFound = errors.Wrap(errors.ErrNotFound, "tenant not found")

	// ErrTenantAlreadyExists indicates an active tenant with the same name already exists.
	ErrTenantAlreadyExists = errors.Wrap(errors.ErrConflict, "tenant already exists")

	// ErrTenantHasDevices indicates the tenant cannot be deactivated while its
	// persons still hold registered devices.
	ErrTenantHasDevices = errors.Wrap(errors.ErrConflict, "tenant has persons with registered devices")

	// ErrTenantInactive indicates an operation targeted a deactivated tenant.
	ErrTenantInactive = errors.Wrap(errors.ErrConflict, "tenant is inactive")
)
