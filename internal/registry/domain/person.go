// Package domain defines the core registry domain entities: persons and the
// devices assigned to them. Identifier fields (person identification, device
// IMEI) are encrypted at rest; the domain structs carry whatever value the
// current layer holds, and the field name makes the state explicit.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/imeiguard/internal/errors"
)

// Person represents an individual who can hold devices, owned by a tenant.
//
// Identification is the stored value: ciphertext for rows written after
// encryption was introduced, plaintext for legacy rows. Use cases translate
// between stored and clear forms through the cipher codec.
type Person struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	Name           string
	Identification string
	Phone          string
	Email          string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Domain-specific errors for person operations.
var (
	// ErrPersonNotFound indicates the requested person does not exist.
	ErrPersonNotFound = errors.Wrap(errors.ErrNotFound, "person not found")

	// ErrPersonAlreadyExists indicates a person with the same identification
	// is already registered, under either storage form.
	ErrPersonAlreadyExists = errors.Wrap(errors.ErrConflict, "person already exists")

	// ErrPersonHasDevices indicates the person cannot be deleted while devices
	// remain assigned.
	ErrPersonHasDevices = errors.Wrap(errors.ErrConflict, "person has registered devices")

	// ErrPersonInactive indicates an operation targeted an inactive person.
	ErrPersonInactive = errors.Wrap(errors.ErrConflict, "person is inactive")
)
