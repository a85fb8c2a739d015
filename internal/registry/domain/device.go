package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/imeiguard/internal/errors"
)

// Device represents a mobile device assigned to a person.
//
// IMEI is the stored value, ciphertext or legacy plaintext. See Person.
type Device struct {
	ID        uuid.UUID
	PersonID  uuid.UUID
	IMEI      string
	Brand     string
	Model     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Domain-specific errors for device operations.
var (
	// ErrDeviceNotFound indicates the requested device does not exist.
	ErrDeviceNotFound = errors.Wrap(errors.ErrNotFound, "device not found")

	// ErrDeviceAlreadyExists indicates the IMEI is already registered,
	// under either storage form.
	ErrDeviceAlreadyExists = errors.Wrap(errors.ErrConflict, "device already registered")
)
