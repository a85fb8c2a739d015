// Package domain defines the verification result returned when a plaintext
// IMEI is resolved against the device registry.
package domain

import (
	registryDomain "github.com/allisson/imeiguard/internal/registry/domain"
	tenantDomain "github.com/allisson/imeiguard/internal/tenant/domain"
)

// Outcome messages. "not registered" and "not assigned" are distinct on
// purpose: the second signals a data-integrity gap, not an unknown device.
const (
	MessageVerified      = "imei verified"
	MessageNotRegistered = "imei not registered"
	MessageUnassigned    = "device not assigned to a person"
)

// Result is the assembled answer to a verification query. Person, Tenant,
// and Device are populated only on a valid match; the person identification
// field is decrypted or fingerprinted according to the caller's role before
// the result leaves the use case.
type Result struct {
	Valid   bool
	Message string
	Device  *registryDomain.Device
	Person  *registryDomain.Person
	Tenant  *tenantDomain.Tenant
}
