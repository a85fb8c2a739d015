// Package usecase implements the verification engine: ordered dual-path
// lookup of a plaintext IMEI against stored values that may be ciphertext or
// legacy plaintext, followed by Device→Person→Tenant assembly under the
// caller's visibility scope.
package usecase

import (
	"context"
	"strings"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	"github.com/allisson/imeiguard/internal/cipher"
	apperrors "github.com/allisson/imeiguard/internal/errors"
	identityDomain "github.com/allisson/imeiguard/internal/identity/domain"
	registryDomain "github.com/allisson/imeiguard/internal/registry/domain"
	registryUseCase "github.com/allisson/imeiguard/internal/registry/usecase"
	"github.com/allisson/imeiguard/internal/verification/domain"
	appValidation "github.com/allisson/imeiguard/internal/validation"
)

// SearchFilter bounds a device search: an optional substring query applied
// to the decrypted IMEI and the owner's name, plus pagination.
type SearchFilter struct {
	Query  string
	Offset int
	Limit  int
}

// DeviceMatch pairs a device with its owning person for search results.
type DeviceMatch struct {
	Device *registryDomain.Device
	Person *registryDomain.Person
}

// VerificationUseCase defines the verification engine operations
type VerificationUseCase interface {
	Verify(ctx context.Context, scope identityDomain.Scope, imei string) (*domain.Result, error)
	SearchDevices(ctx context.Context, scope identityDomain.Scope, filter SearchFilter) ([]*DeviceMatch, error)
}

// lookupStrategy resolves a clear identifier to a device under one storage
// form. Strategies are tried in order; extending the migration story means
// appending a strategy, not touching the match loop.
type lookupStrategy func(ctx context.Context, clear string) (*registryDomain.Device, error)

type verificationUseCase struct {
	deviceRepo registryUseCase.DeviceRepository
	personRepo registryUseCase.PersonRepository
	tenantRepo registryUseCase.TenantRepository
	codec      cipher.Codec
}

// NewVerificationUseCase creates a new VerificationUseCase
func NewVerificationUseCase(
	deviceRepo registryUseCase.DeviceRepository,
	personRepo registryUseCase.PersonRepository,
	tenantRepo registryUseCase.TenantRepository,
	codec cipher.Codec,
) VerificationUseCase {
	return &verificationUseCase{
		deviceRepo: deviceRepo,
		personRepo: personRepo,
		tenantRepo: tenantRepo,
		codec:      codec,
	}
}

// rawLookup matches the input against rows stored before encryption was
// introduced.
func (uc *verificationUseCase) rawLookup(ctx context.Context, clear string) (*registryDomain.Device, error) {
	return uc.deviceRepo.GetByStoredIMEI(ctx, clear)
}

// encryptedLookup matches the input against rows stored as ciphertext.
func (uc *verificationUseCase) encryptedLookup(ctx context.Context, clear string) (*registryDomain.Device, error) {
	encrypted, err := uc.codec.Encrypt(clear)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encrypt imei")
	}
	return uc.deviceRepo.GetByStoredIMEI(ctx, encrypted)
}

func (uc *verificationUseCase) strategies() []lookupStrategy {
	return []lookupStrategy{
		uc.rawLookup,
		uc.encryptedLookup,
	}
}

// findDevice runs the ordered lookup strategies, first match wins.
// Persistence failures are wrapped with a message that does not disclose
// which lookup path was in flight.
func (uc *verificationUseCase) findDevice(ctx context.Context, clear string) (*registryDomain.Device, error) {
	for _, lookup := range uc.strategies() {
		device, err := lookup(ctx, clear)
		if err == nil {
			return device, nil
		}
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Wrap(err, "verification lookup failed")
		}
	}
	return nil, registryDomain.ErrDeviceNotFound
}

// revealPerson translates the stored identification for the caller:
// privileged scopes get the decrypted value, everyone else its fingerprint.
func (uc *verificationUseCase) revealPerson(scope identityDomain.Scope, person *registryDomain.Person) *registryDomain.Person {
	out := *person
	if scope.Privileged() {
		out.Identification = uc.codec.Decrypt(person.Identification)
	} else {
		out.Identification = uc.codec.Fingerprint(uc.codec.Decrypt(person.Identification))
	}
	return &out
}

// Verify resolves a plaintext IMEI to its device, owner, and tenant.
func (uc *verificationUseCase) Verify(ctx context.Context, scope identityDomain.Scope, imei string) (*domain.Result, error) {
	clear := strings.TrimSpace(imei)
	if err := appValidation.WrapValidationError(validation.Validate(clear,
		validation.Required.Error("imei is required"),
		appValidation.IMEI,
	)); err != nil {
		return nil, err
	}

	device, err := uc.findDevice(ctx, clear)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return &domain.Result{Valid: false, Message: domain.MessageNotRegistered}, nil
		}
		return nil, err
	}

	person, err := uc.personRepo.GetByID(ctx, device.PersonID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return &domain.Result{Valid: false, Message: domain.MessageUnassigned}, nil
		}
		return nil, apperrors.Wrap(err, "verification lookup failed")
	}
	if !person.IsActive {
		return &domain.Result{Valid: false, Message: domain.MessageUnassigned}, nil
	}

	// Out-of-tenant matches reveal denial rather than a fake miss.
	if err := scope.CanAccessTenant(person.TenantID); err != nil {
		return nil, err
	}

	tenant, err := uc.tenantRepo.GetByID(ctx, person.TenantID)
	if err != nil {
		return nil, apperrors.Wrap(err, "verification lookup failed")
	}

	revealedDevice := *device
	revealedDevice.IMEI = uc.codec.Decrypt(device.IMEI)

	return &domain.Result{
		Valid:   true,
		Message: domain.MessageVerified,
		Device:  &revealedDevice,
		Person:  uc.revealPerson(scope, person),
		Tenant:  tenant,
	}, nil
}

// SearchDevices lists devices filtered by a substring over the decrypted
// IMEI and the owner's name. The ciphertext does not preserve substrings, so
// the scope-bounded, paginated row set is materialized and filtered in
// memory.
func (uc *verificationUseCase) SearchDevices(ctx context.Context, scope identityDomain.Scope, filter SearchFilter) ([]*DeviceMatch, error) {
	var tenantFilter *uuid.UUID
	if tenantID, confined := scope.TenantFilter(); confined {
		tenantFilter = &tenantID
	}

	devices, err := uc.deviceRepo.List(ctx, tenantFilter, filter.Offset, filter.Limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "verification lookup failed")
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	persons := make(map[string]*registryDomain.Person)

	matches := make([]*DeviceMatch, 0, len(devices))
	for _, device := range devices {
		person, ok := persons[device.PersonID.String()]
		if !ok {
			person, err = uc.personRepo.GetByID(ctx, device.PersonID)
			if err != nil {
				if apperrors.Is(err, apperrors.ErrNotFound) {
					continue
				}
				return nil, apperrors.Wrap(err, "verification lookup failed")
			}
			persons[device.PersonID.String()] = person
		}

		clearIMEI := uc.codec.Decrypt(device.IMEI)
		if query != "" &&
			!strings.Contains(clearIMEI, query) &&
			!strings.Contains(strings.ToLower(person.Name), query) {
			continue
		}

		revealedDevice := *device
		revealedDevice.IMEI = clearIMEI
		matches = append(matches, &DeviceMatch{
			Device: &revealedDevice,
			Person: uc.revealPerson(scope, person),
		})
	}

	return matches, nil
}
