// Package usecase implements the registry business logic: person and device
// management over encrypted identifier columns.
package usecase

import (
	"context"
	"strings"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	"github.com/allisson/imeiguard/internal/cipher"
	"github.com/allisson/imeiguard/internal/database"
	apperrors "github.com/allisson/imeiguard/internal/errors"
	identityDomain "github.com/allisson/imeiguard/internal/identity/domain"
	"github.com/allisson/imeiguard/internal/registry/domain"
	tenantDomain "github.com/allisson/imeiguard/internal/tenant/domain"
	appValidation "github.com/allisson/imeiguard/internal/validation"
)

// CreatePersonInput contains the input data for person registration.
// Phone and Email are optional contact fields.
type CreatePersonInput struct {
	TenantID       uuid.UUID `json:"tenant_id"`
	Name           string    `json:"name"`
	Identification string    `json:"identification"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email"`
}

// UpdatePersonInput contains the input data for person updates.
// Nil pointer fields are left unchanged.
type UpdatePersonInput struct {
	Name           *string `json:"name"`
	Identification *string `json:"identification"`
	Phone          *string `json:"phone"`
	Email          *string `json:"email"`
	IsActive       *bool   `json:"is_active"`
}

// PersonUseCase defines the interface for person management operations
type PersonUseCase interface {
	Create(ctx context.Context, scope identityDomain.Scope, input CreatePersonInput) (*domain.Person, error)
	Get(ctx context.Context, scope identityDomain.Scope, id uuid.UUID) (*domain.Person, error)
	List(ctx context.Context, scope identityDomain.Scope, offset, limit int) ([]*domain.Person, error)
	Update(ctx context.Context, scope identityDomain.Scope, id uuid.UUID, input UpdatePersonInput) (*domain.Person, error)
	Delete(ctx context.Context, scope identityDomain.Scope, id uuid.UUID) error
}

// PersonRepository interface defines person repository operations
type PersonRepository interface {
	Create(ctx context.Context, person *domain.Person) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Person, error)
	GetByStoredIdentification(ctx context.Context, value string) (*domain.Person, error)
	List(ctx context.Context, tenantID *uuid.UUID, offset, limit int) ([]*domain.Person, error)
	Update(ctx context.Context, person *domain.Person) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// DeviceRepository interface defines device repository operations
type DeviceRepository interface {
	Create(ctx context.Context, device *domain.Device) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Device, error)
	GetByStoredIMEI(ctx context.Context, value string) (*domain.Device, error)
	ListByPerson(ctx context.Context, personID uuid.UUID) ([]*domain.Device, error)
	List(ctx context.Context, tenantID *uuid.UUID, offset, limit int) ([]*domain.Device, error)
	Update(ctx context.Context, device *domain.Device) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByPerson(ctx context.Context, personID uuid.UUID) (int, error)
	CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error)
}

// TenantRepository is the slice of the tenant store the registry needs.
type TenantRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*tenantDomain.Tenant, error)
}

// personUseCase handles person-related business logic
type personUseCase struct {
	txManager  database.TxManager
	personRepo PersonRepository
	deviceRepo DeviceRepository
	tenantRepo TenantRepository
	codec      cipher.Codec
}

// NewPersonUseCase creates a new PersonUseCase
func NewPersonUseCase(
	txManager database.TxManager,
	personRepo PersonRepository,
	deviceRepo DeviceRepository,
	tenantRepo TenantRepository,
	codec cipher.Codec,
) PersonUseCase {
	return &personUseCase{
		txManager:  txManager,
		personRepo: personRepo,
		deviceRepo: deviceRepo,
		tenantRepo: tenantRepo,
		codec:      codec,
	}
}

func (uc *personUseCase) validateCreatePersonInput(input CreatePersonInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(2, 255).Error("name must be between 2 and 255 characters"),
		),
		validation.Field(&input.Identification,
			validation.Required.Error("identification is required"),
			appValidation.Identification,
		),
		validation.Field(&input.Phone,
			validation.Length(0, 20).Error("phone must be at most 20 characters"),
		),
		validation.Field(&input.Email,
			validation.When(input.Email != "", appValidation.Email),
		),
	)
	return appValidation.WrapValidationError(err)
}

// findByClearIdentification runs the dual-path lookup: the raw value first
// (legacy plaintext rows), then its ciphertext. A hit on either path means
// the identification is already registered.
func (uc *personUseCase) findByClearIdentification(ctx context.Context, clear string) (*domain.Person, error) {
	person, err := uc.personRepo.GetByStoredIdentification(ctx, clear)
	if err == nil {
		return person, nil
	}
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	encrypted, err := uc.codec.Encrypt(clear)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encrypt identification")
	}
	return uc.personRepo.GetByStoredIdentification(ctx, encrypted)
}

// reveal translates the stored identification for the caller: privileged
// scopes get the decrypted value, everyone else its fingerprint.
func (uc *personUseCase) reveal(scope identityDomain.Scope, person *domain.Person) *domain.Person {
	out := *person
	if scope.Privileged() {
		out.Identification = uc.codec.Decrypt(person.Identification)
	} else {
		out.Identification = uc.codec.Fingerprint(uc.codec.Decrypt(person.Identification))
	}
	return &out
}

// Create registers a new person with an encrypted identification.
func (uc *personUseCase) Create(ctx context.Context, scope identityDomain.Scope, input CreatePersonInput) (*domain.Person, error) {
	if err := scope.CanAccessTenant(input.TenantID); err != nil {
		return nil, err
	}

	if err := uc.validateCreatePersonInput(input); err != nil {
		return nil, err
	}

	tenant, err := uc.tenantRepo.GetByID(ctx, input.TenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.IsActive {
		return nil, tenantDomain.ErrTenantInactive
	}

	clear := strings.TrimSpace(input.Identification)

	if _, err := uc.findByClearIdentification(ctx, clear); err == nil {
		return nil, domain.ErrPersonAlreadyExists
	} else if !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	encrypted, err := uc.codec.Encrypt(clear)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encrypt identification")
	}

	person := &domain.Person{
		ID:             uuid.Must(uuid.NewV7()),
		TenantID:       input.TenantID,
		Name:           strings.TrimSpace(input.Name),
		Identification: encrypted,
		Phone:          strings.TrimSpace(input.Phone),
		Email:          strings.TrimSpace(input.Email),
		IsActive:       true,
	}

	if err := uc.personRepo.Create(ctx, person); err != nil {
		return nil, err
	}

	return uc.reveal(scope, person), nil
}

// Get retrieves a person, enforcing tenant visibility.
func (uc *personUseCase) Get(ctx context.Context, scope identityDomain.Scope, id uuid.UUID) (*domain.Person, error) {
	person, err := uc.personRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := scope.CanAccessTenant(person.TenantID); err != nil {
		return nil, err
	}
	return uc.reveal(scope, person), nil
}

// List retrieves persons bounded by the scope's tenant filter.
func (uc *personUseCase) List(ctx context.Context, scope identityDomain.Scope, offset, limit int) ([]*domain.Person, error) {
	var tenantFilter *uuid.UUID
	if tenantID, confined := scope.TenantFilter(); confined {
		tenantFilter = &tenantID
	}

	persons, err := uc.personRepo.List(ctx, tenantFilter, offset, limit)
	if err != nil {
		return nil, err
	}

	revealed := make([]*domain.Person, 0, len(persons))
	for _, person := range persons {
		revealed = append(revealed, uc.reveal(scope, person))
	}
	return revealed, nil
}

// Update modifies a person. A changed identification goes through the same
// dual-path uniqueness check as creation.
func (uc *personUseCase) Update(ctx context.Context, scope identityDomain.Scope, id uuid.UUID, input UpdatePersonInput) (*domain.Person, error) {
	person, err := uc.personRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := scope.CanAccessTenant(person.TenantID); err != nil {
		return nil, err
	}

	if input.Name != nil {
		if err := appValidation.WrapValidationError(validation.Validate(*input.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(2, 255).Error("name must be between 2 and 255 characters"),
		)); err != nil {
			return nil, err
		}
		person.Name = strings.TrimSpace(*input.Name)
	}

	if input.Identification != nil {
		clear := strings.TrimSpace(*input.Identification)
		if err := appValidation.WrapValidationError(validation.Validate(clear,
			validation.Required.Error("identification is required"),
			appValidation.Identification,
		)); err != nil {
			return nil, err
		}

		existing, err := uc.findByClearIdentification(ctx, clear)
		if err == nil && existing.ID != person.ID {
			return nil, domain.ErrPersonAlreadyExists
		}
		if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}

		encrypted, err := uc.codec.Encrypt(clear)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to encrypt identification")
		}
		person.Identification = encrypted
	}

	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if err := appValidation.WrapValidationError(validation.Validate(phone,
			validation.Length(0, 20).Error("phone must be at most 20 characters"),
		)); err != nil {
			return nil, err
		}
		person.Phone = phone
	}

	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if email != "" {
			if err := appValidation.WrapValidationError(validation.Validate(email,
				appValidation.Email,
			)); err != nil {
				return nil, err
			}
		}
		person.Email = email
	}

	if input.IsActive != nil {
		person.IsActive = *input.IsActive
	}

	if err := uc.personRepo.Update(ctx, person); err != nil {
		return nil, err
	}

	return uc.reveal(scope, person), nil
}

// Delete removes a person. Rejected while devices remain assigned; the
// device count runs inside the delete transaction.
func (uc *personUseCase) Delete(ctx context.Context, scope identityDomain.Scope, id uuid.UUID) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		person, err := uc.personRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := scope.CanAccessTenant(person.TenantID); err != nil {
			return err
		}

		count, err := uc.deviceRepo.CountByPerson(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrPersonHasDevices
		}

		return uc.personRepo.Delete(ctx, id)
	})
}
