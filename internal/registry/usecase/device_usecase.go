package usecase

import (
	"context"
	"strings"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	"github.com/allisson/imeiguard/internal/cipher"
	apperrors "github.com/allisson/imeiguard/internal/errors"
	identityDomain "github.com/allisson/imeiguard/internal/identity/domain"
	"github.com/allisson/imeiguard/internal/registry/domain"
	appValidation "github.com/allisson/imeiguard/internal/validation"
)

// RegisterDeviceInput contains the input data for device registration
type RegisterDeviceInput struct {
	PersonID uuid.UUID `json:"person_id"`
	IMEI     string    `json:"imei"`
	Brand    string    `json:"brand"`
	Model    string    `json:"model"`
}

// UpdateDeviceInput contains the input data for device updates.
// Nil pointer fields are left unchanged.
type UpdateDeviceInput struct {
	Brand    *string `json:"brand"`
	Model    *string `json:"model"`
	IsActive *bool   `json:"is_active"`
}

// DeviceUseCase defines the interface for device management operations
type DeviceUseCase interface {
	Register(ctx context.Context, scope identityDomain.Scope, input RegisterDeviceInput) (*domain.Device, error)
	Get(ctx context.Context, scope identityDomain.Scope, id uuid.UUID) (*domain.Device, error)
	ListByPerson(ctx context.Context, scope identityDomain.Scope, personID uuid.UUID) ([]*domain.Device, error)
	Update(ctx context.Context, scope identityDomain.Scope, id uuid.UUID, input UpdateDeviceInput) (*domain.Device, error)
	Reassign(ctx context.Context, scope identityDomain.Scope, id, newPersonID uuid.UUID) (*domain.Device, error)
	Delete(ctx context.Context, scope identityDomain.Scope, id uuid.UUID) error
}

// deviceUseCase handles device-related business logic
type deviceUseCase struct {
	deviceRepo DeviceRepository
	personRepo PersonRepository
	codec      cipher.Codec
}

// NewDeviceUseCase creates a new DeviceUseCase
func NewDeviceUseCase(deviceRepo DeviceRepository, personRepo PersonRepository, codec cipher.Codec) DeviceUseCase {
	return &deviceUseCase{
		deviceRepo: deviceRepo,
		personRepo: personRepo,
		codec:      codec,
	}
}

func (uc *deviceUseCase) validateRegisterDeviceInput(input RegisterDeviceInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.IMEI,
			validation.Required.Error("imei is required"),
			appValidation.IMEI,
		),
		validation.Field(&input.Brand,
			validation.Length(0, 100).Error("brand must be at most 100 characters"),
		),
		validation.Field(&input.Model,
			validation.Length(0, 100).Error("model must be at most 100 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// findByClearIMEI runs the dual-path lookup: the raw value first (legacy
// plaintext rows), then its ciphertext.
func (uc *deviceUseCase) findByClearIMEI(ctx context.Context, clear string) (*domain.Device, error) {
	device, err := uc.deviceRepo.GetByStoredIMEI(ctx, clear)
	if err == nil {
		return device, nil
	}
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	encrypted, err := uc.codec.Encrypt(clear)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encrypt imei")
	}
	return uc.deviceRepo.GetByStoredIMEI(ctx, encrypted)
}

// reveal returns a copy of the device with the stored IMEI decrypted. The
// tenant check has already passed by the time this runs, so the clear IMEI
// is safe to show.
func (uc *deviceUseCase) reveal(device *domain.Device) *domain.Device {
	out := *device
	out.IMEI = uc.codec.Decrypt(device.IMEI)
	return &out
}

// ownerOf loads the device's person and enforces tenant visibility on it.
func (uc *deviceUseCase) ownerOf(ctx context.Context, scope identityDomain.Scope, device *domain.Device) (*domain.Person, error) {
	person, err := uc.personRepo.GetByID(ctx, device.PersonID)
	if err != nil {
		return nil, err
	}
	if err := scope.CanAccessTenant(person.TenantID); err != nil {
		return nil, err
	}
	return person, nil
}

// Register assigns a new device to a person, storing the IMEI encrypted.
func (uc *deviceUseCase) Register(ctx context.Context, scope identityDomain.Scope, input RegisterDeviceInput) (*domain.Device, error) {
	if err := uc.validateRegisterDeviceInput(input); err != nil {
		return nil, err
	}

	person, err := uc.personRepo.GetByID(ctx, input.PersonID)
	if err != nil {
		return nil, err
	}
	if !person.IsActive {
		return nil, domain.ErrPersonInactive
	}
	if err := scope.CanAccessTenant(person.TenantID); err != nil {
		return nil, err
	}

	clear := strings.TrimSpace(input.IMEI)

	if _, err := uc.findByClearIMEI(ctx, clear); err == nil {
		return nil, domain.ErrDeviceAlreadyExists
	} else if !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	encrypted, err := uc.codec.Encrypt(clear)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encrypt imei")
	}

	device := &domain.Device{
		ID:       uuid.Must(uuid.NewV7()),
		PersonID: input.PersonID,
		IMEI:     encrypted,
		Brand:    strings.TrimSpace(input.Brand),
		Model:    strings.TrimSpace(input.Model),
		IsActive: true,
	}

	if err := uc.deviceRepo.Create(ctx, device); err != nil {
		return nil, err
	}

	return uc.reveal(device), nil
}

// Get retrieves a device, enforcing tenant visibility through its owner.
func (uc *deviceUseCase) Get(ctx context.Context, scope identityDomain.Scope, id uuid.UUID) (*domain.Device, error) {
	device, err := uc.deviceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := uc.ownerOf(ctx, scope, device); err != nil {
		return nil, err
	}
	return uc.reveal(device), nil
}

// ListByPerson retrieves the devices assigned to a person.
func (uc *deviceUseCase) ListByPerson(ctx context.Context, scope identityDomain.Scope, personID uuid.UUID) ([]*domain.Device, error) {
	person, err := uc.personRepo.GetByID(ctx, personID)
	if err != nil {
		return nil, err
	}
	if err := scope.CanAccessTenant(person.TenantID); err != nil {
		return nil, err
	}

	devices, err := uc.deviceRepo.ListByPerson(ctx, personID)
	if err != nil {
		return nil, err
	}

	revealed := make([]*domain.Device, 0, len(devices))
	for _, device := range devices {
		revealed = append(revealed, uc.reveal(device))
	}
	return revealed, nil
}

// Update modifies a device's descriptive fields and active flag.
func (uc *deviceUseCase) Update(ctx context.Context, scope identityDomain.Scope, id uuid.UUID, input UpdateDeviceInput) (*domain.Device, error) {
	device, err := uc.deviceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := uc.ownerOf(ctx, scope, device); err != nil {
		return nil, err
	}

	if input.Brand != nil {
		if err := appValidation.WrapValidationError(validation.Validate(*input.Brand,
			validation.Length(0, 100).Error("brand must be at most 100 characters"),
		)); err != nil {
			return nil, err
		}
		device.Brand = strings.TrimSpace(*input.Brand)
	}
	if input.Model != nil {
		if err := appValidation.WrapValidationError(validation.Validate(*input.Model,
			validation.Length(0, 100).Error("model must be at most 100 characters"),
		)); err != nil {
			return nil, err
		}
		device.Model = strings.TrimSpace(*input.Model)
	}
	if input.IsActive != nil {
		device.IsActive = *input.IsActive
	}

	if err := uc.deviceRepo.Update(ctx, device); err != nil {
		return nil, err
	}

	return uc.reveal(device), nil
}

// Reassign moves a device to another person. Both the current and the new
// owner must be visible to the caller's scope.
func (uc *deviceUseCase) Reassign(ctx context.Context, scope identityDomain.Scope, id, newPersonID uuid.UUID) (*domain.Device, error) {
	device, err := uc.deviceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := uc.ownerOf(ctx, scope, device); err != nil {
		return nil, err
	}

	newOwner, err := uc.personRepo.GetByID(ctx, newPersonID)
	if err != nil {
		return nil, err
	}
	if !newOwner.IsActive {
		return nil, domain.ErrPersonInactive
	}
	if err := scope.CanAccessTenant(newOwner.TenantID); err != nil {
		return nil, err
	}

	device.PersonID = newPersonID
	if err := uc.deviceRepo.Update(ctx, device); err != nil {
		return nil, err
	}

	return uc.reveal(device), nil
}

// Delete removes a device. Hard deletion is reserved for privileged roles;
// tenant-scoped callers deactivate instead.
func (uc *deviceUseCase) Delete(ctx context.Context, scope identityDomain.Scope, id uuid.UUID) error {
	if !scope.Privileged() {
		return apperrors.Wrap(apperrors.ErrForbidden, "only privileged roles can delete devices")
	}

	device, err := uc.deviceRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := uc.ownerOf(ctx, scope, device); err != nil {
		return err
	}
	return uc.deviceRepo.Delete(ctx, id)
}
