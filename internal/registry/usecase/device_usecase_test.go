package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/imeiguard/internal/errors"
	"github.com/allisson/imeiguard/internal/registry/domain"
)

func TestDeviceUseCase_Register(t *testing.T) {
	ctx := context.Background()
	codec := testCodec(t)
	tenantID := uuid.Must(uuid.NewV7())

	person := &domain.Person{
		ID:       uuid.Must(uuid.NewV7()),
		TenantID: tenantID,
		Name:     "John Doe",
		IsActive: true,
	}

	t.Run("Success_StoresEncryptedIMEI", func(t *testing.T) {
		mockDevices := &mockDeviceRepository{}
		mockPersons := &mockPersonRepository{}

		encrypted, err := codec.Encrypt("123456789012345")
		require.NoError(t, err)

		mockPersons.On("GetByID", ctx, person.ID).Return(person, nil).Once()
		mockDevices.On("GetByStoredIMEI", ctx, "123456789012345").
			Return(nil, domain.ErrDeviceNotFound).Once()
		mockDevices.On("GetByStoredIMEI", ctx, encrypted).
			Return(nil, domain.ErrDeviceNotFound).Once()
		mockDevices.On("Create", ctx, mock.MatchedBy(func(d *domain.Device) bool {
			return d.PersonID == person.ID && d.IMEI == encrypted &&
				d.Brand == "Samsung" && d.Model == "Galaxy S24" && d.IsActive
		})).Return(nil).Once()

		uc := NewDeviceUseCase(mockDevices, mockPersons, codec)
		device, err := uc.Register(ctx, userScope(tenantID), RegisterDeviceInput{
			PersonID: person.ID,
			IMEI:     "123456789012345",
			Brand:    "Samsung",
			Model:    "Galaxy S24",
		})

		require.NoError(t, err)
		assert.Equal(t, "123456789012345", device.IMEI)
		mockDevices.AssertExpectations(t)
		mockPersons.AssertExpectations(t)
	})

	t.Run("Error_DuplicateOnPlaintextPath", func(t *testing.T) {
		mockDevices := &mockDeviceRepository{}
		mockPersons := &mockPersonRepository{}

		existing := &domain.Device{ID: uuid.Must(uuid.NewV7()), PersonID: person.ID, IMEI: "123456789012345"}

		mockPersons.On("GetByID", ctx, person.ID).Return(person, nil).Once()
		mockDevices.On("GetByStoredIMEI", ctx, "123456789012345").Return(existing, nil).Once()

		uc := NewDeviceUseCase(mockDevices, mockPersons, codec)
		_, err := uc.Register(ctx, adminScope(), RegisterDeviceInput{
			PersonID: person.ID,
			IMEI:     "123456789012345",
		})

		assert.ErrorIs(t, err, domain.ErrDeviceAlreadyExists)
	})

	t.Run("Error_DuplicateOnCiphertextPath", func(t *testing.T) {
		mockDevices := &mockDeviceRepository{}
		mockPersons := &mockPersonRepository{}

		encrypted, err := codec.Encrypt("123456789012345")
		require.NoError(t, err)
		existing := &domain.Device{ID: uuid.Must(uuid.NewV7()), PersonID: person.ID, IMEI: encrypted}

		mockPersons.On("GetByID", ctx, person.ID).Return(person, nil).Once()
		mockDevices.On("GetByStoredIMEI", ctx, "123456789012345").
			Return(nil, domain.ErrDeviceNotFound).Once()
		mockDevices.On("GetByStoredIMEI", ctx, encrypted).Return(existing, nil).Once()

		uc := NewDeviceUseCase(mockDevices, mockPersons, codec)
		_, err = uc.Register(ctx, adminScope(), RegisterDeviceInput{
			PersonID: person.ID,
			IMEI:     "123456789012345",
		})

		assert.ErrorIs(t, err, domain.ErrDeviceAlreadyExists)
	})

	t.Run("Error_InvalidIMEI", func(t *testing.T) {
		uc := NewDeviceUseCase(&mockDeviceRepository{}, &mockPersonRepository{}, codec)
		_, err := uc.Register(ctx, adminScope(), RegisterDeviceInput{
			PersonID: person.ID,
			IMEI:     "12345",
		})

		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})

	t.Run("Error_InactivePerson", func(t *testing.T) {
		mockPersons := &mockPersonRepository{}

		inactive := *person
		inactive.IsActive = false
		mockPersons.On("GetByID", ctx, person.ID).Return(&inactive, nil).Once()

		uc := NewDeviceUseCase(&mockDeviceRepository{}, mockPersons, codec)
		_, err := uc.Register(ctx, adminScope(), RegisterDeviceInput{
			PersonID: person.ID,
			IMEI:     "123456789012345",
		})

		assert.ErrorIs(t, err, domain.ErrPersonInactive)
	})

	t.Run("Error_ForeignTenantForbidden", func(t *testing.T) {
		mockPersons := &mockPersonRepository{}
		mockPersons.On("GetByID", ctx, person.ID).Return(person, nil).Once()

		uc := NewDeviceUseCase(&mockDeviceRepository{}, mockPersons, codec)
		_, err := uc.Register(ctx, userScope(uuid.Must(uuid.NewV7())), RegisterDeviceInput{
			PersonID: person.ID,
			IMEI:     "123456789012345",
		})

		assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
	})
}

func TestDeviceUseCase_Get(t *testing.T) {
	ctx := context.Background()
	codec := testCodec(t)
	tenantID := uuid.Must(uuid.NewV7())

	person := &domain.Person{ID: uuid.Must(uuid.NewV7()), TenantID: tenantID, IsActive: true}

	encrypted, err := codec.Encrypt("123456789012345")
	require.NoError(t, err)
	device := &domain.Device{
		ID:       uuid.Must(uuid.NewV7()),
		PersonID: person.ID,
		IMEI:     encrypted,
		IsActive: true,
	}

	t.Run("Success_RevealsClearIMEI", func(t *testing.T) {
		mockDevices := &mockDeviceRepository{}
		mockPersons := &mockPersonRepository{}

		mockDevices.On("GetByID", ctx, device.ID).Return(device, nil).Once()
		mockPersons.On("GetByID", ctx, person.ID).Return(person, nil).Once()

		uc := NewDeviceUseCase(mockDevices, mockPersons, codec)
		got, err := uc.Get(ctx, userScope(tenantID), device.ID)

		require.NoError(t, err)
		assert.Equal(t, "123456789012345", got.IMEI)
	})

	t.Run("Error_ForeignTenantForbidden", func(t *testing.T) {
		mockDevices := &mockDeviceRepository{}
		mockPersons := &mockPersonRepository{}

		mockDevices.On("GetByID", ctx, device.ID).Return(device, nil).Once()
		mockPersons.On("GetByID", ctx, person.ID).Return(person, nil).Once()

		uc := NewDeviceUseCase(mockDevices, mockPersons, codec)
		_, err := uc.Get(ctx, userScope(uuid.Must(uuid.NewV7())), device.ID)

		assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
	})

	t.Run("Success_LegacyPlaintextPassesThrough", func(t *testing.T) {
		mockDevices := &mockDeviceRepository{}
		mockPersons := &mockPersonRepository{}

		legacy := &domain.Device{ID: uuid.Must(uuid.NewV7()), PersonID: person.ID, IMEI: "123456789012345"}
		mockDevices.On("GetByID", ctx, legacy.ID).Return(legacy, nil).Once()
		mockPersons.On("GetByID", ctx, person.ID).Return(person, nil).Once()

		uc := NewDeviceUseCase(mockDevices, mockPersons, codec)
		got, err := uc.Get(ctx, adminScope(), legacy.ID)

		require.NoError(t, err)
		assert.Equal(t, "123456789012345", got.IMEI)
	})
}

func TestDeviceUseCase_Reassign(t *testing.T) {
	ctx := context.Background()
	codec := testCodec(t)
	tenantID := uuid.Must(uuid.NewV7())

	owner := &domain.Person{ID: uuid.Must(uuid.NewV7()), TenantID: tenantID, IsActive: true}
	newOwner := &domain.Person{ID: uuid.Must(uuid.NewV7()), TenantID: tenantID, IsActive: true}

	encrypted, err := codec.Encrypt("123456789012345")
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		mockDevices := &mockDeviceRepository{}
		mockPersons := &mockPersonRepository{}

		device := &domain.Device{ID: uuid.Must(uuid.NewV7()), PersonID: owner.ID, IMEI: encrypted, IsActive: true}

		mockDevices.On("GetByID", ctx, device.ID).Return(device, nil).Once()
		mockPersons.On("GetByID", ctx, owner.ID).Return(owner, nil).Once()
		mockPersons.On("GetByID", ctx, newOwner.ID).Return(newOwner, nil).Once()
		mockDevices.On("Update", ctx, mock.MatchedBy(func(d *domain.Device) bool {
			return d.PersonID == newOwner.ID
		})).Return(nil).Once()

		uc := NewDeviceUseCase(mockDevices, mockPersons, codec)
		updated, err := uc.Reassign(ctx, adminScope(), device.ID, newOwner.ID)

		require.NoError(t, err)
		assert.Equal(t, newOwner.ID, updated.PersonID)
		mockDevices.AssertExpectations(t)
	})

	t.Run("Error_InactiveNewOwner", func(t *testing.T) {
		mockDevices := &mockDeviceRepository{}
		mockPersons := &mockPersonRepository{}

		device := &domain.Device{ID: uuid.Must(uuid.NewV7()), PersonID: owner.ID, IMEI: encrypted, IsActive: true}
		inactive := *newOwner
		inactive.IsActive = false

		mockDevices.On("GetByID", ctx, device.ID).Return(device, nil).Once()
		mockPersons.On("GetByID", ctx, owner.ID).Return(owner, nil).Once()
		mockPersons.On("GetByID", ctx, newOwner.ID).Return(&inactive, nil).Once()

		uc := NewDeviceUseCase(mockDevices, mockPersons, codec)
		_, err := uc.Reassign(ctx, adminScope(), device.ID, newOwner.ID)

		assert.ErrorIs(t, err, domain.ErrPersonInactive)
	})
}

func TestDeviceUseCase_Delete(t *testing.T) {
	ctx := context.Background()
	codec := testCodec(t)
	tenantID := uuid.Must(uuid.NewV7())

	person := &domain.Person{ID: uuid.Must(uuid.NewV7()), TenantID: tenantID, IsActive: true}
	device := &domain.Device{ID: uuid.Must(uuid.NewV7()), PersonID: person.ID, IMEI: "123456789012345"}

	t.Run("Success", func(t *testing.T) {
		mockDevices := &mockDeviceRepository{}
		mockPersons := &mockPersonRepository{}

		mockDevices.On("GetByID", ctx, device.ID).Return(device, nil).Once()
		mockPersons.On("GetByID", ctx, person.ID).Return(person, nil).Once()
		mockDevices.On("Delete", ctx, device.ID).Return(nil).Once()

		uc := NewDeviceUseCase(mockDevices, mockPersons, codec)
		err := uc.Delete(ctx, adminScope(), device.ID)

		require.NoError(t, err)
		mockDevices.AssertExpectations(t)
	})

	t.Run("Error_NonPrivilegedForbidden", func(t *testing.T) {
		uc := NewDeviceUseCase(&mockDeviceRepository{}, &mockPersonRepository{}, codec)
		err := uc.Delete(ctx, userScope(tenantID), device.ID)

		assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		mockDevices := &mockDeviceRepository{}

		mockDevices.On("GetByID", ctx, device.ID).Return(nil, domain.ErrDeviceNotFound).Once()

		uc := NewDeviceUseCase(mockDevices, &mockPersonRepository{}, codec)
		err := uc.Delete(ctx, adminScope(), device.ID)

		assert.ErrorIs(t, err, domain.ErrDeviceNotFound)
	})
}
