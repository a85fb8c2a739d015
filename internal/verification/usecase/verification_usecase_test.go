package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/imeiguard/internal/cipher"
	apperrors "github.com/allisson/imeiguard/internal/errors"
	identityDomain "github.com/allisson/imeiguard/internal/identity/domain"
	"github.com/allisson/imeiguard/internal/metrics"
	registryDomain "github.com/allisson/imeiguard/internal/registry/domain"
	tenantDomain "github.com/allisson/imeiguard/internal/tenant/domain"
	"github.com/allisson/imeiguard/internal/verification/domain"
)

type mockDeviceRepository struct {
	mock.Mock
}

func (m *mockDeviceRepository) Create(ctx context.Context, device *registryDomain.Device) error {
	args := m.Called(ctx, device)
	return args.Error(0)
}

func (m *mockDeviceRepository) GetByID(ctx context.Context, id uuid.UUID) (*registryDomain.Device, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registryDomain.Device), args.Error(1)
}

func (m *mockDeviceRepository) GetByStoredIMEI(ctx context.Context, value string) (*registryDomain.Device, error) {
	args := m.Called(ctx, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registryDomain.Device), args.Error(1)
}

func (m *mockDeviceRepository) ListByPerson(ctx context.Context, personID uuid.UUID) ([]*registryDomain.Device, error) {
	args := m.Called(ctx, personID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*registryDomain.Device), args.Error(1)
}

func (m *mockDeviceRepository) List(ctx context.Context, tenantID *uuid.UUID, offset, limit int) ([]*registryDomain.Device, error) {
	args := m.Called(ctx, tenantID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*registryDomain.Device), args.Error(1)
}

func (m *mockDeviceRepository) Update(ctx context.Context, device *registryDomain.Device) error {
	args := m.Called(ctx, device)
	return args.Error(0)
}

func (m *mockDeviceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockDeviceRepository) CountByPerson(ctx context.Context, personID uuid.UUID) (int, error) {
	args := m.Called(ctx, personID)
	return args.Int(0), args.Error(1)
}

func (m *mockDeviceRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}

type mockPersonRepository struct {
	mock.Mock
}

func (m *mockPersonRepository) Create(ctx context.Context, person *registryDomain.Person) error {
	args := m.Called(ctx, person)
	return args.Error(0)
}

func (m *mockPersonRepository) GetByID(ctx context.Context, id uuid.UUID) (*registryDomain.Person, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registryDomain.Person), args.Error(1)
}

func (m *mockPersonRepository) GetByStoredIdentification(ctx context.Context, value string) (*registryDomain.Person, error) {
	args := m.Called(ctx, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registryDomain.Person), args.Error(1)
}

func (m *mockPersonRepository) List(ctx context.Context, tenantID *uuid.UUID, offset, limit int) ([]*registryDomain.Person, error) {
	args := m.Called(ctx, tenantID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*registryDomain.Person), args.Error(1)
}

func (m *mockPersonRepository) Update(ctx context.Context, person *registryDomain.Person) error {
	args := m.Called(ctx, person)
	return args.Error(0)
}

func (m *mockPersonRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockTenantRepository struct {
	mock.Mock
}

func (m *mockTenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*tenantDomain.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenantDomain.Tenant), args.Error(1)
}

func testCodec(t *testing.T) cipher.Codec {
	t.Helper()
	key := []byte("0123456789abcdef0123456789abcdef")
	iv := []byte("abcdef9876543210")
	codec, err := cipher.NewAESCBC(key, iv)
	require.NoError(t, err)
	return codec
}

func adminScope() identityDomain.Scope {
	return identityDomain.Scope{AccountID: uuid.Must(uuid.NewV7()), Role: identityDomain.RoleAdmin}
}

func userScope(tenantID uuid.UUID) identityDomain.Scope {
	return identityDomain.Scope{AccountID: uuid.Must(uuid.NewV7()), Role: identityDomain.RoleUser, TenantID: &tenantID}
}

type verificationFixture struct {
	tenant *tenantDomain.Tenant
	person *registryDomain.Person
	device *registryDomain.Device
}

func newFixture(t *testing.T, codec cipher.Codec, imei string) verificationFixture {
	t.Helper()

	tenantID := uuid.Must(uuid.NewV7())
	personID := uuid.Must(uuid.NewV7())

	encryptedIMEI, err := codec.Encrypt(imei)
	require.NoError(t, err)
	encryptedIdent, err := codec.Encrypt("12345678901")
	require.NoError(t, err)

	return verificationFixture{
		tenant: &tenantDomain.Tenant{ID: tenantID, Name: "acme", IsActive: true},
		person: &registryDomain.Person{
			ID:             personID,
			TenantID:       tenantID,
			Name:           "John Doe",
			Identification: encryptedIdent,
			IsActive:       true,
		},
		device: &registryDomain.Device{
			ID:       uuid.Must(uuid.NewV7()),
			PersonID: personID,
			IMEI:     encryptedIMEI,
			Brand:    "Samsung",
			Model:    "Galaxy S24",
			IsActive: true,
		},
	}
}

func TestVerificationUseCase_Verify(t *testing.T) {
	ctx := context.Background()
	codec := testCodec(t)
	const imei = "123456789012345"

	t.Run("Success_RegisteredIMEIResolvesChain", func(t *testing.T) {
		fx := newFixture(t, codec, imei)
		mockDevices := &mockDeviceRepository{}
		mockPersons := &mockPersonRepository{}
		mockTenants := &mockTenantRepository{}

		mockDevices.On("GetByStoredIMEI", ctx, imei).
			Return(nil, registryDomain.ErrDeviceNotFound).Once()
		mockDevices.On("GetByStoredIMEI", ctx, fx.device.IMEI).Return(fx.device, nil).Once()
		mockPersons.On("GetByID", ctx, fx.person.ID).Return(fx.person, nil).Once()
		mockTenants.On("GetByID", ctx, fx.tenant.ID).Return(fx.tenant, nil).Once()

		uc := NewVerificationUseCase(mockDevices, mockPersons, mockTenants, codec)
		result, err := uc.Verify(ctx, adminScope(), imei)

		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.Equal(t, domain.MessageVerified, result.Message)
		assert.Equal(t, fx.tenant.ID, result.Tenant.ID)
		assert.Equal(t, fx.person.ID, result.Person.ID)
		assert.Equal(t, imei, result.Device.IMEI)
		// Privileged caller sees the clear identification.
		assert.Equal(t, "12345678901", result.Person.Identification)
		mockDevices.AssertExpectations(t)
	})

	t.Run("Success_LegacyPlaintextRowMatchesFirst", func(t *testing.T) {
		fx := newFixture(t, codec, imei)
		fx.device.IMEI = imei // row written before encryption
		mockDevices := &mockDeviceRepository{}
		mockPersons := &mockPersonRepository{}
		mockTenants := &mockTenantRepository{}

		mockDevices.On("GetByStoredIMEI", ctx, imei).Return(fx.device, nil).Once()
		mockPersons.On("GetByID", ctx, fx.person.ID).Return(fx.person, nil).Once()
		mockTenants.On("GetByID", ctx, fx.tenant.ID).Return(fx.tenant, nil).Once()

		uc := NewVerificationUseCase(mockDevices, mockPersons, mockTenants, codec)
		result, err := uc.Verify(ctx, adminScope(), imei)

		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.Equal(t, imei, result.Device.IMEI)
		// Only one lookup ran: the raw path hit.
		mockDevices.AssertNumberOfCalls(t, "GetByStoredIMEI", 1)
	})

	t.Run("Invalid_UnknownIMEI", func(t *testing.T) {
		mockDevices := &mockDeviceRepository{}

		unknown := "999999999999999"
		encrypted, err := codec.Encrypt(unknown)
		require.NoError(t, err)

		mockDevices.On("GetByStoredIMEI", ctx, unknown).
			Return(nil, registryDomain.ErrDeviceNotFound).Once()
		mockDevices.On("GetByStoredIMEI", ctx, encrypted).
			Return(nil, registryDomain.ErrDeviceNotFound).Once()

		uc := NewVerificationUseCase(mockDevices, &mockPersonRepository{}, &mockTenantRepository{}, codec)
		result, err := uc.Verify(ctx, adminScope(), unknown)

		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Equal(t, domain.MessageNotRegistered, result.Message)
		assert.Nil(t, result.Person)
		assert.Nil(t, result.Tenant)
	})

	t.Run("Invalid_OwnerMissing", func(t *testing.T) {
		fx := newFixture(t, codec, imei)
		mockDevices := &mockDeviceRepository{}
		mockPersons := &mockPersonRepository{}

		mockDevices.On("GetByStoredIMEI", ctx, imei).Return(fx.device, nil).Once()
		mockPersons.On("GetByID", ctx, fx.person.ID).
			Return(nil, registryDomain.ErrPersonNotFound).Once()

		uc := NewVerificationUseCase(mockDevices, mockPersons, &mockTenantRepository{}, codec)
		result, err := uc.Verify(ctx, adminScope(), imei)

		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Equal(t, domain.MessageUnassigned, result.Message)
	})

	t.Run("Invalid_OwnerInactive", func(t *testing.T) {
		fx := newFixture(t, codec, imei)
		fx.person.IsActive = false
		mockDevices := &mockDeviceRepository{}
		mockPersons := &mockPersonRepository{}

		mockDevices.On("GetByStoredIMEI", ctx, imei).Return(fx.device, nil).Once()
		mockPersons.On("GetByID", ctx, fx.person.ID).Return(fx.person, nil).Once()

		uc := NewVerificationUseCase(mockDevices, mockPersons, &mockTenantRepository{}, codec)
		result, err := uc.Verify(ctx, adminScope(), imei)

		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Equal(t, domain.MessageUnassigned, result.Message)
	})

	t.Run("Error_OutOfTenantForbidden", func(t *testing.T) {
		fx := newFixture(t, codec, imei)
		mockDevices := &mockDeviceRepository{}
		mockPersons := &mockPersonRepository{}

		mockDevices.On("GetByStoredIMEI", ctx, imei).Return(fx.device, nil).Once()
		mockPersons.On("GetByID", ctx, fx.person.ID).Return(fx.person, nil).Once()

		uc := NewVerificationUseCase(mockDevices, mockPersons, &mockTenantRepository{}, codec)
		_, err := uc.Verify(ctx, userScope(uuid.Must(uuid.NewV7())), imei)

		assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
	})

	t.Run("ConfinedScopeSeesFingerprint", func(t *testing.T) {
		fx := newFixture(t, codec, imei)
		mockDevices := &mockDeviceRepository{}
		mockPersons := &mockPersonRepository{}
		mockTenants := &mockTenantRepository{}

		mockDevices.On("GetByStoredIMEI", ctx, imei).Return(fx.device, nil).Once()
		mockPersons.On("GetByID", ctx, fx.person.ID).Return(fx.person, nil).Once()
		mockTenants.On("GetByID", ctx, fx.tenant.ID).Return(fx.tenant, nil).Once()

		uc := NewVerificationUseCase(mockDevices, mockPersons, mockTenants, codec)
		result, err := uc.Verify(ctx, userScope(fx.tenant.ID), imei)

		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.Equal(t, codec.Fingerprint("12345678901"), result.Person.Identification)
	})

	t.Run("Error_MalformedIMEIBeforeStoreAccess", func(t *testing.T) {
		mockDevices := &mockDeviceRepository{}

		uc := NewVerificationUseCase(mockDevices, &mockPersonRepository{}, &mockTenantRepository{}, codec)
		_, err := uc.Verify(ctx, adminScope(), "12ab")

		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
		mockDevices.AssertNotCalled(t, "GetByStoredIMEI", mock.Anything, mock.Anything)
	})
}

func TestVerificationUseCase_SearchDevices(t *testing.T) {
	ctx := context.Background()
	codec := testCodec(t)

	fx := newFixture(t, codec, "123456789012345")
	other := newFixture(t, codec, "555555555555555")
	other.person.Name = "Jane Roe"

	t.Run("Success_FilterByIMEISubstring", func(t *testing.T) {
		mockDevices := &mockDeviceRepository{}
		mockPersons := &mockPersonRepository{}

		mockDevices.On("List", ctx, (*uuid.UUID)(nil), 0, 50).
			Return([]*registryDomain.Device{fx.device, other.device}, nil).Once()
		mockPersons.On("GetByID", ctx, fx.person.ID).Return(fx.person, nil).Once()
		mockPersons.On("GetByID", ctx, other.person.ID).Return(other.person, nil).Once()

		uc := NewVerificationUseCase(mockDevices, mockPersons, &mockTenantRepository{}, codec)
		matches, err := uc.SearchDevices(ctx, adminScope(), SearchFilter{Query: "1234567890", Offset: 0, Limit: 50})

		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "123456789012345", matches[0].Device.IMEI)
	})

	t.Run("Success_FilterByOwnerName", func(t *testing.T) {
		mockDevices := &mockDeviceRepository{}
		mockPersons := &mockPersonRepository{}

		mockDevices.On("List", ctx, (*uuid.UUID)(nil), 0, 50).
			Return([]*registryDomain.Device{fx.device, other.device}, nil).Once()
		mockPersons.On("GetByID", ctx, fx.person.ID).Return(fx.person, nil).Once()
		mockPersons.On("GetByID", ctx, other.person.ID).Return(other.person, nil).Once()

		uc := NewVerificationUseCase(mockDevices, mockPersons, &mockTenantRepository{}, codec)
		matches, err := uc.SearchDevices(ctx, adminScope(), SearchFilter{Query: "jane", Offset: 0, Limit: 50})

		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "Jane Roe", matches[0].Person.Name)
	})

	t.Run("Success_ConfinedScopePassesTenantFilter", func(t *testing.T) {
		mockDevices := &mockDeviceRepository{}
		mockPersons := &mockPersonRepository{}

		mockDevices.On("List", ctx, mock.MatchedBy(func(id *uuid.UUID) bool {
			return id != nil && *id == fx.tenant.ID
		}), 0, 50).Return([]*registryDomain.Device{fx.device}, nil).Once()
		mockPersons.On("GetByID", ctx, fx.person.ID).Return(fx.person, nil).Once()

		uc := NewVerificationUseCase(mockDevices, mockPersons, &mockTenantRepository{}, codec)
		matches, err := uc.SearchDevices(ctx, userScope(fx.tenant.ID), SearchFilter{Offset: 0, Limit: 50})

		require.NoError(t, err)
		require.Len(t, matches, 1)
		mockDevices.AssertExpectations(t)
	})
}

func TestVerificationUseCaseWithMetrics(t *testing.T) {
	ctx := context.Background()
	codec := testCodec(t)

	mockDevices := &mockDeviceRepository{}
	unknown := "999999999999999"
	encrypted, err := codec.Encrypt(unknown)
	require.NoError(t, err)

	mockDevices.On("GetByStoredIMEI", ctx, unknown).
		Return(nil, registryDomain.ErrDeviceNotFound).Once()
	mockDevices.On("GetByStoredIMEI", ctx, encrypted).
		Return(nil, registryDomain.ErrDeviceNotFound).Once()

	inner := NewVerificationUseCase(mockDevices, &mockPersonRepository{}, &mockTenantRepository{}, codec)
	uc := NewVerificationUseCaseWithMetrics(inner, metrics.NewNoOpBusinessMetrics())

	result, err := uc.Verify(ctx, adminScope(), unknown)

	require.NoError(t, err)
	assert.False(t, result.Valid)
}
