// Package usecase implements the tenant business logic.
package usecase

import (
	"context"
	"strings"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	"github.com/allisson/imeiguard/internal/database"
	apperrors "github.com/allisson/imeiguard/internal/errors"
	identityDomain "github.com/allisson/imeiguard/internal/identity/domain"
	"github.com/allisson/imeiguard/internal/tenant/domain"
	appValidation "github.com/allisson/imeiguard/internal/validation"
)

// CreateTenantInput contains the input data for tenant creation
type CreateTenantInput struct {
	Name string `json:"name"`
}

// UpdateTenantInput contains the input data for tenant updates
type UpdateTenantInput struct {
	Name string `json:"name"`
}

// TenantUseCase defines the interface for tenant management operations
type TenantUseCase interface {
	Create(ctx context.Context, scope identityDomain.Scope, input CreateTenantInput) (*domain.Tenant, error)
	Get(ctx context.Context, scope identityDomain.Scope, id uuid.UUID) (*domain.Tenant, error)
	List(ctx context.Context, scope identityDomain.Scope, offset, limit int) ([]*domain.Tenant, error)
	Update(ctx context.Context, scope identityDomain.Scope, id uuid.UUID, input UpdateTenantInput) (*domain.Tenant, error)
	Deactivate(ctx context.Context, scope identityDomain.Scope, id uuid.UUID) error
}

// TenantRepository interface defines tenant repository operations
type TenantRepository interface {
	Create(ctx context.Context, tenant *domain.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
	ListActive(ctx context.Context, offset, limit int) ([]*domain.Tenant, error)
	Update(ctx context.Context, tenant *domain.Tenant) error
}

// TenantDeviceCounter reports how many registered devices belong to persons
// of a tenant. Implemented by the device repository; declared here so the
// tenant context does not import the registry context.
type TenantDeviceCounter interface {
	CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error)
}

// tenantUseCase handles tenant-related business logic
type tenantUseCase struct {
	txManager     database.TxManager
	tenantRepo    TenantRepository
	deviceCounter TenantDeviceCounter
}

// NewTenantUseCase creates a new TenantUseCase
func NewTenantUseCase(
	txManager database.TxManager,
	tenantRepo TenantRepository,
	deviceCounter TenantDeviceCounter,
) TenantUseCase {
	return &tenantUseCase{
		txManager:     txManager,
		tenantRepo:    tenantRepo,
		deviceCounter: deviceCounter,
	}
}

func validateTenantName(name string) error {
	err := validation.Validate(name,
		validation.Required.Error("name is required"),
		appValidation.NotBlank,
		validation.Length(2, 255).Error("name must be between 2 and 255 characters"),
	)
	return appValidation.WrapValidationError(err)
}

// Create registers a new tenant. Privileged scopes only.
func (uc *tenantUseCase) Create(ctx context.Context, scope identityDomain.Scope, input CreateTenantInput) (*domain.Tenant, error) {
	if !scope.Privileged() {
		return nil, apperrors.ErrForbidden
	}

	if err := validateTenantName(input.Name); err != nil {
		return nil, err
	}

	tenant := &domain.Tenant{
		ID:       uuid.Must(uuid.NewV7()),
		Name:     strings.TrimSpace(input.Name),
		IsActive: true,
	}

	if err := uc.tenantRepo.Create(ctx, tenant); err != nil {
		return nil, err
	}

	return tenant, nil
}

// Get retrieves a tenant. Non-privileged scopes may only fetch their own
// tenant; anything else is ErrForbidden.
func (uc *tenantUseCase) Get(ctx context.Context, scope identityDomain.Scope, id uuid.UUID) (*domain.Tenant, error) {
	if err := scope.CanAccessTenant(id); err != nil {
		return nil, err
	}
	return uc.tenantRepo.GetByID(ctx, id)
}

// List retrieves active tenants. Non-privileged scopes see only their own.
func (uc *tenantUseCase) List(ctx context.Context, scope identityDomain.Scope, offset, limit int) ([]*domain.Tenant, error) {
	if tenantID, confined := scope.TenantFilter(); confined {
		tenant, err := uc.tenantRepo.GetByID(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		return []*domain.Tenant{tenant}, nil
	}

	return uc.tenantRepo.ListActive(ctx, offset, limit)
}

// Update renames a tenant. Privileged scopes only.
func (uc *tenantUseCase) Update(ctx context.Context, scope identityDomain.Scope, id uuid.UUID, input UpdateTenantInput) (*domain.Tenant, error) {
	if !scope.Privileged() {
		return nil, apperrors.ErrForbidden
	}

	if err := validateTenantName(input.Name); err != nil {
		return nil, err
	}

	tenant, err := uc.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	tenant.Name = strings.TrimSpace(input.Name)
	if err := uc.tenantRepo.Update(ctx, tenant); err != nil {
		return nil, err
	}

	return tenant, nil
}

// Deactivate soft deletes a tenant. Rejected while persons of the tenant
// still hold devices; the device count runs inside the same transaction as
// the update so a concurrent registration cannot slip past the guard.
func (uc *tenantUseCase) Deactivate(ctx context.Context, scope identityDomain.Scope, id uuid.UUID) error {
	if !scope.Privileged() {
		return apperrors.ErrForbidden
	}

	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		tenant, err := uc.tenantRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !tenant.IsActive {
			return domain.ErrTenantInactive
		}

		count, err := uc.deviceCounter.CountByTenant(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrTenantHasDevices
		}

		tenant.IsActive = false
		return uc.tenantRepo.Update(ctx, tenant)
	})
}
