// Package usecase implements the identity business logic and authorization guards.
package usecase

import (
	"context"
	"strings"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	"github.com/allisson/imeiguard/internal/database"
	apperrors "github.com/allisson/imeiguard/internal/errors"
	"github.com/allisson/imeiguard/internal/identity/domain"
	"github.com/allisson/imeiguard/internal/identity/service"
	appValidation "github.com/allisson/imeiguard/internal/validation"
)

// CreateAccountInput contains the input data for account creation
type CreateAccountInput struct {
	Username string     `json:"username"`
	Password string     `json:"password"`
	Role     string     `json:"role"`
	TenantID *uuid.UUID `json:"tenant_id"`
}

// UpdateAccountInput contains the input data for account updates.
// Nil pointer fields are left unchanged.
type UpdateAccountInput struct {
	Password *string    `json:"password"`
	Role     *string    `json:"role"`
	TenantID *uuid.UUID `json:"tenant_id"`
	IsActive *bool      `json:"is_active"`
}

// AccountUseCase defines the interface for account management operations
type AccountUseCase interface {
	Create(ctx context.Context, scope domain.Scope, input CreateAccountInput) (*domain.Account, error)
	Get(ctx context.Context, scope domain.Scope, id uuid.UUID) (*domain.Account, error)
	List(ctx context.Context, scope domain.Scope, offset, limit int) ([]*domain.Account, error)
	Update(ctx context.Context, scope domain.Scope, id uuid.UUID, input UpdateAccountInput) (*domain.Account, error)
	Delete(ctx context.Context, scope domain.Scope, id uuid.UUID) error
}

// AccountRepository interface defines account repository operations
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	List(ctx context.Context, offset, limit int) ([]*domain.Account, error)
	Update(ctx context.Context, account *domain.Account) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountActiveAdmins(ctx context.Context) (int, error)
}

// accountUseCase handles account-related business logic
type accountUseCase struct {
	txManager       database.TxManager
	accountRepo     AccountRepository
	passwordService service.PasswordService
}

// NewAccountUseCase creates a new AccountUseCase
func NewAccountUseCase(
	txManager database.TxManager,
	accountRepo AccountRepository,
	passwordService service.PasswordService,
) AccountUseCase {
	return &accountUseCase{
		txManager:       txManager,
		accountRepo:     accountRepo,
		passwordService: passwordService,
	}
}

// validateCreateAccountInput validates the creation input using jellydator/validation
func (uc *accountUseCase) validateCreateAccountInput(input CreateAccountInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Username,
			validation.Required.Error("username is required"),
			appValidation.NotBlank,
			appValidation.NoWhitespace,
			validation.Length(3, 100).Error("username must be between 3 and 100 characters"),
		),
		validation.Field(&input.Password,
			validation.Required.Error("password is required"),
			validation.Length(8, 128).Error("password must be between 8 and 128 characters"),
			appValidation.PasswordStrength{
				MinLength:     8,
				RequireUpper:  true,
				RequireLower:  true,
				RequireNumber: true,
			},
		),
		validation.Field(&input.Role,
			validation.Required.Error("role is required"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// Create registers a new account.
//
// Guard rules:
//   - only privileged scopes may manage accounts
//   - privileged roles (admin, superadmin) may only be created by a superadmin
//   - user-role accounts must belong to a tenant
func (uc *accountUseCase) Create(ctx context.Context, scope domain.Scope, input CreateAccountInput) (*domain.Account, error) {
	if !scope.Privileged() {
		return nil, apperrors.ErrForbidden
	}

	if err := uc.validateCreateAccountInput(input); err != nil {
		return nil, err
	}

	role := domain.Role(input.Role)
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	if role.Privileged() && scope.Role != domain.RoleSuperAdmin {
		return nil, domain.ErrAdminCreationForbidden
	}
	if role == domain.RoleUser && input.TenantID == nil {
		return nil, domain.ErrTenantRequired
	}

	passwordHash, err := uc.passwordService.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		ID:           uuid.Must(uuid.NewV7()),
		Username:     strings.TrimSpace(input.Username),
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
	}
	if role == domain.RoleUser {
		account.TenantID = input.TenantID
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// Get retrieves an account by ID
func (uc *accountUseCase) Get(ctx context.Context, scope domain.Scope, id uuid.UUID) (*domain.Account, error) {
	if !scope.Privileged() {
		return nil, apperrors.ErrForbidden
	}
	return uc.accountRepo.GetByID(ctx, id)
}

// List retrieves accounts with pagination
func (uc *accountUseCase) List(ctx context.Context, scope domain.Scope, offset, limit int) ([]*domain.Account, error) {
	if !scope.Privileged() {
		return nil, apperrors.ErrForbidden
	}
	return uc.accountRepo.List(ctx, offset, limit)
}

// Update modifies an account.
//
// Guard rules:
//   - accounts cannot deactivate themselves
//   - deactivating or demoting the last active admin account is rejected;
//     the admin count runs inside the same transaction as the update so two
//     concurrent demotions cannot both pass the check
//   - promoting to a privileged role requires a superadmin scope
func (uc *accountUseCase) Update(ctx context.Context, scope domain.Scope, id uuid.UUID, input UpdateAccountInput) (*domain.Account, error) {
	if !scope.Privileged() {
		return nil, apperrors.ErrForbidden
	}

	if input.IsActive != nil && !*input.IsActive && id == scope.AccountID {
		return nil, domain.ErrSelfProtection
	}

	var newRole *domain.Role
	if input.Role != nil {
		role := domain.Role(*input.Role)
		if !role.Valid() {
			return nil, domain.ErrInvalidRole
		}
		if role.Privileged() && scope.Role != domain.RoleSuperAdmin {
			return nil, domain.ErrAdminCreationForbidden
		}
		newRole = &role
	}

	var updated *domain.Account
	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		account, err := uc.accountRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		deactivating := input.IsActive != nil && !*input.IsActive && account.IsActive
		demoting := newRole != nil && account.Role.Privileged() && !newRole.Privileged()

		if account.Role.Privileged() && account.IsActive && (deactivating || demoting) {
			count, err := uc.accountRepo.CountActiveAdmins(ctx)
			if err != nil {
				return err
			}
			if count <= 1 {
				return domain.ErrLastAdmin
			}
		}

		if input.Password != nil {
			passwordHash, err := uc.passwordService.Hash(*input.Password)
			if err != nil {
				return err
			}
			account.PasswordHash = passwordHash
		}
		if newRole != nil {
			account.Role = *newRole
			if newRole.Privileged() {
				account.TenantID = nil
			}
		}
		if input.TenantID != nil {
			account.TenantID = input.TenantID
		}
		if account.Role == domain.RoleUser && account.TenantID == nil {
			return domain.ErrTenantRequired
		}
		if input.IsActive != nil {
			account.IsActive = *input.IsActive
		}

		if err := uc.accountRepo.Update(ctx, account); err != nil {
			return err
		}

		updated = account
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes an account.
//
// Guard rules mirror Update: no self-deletion, and the last active admin
// cannot be deleted. The count runs inside the delete transaction.
func (uc *accountUseCase) Delete(ctx context.Context, scope domain.Scope, id uuid.UUID) error {
	if !scope.Privileged() {
		return apperrors.ErrForbidden
	}

	if id == scope.AccountID {
		return domain.ErrSelfProtection
	}

	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		account, err := uc.accountRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if account.Role.Privileged() && account.IsActive {
			count, err := uc.accountRepo.CountActiveAdmins(ctx)
			if err != nil {
				return err
			}
			if count <= 1 {
				return domain.ErrLastAdmin
			}
		}

		return uc.accountRepo.Delete(ctx, id)
	})
}
