package usecase

import (
	"context"

	apperrors "github.com/allisson/imeiguard/internal/errors"
	"github.com/allisson/imeiguard/internal/identity/domain"
	"github.com/allisson/imeiguard/internal/identity/service"
)

// LoginOutput contains the result of a successful login
type LoginOutput struct {
	Token   string
	Account *domain.Account
}

// AuthUseCase defines the interface for authentication operations
type AuthUseCase interface {
	Login(ctx context.Context, username, password string) (*LoginOutput, error)
}

// authUseCase handles authentication business logic
type authUseCase struct {
	accountRepo     AccountRepository
	passwordService service.PasswordService
	tokenService    service.TokenService
}

// NewAuthUseCase creates a new AuthUseCase
func NewAuthUseCase(
	accountRepo AccountRepository,
	passwordService service.PasswordService,
	tokenService service.TokenService,
) AuthUseCase {
	return &authUseCase{
		accountRepo:     accountRepo,
		passwordService: passwordService,
		tokenService:    tokenService,
	}
}

// Login authenticates an account and issues a session token.
// Every failure path returns the same ErrInvalidCredentials so a caller
// cannot probe which usernames exist or which accounts are disabled.
func (uc *authUseCase) Login(ctx context.Context, username, password string) (*LoginOutput, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	account, err := uc.accountRepo.GetByUsername(ctx, username)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !account.IsActive {
		return nil, domain.ErrInvalidCredentials
	}

	if !uc.passwordService.Verify(password, account.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := uc.tokenService.Issue(account)
	if err != nil {
		return nil, err
	}

	return &LoginOutput{Token: token, Account: account}, nil
}
