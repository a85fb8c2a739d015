package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/imeiguard/internal/identity/domain"
)

// mockTokenService is a mock implementation of TokenService for testing.
type mockTokenService struct {
	mock.Mock
}

func (m *mockTokenService) Issue(account *domain.Account) (string, error) {
	args := m.Called(account)
	return args.String(0), args.Error(1)
}

func (m *mockTokenService) Verify(tokenString string) (*domain.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Claims), args.Error(1)
}

func TestAuthUseCase_Login(t *testing.T) {
	ctx := context.Background()

	activeAccount := &domain.Account{
		ID:           uuid.Must(uuid.NewV7()),
		Username:     "operator",
		PasswordHash: "argon2id-hash",
		Role:         domain.RoleAdmin,
		IsActive:     true,
	}

	t.Run("Success", func(t *testing.T) {
		mockRepo := &mockAccountRepository{}
		mockPwd := &mockPasswordService{}
		mockToken := &mockTokenService{}

		mockRepo.On("GetByUsername", ctx, "operator").Return(activeAccount, nil).Once()
		mockPwd.On("Verify", "SecurePass123", "argon2id-hash").Return(true).Once()
		mockToken.On("Issue", activeAccount).Return("signed-token", nil).Once()

		uc := NewAuthUseCase(mockRepo, mockPwd, mockToken)
		output, err := uc.Login(ctx, "operator", "SecurePass123")

		require.NoError(t, err)
		assert.Equal(t, "signed-token", output.Token)
		assert.Equal(t, activeAccount, output.Account)
		mockRepo.AssertExpectations(t)
		mockPwd.AssertExpectations(t)
		mockToken.AssertExpectations(t)
	})

	t.Run("Error_UnknownUsername", func(t *testing.T) {
		mockRepo := &mockAccountRepository{}
		mockRepo.On("GetByUsername", ctx, "ghost").Return(nil, domain.ErrAccountNotFound).Once()

		uc := NewAuthUseCase(mockRepo, &mockPasswordService{}, &mockTokenService{})
		_, err := uc.Login(ctx, "ghost", "whatever")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("Error_WrongPassword", func(t *testing.T) {
		mockRepo := &mockAccountRepository{}
		mockPwd := &mockPasswordService{}

		mockRepo.On("GetByUsername", ctx, "operator").Return(activeAccount, nil).Once()
		mockPwd.On("Verify", "WrongPass", "argon2id-hash").Return(false).Once()

		uc := NewAuthUseCase(mockRepo, mockPwd, &mockTokenService{})
		_, err := uc.Login(ctx, "operator", "WrongPass")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("Error_InactiveAccount", func(t *testing.T) {
		inactive := &domain.Account{
			ID:           uuid.Must(uuid.NewV7()),
			Username:     "disabled",
			PasswordHash: "hash",
			Role:         domain.RoleUser,
			IsActive:     false,
		}

		mockRepo := &mockAccountRepository{}
		mockRepo.On("GetByUsername", ctx, "disabled").Return(inactive, nil).Once()

		uc := NewAuthUseCase(mockRepo, &mockPasswordService{}, &mockTokenService{})
		_, err := uc.Login(ctx, "disabled", "whatever")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("Error_EmptyCredentials", func(t *testing.T) {
		uc := NewAuthUseCase(&mockAccountRepository{}, &mockPasswordService{}, &mockTokenService{})

		_, err := uc.Login(ctx, "", "")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}
