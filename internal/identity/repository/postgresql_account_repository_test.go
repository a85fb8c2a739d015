package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/imeiguard/internal/identity/domain"
)

var accountColumns = []string{
	"id", "username", "password_hash", "role", "tenant_id", "is_active", "created_at", "updated_at",
}

func newMockRepo(t *testing.T) (*PostgreSQLAccountRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewPostgreSQLAccountRepository(db), mock
}

func TestPostgreSQLAccountRepository_Create(t *testing.T) {
	repo, mock := newMockRepo(t)
	tenantID := uuid.Must(uuid.NewV7())

	account := &domain.Account{
		ID:           uuid.Must(uuid.NewV7()),
		Username:     "operator",
		PasswordHash: "argon2id-hash",
		Role:         domain.RoleUser,
		TenantID:     &tenantID,
		IsActive:     true,
	}

	mock.ExpectExec("INSERT INTO accounts").
		WithArgs(account.ID, account.Username, account.PasswordHash, account.Role, account.TenantID, account.IsActive).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), account)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLAccountRepository_Create_DuplicateUsername(t *testing.T) {
	repo, mock := newMockRepo(t)

	account := &domain.Account{
		ID:           uuid.Must(uuid.NewV7()),
		Username:     "operator",
		PasswordHash: "argon2id-hash",
		Role:         domain.RoleAdmin,
		IsActive:     true,
	}

	mock.ExpectExec("INSERT INTO accounts").
		WillReturnError(errDuplicateKey())

	err := repo.Create(context.Background(), account)
	assert.ErrorIs(t, err, domain.ErrAccountAlreadyExists)
}

func TestPostgreSQLAccountRepository_GetByUsername(t *testing.T) {
	repo, mock := newMockRepo(t)
	accountID := uuid.Must(uuid.NewV7())
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM accounts WHERE username").
		WithArgs("operator").
		WillReturnRows(sqlmock.NewRows(accountColumns).
			AddRow(accountID, "operator", "argon2id-hash", "admin", nil, true, now, now))

	account, err := repo.GetByUsername(context.Background(), "operator")
	require.NoError(t, err)
	assert.Equal(t, accountID, account.ID)
	assert.Equal(t, domain.RoleAdmin, account.Role)
	assert.Nil(t, account.TenantID)
	assert.True(t, account.IsActive)
}

func TestPostgreSQLAccountRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	accountID := uuid.Must(uuid.NewV7())

	mock.ExpectQuery("SELECT (.+) FROM accounts WHERE id").
		WithArgs(accountID).
		WillReturnRows(sqlmock.NewRows(accountColumns))

	account, err := repo.GetByID(context.Background(), accountID)
	assert.Nil(t, account)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestPostgreSQLAccountRepository_List(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()
	tenantID := uuid.Must(uuid.NewV7())

	mock.ExpectQuery("SELECT (.+) FROM accounts ORDER BY created_at").
		WithArgs(0, 50).
		WillReturnRows(sqlmock.NewRows(accountColumns).
			AddRow(uuid.Must(uuid.NewV7()), "admin", "hash1", "admin", nil, true, now, now).
			AddRow(uuid.Must(uuid.NewV7()), "operator", "hash2", "user", tenantID, true, now, now))

	accounts, err := repo.List(context.Background(), 0, 50)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "admin", accounts[0].Username)
	require.NotNil(t, accounts[1].TenantID)
	assert.Equal(t, tenantID, *accounts[1].TenantID)
}

func TestPostgreSQLAccountRepository_Update_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	account := &domain.Account{
		ID:           uuid.Must(uuid.NewV7()),
		Username:     "operator",
		PasswordHash: "hash",
		Role:         domain.RoleAdmin,
		IsActive:     true,
	}

	mock.ExpectExec("UPDATE accounts").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), account)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestPostgreSQLAccountRepository_Delete(t *testing.T) {
	repo, mock := newMockRepo(t)
	accountID := uuid.Must(uuid.NewV7())

	mock.ExpectExec("DELETE FROM accounts").
		WithArgs(accountID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), accountID)
	assert.NoError(t, err)
}

func TestPostgreSQLAccountRepository_CountActiveAdmins(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	count, err := repo.CountActiveAdmins(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// errDuplicateKey simulates the driver error text for a unique violation.
func errDuplicateKey() error {
	return &pqLikeError{msg: `pq: duplicate key value violates unique constraint "accounts_username_key"`}
}

type pqLikeError struct {
	msg string
}

func (e *pqLikeError) Error() string {
	return e.msg
}
