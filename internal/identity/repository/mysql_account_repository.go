// Package repository provides data persistence implementations for identity entities.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/imeiguard/internal/database"
	"github.com/allisson/imeiguard/internal/identity/domain"

	apperrors "github.com/allisson/imeiguard/internal/errors"
)

// MySQLAccountRepository handles account persistence for MySQL
type MySQLAccountRepository struct {
	db *sql.DB
}

// NewMySQLAccountRepository creates a new MySQLAccountRepository
func NewMySQLAccountRepository(db *sql.DB) *MySQLAccountRepository {
	return &MySQLAccountRepository{
		db: db,
	}
}

// Create inserts a new account
func (r *MySQLAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO accounts (id, username, password_hash, role, tenant_id, is_active, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, NOW(), NOW())`

	// Convert UUID to bytes for MySQL BINARY(16)
	idBytes, err := account.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	tenantBytes, err := nullableUUIDBytes(account.TenantID)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal tenant UUID")
	}

	_, err = querier.ExecContext(ctx, query,
		idBytes, account.Username, account.PasswordHash, account.Role, tenantBytes, account.IsActive,
	)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrAccountAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create account")
	}
	return nil
}

// GetByID retrieves an account by ID
func (r *MySQLAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, username, password_hash, role, tenant_id, is_active, created_at, updated_at
			  FROM accounts WHERE id = ?`

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	return r.scanAccount(querier.QueryRowContext(ctx, query, idBytes))
}

// GetByUsername retrieves an account by username
func (r *MySQLAccountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, username, password_hash, role, tenant_id, is_active, created_at, updated_at
			  FROM accounts WHERE username = ?`

	return r.scanAccount(querier.QueryRowContext(ctx, query, username))
}

// List retrieves accounts ordered by creation time with pagination
func (r *MySQLAccountRepository) List(ctx context.Context, offset, limit int) ([]*domain.Account, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, username, password_hash, role, tenant_id, is_active, created_at, updated_at
			  FROM accounts ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list accounts")
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccountRow(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate accounts")
	}

	return accounts, nil
}

// Update persists changes to an account
func (r *MySQLAccountRepository) Update(ctx context.Context, account *domain.Account) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE accounts
			  SET username = ?, password_hash = ?, role = ?, tenant_id = ?, is_active = ?, updated_at = NOW()
			  WHERE id = ?`

	idBytes, err := account.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	tenantBytes, err := nullableUUIDBytes(account.TenantID)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal tenant UUID")
	}

	result, err := querier.ExecContext(ctx, query,
		account.Username, account.PasswordHash, account.Role, tenantBytes, account.IsActive, idBytes,
	)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrAccountAlreadyExists
		}
		return apperrors.Wrap(err, "failed to update account")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// Delete removes an account
func (r *MySQLAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, idBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete account")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// CountActiveAdmins counts active accounts holding a privileged role.
func (r *MySQLAccountRepository) CountActiveAdmins(ctx context.Context) (int, error) {
	querier := database.GetTx(ctx, r.db)

	var count int
	query := `SELECT COUNT(*) FROM accounts WHERE is_active = true AND role IN ('admin', 'superadmin')`

	if err := querier.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count active admins")
	}
	return count, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func (r *MySQLAccountRepository) scanAccount(row *sql.Row) (*domain.Account, error) {
	account, err := scanAccountRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

func scanAccountRow(scanner rowScanner) (*domain.Account, error) {
	var account domain.Account
	var idBytes []byte
	var tenantBytes []byte

	err := scanner.Scan(
		&idBytes, &account.Username, &account.PasswordHash, &account.Role,
		&tenantBytes, &account.IsActive, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan account")
	}

	if err := account.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}
	if len(tenantBytes) > 0 {
		var tenantID uuid.UUID
		if err := tenantID.UnmarshalBinary(tenantBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal tenant UUID")
		}
		account.TenantID = &tenantID
	}

	return &account, nil
}

// nullableUUIDBytes converts an optional UUID to BINARY(16) bytes or nil.
func nullableUUIDBytes(id *uuid.UUID) ([]byte, error) {
	if id == nil {
		return nil, nil
	}
	return id.MarshalBinary()
}

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint violation
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// MySQL: "Error 1062: Duplicate entry"
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "1062")
}
