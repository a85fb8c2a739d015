// Package repository provides data persistence implementations for tenant entities.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/imeiguard/internal/database"
	"github.com/allisson/imeiguard/internal/tenant/domain"

	apperrors "github.com/allisson/imeiguard/internal/errors"
)

// MySQLTenantRepository handles tenant persistence for MySQL
type MySQLTenantRepository struct {
	db *sql.DB
}

// NewMySQLTenantRepository creates a new MySQLTenantRepository
func NewMySQLTenantRepository(db *sql.DB) *MySQLTenantRepository {
	return &MySQLTenantRepository{
		db: db,
	}
}

// Create inserts a new tenant
func (r *MySQLTenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO tenants (id, name, is_active, created_at, updated_at)
			  VALUES (?, ?, ?, NOW(), NOW())`

	// Convert UUID to bytes for MySQL BINARY(16)
	idBytes, err := tenant.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	_, err = querier.ExecContext(ctx, query, idBytes, tenant.Name, tenant.IsActive)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrTenantAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create tenant")
	}
	return nil
}

// GetByID retrieves a tenant by ID
func (r *MySQLTenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	var tenant domain.Tenant
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, is_active, created_at, updated_at FROM tenants WHERE id = ?`

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	var rowID []byte
	err = querier.QueryRowContext(ctx, query, idBytes).Scan(
		&rowID, &tenant.Name, &tenant.IsActive, &tenant.CreatedAt, &tenant.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get tenant by id")
	}

	if err := tenant.ID.UnmarshalBinary(rowID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}

	return &tenant, nil
}

// ListActive retrieves active tenants ordered by name with pagination
func (r *MySQLTenantRepository) ListActive(ctx context.Context, offset, limit int) ([]*domain.Tenant, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, is_active, created_at, updated_at
			  FROM tenants WHERE is_active = true ORDER BY name LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list tenants")
	}
	defer rows.Close()

	var tenants []*domain.Tenant
	for rows.Next() {
		var tenant domain.Tenant
		var rowID []byte
		if err := rows.Scan(
			&rowID, &tenant.Name, &tenant.IsActive, &tenant.CreatedAt, &tenant.UpdatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan tenant")
		}
		if err := tenant.ID.UnmarshalBinary(rowID); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
		}
		tenants = append(tenants, &tenant)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate tenants")
	}

	return tenants, nil
}

// Update persists changes to a tenant
func (r *MySQLTenantRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE tenants SET name = ?, is_active = ?, updated_at = NOW() WHERE id = ?`

	idBytes, err := tenant.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	result, err := querier.ExecContext(ctx, query, tenant.Name, tenant.IsActive, idBytes)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrTenantAlreadyExists
		}
		return apperrors.Wrap(err, "failed to update tenant")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return domain.ErrTenantNotFound
	}
	return nil
}

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint violation
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "1062")
}
