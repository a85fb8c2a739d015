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

// PostgreSQLTenantRepository handles tenant persistence for PostgreSQL
type PostgreSQLTenantRepository struct {
	db *sql.DB
}

// NewPostgreSQLTenantRepository creates a new PostgreSQLTenantRepository
func NewPostgreSQLTenantRepository(db *sql.DB) *PostgreSQLTenantRepository {
	return &PostgreSQLTenantRepository{
		db: db,
	}
}

// Create inserts a new tenant
func (r *PostgreSQLTenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO tenants (id, name, is_active, created_at, updated_at)
			  VALUES ($1, $2, $3, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, tenant.ID, tenant.Name, tenant.IsActive)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrTenantAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create tenant")
	}
	return nil
}

// GetByID retrieves a tenant by ID
func (r *PostgreSQLTenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	var tenant domain.Tenant
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, is_active, created_at, updated_at FROM tenants WHERE id = $1`

	err := querier.QueryRowContext(ctx, query, id).Scan(
		&tenant.ID, &tenant.Name, &tenant.IsActive, &tenant.CreatedAt, &tenant.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get tenant by id")
	}

	return &tenant, nil
}

// ListActive retrieves active tenants ordered by name with pagination
func (r *PostgreSQLTenantRepository) ListActive(ctx context.Context, offset, limit int) ([]*domain.Tenant, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, is_active, created_at, updated_at
			  FROM tenants WHERE is_active = true ORDER BY name OFFSET $1 LIMIT $2`

	rows, err := querier.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list tenants")
	}
	defer rows.Close()

	var tenants []*domain.Tenant
	for rows.Next() {
		var tenant domain.Tenant
		if err := rows.Scan(
			&tenant.ID, &tenant.Name, &tenant.IsActive, &tenant.CreatedAt, &tenant.UpdatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan tenant")
		}
		tenants = append(tenants, &tenant)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate tenants")
	}

	return tenants, nil
}

// Update persists changes to a tenant
func (r *PostgreSQLTenantRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE tenants SET name = $2, is_active = $3, updated_at = NOW() WHERE id = $1`

	result, err := querier.ExecContext(ctx, query, tenant.ID, tenant.Name, tenant.IsActive)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
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

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
