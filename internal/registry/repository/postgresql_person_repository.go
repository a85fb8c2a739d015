// Package repository provides data persistence implementations for registry entities.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/imeiguard/internal/database"
	"github.com/allisson/imeiguard/internal/registry/domain"

	apperrors "github.com/allisson/imeiguard/internal/errors"
)

// PostgreSQLPersonRepository handles person persistence for PostgreSQL
type PostgreSQLPersonRepository struct {
	db *sql.DB
}

// NewPostgreSQLPersonRepository creates a new PostgreSQLPersonRepository
func NewPostgreSQLPersonRepository(db *sql.DB) *PostgreSQLPersonRepository {
	return &PostgreSQLPersonRepository{
		db: db,
	}
}

// Create inserts a new person
func (r *PostgreSQLPersonRepository) Create(ctx context.Context, person *domain.Person) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO persons (id, tenant_id, name, identification, phone, email, is_active, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query,
		person.ID, person.TenantID, person.Name, person.Identification,
		person.Phone, person.Email, person.IsActive,
	)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrPersonAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create person")
	}
	return nil
}

// GetByID retrieves a person by ID
func (r *PostgreSQLPersonRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Person, error) {
	var person domain.Person
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, tenant_id, name, identification, phone, email, is_active, created_at, updated_at
			  FROM persons WHERE id = $1`

	err := querier.QueryRowContext(ctx, query, id).Scan(
		&person.ID, &person.TenantID, &person.Name, &person.Identification,
		&person.Phone, &person.Email, &person.IsActive, &person.CreatedAt, &person.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPersonNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get person by id")
	}

	return &person, nil
}

// GetByStoredIdentification retrieves a person by the exact stored
// identification value. Callers run this once with the raw value and once
// with the ciphertext to cover both storage forms.
func (r *PostgreSQLPersonRepository) GetByStoredIdentification(ctx context.Context, value string) (*domain.Person, error) {
	var person domain.Person
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, tenant_id, name, identification, phone, email, is_active, created_at, updated_at
			  FROM persons WHERE identification = $1`

	err := querier.QueryRowContext(ctx, query, value).Scan(
		&person.ID, &person.TenantID, &person.Name, &person.Identification,
		&person.Phone, &person.Email, &person.IsActive, &person.CreatedAt, &person.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPersonNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get person by identification")
	}

	return &person, nil
}

// List retrieves persons with pagination, optionally filtered by tenant.
// A nil tenantID returns persons across all tenants.
func (r *PostgreSQLPersonRepository) List(ctx context.Context, tenantID *uuid.UUID, offset, limit int) ([]*domain.Person, error) {
	querier := database.GetTx(ctx, r.db)

	var rows *sql.Rows
	var err error
	if tenantID != nil {
		query := `SELECT id, tenant_id, name, identification, phone, email, is_active, created_at, updated_at
				  FROM persons WHERE tenant_id = $1 ORDER BY created_at DESC OFFSET $2 LIMIT $3`
		rows, err = querier.QueryContext(ctx, query, *tenantID, offset, limit)
	} else {
		query := `SELECT id, tenant_id, name, identification, phone, email, is_active, created_at, updated_at
				  FROM persons ORDER BY created_at DESC OFFSET $1 LIMIT $2`
		rows, err = querier.QueryContext(ctx, query, offset, limit)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list persons")
	}
	defer rows.Close()

	var persons []*domain.Person
	for rows.Next() {
		var person domain.Person
		if err := rows.Scan(
			&person.ID, &person.TenantID, &person.Name, &person.Identification,
			&person.Phone, &person.Email, &person.IsActive, &person.CreatedAt, &person.UpdatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan person")
		}
		persons = append(persons, &person)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate persons")
	}

	return persons, nil
}

// Update persists changes to a person
func (r *PostgreSQLPersonRepository) Update(ctx context.Context, person *domain.Person) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE persons
			  SET tenant_id = $2, name = $3, identification = $4, phone = $5, email = $6, is_active = $7, updated_at = NOW()
			  WHERE id = $1`

	result, err := querier.ExecContext(ctx, query,
		person.ID, person.TenantID, person.Name, person.Identification,
		person.Phone, person.Email, person.IsActive,
	)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrPersonAlreadyExists
		}
		return apperrors.Wrap(err, "failed to update person")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return domain.ErrPersonNotFound
	}
	return nil
}

// Delete removes a person
func (r *PostgreSQLPersonRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM persons WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete person")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return domain.ErrPersonNotFound
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
