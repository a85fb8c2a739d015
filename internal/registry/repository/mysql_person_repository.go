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

// MySQLPersonRepository handles person persistence for MySQL
type MySQLPersonRepository struct {
	db *sql.DB
}

// NewMySQLPersonRepository creates a new MySQLPersonRepository
func NewMySQLPersonRepository(db *sql.DB) *MySQLPersonRepository {
	return &MySQLPersonRepository{
		db: db,
	}
}

// Create inserts a new person
func (r *MySQLPersonRepository) Create(ctx context.Context, person *domain.Person) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO persons (id, tenant_id, name, identification, phone, email, is_active, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	// Convert UUIDs to bytes for MySQL BINARY(16)
	idBytes, err := person.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}
	tenantBytes, err := person.TenantID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal tenant UUID")
	}

	_, err = querier.ExecContext(ctx, query,
		idBytes, tenantBytes, person.Name, person.Identification,
		person.Phone, person.Email, person.IsActive,
	)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrPersonAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create person")
	}
	return nil
}

// GetByID retrieves a person by ID
func (r *MySQLPersonRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Person, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, tenant_id, name, identification, phone, email, is_active, created_at, updated_at
			  FROM persons WHERE id = ?`

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	return scanPerson(querier.QueryRowContext(ctx, query, idBytes), domain.ErrPersonNotFound)
}

// GetByStoredIdentification retrieves a person by the exact stored identification value.
func (r *MySQLPersonRepository) GetByStoredIdentification(ctx context.Context, value string) (*domain.Person, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, tenant_id, name, identification, phone, email, is_active, created_at, updated_at
			  FROM persons WHERE identification = ?`

	return scanPerson(querier.QueryRowContext(ctx, query, value), domain.ErrPersonNotFound)
}

// List retrieves persons with pagination, optionally filtered by tenant.
func (r *MySQLPersonRepository) List(ctx context.Context, tenantID *uuid.UUID, offset, limit int) ([]*domain.Person, error) {
	querier := database.GetTx(ctx, r.db)

	var rows *sql.Rows
	var err error
	if tenantID != nil {
		tenantBytes, merr := tenantID.MarshalBinary()
		if merr != nil {
			return nil, apperrors.Wrap(merr, "failed to marshal tenant UUID")
		}
		query := `SELECT id, tenant_id, name, identification, phone, email, is_active, created_at, updated_at
				  FROM persons WHERE tenant_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
		rows, err = querier.QueryContext(ctx, query, tenantBytes, limit, offset)
	} else {
		query := `SELECT id, tenant_id, name, identification, phone, email, is_active, created_at, updated_at
				  FROM persons ORDER BY created_at DESC LIMIT ? OFFSET ?`
		rows, err = querier.QueryContext(ctx, query, limit, offset)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list persons")
	}
	defer rows.Close()

	var persons []*domain.Person
	for rows.Next() {
		person, err := scanPersonRow(rows)
		if err != nil {
			return nil, err
		}
		persons = append(persons, person)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate persons")
	}

	return persons, nil
}

// Update persists changes to a person
func (r *MySQLPersonRepository) Update(ctx context.Context, person *domain.Person) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE persons
			  SET tenant_id = ?, name = ?, identification = ?, phone = ?, email = ?, is_active = ?, updated_at = NOW()
			  WHERE id = ?`

	idBytes, err := person.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}
	tenantBytes, err := person.TenantID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal tenant UUID")
	}

	result, err := querier.ExecContext(ctx, query,
		tenantBytes, person.Name, person.Identification,
		person.Phone, person.Email, person.IsActive, idBytes,
	)
	if err != nil {
		if isMySQLUniqueViolation(err) {
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
func (r *MySQLPersonRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM persons WHERE id = ?`, idBytes)
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

func scanPerson(row *sql.Row, notFound error) (*domain.Person, error) {
	person, err := scanPersonRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound
		}
		return nil, err
	}
	return person, nil
}

func scanPersonRow(scanner rowScanner) (*domain.Person, error) {
	var person domain.Person
	var idBytes, tenantBytes []byte

	err := scanner.Scan(
		&idBytes, &tenantBytes, &person.Name, &person.Identification,
		&person.Phone, &person.Email, &person.IsActive, &person.CreatedAt, &person.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan person")
	}

	if err := person.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}
	if err := person.TenantID.UnmarshalBinary(tenantBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal tenant UUID")
	}

	return &person, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint violation
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "1062")
}
