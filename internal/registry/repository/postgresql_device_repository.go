package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/imeiguard/internal/database"
	"github.com/allisson/imeiguard/internal/registry/domain"

	apperrors "github.com/allisson/imeiguard/internal/errors"
)

// PostgreSQLDeviceRepository handles device persistence for PostgreSQL
type PostgreSQLDeviceRepository struct {
	db *sql.DB
}

// NewPostgreSQLDeviceRepository creates a new PostgreSQLDeviceRepository
func NewPostgreSQLDeviceRepository(db *sql.DB) *PostgreSQLDeviceRepository {
	return &PostgreSQLDeviceRepository{
		db: db,
	}
}

// Create inserts a new device
func (r *PostgreSQLDeviceRepository) Create(ctx context.Context, device *domain.Device) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO devices (id, person_id, imei, brand, model, is_active, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query,
		device.ID, device.PersonID, device.IMEI, device.Brand, device.Model, device.IsActive,
	)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrDeviceAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create device")
	}
	return nil
}

// GetByID retrieves a device by ID
func (r *PostgreSQLDeviceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Device, error) {
	var device domain.Device
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, person_id, imei, brand, model, is_active, created_at, updated_at
			  FROM devices WHERE id = $1`

	err := querier.QueryRowContext(ctx, query, id).Scan(
		&device.ID, &device.PersonID, &device.IMEI, &device.Brand, &device.Model,
		&device.IsActive, &device.CreatedAt, &device.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDeviceNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get device by id")
	}

	return &device, nil
}

// GetByStoredIMEI retrieves a device by the exact stored IMEI value.
// Callers run this once with the raw value and once with the ciphertext
// to cover both storage forms.
func (r *PostgreSQLDeviceRepository) GetByStoredIMEI(ctx context.Context, value string) (*domain.Device, error) {
	var device domain.Device
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, person_id, imei, brand, model, is_active, created_at, updated_at
			  FROM devices WHERE imei = $1`

	err := querier.QueryRowContext(ctx, query, value).Scan(
		&device.ID, &device.PersonID, &device.IMEI, &device.Brand, &device.Model,
		&device.IsActive, &device.CreatedAt, &device.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDeviceNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get device by imei")
	}

	return &device, nil
}

// ListByPerson retrieves all devices assigned to a person
func (r *PostgreSQLDeviceRepository) ListByPerson(ctx context.Context, personID uuid.UUID) ([]*domain.Device, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, person_id, imei, brand, model, is_active, created_at, updated_at
			  FROM devices WHERE person_id = $1 ORDER BY created_at DESC`

	rows, err := querier.QueryContext(ctx, query, personID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list devices by person")
	}
	defer rows.Close()

	return collectDevices(rows)
}

// List retrieves devices with pagination, optionally filtered by the owning
// person's tenant. A nil tenantID returns devices across all tenants.
func (r *PostgreSQLDeviceRepository) List(ctx context.Context, tenantID *uuid.UUID, offset, limit int) ([]*domain.Device, error) {
	querier := database.GetTx(ctx, r.db)

	var rows *sql.Rows
	var err error
	if tenantID != nil {
		query := `SELECT d.id, d.person_id, d.imei, d.brand, d.model, d.is_active, d.created_at, d.updated_at
				  FROM devices d
				  JOIN persons p ON p.id = d.person_id
				  WHERE p.tenant_id = $1
				  ORDER BY d.created_at DESC OFFSET $2 LIMIT $3`
		rows, err = querier.QueryContext(ctx, query, *tenantID, offset, limit)
	} else {
		query := `SELECT id, person_id, imei, brand, model, is_active, created_at, updated_at
				  FROM devices ORDER BY created_at DESC OFFSET $1 LIMIT $2`
		rows, err = querier.QueryContext(ctx, query, offset, limit)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list devices")
	}
	defer rows.Close()

	return collectDevices(rows)
}

// Update persists changes to a device
func (r *PostgreSQLDeviceRepository) Update(ctx context.Context, device *domain.Device) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE devices
			  SET person_id = $2, imei = $3, brand = $4, model = $5, is_active = $6, updated_at = NOW()
			  WHERE id = $1`

	result, err := querier.ExecContext(ctx, query,
		device.ID, device.PersonID, device.IMEI, device.Brand, device.Model, device.IsActive,
	)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrDeviceAlreadyExists
		}
		return apperrors.Wrap(err, "failed to update device")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return domain.ErrDeviceNotFound
	}
	return nil
}

// Delete removes a device
func (r *PostgreSQLDeviceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM devices WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete device")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return domain.ErrDeviceNotFound
	}
	return nil
}

// CountByPerson counts devices assigned to a person
func (r *PostgreSQLDeviceRepository) CountByPerson(ctx context.Context, personID uuid.UUID) (int, error) {
	querier := database.GetTx(ctx, r.db)

	var count int
	query := `SELECT COUNT(*) FROM devices WHERE person_id = $1`

	if err := querier.QueryRowContext(ctx, query, personID).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count devices by person")
	}
	return count, nil
}

// CountByTenant counts devices held by persons of a tenant
func (r *PostgreSQLDeviceRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	querier := database.GetTx(ctx, r.db)

	var count int
	query := `SELECT COUNT(*)
			  FROM devices d
			  JOIN persons p ON p.id = d.person_id
			  WHERE p.tenant_id = $1`

	if err := querier.QueryRowContext(ctx, query, tenantID).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count devices by tenant")
	}
	return count, nil
}

// collectDevices scans all rows into device structs.
func collectDevices(rows *sql.Rows) ([]*domain.Device, error) {
	var devices []*domain.Device
	for rows.Next() {
		var device domain.Device
		if err := rows.Scan(
			&device.ID, &device.PersonID, &device.IMEI, &device.Brand, &device.Model,
			&device.IsActive, &device.CreatedAt, &device.UpdatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan device")
		}
		devices = append(devices, &device)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate devices")
	}
	return devices, nil
}
