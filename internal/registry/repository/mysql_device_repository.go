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

// MySQLDeviceRepository handles device persistence for MySQL
type MySQLDeviceRepository struct {
	db *sql.DB
}

// NewMySQLDeviceRepository creates a new MySQLDeviceRepository
func NewMySQLDeviceRepository(db *sql.DB) *MySQLDeviceRepository {
	return &MySQLDeviceRepository{
		db: db,
	}
}

// Create inserts a new device
func (r *MySQLDeviceRepository) Create(ctx context.Context, device *domain.Device) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO devices (id, person_id, imei, brand, model, is_active, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, NOW(), NOW())`

	idBytes, err := device.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}
	personBytes, err := device.PersonID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal person UUID")
	}

	_, err = querier.ExecContext(ctx, query,
		idBytes, personBytes, device.IMEI, device.Brand, device.Model, device.IsActive,
	)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrDeviceAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create device")
	}
	return nil
}

// GetByID retrieves a device by ID
func (r *MySQLDeviceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Device, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, person_id, imei, brand, model, is_active, created_at, updated_at
			  FROM devices WHERE id = ?`

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	return scanDevice(querier.QueryRowContext(ctx, query, idBytes))
}

// GetByStoredIMEI retrieves a device by the exact stored IMEI value.
func (r *MySQLDeviceRepository) GetByStoredIMEI(ctx context.Context, value string) (*domain.Device, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, person_id, imei, brand, model, is_active, created_at, updated_at
			  FROM devices WHERE imei = ?`

	return scanDevice(querier.QueryRowContext(ctx, query, value))
}

// ListByPerson retrieves all devices assigned to a person
func (r *MySQLDeviceRepository) ListByPerson(ctx context.Context, personID uuid.UUID) ([]*domain.Device, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, person_id, imei, brand, model, is_active, created_at, updated_at
			  FROM devices WHERE person_id = ? ORDER BY created_at DESC`

	personBytes, err := personID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal person UUID")
	}

	rows, err := querier.QueryContext(ctx, query, personBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list devices by person")
	}
	defer rows.Close()

	return collectMySQLDevices(rows)
}

// List retrieves devices with pagination, optionally filtered by the owning
// person's tenant.
func (r *MySQLDeviceRepository) List(ctx context.Context, tenantID *uuid.UUID, offset, limit int) ([]*domain.Device, error) {
	querier := database.GetTx(ctx, r.db)

	var rows *sql.Rows
	var err error
	if tenantID != nil {
		tenantBytes, merr := tenantID.MarshalBinary()
		if merr != nil {
			return nil, apperrors.Wrap(merr, "failed to marshal tenant UUID")
		}
		query := `SELECT d.id, d.person_id, d.imei, d.brand, d.model, d.is_active, d.created_at, d.updated_at
				  FROM devices d
				  JOIN persons p ON p.id = d.person_id
				  WHERE p.tenant_id = ?
				  ORDER BY d.created_at DESC LIMIT ? OFFSET ?`
		rows, err = querier.QueryContext(ctx, query, tenantBytes, limit, offset)
	} else {
		query := `SELECT id, person_id, imei, brand, model, is_active, created_at, updated_at
				  FROM devices ORDER BY created_at DESC LIMIT ? OFFSET ?`
		rows, err = querier.QueryContext(ctx, query, limit, offset)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list devices")
	}
	defer rows.Close()

	return collectMySQLDevices(rows)
}

// Update persists changes to a device
func (r *MySQLDeviceRepository) Update(ctx context.Context, device *domain.Device) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE devices
			  SET person_id = ?, imei = ?, brand = ?, model = ?, is_active = ?, updated_at = NOW()
			  WHERE id = ?`

	idBytes, err := device.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}
	personBytes, err := device.PersonID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal person UUID")
	}

	result, err := querier.ExecContext(ctx, query,
		personBytes, device.IMEI, device.Brand, device.Model, device.IsActive, idBytes,
	)
	if err != nil {
		if isMySQLUniqueViolation(err) {
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
func (r *MySQLDeviceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, idBytes)
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
func (r *MySQLDeviceRepository) CountByPerson(ctx context.Context, personID uuid.UUID) (int, error) {
	querier := database.GetTx(ctx, r.db)

	personBytes, err := personID.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal person UUID")
	}

	var count int
	query := `SELECT COUNT(*) FROM devices WHERE person_id = ?`

	if err := querier.QueryRowContext(ctx, query, personBytes).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count devices by person")
	}
	return count, nil
}

// CountByTenant counts devices held by persons of a tenant
func (r *MySQLDeviceRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	querier := database.GetTx(ctx, r.db)

	tenantBytes, err := tenantID.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal tenant UUID")
	}

	var count int
	query := `SELECT COUNT(*)
			  FROM devices d
			  JOIN persons p ON p.id = d.person_id
			  WHERE p.tenant_id = ?`

	if err := querier.QueryRowContext(ctx, query, tenantBytes).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count devices by tenant")
	}
	return count, nil
}

func scanDevice(row *sql.Row) (*domain.Device, error) {
	device, err := scanDeviceRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDeviceNotFound
		}
		return nil, err
	}
	return device, nil
}

func scanDeviceRow(scanner rowScanner) (*domain.Device, error) {
	var device domain.Device
	var idBytes, personBytes []byte

	err := scanner.Scan(
		&idBytes, &personBytes, &device.IMEI, &device.Brand, &device.Model,
		&device.IsActive, &device.CreatedAt, &device.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan device")
	}

	if err := device.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}
	if err := device.PersonID.UnmarshalBinary(personBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal person UUID")
	}

	return &device, nil
}

func collectMySQLDevices(rows *sql.Rows) ([]*domain.Device, error) {
	var devices []*domain.Device
	for rows.Next() {
		device, err := scanDeviceRow(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, device)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate devices")
	}
	return devices, nil
}
