package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink-core/internal/auth"
)

// DBTX is the subset of database/sql methods the repository needs.
// Both *sql.DB and *sql.Tx satisfy it, so device creation can share a
// transaction with user registration.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository defines the interface for device persistence.
type Repository interface {
	Create(ctx context.Context, db DBTX, d *Device) error
	GetByID(ctx context.Context, db DBTX, id string) (*Device, error)
	GetByDeviceID(ctx context.Context, db DBTX, deviceID string) (*Device, error)
	GetByOwner(ctx context.Context, db DBTX, ownerID string) (*Device, error)
	ListByOwnerType(ctx context.Context, db DBTX, ownerType string) ([]Device, error)
	UpdateFoodLevel(ctx context.Context, db DBTX, id string, level int) error
	UpdateRingerState(ctx context.Context, db DBTX, id string, state RingerState) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct{}

// NewRepository creates a new SQLite-backed device repository.
func NewRepository() *SQLiteRepository {
	return &SQLiteRepository{}
}

const deviceColumns = "id, device_id, owner_type, owner_id, food_level, ringer_state, created_at, updated_at"

// Create inserts a new device record. The internal ID is generated if
// empty; new devices start with ringer state silent and a full hopper.
func (r *SQLiteRepository) Create(ctx context.Context, db DBTX, d *Device) error {
	if d.ID == "" {
		d.ID = "dev-" + uuid.NewString()[:8]
	}
	if d.RingerState == "" {
		d.RingerState = RingerStateSilent
	}

	now := time.Now().UTC().Format(time.RFC3339)
	d.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	d.UpdatedAt = d.CreatedAt

	_, err := db.ExecContext(ctx,
		`INSERT INTO devices (id, device_id, owner_type, owner_id, food_level, ringer_state, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.DeviceID, string(d.OwnerType), d.OwnerID,
		d.FoodLevel, string(d.RingerState), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDeviceIDExists
		}
		return fmt.Errorf("creating device: %w", err)
	}

	return nil
}

// GetByID retrieves a device by its internal ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, db DBTX, id string) (*Device, error) {
	return r.getDevice(ctx, db, "SELECT "+deviceColumns+" FROM devices WHERE id = ?", id)
}

// GetByDeviceID retrieves a device by its hardware identifier.
func (r *SQLiteRepository) GetByDeviceID(ctx context.Context, db DBTX, deviceID string) (*Device, error) {
	return r.getDevice(ctx, db, "SELECT "+deviceColumns+" FROM devices WHERE device_id = ?", deviceID)
}

// GetByOwner retrieves the device owned by a user. Owners hold at most
// one device.
func (r *SQLiteRepository) GetByOwner(ctx context.Context, db DBTX, ownerID string) (*Device, error) {
	return r.getDevice(ctx, db, "SELECT "+deviceColumns+" FROM devices WHERE owner_id = ?", ownerID)
}

// ListByOwnerType returns all devices whose owner has the given role,
// ordered by creation date.
func (r *SQLiteRepository) ListByOwnerType(ctx context.Context, db DBTX, ownerType string) ([]Device, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+deviceColumns+" FROM devices WHERE owner_type = ? ORDER BY created_at ASC", ownerType)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	defer rows.Close()

	devices := []Device{}
	for rows.Next() {
		d, err := scanDeviceFrom(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}

	return devices, nil
}

// UpdateFoodLevel sets the food hopper gauge for a feeder device.
func (r *SQLiteRepository) UpdateFoodLevel(ctx context.Context, db DBTX, id string, level int) error {
	return r.update(ctx, db,
		`UPDATE devices SET food_level = ?, updated_at = ? WHERE id = ?`, level, id)
}

// UpdateRingerState records the last commanded ringer state.
func (r *SQLiteRepository) UpdateRingerState(ctx context.Context, db DBTX, id string, state RingerState) error {
	return r.update(ctx, db,
		`UPDATE devices SET ringer_state = ?, updated_at = ? WHERE id = ?`, string(state), id)
}

func (r *SQLiteRepository) update(ctx context.Context, db DBTX, query string, value any, id string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := db.ExecContext(ctx, query, value, now, id)
	if err != nil {
		return fmt.Errorf("updating device: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// getDevice executes a query and scans a single device result.
func (r *SQLiteRepository) getDevice(ctx context.Context, db DBTX, query string, args ...any) (*Device, error) {
	row := db.QueryRowContext(ctx, query, args...)
	return scanDeviceFrom(row)
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

// scanDeviceFrom scans a device from any scanner (Row or Rows).
func scanDeviceFrom(s scanner) (*Device, error) {
	var d Device
	var ownerType, ringerState string
	var createdAt, updatedAt string

	err := s.Scan(&d.ID, &d.DeviceID, &ownerType, &d.OwnerID,
		&d.FoodLevel, &ringerState, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("scanning device: %w", err)
	}

	d.OwnerType = auth.Role(ownerType)
	d.RingerState = RingerState(ringerState)

	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &d, nil
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
