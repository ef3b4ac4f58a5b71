package schedule

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DBTX is the subset of database/sql methods the repository needs.
// Both *sql.DB and *sql.Tx satisfy it, so default schedules can be
// seeded inside the registration transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository defines the interface for schedule persistence.
type Repository interface {
	Upsert(ctx context.Context, db DBTX, deviceID string, times []TimeEntry) (*Schedule, error)
	GetByDevice(ctx context.Context, db DBTX, deviceID string) (*Schedule, error)
}

// SQLiteRepository implements Repository using SQLite. Time entries are
// stored as a JSON document in a single column; the schedule is always
// read and replaced as a unit, so there is nothing to gain from
// normalising the slots into their own table.
type SQLiteRepository struct{}

// NewRepository creates a new SQLite-backed schedule repository.
func NewRepository() *SQLiteRepository {
	return &SQLiteRepository{}
}

// Upsert replaces the full schedule for a device, creating the row if it
// does not exist. The operation is idempotent: repeating the same call
// leaves the same stored state.
func (r *SQLiteRepository) Upsert(ctx context.Context, db DBTX, deviceID string, times []TimeEntry) (*Schedule, error) {
	if times == nil {
		times = []TimeEntry{}
	}
	payload, err := json.Marshal(times)
	if err != nil {
		return nil, fmt.Errorf("encoding schedule times: %w", err)
	}

	id := "sch-" + uuid.NewString()[:8]
	now := time.Now().UTC().Format(time.RFC3339)

	_, err = db.ExecContext(ctx,
		`INSERT INTO schedules (id, device_id, times, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(device_id) DO UPDATE SET times = excluded.times, updated_at = excluded.updated_at`,
		id, deviceID, string(payload), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting schedule: %w", err)
	}

	return r.GetByDevice(ctx, db, deviceID)
}

// GetByDevice retrieves the stored schedule for a device. Returns
// ErrNotFound when no row exists; callers decide whether that is an
// error or an empty schedule.
func (r *SQLiteRepository) GetByDevice(ctx context.Context, db DBTX, deviceID string) (*Schedule, error) {
	row := db.QueryRowContext(ctx,
		"SELECT id, device_id, times, created_at, updated_at FROM schedules WHERE device_id = ?", deviceID)

	var s Schedule
	var timesJSON string
	var createdAt, updatedAt string

	err := row.Scan(&s.ID, &s.DeviceID, &timesJSON, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning schedule: %w", err)
	}

	if err := json.Unmarshal([]byte(timesJSON), &s.Times); err != nil {
		return nil, fmt.Errorf("decoding schedule times: %w", err)
	}
	if s.Times == nil {
		s.Times = []TimeEntry{}
	}

	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	s.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &s, nil
}
