package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DBTX is the subset of database/sql methods the repository needs.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository defines the interface for notification persistence.
type Repository interface {
	Create(ctx context.Context, db DBTX, n *Notification) error
	GetByID(ctx context.Context, db DBTX, id string) (*Notification, error)
	ListByDevice(ctx context.Context, db DBTX, deviceID string) ([]Notification, error)
	MarkRead(ctx context.Context, db DBTX, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct{}

// NewRepository creates a new SQLite-backed notification repository.
func NewRepository() *SQLiteRepository {
	return &SQLiteRepository{}
}

const notificationColumns = "id, device_id, message, type, read, created_at"

// createdAtLayout is RFC3339 with a fixed-width nanosecond fraction.
// The fixed width keeps the TEXT column's lexicographic order equal to
// chronological order, so newest-first holds for notifications appended
// within the same second. RFC3339Nano would strip trailing zeros and
// break that equivalence for whole-second timestamps.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Create inserts a new notification. The ID is generated if empty and
// the type defaults to info.
func (r *SQLiteRepository) Create(ctx context.Context, db DBTX, n *Notification) error {
	if n.ID == "" {
		n.ID = "ntf-" + uuid.NewString()[:8]
	}
	if n.Type == "" {
		n.Type = TypeInfo
	}

	now := time.Now().UTC().Format(createdAtLayout)
	n.CreatedAt, _ = time.Parse(createdAtLayout, now) //nolint:errcheck // format is controlled

	_, err := db.ExecContext(ctx,
		`INSERT INTO notifications (id, device_id, message, type, read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.DeviceID, n.Message, n.Type, boolToInt(n.Read), now,
	)
	if err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}

	return nil
}

// GetByID retrieves a notification by ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, db DBTX, id string) (*Notification, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE id = ?", id)
	return scanNotificationFrom(row)
}

// ListByDevice returns a device's notifications, newest first.
func (r *SQLiteRepository) ListByDevice(ctx context.Context, db DBTX, deviceID string) ([]Notification, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE device_id = ? ORDER BY created_at DESC, id DESC",
		deviceID)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	notifications := []Notification{}
	for rows.Next() {
		n, err := scanNotificationFrom(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notifications: %w", err)
	}

	return notifications, nil
}

// MarkRead flags a notification as read. Re-marking an already read
// notification is a no-op success; the flag never goes back to unread.
func (r *SQLiteRepository) MarkRead(ctx context.Context, db DBTX, id string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

// scanNotificationFrom scans a notification from any scanner (Row or Rows).
func scanNotificationFrom(s scanner) (*Notification, error) {
	var n Notification
	var read int
	var createdAt string

	err := s.Scan(&n.ID, &n.DeviceID, &n.Message, &n.Type, &read, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("scanning notification: %w", err)
	}

	n.Read = read != 0
	n.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt) //nolint:errcheck // accepts both fractional and plain RFC3339

	return &n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
