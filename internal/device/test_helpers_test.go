package device

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/carelink/carelink-core/internal/auth"
)

// testDB creates a temporary SQLite database with the devices schema applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "device-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	migrationSQL := `
		CREATE TABLE devices (
			id TEXT PRIMARY KEY,
			device_id TEXT NOT NULL UNIQUE,
			owner_type TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			food_level INTEGER NOT NULL DEFAULT 0,
			ringer_state TEXT NOT NULL DEFAULT 'silent',
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE UNIQUE INDEX idx_devices_device_id ON devices(device_id);
		CREATE INDEX idx_devices_owner ON devices(owner_id);
	`
	if _, err := db.Exec(migrationSQL); err != nil {
		t.Fatalf("applying devices migration: %v", err)
	}

	return db
}

// seedTestDevice inserts a device owned by the given user.
func seedTestDevice(t *testing.T, db *sql.DB, deviceID string, ownerType auth.Role, ownerID string) *Device {
	t.Helper()

	repo := NewRepository()
	d := &Device{
		DeviceID:  deviceID,
		OwnerType: ownerType,
		OwnerID:   ownerID,
	}
	if err := repo.Create(context.Background(), db, d); err != nil {
		t.Fatalf("creating test device %s: %v", deviceID, err)
	}
	return d
}

// fakeRinger records SetRinger calls and optionally fails.
type fakeRinger struct {
	calls []RingerState
	err   error
}

func (f *fakeRinger) SetRinger(_ context.Context, _ string, state RingerState) error {
	f.calls = append(f.calls, state)
	return f.err
}

// nopLogger discards log output in tests.
type nopLogger struct{}

func (nopLogger) Info(string, ...any) {}
func (nopLogger) Warn(string, ...any) {}
