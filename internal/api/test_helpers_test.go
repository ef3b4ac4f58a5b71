package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/carelink/carelink-core/internal/auth"
	"github.com/carelink/carelink-core/internal/command"
	"github.com/carelink/carelink-core/internal/device"
	"github.com/carelink/carelink-core/internal/infrastructure/config"
	"github.com/carelink/carelink-core/internal/infrastructure/logging"
	"github.com/carelink/carelink-core/internal/notification"
	"github.com/carelink/carelink-core/internal/schedule"
)

const (
	testJWTSecret = "test-secret-at-least-32-characters-long"
	testDeviceKey = "test-device-ingest-key"
)

// fakePublisher records published MQTT messages and optionally fails.
type fakePublisher struct {
	topics   []string
	payloads []string
	err      error
}

func (f *fakePublisher) Publish(topic string, payload []byte, _ byte, _ bool) error {
	if f.err != nil {
		return f.err
	}
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, string(payload))
	return nil
}

func (f *fakePublisher) PublishString(topic string, payload string, qos byte, retained bool) error {
	return f.Publish(topic, []byte(payload), qos, retained)
}

// testEnv wires a full API server over a temp database and a fake broker.
type testEnv struct {
	router http.Handler
	db     *sql.DB
	pub    *fakePublisher
}

// testDB creates a temporary SQLite database with the full schema applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "api-test-*.db")
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

		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL,
			device_ref TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (device_ref) REFERENCES devices(id) ON DELETE SET NULL
		) STRICT;

		CREATE TABLE schedules (
			id TEXT PRIMARY KEY,
			device_id TEXT NOT NULL UNIQUE,
			times TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE TABLE notifications (
			id TEXT PRIMARY KEY,
			device_id TEXT NOT NULL,
			message TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT 'info',
			read INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (device_id) REFERENCES devices(device_id) ON DELETE CASCADE
		) STRICT;
	`
	if _, err := db.Exec(migrationSQL); err != nil {
		t.Fatalf("applying schema: %v", err)
	}

	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	logger := logging.New(config.LoggingConfig{Level: "error", Format: "json"}, "test")
	pub := &fakePublisher{}

	devRepo := device.NewRepository()
	dispatcher := command.NewDispatcher(db, devRepo, pub, logger)
	registry := device.NewRegistry(db, devRepo, dispatcher, logger)
	schedules := schedule.NewStore(db, schedule.NewRepository(), dispatcher, logger)
	hub := NewHub(logger)
	log := notification.NewLog(db, notification.NewRepository(), devRepo, hub, logger)

	srv, err := New(Deps{
		Config: config.APIConfig{Host: "127.0.0.1", Port: 0},
		Security: config.SecurityConfig{
			JWT:       config.JWTConfig{Secret: testJWTSecret, AccessTokenTTL: 60},
			DeviceKey: testDeviceKey,
		},
		Logger:     logger,
		DB:         db,
		Users:      auth.NewUserRepository(),
		Registry:   registry,
		Schedules:  schedules,
		Dispatcher: dispatcher,
		Log:        log,
		Hub:        hub,
		Version:    "test",
	})
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}

	return &testEnv{router: srv.buildRouter(), db: db, pub: pub}
}

// do performs a JSON request against the test router.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshalling request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals a recorded JSON response body.
func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return v
}

// signup registers an account and returns the issued token.
func (e *testEnv) signup(t *testing.T, name string, role auth.Role, deviceID string) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/v1/users/signup", "", map[string]any{
		"name":     name,
		"email":    fmt.Sprintf("%s@example.org", name),
		"password": "password123",
		"role":     role,
		"deviceId": deviceID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup %s: status %d, body %s", name, rec.Code, rec.Body.String())
	}
	resp := decode[authResponse](t, rec)
	if resp.Token == "" {
		t.Fatalf("signup %s: empty token", name)
	}
	return resp.Token
}
