package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/carelink/carelink-core/internal/auth"
	"github.com/carelink/carelink-core/internal/notification"
)

// ingest posts a notification with the device key header.
func (e *testEnv) ingest(t *testing.T, key string, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshalling body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestNotificationIngest(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "alice", auth.RolePatient, "MED-001")

	rec := env.ingest(t, testDeviceKey, map[string]any{
		"deviceId": "MED-001",
		"message":  "dose missed",
		"type":     "alert",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	n := decode[notification.Notification](t, rec)
	if n.Type != "alert" || n.Read {
		t.Errorf("notification = %+v, want unread alert", n)
	}

	// Type defaults to info when omitted.
	rec = env.ingest(t, testDeviceKey, map[string]any{
		"deviceId": "MED-001",
		"message":  "dose taken",
	})
	n = decode[notification.Notification](t, rec)
	if n.Type != notification.TypeInfo {
		t.Errorf("Type = %q, want info default", n.Type)
	}
}

func TestNotificationIngest_KeyRequired(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "alice", auth.RolePatient, "MED-001")

	body := map[string]any{"deviceId": "MED-001", "message": "hello"}

	if rec := env.ingest(t, "", body); rec.Code != http.StatusUnauthorized {
		t.Errorf("no key: status %d, want 401", rec.Code)
	}
	if rec := env.ingest(t, "wrong-key", body); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: status %d, want 401", rec.Code)
	}
}

func TestNotificationIngest_Validation(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "alice", auth.RolePatient, "MED-001")

	rec := env.ingest(t, testDeviceKey, map[string]any{
		"deviceId": "MED-001",
		"message":  "   ",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty message: status %d, want 400", rec.Code)
	}

	rec = env.ingest(t, testDeviceKey, map[string]any{
		"deviceId": "GHOST-1",
		"message":  "hello",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown device: status %d, want 404", rec.Code)
	}
}

func TestListNotifications(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signup(t, "alice", auth.RolePatient, "MED-001")
	caretaker := env.signup(t, "carol", auth.RoleCaretaker, "")
	stranger := env.signup(t, "frank", auth.RoleFarmer, "FEED-001")

	env.ingest(t, testDeviceKey, map[string]any{"deviceId": "MED-001", "message": "first"})
	env.ingest(t, testDeviceKey, map[string]any{"deviceId": "MED-001", "message": "second"})

	rec := env.do(t, http.MethodGet, "/api/v1/notifications/MED-001", owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner list: status %d", rec.Code)
	}
	resp := decode[map[string][]notification.Notification](t, rec)
	if len(resp["notifications"]) != 2 {
		t.Errorf("notifications = %d, want 2", len(resp["notifications"]))
	}

	rec = env.do(t, http.MethodGet, "/api/v1/notifications/MED-001", caretaker, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("caretaker list: status %d, want 200", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/notifications/MED-001", stranger, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("stranger list: status %d, want 403", rec.Code)
	}
}

func TestMarkNotificationRead(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signup(t, "alice", auth.RolePatient, "MED-001")

	rec := env.ingest(t, testDeviceKey, map[string]any{"deviceId": "MED-001", "message": "dose missed"})
	n := decode[notification.Notification](t, rec)

	rec = env.do(t, http.MethodPost, "/api/v1/notifications/"+n.ID+"/read", owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark read: status %d, body %s", rec.Code, rec.Body.String())
	}
	read := decode[notification.Notification](t, rec)
	if !read.Read {
		t.Error("notification should be read")
	}

	// Acknowledging twice stays read.
	rec = env.do(t, http.MethodPost, "/api/v1/notifications/"+n.ID+"/read", owner, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("repeat mark read: status %d, want 200", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/notifications/ntf-missing/read", owner, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id: status %d, want 404", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[map[string]any](t, rec)
	if resp["status"] != "ok" {
		t.Errorf("status field = %v, want ok", resp["status"])
	}
}
