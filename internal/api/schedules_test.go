package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/carelink/carelink-core/internal/auth"
	"github.com/carelink/carelink-core/internal/schedule"
)

func TestGetSchedule_NeverNotFound(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "alice", auth.RolePatient, "MED-001")

	// A device nobody registered still yields an empty schedule.
	rec := env.do(t, http.MethodGet, "/api/v1/schedules/UNSEEN-99", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	sched := decode[schedule.Schedule](t, rec)
	if sched.DeviceID != "UNSEEN-99" {
		t.Errorf("DeviceID = %q, want UNSEEN-99", sched.DeviceID)
	}
	if sched.Times == nil || len(sched.Times) != 0 {
		t.Errorf("Times = %v, want empty non-nil", sched.Times)
	}
	if !strings.Contains(rec.Body.String(), `"times":[]`) {
		t.Errorf("body %s should carry an explicit empty times array", rec.Body.String())
	}
}

func TestUpdateSchedule_FarmerOwnDevice(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "frank", auth.RoleFarmer, "FEED-001")

	rec := env.do(t, http.MethodPut, "/api/v1/schedules/FEED-001", token, map[string]any{
		"times": []map[string]any{
			{"time": "06:30", "portion": 250},
			{"time": "19:00", "portion": 600},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	sched := decode[schedule.Schedule](t, rec)
	if len(sched.Times) != 2 {
		t.Fatalf("len(Times) = %d, want 2 (full replacement of seeded defaults)", len(sched.Times))
	}

	// The accepted schedule is mirrored to the device.
	last := env.pub.topics[len(env.pub.topics)-1]
	if last != "GD/RNG/V2/SCHEDULE/FEED-001" {
		t.Errorf("last topic = %q, want SCHEDULE topic", last)
	}
	if !strings.Contains(env.pub.payloads[len(env.pub.payloads)-1], `"deviceId":"FEED-001"`) {
		t.Errorf("schedule payload missing deviceId: %s", env.pub.payloads[len(env.pub.payloads)-1])
	}
}

func TestUpdateSchedule_RoleGate(t *testing.T) {
	env := newTestEnv(t)
	patient := env.signup(t, "alice", auth.RolePatient, "MED-001")
	ringer := env.signup(t, "rita", auth.RoleRinger, "RNG-001")

	body := map[string]any{"times": []map[string]any{{"time": "09:00"}}}

	rec := env.do(t, http.MethodPut, "/api/v1/schedules/MED-001", patient, body)
	if rec.Code != http.StatusForbidden {
		t.Errorf("patient: status %d, want 403", rec.Code)
	}
	rec = env.do(t, http.MethodPut, "/api/v1/schedules/RNG-001", ringer, body)
	if rec.Code != http.StatusForbidden {
		t.Errorf("ringer: status %d, want 403", rec.Code)
	}
}

func TestUpdateSchedule_CaretakerScope(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "alice", auth.RolePatient, "MED-001")
	env.signup(t, "frank", auth.RoleFarmer, "FEED-001")
	caretaker := env.signup(t, "carol", auth.RoleCaretaker, "")

	rec := env.do(t, http.MethodPut, "/api/v1/schedules/MED-001", caretaker, map[string]any{
		"times": []map[string]any{{"time": "10:00", "medication": "ibuprofen"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("caretaker on patient device: status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPut, "/api/v1/schedules/FEED-001", caretaker, map[string]any{
		"times": []map[string]any{{"time": "10:00", "portion": 100}},
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("caretaker on farmer device: status %d, want 403", rec.Code)
	}
}

func TestUpdateSchedule_InvalidTimes(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "frank", auth.RoleFarmer, "FEED-001")

	rec := env.do(t, http.MethodPut, "/api/v1/schedules/FEED-001", token, map[string]any{
		"times": []map[string]any{{"time": "25:99"}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	// The seeded defaults survive a rejected update.
	rec = env.do(t, http.MethodGet, "/api/v1/schedules/FEED-001", token, nil)
	sched := decode[schedule.Schedule](t, rec)
	if len(sched.Times) != 3 {
		t.Errorf("len(Times) = %d, want 3 untouched defaults", len(sched.Times))
	}
}
