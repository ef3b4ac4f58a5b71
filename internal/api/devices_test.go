package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/carelink/carelink-core/internal/auth"
	"github.com/carelink/carelink-core/internal/device"
)

func TestGetOwnDevice(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "rita", auth.RoleRinger, "RNG-001")

	rec := env.do(t, http.MethodGet, "/api/v1/devices/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	d := decode[device.Device](t, rec)
	if d.DeviceID != "RNG-001" {
		t.Errorf("DeviceID = %q, want RNG-001", d.DeviceID)
	}
	if d.RingerState != device.RingerStateSilent {
		t.Errorf("RingerState = %q, new devices start silent", d.RingerState)
	}
}

func TestListPatientDevices_RoleGate(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "alice", auth.RolePatient, "MED-001")
	env.signup(t, "frank", auth.RoleFarmer, "FEED-001")
	caretaker := env.signup(t, "carol", auth.RoleCaretaker, "")
	patient := env.signup(t, "peter", auth.RolePatient, "MED-002")

	rec := env.do(t, http.MethodGet, "/api/v1/devices/patients", caretaker, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[map[string][]device.Device](t, rec)
	if len(resp["devices"]) != 2 {
		t.Errorf("devices = %d, want 2 patient devices only", len(resp["devices"]))
	}

	rec = env.do(t, http.MethodGet, "/api/v1/devices/patients", patient, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("patient: status %d, want 403", rec.Code)
	}
}

func TestUpdateFoodLevel(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "frank", auth.RoleFarmer, "FEED-001")

	rec := env.do(t, http.MethodPost, "/api/v1/devices/food-level", token, map[string]any{
		"deviceId":  "FEED-001",
		"foodLevel": 55,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	d := decode[device.Device](t, rec)
	if d.FoodLevel != 55 {
		t.Errorf("FoodLevel = %d, want 55", d.FoodLevel)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/devices/food-level", token, map[string]any{
		"deviceId":  "FEED-001",
		"foodLevel": -5,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative level: status %d, want 400", rec.Code)
	}
}

func TestRingAndSilent(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "rita", auth.RoleRinger, "RNG-001")

	rec := env.do(t, http.MethodPost, "/api/v1/devices/ring", token, map[string]any{
		"deviceId": "RNG-001",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("ring: status %d, body %s", rec.Code, rec.Body.String())
	}

	// The commanded state is persisted and visible on the device.
	rec = env.do(t, http.MethodGet, "/api/v1/devices/me", token, nil)
	d := decode[device.Device](t, rec)
	if d.RingerState != device.RingerStateRing {
		t.Errorf("RingerState = %q, want ring", d.RingerState)
	}

	// The trigger went out on the device's command topic.
	found := false
	for i, topic := range env.pub.topics {
		if topic == "GD/RNG/V2/RING/RNG-001" && env.pub.payloads[i] == "trigger:ring" {
			found = true
		}
	}
	if !found {
		t.Errorf("RING trigger not published, topics = %v", env.pub.topics)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/devices/silent", token, map[string]any{
		"deviceId": "RNG-001",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("silent: status %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/v1/devices/me", token, nil)
	d = decode[device.Device](t, rec)
	if d.RingerState != device.RingerStateSilent {
		t.Errorf("RingerState = %q, want silent", d.RingerState)
	}
}

func TestRing_BrokerDownStillPersists(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "rita", auth.RoleRinger, "RNG-001")
	env.pub.err = errors.New("broker down")

	rec := env.do(t, http.MethodPost, "/api/v1/devices/ring", token, map[string]any{
		"deviceId": "RNG-001",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("ring with broker down: status %d, want 200", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/devices/me", token, nil)
	d := decode[device.Device](t, rec)
	if d.RingerState != device.RingerStateRing {
		t.Errorf("RingerState = %q, want ring persisted despite broker failure", d.RingerState)
	}
}

func TestRingerAction(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "rita", auth.RoleRinger, "RNG-001")

	rec := env.do(t, http.MethodPost, "/api/v1/devices/ringer-action", token, map[string]any{
		"deviceId": "RNG-001",
		"action":   "ring",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("ringer-action: status %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/devices/ringer-action", token, map[string]any{
		"deviceId": "RNG-001",
		"action":   "loud",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown action: status %d, want 400", rec.Code)
	}
}

func TestSetTimeAndReset(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "alice", auth.RolePatient, "MED-001")

	rec := env.do(t, http.MethodPost, "/api/v1/devices/set-time", token, map[string]any{
		"deviceId": "MED-001",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("set-time: status %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[map[string]any](t, rec)
	if resp["time"] == "" {
		t.Error("set-time response should echo the pushed time")
	}
	if env.pub.topics[len(env.pub.topics)-1] != "GD/RNG/V2/TIME/MED-001" {
		t.Errorf("last topic = %q, want TIME topic", env.pub.topics[len(env.pub.topics)-1])
	}

	rec = env.do(t, http.MethodPost, "/api/v1/devices/reset", token, map[string]any{
		"deviceId": "MED-001",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("reset: status %d", rec.Code)
	}
	if env.pub.payloads[len(env.pub.payloads)-1] != "restart" {
		t.Errorf("last payload = %q, want restart", env.pub.payloads[len(env.pub.payloads)-1])
	}
}

func TestDeviceCommands_Ownership(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "rita", auth.RoleRinger, "RNG-001")
	stranger := env.signup(t, "frank", auth.RoleFarmer, "FEED-001")
	caretaker := env.signup(t, "carol", auth.RoleCaretaker, "")

	rec := env.do(t, http.MethodPost, "/api/v1/devices/ring", stranger, map[string]any{
		"deviceId": "RNG-001",
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("stranger ring: status %d, want 403", rec.Code)
	}

	// Caretakers may only act on patient devices; RNG-001 is ringer-owned.
	rec = env.do(t, http.MethodPost, "/api/v1/devices/ring", caretaker, map[string]any{
		"deviceId": "RNG-001",
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("caretaker on ringer device: status %d, want 403", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/devices/set-time", stranger, map[string]any{
		"deviceId": "GHOST-1",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown device: status %d, want 404", rec.Code)
	}
}

func TestManualControlEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "frank", auth.RoleFarmer, "FEED-001")

	rec := env.do(t, http.MethodPost, "/api/v1/devices/manual-control", token, map[string]any{
		"deviceId": "FEED-001",
		"action":   "ring",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("manual-control: status %d", rec.Code)
	}

	// Unrecognised actions are acknowledged without a device command.
	before := len(env.pub.topics)
	rec = env.do(t, http.MethodPost, "/api/v1/devices/manual-control", token, map[string]any{
		"deviceId": "FEED-001",
		"action":   "blink",
	})
	if rec.Code != http.StatusOK {
		t.Errorf("unknown manual action: status %d, want 200", rec.Code)
	}
	if len(env.pub.topics) != before {
		t.Error("unknown manual action must not publish")
	}

	// Farmer-only surface.
	ringer := env.signup(t, "rita", auth.RoleRinger, "RNG-001")
	rec = env.do(t, http.MethodPost, "/api/v1/devices/manual-control", ringer, map[string]any{
		"deviceId": "RNG-001",
		"action":   "ring",
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("ringer manual-control: status %d, want 403", rec.Code)
	}
}
