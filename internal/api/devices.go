package api

import (
	"encoding/json"
	"net/http"

	"github.com/carelink/carelink-core/internal/device"
)

// deviceRequest is the common request body for device command endpoints.
type deviceRequest struct {
	DeviceID string `json:"deviceId"`
}

// handleGetOwnDevice returns the device linked to the caller's account.
func (s *Server) handleGetOwnDevice(w http.ResponseWriter, r *http.Request) {
	p, ok := mustPrincipal(w, r)
	if !ok {
		return
	}

	d, err := s.registry.GetOwnDevice(r.Context(), p)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// handleListPatientDevices returns every patient-owned device.
// Caretaker only, enforced by the router.
func (s *Server) handleListPatientDevices(w http.ResponseWriter, r *http.Request) {
	p, ok := mustPrincipal(w, r)
	if !ok {
		return
	}

	devices, err := s.registry.GetAllPatientDevices(r.Context(), p)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"devices": devices})
}

// foodLevelRequest is the request body for POST /devices/food-level.
type foodLevelRequest struct {
	DeviceID  string `json:"deviceId"`
	FoodLevel int    `json:"foodLevel"`
}

// handleUpdateFoodLevel records a new food hopper reading.
func (s *Server) handleUpdateFoodLevel(w http.ResponseWriter, r *http.Request) {
	p, ok := mustPrincipal(w, r)
	if !ok {
		return
	}

	var req foodLevelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	d, err := s.registry.UpdateFoodLevel(r.Context(), p, req.DeviceID, req.FoodLevel)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// manualControlRequest is the request body for POST /devices/manual-control.
type manualControlRequest struct {
	DeviceID string `json:"deviceId"`
	Action   string `json:"action"`
}

// handleManualControl executes a manual action against a device.
func (s *Server) handleManualControl(w http.ResponseWriter, r *http.Request) {
	p, ok := mustPrincipal(w, r)
	if !ok {
		return
	}

	var req manualControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.registry.ManualControl(r.Context(), p, req.DeviceID, req.Action); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "action": req.Action})
}

// ringerActionRequest is the request body for POST /devices/ringer-action.
type ringerActionRequest struct {
	DeviceID string `json:"deviceId"`
	Action   string `json:"action"`
}

// handleRingerAction sets a bell to the requested state.
func (s *Server) handleRingerAction(w http.ResponseWriter, r *http.Request) {
	var req ringerActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	state := device.RingerState(req.Action)
	if !device.IsValidRingerState(state) {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "action must be ring or silent")
		return
	}

	s.setRinger(w, r, req.DeviceID, state)
}

// handleRing commands a bell to ring.
func (s *Server) handleRing(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	s.setRinger(w, r, req.DeviceID, device.RingerStateRing)
}

// handleSilent commands a bell to stop ringing.
func (s *Server) handleSilent(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	s.setRinger(w, r, req.DeviceID, device.RingerStateSilent)
}

// setRinger resolves ownership, then persists and dispatches the ringer
// command.
func (s *Server) setRinger(w http.ResponseWriter, r *http.Request, deviceID string, state device.RingerState) {
	p, ok := mustPrincipal(w, r)
	if !ok {
		return
	}

	d, err := s.registry.Resolve(r.Context(), p, deviceID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := s.dispatcher.SetRinger(r.Context(), d.DeviceID, state); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"deviceId":    d.DeviceID,
		"ringerState": state,
	})
}

// handleSetTime pushes the server clock to a device.
func (s *Server) handleSetTime(w http.ResponseWriter, r *http.Request) {
	p, ok := mustPrincipal(w, r)
	if !ok {
		return
	}

	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	d, err := s.registry.Resolve(r.Context(), p, req.DeviceID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	sent, err := s.dispatcher.SendTimeSync(r.Context(), d.DeviceID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"deviceId": d.DeviceID,
		"time":     sent,
	})
}

// handleReset asks a device to reboot.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	p, ok := mustPrincipal(w, r)
	if !ok {
		return
	}

	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	d, err := s.registry.Resolve(r.Context(), p, req.DeviceID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := s.dispatcher.SendRestart(r.Context(), d.DeviceID); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "deviceId": d.DeviceID})
}
