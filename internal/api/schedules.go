package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carelink/carelink-core/internal/schedule"
)

// handleGetSchedule returns a device's schedule. Any authenticated
// caller may read; a device with no stored schedule yields an empty
// one, never a 404.
func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")

	sched, err := s.schedules.GetByDevice(r.Context(), deviceID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sched)
}

// updateScheduleRequest is the request body for PUT /schedules/{deviceID}.
type updateScheduleRequest struct {
	Times []schedule.TimeEntry `json:"times"`
}

// handleUpdateSchedule replaces a device's schedule. Farmer and
// caretaker only (enforced by the router); ownership is checked against
// the caller before anything is stored.
func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	p, ok := mustPrincipal(w, r)
	if !ok {
		return
	}

	deviceID := chi.URLParam(r, "deviceID")

	if _, err := s.registry.Resolve(r.Context(), p, deviceID); err != nil {
		writeDomainError(w, err)
		return
	}

	var req updateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	sched, err := s.schedules.UpdateByDevice(r.Context(), deviceID, req.Times)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sched)
}
