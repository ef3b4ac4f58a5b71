package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// appendNotificationRequest is the request body for POST /notifications.
// Sent by device firmware with the shared key, not by users.
type appendNotificationRequest struct {
	DeviceID string `json:"deviceId"`
	Message  string `json:"message"`
	Type     string `json:"type"`
}

// handleAppendNotification records a device-originated event.
func (s *Server) handleAppendNotification(w http.ResponseWriter, r *http.Request) {
	var req appendNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	n, err := s.log.Append(r.Context(), req.DeviceID, req.Message, req.Type)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, n)
}

// handleListNotifications returns a device's notifications, newest
// first, for owners and caretakers.
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	p, ok := mustPrincipal(w, r)
	if !ok {
		return
	}

	deviceID := chi.URLParam(r, "id")
	notifications, err := s.log.ListByDevice(r.Context(), p, deviceID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

// handleMarkNotificationRead acknowledges a notification.
func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	p, ok := mustPrincipal(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	n, err := s.log.MarkRead(r.Context(), p, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, n)
}
