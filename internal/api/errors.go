package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/carelink/carelink-core/internal/auth"
	"github.com/carelink/carelink-core/internal/command"
	"github.com/carelink/carelink-core/internal/device"
	"github.com/carelink/carelink-core/internal/notification"
	"github.com/carelink/carelink-core/internal/schedule"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeForbidden    = "forbidden"
	ErrCodeConflict     = "conflict"
	ErrCodeInternal     = "internal_error"
	ErrCodeValidation   = "validation_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeForbidden writes a 403 error response.
func writeForbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps a domain error to its HTTP response. Anything
// not recognised is treated as internal; callers log those before or
// after the write.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, device.ErrDeviceNotFound),
		errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, notification.ErrNotificationNotFound):
		writeNotFound(w, err.Error())
	case errors.Is(err, device.ErrAccessDenied):
		writeForbidden(w, err.Error())
	case errors.Is(err, device.ErrDeviceIDExists),
		errors.Is(err, auth.ErrEmailExists):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, device.ErrInvalidFoodLevel),
		errors.Is(err, device.ErrInvalidAction),
		errors.Is(err, device.ErrInvalidDeviceID),
		errors.Is(err, schedule.ErrInvalidTime),
		errors.Is(err, schedule.ErrDeviceMissing),
		errors.Is(err, notification.ErrInvalidMessage):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeUnauthorized(w, err.Error())
	case errors.Is(err, command.ErrTransport):
		// Persisted state is intact; only the live push failed.
		writeError(w, http.StatusBadGateway, ErrCodeInternal, "device transport unavailable")
	default:
		writeInternalError(w, "internal server error")
	}
}
