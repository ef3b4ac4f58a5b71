package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carelink/carelink-core/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Account endpoints (no auth required)
		r.Post("/users/signup", s.handleSignup)
		r.Post("/users/login", s.handleLogin)

		// Device firmware ingest (shared key, no user token)
		r.Group(func(r chi.Router) {
			r.Use(s.deviceKeyMiddleware)
			r.Post("/notifications", s.handleAppendNotification)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Route("/users", func(r chi.Router) {
				r.Get("/profile", s.handleGetProfile)
				r.Put("/profile", s.handleUpdateProfile)

				r.With(s.requireRole(auth.RoleCaretaker)).
					Get("/patients", s.handleListPatients)
			})

			r.Route("/devices", func(r chi.Router) {
				r.Get("/me", s.handleGetOwnDevice)
				r.With(s.requireRole(auth.RoleCaretaker)).
					Get("/patients", s.handleListPatientDevices)

				r.With(s.requireRole(auth.RoleFarmer)).
					Post("/food-level", s.handleUpdateFoodLevel)
				r.With(s.requireRole(auth.RoleFarmer)).
					Post("/manual-control", s.handleManualControl)
				r.Post("/ringer-action", s.handleRingerAction)
				r.Post("/ring", s.handleRing)
				r.Post("/silent", s.handleSilent)
				r.Post("/set-time", s.handleSetTime)
				r.Post("/reset", s.handleReset)
			})

			r.Route("/schedules", func(r chi.Router) {
				r.Get("/{deviceID}", s.handleGetSchedule)
				r.With(s.requireRole(auth.RoleFarmer, auth.RoleCaretaker)).
					Put("/{deviceID}", s.handleUpdateSchedule)
			})

			// Registered inline: POST /notifications itself belongs to
			// the device ingest group above.
			r.Get("/notifications/{id}", s.handleListNotifications)
			r.Post("/notifications/{id}/read", s.handleMarkNotificationRead)
		})

		// WebSocket for live notification push; token arrives as a
		// query parameter, validated in the handler.
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
