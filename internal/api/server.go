// Package api provides the HTTP REST API and WebSocket server for CareLink Core.
//
// It exposes account registration, device queries, schedule management,
// device commands and the notification log to mobile and web clients,
// plus a shared-key ingest endpoint for device firmware.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/carelink/carelink-core/internal/auth"
	"github.com/carelink/carelink-core/internal/command"
	"github.com/carelink/carelink-core/internal/device"
	"github.com/carelink/carelink-core/internal/infrastructure/config"
	"github.com/carelink/carelink-core/internal/infrastructure/logging"
	"github.com/carelink/carelink-core/internal/notification"
	"github.com/carelink/carelink-core/internal/schedule"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	Security   config.SecurityConfig
	Logger     *logging.Logger
	DB         *sql.DB
	Users      auth.UserRepository
	Registry   *device.Registry
	Schedules  *schedule.Store
	Dispatcher *command.Dispatcher
	Log        *notification.Log
	Hub        *Hub // If set, the server uses this hub instead of creating its own
	Version    string
}

// Server is the HTTP API server for CareLink Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg        config.APIConfig
	secCfg     config.SecurityConfig
	logger     *logging.Logger
	db         *sql.DB
	users      auth.UserRepository
	registry   *device.Registry
	schedules  *schedule.Store
	dispatcher *command.Dispatcher
	log        *notification.Log
	version    string
	server     *http.Server
	hub        *Hub
	cancel     context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("database is required")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}
	if deps.Schedules == nil {
		return nil, fmt.Errorf("schedule store is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("command dispatcher is required")
	}
	if deps.Log == nil {
		return nil, fmt.Errorf("notification log is required")
	}

	s := &Server{
		cfg:        deps.Config,
		secCfg:     deps.Security,
		logger:     deps.Logger,
		db:         deps.DB,
		users:      deps.Users,
		registry:   deps.Registry,
		schedules:  deps.Schedules,
		dispatcher: deps.Dispatcher,
		log:        deps.Log,
		version:    deps.Version,
		hub:        deps.Hub,
	}

	return s, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, and launches the
// HTTP listener in a background goroutine. The server can be stopped
// with Close().
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.logger)
	}
	go s.hub.Run(srvCtx)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server started", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
