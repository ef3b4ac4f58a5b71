// CareLink Core - Remote Care Device Platform
//
// This is the main entry point for the CareLink Core application.
// CareLink connects care recipients' devices (medication reminders,
// automated feeders, remote bells) to the people looking after them:
//   - Account and device registration with per-role device scoping
//   - Per-device schedules, mirrored to devices over MQTT
//   - Fire-and-forget device commands (time sync, ring, silent, restart)
//   - Device-originated notifications with live WebSocket push
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/carelink/carelink-core/migrations"

	"github.com/carelink/carelink-core/internal/api"
	"github.com/carelink/carelink-core/internal/auth"
	"github.com/carelink/carelink-core/internal/command"
	"github.com/carelink/carelink-core/internal/device"
	"github.com/carelink/carelink-core/internal/infrastructure/config"
	"github.com/carelink/carelink-core/internal/infrastructure/database"
	"github.com/carelink/carelink-core/internal/infrastructure/logging"
	"github.com/carelink/carelink-core/internal/infrastructure/mqtt"
	"github.com/carelink/carelink-core/internal/notification"
	"github.com/carelink/carelink-core/internal/schedule"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting CareLink Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log.With("component", "mqtt"))
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Wire domain services. The dispatcher sits between the registry and
	// the broker; the registry needs it for ring/silent delegation.
	deviceRepo := device.NewRepository()
	dispatcher := command.NewDispatcher(db.DB, deviceRepo, mqttClient, log.With("component", "command"))
	registry := device.NewRegistry(db.DB, deviceRepo, dispatcher, log.With("component", "device"))
	schedules := schedule.NewStore(db.DB, schedule.NewRepository(), dispatcher, log.With("component", "schedule"))

	// The hub is created ahead of the server so the notification log can
	// push to WebSocket clients.
	hub := api.NewHub(log.With("component", "websocket"))
	notifications := notification.NewLog(db.DB, notification.NewRepository(), deviceRepo,
		hub, log.With("component", "notification"))

	server, err := api.New(api.Deps{
		Config:     cfg.API,
		Security:   cfg.Security,
		Logger:     log.With("component", "api"),
		DB:         db.DB,
		Users:      auth.NewUserRepository(),
		Registry:   registry,
		Schedules:  schedules,
		Dispatcher: dispatcher,
		Log:        notifications,
		Hub:        hub,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, server); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. MQTT
	// 3. Database

	log.Info("CareLink Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses CARELINK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("CARELINK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, server *api.Server) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	return nil
}
