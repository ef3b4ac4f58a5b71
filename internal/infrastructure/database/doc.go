// Package database provides SQLite persistence for CareLink Core.
//
// This package manages:
//   - Opening the SQLite database with WAL mode and busy timeout
//   - Embedded schema migrations (applied at startup)
//   - Connection health checks and lifecycle
//
// SQLite is intentional for this deployment profile: a single-process
// service, one writer, moderate read concurrency, no external database
// dependency to operate.
//
// # Usage
//
//	db, err := database.Open(ctx, database.Config{
//	    Path:        cfg.Database.Path,
//	    WALMode:     cfg.Database.WALMode,
//	    BusyTimeout: cfg.Database.BusyTimeout,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
