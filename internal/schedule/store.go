package schedule

import (
	"context"
	"errors"
	"strings"
)

// Pusher forwards a stored schedule to the device over the command
// channel. Satisfied by the command dispatcher.
type Pusher interface {
	PushSchedule(ctx context.Context, deviceID string, times []TimeEntry) error
}

// Logger is the logging interface used by the store.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Store is the schedule service. It persists schedules and mirrors every
// accepted update to the device, persist first.
type Store struct {
	db     DBTX
	repo   Repository
	pusher Pusher
	logger Logger
}

// NewStore creates a schedule store.
func NewStore(db DBTX, repo Repository, pusher Pusher, logger Logger) *Store {
	return &Store{db: db, repo: repo, pusher: pusher, logger: logger}
}

// GetByDevice returns the schedule for a device. A device with no stored
// schedule yields an empty one rather than an error: readers poll this
// before the registration transaction may have seeded anything, and an
// empty schedule is a valid answer.
func (s *Store) GetByDevice(ctx context.Context, deviceID string) (*Schedule, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, ErrDeviceMissing
	}

	sched, err := s.repo.GetByDevice(ctx, s.db, deviceID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &Schedule{DeviceID: deviceID, Times: []TimeEntry{}}, nil
		}
		return nil, err
	}
	return sched, nil
}

// UpdateByDevice replaces the device's schedule and pushes the new state
// to the device.
//
// Persistence comes first. A push failure after a successful write is
// logged and swallowed: the device is offline-tolerant and fetches its
// schedule on reconnect, so the stored state is the source of truth and
// the caller still gets a success.
func (s *Store) UpdateByDevice(ctx context.Context, deviceID string, times []TimeEntry) (*Schedule, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, ErrDeviceMissing
	}
	if err := ValidateTimes(times); err != nil {
		return nil, err
	}

	sched, err := s.repo.Upsert(ctx, s.db, deviceID, times)
	if err != nil {
		return nil, err
	}

	if err := s.pusher.PushSchedule(ctx, deviceID, sched.Times); err != nil {
		s.logger.Error("schedule stored but push failed",
			"device_id", deviceID, "error", err)
	} else {
		s.logger.Info("schedule updated and pushed",
			"device_id", deviceID, "slots", len(sched.Times))
	}

	return sched, nil
}

// SeedDefaults stores the role's default schedule for a new device. It
// runs against the caller's DBTX so it can share the registration
// transaction; nothing is pushed because the device is not yet online.
func (s *Store) SeedDefaults(ctx context.Context, db DBTX, deviceID string, times []TimeEntry) error {
	if len(times) == 0 {
		return nil
	}
	_, err := s.repo.Upsert(ctx, db, deviceID, times)
	return err
}
