package device

import (
	"context"
	"strings"

	"github.com/carelink/carelink-core/internal/auth"
)

// RingerController sends ring/silent commands to a remote bell device.
// It is satisfied by the command dispatcher; the indirection keeps the
// registry free of transport concerns.
type RingerController interface {
	SetRinger(ctx context.Context, deviceID string, state RingerState) error
}

// Logger is the logging interface used by the registry.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Registry answers device queries on behalf of authenticated principals.
// Every method takes the calling principal and enforces the ownership
// rules itself, so handlers cannot forget the check.
type Registry struct {
	db     DBTX
	repo   Repository
	ringer RingerController
	logger Logger
}

// NewRegistry creates a device registry.
func NewRegistry(db DBTX, repo Repository, ringer RingerController, logger Logger) *Registry {
	return &Registry{db: db, repo: repo, ringer: ringer, logger: logger}
}

// CheckOwnership verifies the principal may act on the device.
//
// Non-caretakers may only act on their own device. Caretakers own no
// device; they may act on any patient-owned device and nothing else.
func CheckOwnership(p auth.Principal, d *Device) error {
	if p.Role == auth.RoleCaretaker {
		if d.OwnerType != auth.RolePatient {
			return ErrAccessDenied
		}
		return nil
	}
	if d.OwnerID != p.UserID {
		return ErrAccessDenied
	}
	return nil
}

// Resolve loads a device by hardware identifier and verifies the
// principal may act on it.
func (r *Registry) Resolve(ctx context.Context, p auth.Principal, deviceID string) (*Device, error) {
	d, err := r.repo.GetByDeviceID(ctx, r.db, deviceID)
	if err != nil {
		return nil, err
	}
	if err := CheckOwnership(p, d); err != nil {
		return nil, err
	}
	return d, nil
}

// GetOwnDevice returns the device registered to the principal's account.
// Caretakers have no device of their own.
func (r *Registry) GetOwnDevice(ctx context.Context, p auth.Principal) (*Device, error) {
	if !p.Role.OwnsDevice() {
		return nil, ErrDeviceNotFound
	}
	return r.repo.GetByOwner(ctx, r.db, p.UserID)
}

// GetAllPatientDevices returns every patient-owned device. Only
// caretakers may call it.
func (r *Registry) GetAllPatientDevices(ctx context.Context, p auth.Principal) ([]Device, error) {
	if p.Role != auth.RoleCaretaker {
		return nil, ErrAccessDenied
	}
	return r.repo.ListByOwnerType(ctx, r.db, string(auth.RolePatient))
}

// UpdateFoodLevel records a new food hopper reading for the principal's
// feeder device.
func (r *Registry) UpdateFoodLevel(ctx context.Context, p auth.Principal, deviceID string, level int) (*Device, error) {
	if level < 0 {
		return nil, ErrInvalidFoodLevel
	}

	d, err := r.Resolve(ctx, p, deviceID)
	if err != nil {
		return nil, err
	}

	if err := r.repo.UpdateFoodLevel(ctx, r.db, d.ID, level); err != nil {
		return nil, err
	}
	d.FoodLevel = level

	r.logger.Info("food level updated", "device_id", d.DeviceID, "level", level)
	return d, nil
}

// ManualControl executes a manual action against a device.
//
// Ring and silent are forwarded to the device over the command channel.
// Any other action name is accepted and acknowledged without a transport
// effect; unknown actions are a compatibility escape hatch for device
// firmware, not an error.
func (r *Registry) ManualControl(ctx context.Context, p auth.Principal, deviceID, action string) error {
	action = strings.ToLower(strings.TrimSpace(action))
	if action == "" {
		return ErrInvalidAction
	}

	d, err := r.Resolve(ctx, p, deviceID)
	if err != nil {
		return err
	}

	switch ManualAction(action) {
	case ActionRing:
		return r.ringer.SetRinger(ctx, d.DeviceID, RingerStateRing)
	case ActionSilent:
		return r.ringer.SetRinger(ctx, d.DeviceID, RingerStateSilent)
	default:
		r.logger.Info("manual action acknowledged without dispatch",
			"device_id", d.DeviceID, "action", action)
		return nil
	}
}

// Register creates a device for a newly signed-up owner. It runs against
// the caller's DBTX so it can share the registration transaction.
func (r *Registry) Register(ctx context.Context, db DBTX, deviceID string, ownerType auth.Role, ownerID string) (*Device, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, ErrInvalidDeviceID
	}

	d := &Device{
		DeviceID:    deviceID,
		OwnerType:   ownerType,
		OwnerID:     ownerID,
		RingerState: RingerStateSilent,
	}
	if err := r.repo.Create(ctx, db, d); err != nil {
		return nil, err
	}
	return d, nil
}
