package device

import (
	"time"

	"github.com/carelink/carelink-core/internal/auth"
)

// RingerState is the last commanded state of a remote bell device.
type RingerState string

const (
	// RingerStateRing means the bell was last commanded to ring.
	RingerStateRing RingerState = "ring"

	// RingerStateSilent means the bell was last commanded to be silent.
	// New devices start silent.
	RingerStateSilent RingerState = "silent"
)

// IsValidRingerState returns true for the two known ringer states.
func IsValidRingerState(s RingerState) bool {
	return s == RingerStateRing || s == RingerStateSilent
}

// Device represents a registered physical device.
//
// DeviceID is the hardware identifier printed on the device and used in
// MQTT topics. It is globally unique across all owners. ID is the internal
// database key; the two are deliberately separate so hardware identifiers
// never leak into foreign keys.
type Device struct {
	ID          string      `json:"id"`
	DeviceID    string      `json:"device_id"`
	OwnerType   auth.Role   `json:"owner_type"`
	OwnerID     string      `json:"owner_id"`
	FoodLevel   int         `json:"food_level"`
	RingerState RingerState `json:"ringer_state"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// ManualAction is a free-form action name submitted through the manual
// control endpoint. Ring and silent are the only actions that reach the
// device; anything else is validated and recorded but has no transport
// effect.
type ManualAction string

const (
	ActionRing   ManualAction = "ring"
	ActionSilent ManualAction = "silent"
)
