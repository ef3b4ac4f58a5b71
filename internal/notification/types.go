package notification

import (
	"errors"
	"time"
)

// Notification is one device-originated event: a missed medication, a
// low food hopper, a completed feed. Devices report them over the keyed
// ingest endpoint; owners read and acknowledge them.
type Notification struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"device_id"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// TypeInfo is the default notification type when the device omits one.
const TypeInfo = "info"

// Sentinel errors for notification operations.
var (
	ErrInvalidMessage       = errors.New("notification message is required")
	ErrNotificationNotFound = errors.New("notification not found")
)
