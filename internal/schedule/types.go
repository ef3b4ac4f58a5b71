package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/carelink/carelink-core/internal/auth"
)

// TimeEntry is one slot in a device schedule. Which optional fields are
// meaningful depends on the device kind: medication for reminder devices,
// portion for feeders, action for bells. The struct keeps all three so a
// schedule round-trips through the API and the device channel unchanged.
type TimeEntry struct {
	Time       string `json:"time"`
	Medication string `json:"medication,omitempty"`
	Portion    int    `json:"portion,omitempty"`
	Action     string `json:"action,omitempty"`
}

// Schedule is the full set of timed slots for one device. Updates
// replace the whole set; there is no per-slot mutation.
type Schedule struct {
	ID        string      `json:"id,omitempty"`
	DeviceID  string      `json:"deviceId"`
	Times     []TimeEntry `json:"times"`
	CreatedAt time.Time   `json:"created_at,omitzero"`
	UpdatedAt time.Time   `json:"updated_at,omitzero"`
}

// Sentinel errors for schedule operations.
var (
	ErrInvalidTime   = errors.New("invalid time entry")
	ErrNotFound      = errors.New("schedule not found")
	ErrDeviceMissing = errors.New("device id is required")
)

var timeOfDay = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidateTimes checks every entry has a well-formed HH:MM time.
func ValidateTimes(times []TimeEntry) error {
	for i, entry := range times {
		if !timeOfDay.MatchString(entry.Time) {
			return fmt.Errorf("%w: entry %d has time %q, want HH:MM", ErrInvalidTime, i, entry.Time)
		}
		if entry.Portion < 0 {
			return fmt.Errorf("%w: entry %d has negative portion", ErrInvalidTime, i)
		}
	}
	return nil
}

// DefaultTimes returns the schedule a freshly registered device starts
// with. Caretakers have no device and therefore no default schedule.
func DefaultTimes(role auth.Role) []TimeEntry {
	switch role {
	case auth.RoleFarmer:
		return []TimeEntry{
			{Time: "08:00", Portion: 300},
			{Time: "12:00", Portion: 700},
			{Time: "18:00", Portion: 500},
		}
	case auth.RolePatient:
		return []TimeEntry{
			{Time: "08:00", Medication: "default"},
			{Time: "12:00", Medication: "default"},
			{Time: "18:00", Medication: "default"},
		}
	case auth.RoleRinger:
		return []TimeEntry{
			{Time: "08:00", Action: "ring"},
			{Time: "12:00", Action: "ring"},
			{Time: "18:00", Action: "silent"},
		}
	default:
		return nil
	}
}
