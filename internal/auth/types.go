package auth

import (
	"errors"
	"time"
)

// Role represents an authorisation tier in the system.
//
// Roles are a closed set: request handling switches on them exhaustively
// rather than comparing free-form strings.
type Role string

const (
	// RolePatient is a care recipient with a medication reminder device.
	RolePatient Role = "patient"

	// RoleCaretaker is a professional carer. Caretakers own no device;
	// they are scoped to all patient-owned devices instead.
	RoleCaretaker Role = "caretaker"

	// RoleFarmer owns an automated feeder device with a food-level gauge.
	RoleFarmer Role = "farmer"

	// RoleRinger owns a remote bell device that can be rung or silenced.
	RoleRinger Role = "ringer"
)

// ValidRoles is the set of roles accepted at registration.
var ValidRoles = []Role{RolePatient, RoleCaretaker, RoleFarmer, RoleRinger}

// IsValidRole returns true if the role is one of the known roles.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// OwnsDevice reports whether accounts with this role are created together
// with a physical device. Caretakers are the only deviceless role.
func (r Role) OwnsDevice() bool {
	return r != RoleCaretaker
}

// Principal is the authenticated identity resolved from a bearer token.
// It is attached to the request context by the API auth middleware and is
// the only identity the domain services ever see.
type Principal struct {
	UserID string
	Role   Role
}

// User represents a registered account.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialised
	Role         Role      `json:"role"`
	DeviceRef    string    `json:"device_ref,omitempty"` // internal ID of the linked device
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrTokenInvalid       = errors.New("invalid token")
)
