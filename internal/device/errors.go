package device

import "errors"

// Sentinel errors for device operations.
var (
	// ErrDeviceNotFound indicates the device does not exist.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrDeviceIDExists indicates the hardware identifier is already
	// registered to another account.
	ErrDeviceIDExists = errors.New("device id already registered")

	// ErrAccessDenied indicates the principal is not allowed to act on
	// the device.
	ErrAccessDenied = errors.New("access to device denied")

	// ErrInvalidFoodLevel indicates a negative food level reading.
	ErrInvalidFoodLevel = errors.New("food level must not be negative")

	// ErrInvalidAction indicates an empty or malformed manual action.
	ErrInvalidAction = errors.New("invalid manual action")

	// ErrInvalidDeviceID indicates an empty hardware identifier.
	ErrInvalidDeviceID = errors.New("device id is required")
)
