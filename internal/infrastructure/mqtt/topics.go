package mqtt

import "fmt"

// TopicPrefix is the namespace shared with device firmware.
// The full grammar is TopicPrefix/{COMMAND}/{deviceId} with commands
// TIME, RESTART, RING, SILENT, SCHEDULE. Changing this string is a
// breaking firmware change.
const TopicPrefix = "GD/RNG/V2"

// Topics provides builders for CareLink device command topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	ringTopic := topics.DeviceRing("dev-001")
//	// Returns: "GD/RNG/V2/RING/dev-001"
type Topics struct{}

// DeviceTime returns the time synchronisation topic for a device.
//
// Example: GD/RNG/V2/TIME/dev-001
func (Topics) DeviceTime(deviceID string) string {
	return fmt.Sprintf("%s/TIME/%s", TopicPrefix, deviceID)
}

// DeviceRestart returns the restart command topic for a device.
//
// Example: GD/RNG/V2/RESTART/dev-001
func (Topics) DeviceRestart(deviceID string) string {
	return fmt.Sprintf("%s/RESTART/%s", TopicPrefix, deviceID)
}

// DeviceRing returns the ring trigger topic for a device.
//
// Example: GD/RNG/V2/RING/dev-001
func (Topics) DeviceRing(deviceID string) string {
	return fmt.Sprintf("%s/RING/%s", TopicPrefix, deviceID)
}

// DeviceSilent returns the silence trigger topic for a device.
//
// Example: GD/RNG/V2/SILENT/dev-001
func (Topics) DeviceSilent(deviceID string) string {
	return fmt.Sprintf("%s/SILENT/%s", TopicPrefix, deviceID)
}

// DeviceSchedule returns the schedule snapshot topic for a device.
//
// Example: GD/RNG/V2/SCHEDULE/dev-001
func (Topics) DeviceSchedule(deviceID string) string {
	return fmt.Sprintf("%s/SCHEDULE/%s", TopicPrefix, deviceID)
}
