// Package device implements the device registry for CareLink Core.
//
// A device is a physical unit in a patient's or customer's home: a
// medication reminder, an automated feeder, or a remote bell. Each
// account except caretakers owns exactly one device, created atomically
// with the account at registration. The registry enforces the ownership
// rules on every operation: owners act on their own device, caretakers
// act on any patient-owned device.
package device
