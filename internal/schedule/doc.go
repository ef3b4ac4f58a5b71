// Package schedule implements per-device timed schedules for CareLink
// Core: medication reminder slots, feeder portions and bell actions.
//
// A schedule is owned by a device, not a user, and is replaced as a
// whole on every update. The stored copy is the source of truth; the
// device receives a best-effort mirror over MQTT and re-fetches on
// reconnect.
package schedule
