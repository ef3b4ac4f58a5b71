// Package notification implements the device event log for CareLink
// Core.
//
// Devices report events (missed doses, low food, completed feeds) over
// a shared-key ingest path that bypasses user authentication; owners
// and caretakers read and acknowledge them through the normal API. New
// events are fanned out to connected websocket clients as they arrive.
package notification
