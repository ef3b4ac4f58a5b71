// Package command translates API-level device operations into MQTT
// messages on the device command namespace.
//
// Commands are fire-and-forget: QoS 0, no retain, no retry. A device
// that was offline for a command catches up by re-fetching its state
// when it reconnects, which keeps the server side free of delivery
// bookkeeping.
package command
