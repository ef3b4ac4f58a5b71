// Package mqtt provides the outbound MQTT transport for CareLink Core.
//
// This package manages:
//   - The single long-lived broker connection with auto-reconnect
//   - Message publishing (publish-only; the core holds no subscriptions)
//   - The device command topic grammar under GD/RNG/V2
//   - Connection health monitoring
//
// # Architecture
//
// CareLink Core pushes commands to physical care devices (ringers,
// feeders, medication reminders) through the broker:
//
//	CareLink Core → MQTT Broker → Device firmware
//
// Device-originated events travel the other direction over HTTP (the
// notification ingestion endpoint), not over MQTT.
//
// # Delivery Semantics
//
// Commands are published at QoS 0, not retained: at-most-once,
// best-effort. Publishing while disconnected fails with ErrNotConnected
// and the message is dropped, never queued or retried. Reconnection is
// the client's own concern (bounded exponential backoff) and is invisible
// to callers.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.DeviceRing("dev-001")
//	client.PublishString(topic, "trigger:ring", 0, false)
package mqtt
