package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carelink/carelink-core/internal/device"
	"github.com/carelink/carelink-core/internal/infrastructure/mqtt"
	"github.com/carelink/carelink-core/internal/schedule"
)

// Publisher is the transport the dispatcher publishes on. Satisfied by
// the MQTT client. Literal command tokens go out via PublishString;
// structured snapshots via Publish.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	PublishString(topic string, payload string, qos byte, retained bool) error
}

// Logger is the logging interface used by the dispatcher.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ErrTransport indicates the command could not be handed to the broker.
var ErrTransport = errors.New("command transport failed")

// Time payload format sent to devices: local wall-clock style with
// millisecond precision and no zone designator. Device firmware parses
// exactly this shape.
const timeLayout = "2006-01-02T15:04:05.000"

// timeSyncOffset compensates for the fixed offset device clocks run at.
const timeSyncOffset = 2 * time.Hour

// Dispatcher turns API-level device commands into MQTT messages.
//
// All commands go out at QoS 0 and unretained: devices tolerate missed
// messages by re-fetching state on reconnect, and a stale retained
// RING would be worse than a dropped one. Commands that also mutate
// stored state persist first; a publish failure after a successful
// write is logged and swallowed.
type Dispatcher struct {
	db        device.DBTX
	devices   device.Repository
	publisher Publisher
	topics    mqtt.Topics
	logger    Logger

	// now is replaceable in tests.
	now func() time.Time
}

// NewDispatcher creates a command dispatcher.
func NewDispatcher(db device.DBTX, devices device.Repository, publisher Publisher, logger Logger) *Dispatcher {
	return &Dispatcher{
		db:        db,
		devices:   devices,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// SendTimeSync publishes the current server time, shifted by the device
// clock offset, to a device.
func (d *Dispatcher) SendTimeSync(ctx context.Context, deviceID string) (string, error) {
	dev, err := d.resolve(ctx, deviceID)
	if err != nil {
		return "", err
	}

	// Normalise to UTC first: the payload must not inherit the host's
	// local zone on top of the fixed device offset.
	payload := d.now().UTC().Add(timeSyncOffset).Format(timeLayout)
	if err := d.publish(d.topics.DeviceTime(dev.DeviceID), payload); err != nil {
		return "", err
	}

	d.logger.Info("time sync sent", "device_id", dev.DeviceID, "time", payload)
	return payload, nil
}

// SendRestart asks a device to reboot.
func (d *Dispatcher) SendRestart(ctx context.Context, deviceID string) error {
	dev, err := d.resolve(ctx, deviceID)
	if err != nil {
		return err
	}

	if err := d.publish(d.topics.DeviceRestart(dev.DeviceID), "restart"); err != nil {
		return err
	}

	d.logger.Info("restart sent", "device_id", dev.DeviceID)
	return nil
}

// SetRinger persists the commanded ringer state, then triggers the bell.
//
// The stored state is updated before the publish so the API always
// reflects the last accepted command. If the broker is unreachable the
// device simply misses the trigger; the call still succeeds.
func (d *Dispatcher) SetRinger(ctx context.Context, deviceID string, state device.RingerState) error {
	if !device.IsValidRingerState(state) {
		return fmt.Errorf("%w: unknown ringer state %q", device.ErrInvalidAction, state)
	}

	dev, err := d.resolve(ctx, deviceID)
	if err != nil {
		return err
	}

	if err := d.devices.UpdateRingerState(ctx, d.db, dev.ID, state); err != nil {
		return err
	}

	var topic string
	if state == device.RingerStateRing {
		topic = d.topics.DeviceRing(dev.DeviceID)
	} else {
		topic = d.topics.DeviceSilent(dev.DeviceID)
	}

	if err := d.publish(topic, "trigger:"+string(state)); err != nil {
		d.logger.Error("ringer state stored but trigger not delivered",
			"device_id", dev.DeviceID, "state", state, "error", err)
		return nil
	}

	d.logger.Info("ringer command sent", "device_id", dev.DeviceID, "state", state)
	return nil
}

// schedulePayload is the wire shape devices expect for schedule pushes.
type schedulePayload struct {
	DeviceID string               `json:"deviceId"`
	Times    []schedule.TimeEntry `json:"times"`
}

// PushSchedule mirrors a stored schedule to the device.
func (d *Dispatcher) PushSchedule(ctx context.Context, deviceID string, times []schedule.TimeEntry) error {
	dev, err := d.resolve(ctx, deviceID)
	if err != nil {
		return err
	}
	if times == nil {
		times = []schedule.TimeEntry{}
	}

	payload, err := json.Marshal(schedulePayload{DeviceID: dev.DeviceID, Times: times})
	if err != nil {
		return fmt.Errorf("encoding schedule payload: %w", err)
	}

	if err := d.publisher.Publish(d.topics.DeviceSchedule(dev.DeviceID), payload, 0, false); err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}

	d.logger.Info("schedule pushed", "device_id", dev.DeviceID, "slots", len(times))
	return nil
}

// resolve loads a device by hardware identifier.
func (d *Dispatcher) resolve(ctx context.Context, deviceID string) (*device.Device, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, device.ErrDeviceNotFound
	}
	return d.devices.GetByDeviceID(ctx, d.db, deviceID)
}

func (d *Dispatcher) publish(topic, payload string) error {
	if err := d.publisher.PublishString(topic, payload, 0, false); err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return nil
}
