package notification

import (
	"context"
	"strings"

	"github.com/carelink/carelink-core/internal/auth"
	"github.com/carelink/carelink-core/internal/device"
)

// Broadcaster pushes a freshly appended notification to connected
// clients. Satisfied by the API websocket hub. The owner fields let the
// hub apply the same visibility rule as the REST surface without a
// database lookup.
type Broadcaster interface {
	BroadcastNotification(n *Notification, ownerID string, ownerType auth.Role)
}

// Logger is the logging interface used by the notification log.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Log is the notification service. Devices append through the keyed
// ingest path; owners list and acknowledge through the authenticated
// API.
type Log struct {
	db          DBTX
	repo        Repository
	devices     device.Repository
	broadcaster Broadcaster
	logger      Logger
}

// NewLog creates a notification log.
func NewLog(db DBTX, repo Repository, devices device.Repository, broadcaster Broadcaster, logger Logger) *Log {
	return &Log{db: db, repo: repo, devices: devices, broadcaster: broadcaster, logger: logger}
}

// Append records a device-originated notification and broadcasts it to
// connected clients. The device must exist; the message must be
// non-empty; an omitted type defaults to info. New notifications always
// start unread.
func (l *Log) Append(ctx context.Context, deviceID, message, typ string) (*Notification, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrInvalidMessage
	}

	d, err := l.devices.GetByDeviceID(ctx, l.db, deviceID)
	if err != nil {
		return nil, err
	}

	n := &Notification{
		DeviceID: d.DeviceID,
		Message:  message,
		Type:     strings.TrimSpace(typ),
		Read:     false,
	}
	if err := l.repo.Create(ctx, l.db, n); err != nil {
		return nil, err
	}

	if l.broadcaster != nil {
		l.broadcaster.BroadcastNotification(n, d.OwnerID, d.OwnerType)
	}

	l.logger.Info("notification appended",
		"device_id", n.DeviceID, "type", n.Type, "notification_id", n.ID)
	return n, nil
}

// ListByDevice returns a device's notifications, newest first, after
// verifying the principal may read that device.
func (l *Log) ListByDevice(ctx context.Context, p auth.Principal, deviceID string) ([]Notification, error) {
	d, err := l.devices.GetByDeviceID(ctx, l.db, deviceID)
	if err != nil {
		return nil, err
	}
	if err := device.CheckOwnership(p, d); err != nil {
		return nil, err
	}

	return l.repo.ListByDevice(ctx, l.db, d.DeviceID)
}

// MarkRead acknowledges a notification on behalf of the principal. The
// read flag only moves forward; acknowledging twice is a success.
func (l *Log) MarkRead(ctx context.Context, p auth.Principal, id string) (*Notification, error) {
	n, err := l.repo.GetByID(ctx, l.db, id)
	if err != nil {
		return nil, err
	}

	d, err := l.devices.GetByDeviceID(ctx, l.db, n.DeviceID)
	if err != nil {
		return nil, err
	}
	if err := device.CheckOwnership(p, d); err != nil {
		return nil, err
	}

	if !n.Read {
		if err := l.repo.MarkRead(ctx, l.db, id); err != nil {
			return nil, err
		}
		n.Read = true
	}
	return n, nil
}
