package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/carelink/carelink-core/internal/auth"
	"github.com/carelink/carelink-core/internal/infrastructure/logging"
	"github.com/carelink/carelink-core/internal/notification"
)

// WebSocket constants.
const (
	WSTypePing  = "ping"
	WSTypePong  = "pong"
	WSTypeEvent = "event"

	// EventNotificationCreated is the event type for new notifications.
	EventNotificationCreated = "notification.created"

	// wsSendBufferSize is the per-client outbound message buffer size.
	wsSendBufferSize = 64

	// wsWriteWait is the deadline for a single outbound write.
	wsWriteWait = 10 * time.Second

	// wsPongWait is how long a connection may go without a pong.
	wsPongWait = 60 * time.Second

	// wsPingPeriod is the server ping interval; must be under wsPongWait.
	wsPingPeriod = 45 * time.Second

	// wsMaxMessageSize limits inbound frames; clients only ever send pings.
	wsMaxMessageSize = 512
)

// WSMessage represents a message sent to/from a WebSocket client.
type WSMessage struct {
	Type      string `json:"type"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// Hub manages WebSocket connections and pushes notification events to
// clients allowed to see them.
type Hub struct {
	logger  *logging.Logger
	clients map[*WSClient]struct{}
	mu      sync.RWMutex
}

// WSClient represents a connected WebSocket client.
type WSClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// Identity resolved from the connection token.
	userID string
	role   auth.Role
}

// upgrader configures the WebSocket upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origin checking is handled by CORS middleware
		return true
	},
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*WSClient]struct{}),
	}
}

// Run starts the hub's main loop. It blocks until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Register adds a client to the hub.
func (h *Hub) Register(client *WSClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", h.ClientCount())
}

// Unregister removes a client from the hub.
// Only the goroutine that successfully removes the client from the map
// closes the send channel, preventing double-close panics during shutdown.
func (h *Hub) Unregister(client *WSClient) {
	h.mu.Lock()
	_, existed := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if existed {
		close(client.send)
	}
	h.logger.Debug("websocket client disconnected", "clients", h.ClientCount())
}

// BroadcastNotification pushes a new notification to every connected
// client allowed to see the originating device. The visibility rule is
// the same one the REST surface applies: the owner sees their own
// device, caretakers see patient devices.
func (h *Hub) BroadcastNotification(n *notification.Notification, ownerID string, ownerType auth.Role) {
	msg := WSMessage{
		Type:      WSTypeEvent,
		EventType: EventNotificationCreated,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   n,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal broadcast message", "error", err)
		return
	}

	// Snapshot client list under hub lock, then release before sending
	h.mu.RLock()
	clients := make([]*WSClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	sent := 0
	for _, client := range clients {
		if client.canSee(ownerID, ownerType) {
			client.trySend(data)
			sent++
		}
	}
	if sent > 0 {
		h.logger.Debug("notification broadcast", "device_id", n.DeviceID, "recipients", sent)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// closeAll disconnects all clients and closes their send channels
// so writePump goroutines can exit cleanly.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		if client.conn != nil {
			client.conn.Close()
		}
		delete(h.clients, client)
	}
}

// canSee applies the device visibility rule for this client.
func (c *WSClient) canSee(ownerID string, ownerType auth.Role) bool {
	if c.role == auth.RoleCaretaker {
		return ownerType == auth.RolePatient
	}
	return c.userID == ownerID
}

// trySend queues a message without blocking; slow clients drop messages
// rather than stalling the broadcast.
func (c *WSClient) trySend(data []byte) {
	select {
	case c.send <- data:
	default:
		c.hub.logger.Warn("websocket send buffer full, dropping message", "user_id", c.userID)
	}
}

// handleWebSocket upgrades the connection and starts the client pumps.
//
// Browsers cannot set an Authorization header on a WebSocket handshake,
// so the access token arrives as a query parameter instead and the
// route sits outside the auth middleware.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeUnauthorized(w, "token query parameter required")
		return
	}

	principal, err := auth.ParseToken(token, s.secCfg.JWT.Secret)
	if err != nil {
		writeUnauthorized(w, "invalid or expired token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &WSClient{
		hub:    s.hub,
		conn:   conn,
		send:   make(chan []byte, wsSendBufferSize),
		userID: principal.UserID,
		role:   principal.Role,
	}
	s.hub.Register(client)

	go client.writePump()
	go client.readPump()
}

// readPump drains inbound frames, answering pings and enforcing the
// pong deadline. It unregisters the client on exit.
func (c *WSClient) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(wsMaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait)) //nolint:errcheck // deadline on live conn
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == WSTypePing {
			pong, _ := json.Marshal(WSMessage{Type: WSTypePong}) //nolint:errcheck // static message
			c.trySend(pong)
		}
	}
}

// writePump writes queued messages and periodic pings to the connection.
func (c *WSClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait)) //nolint:errcheck // deadline on live conn
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck // closing anyway
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait)) //nolint:errcheck // deadline on live conn
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
