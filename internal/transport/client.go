package transport

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"mud-platform-backend/internal/arbiter"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client is one connected peer's WebSocket session, identified by its slot
// (spec.md Sec.4.5), grounded on cmd/game-server/websocket/client.go's
// read/write pump pattern.
type Client struct {
	Slot    int
	Hub     *Hub
	Conn    *websocket.Conn
	Send    chan []byte
	Arbiter *arbiter.Arbiter
	log     zerolog.Logger
	mu      sync.Mutex
}

// NewClient wraps an accepted WebSocket connection for slot. Each client
// gets its own Arbiter since in-flight pointer-drag state (C10) belongs to
// one connection, never shared across peers.
func NewClient(hub *Hub, conn *websocket.Conn, slot int, log zerolog.Logger) *Client {
	return &Client{
		Slot:    slot,
		Hub:     hub,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		Arbiter: arbiter.New(slot),
		log:     log.With().Int("slot", slot).Logger(),
	}
}

// ReadPump pumps inbound messages from the socket to the hub until the
// connection closes or errors.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Msg("websocket read error")
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.SendError("invalid message format")
			continue
		}
		c.Hub.Inbound <- &InboundMessage{Client: c, Message: &msg}
	}
}

// WritePump pumps outbound messages from the hub to the socket.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage serializes and enqueues a server message; if the peer's send
// buffer is saturated (too slow), the message is dropped rather than
// blocking the hub (spec.md Sec.7: transport delivery is best-effort).
func (c *Client) SendMessage(msgType MessageType, data interface{}) {
	jsonData, err := json.Marshal(ServerMessage{Type: msgType, Data: data})
	if err != nil {
		c.log.Error().Err(err).Msg("failed to marshal outbound message")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case c.Send <- jsonData:
	default:
		c.log.Warn().Msg("client send buffer full, dropping message")
	}
}

// SendError sends an error envelope to the client.
func (c *Client) SendError(message string) {
	c.SendMessage(MessageTypeError, ErrorData{Message: message})
}
