package websocket

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// ConnectionType selects what a client consumes.
type ConnectionType string

const (
	// ConnectionTypeHTML clients receive htmx out-of-band fragments.
	ConnectionTypeHTML ConnectionType = "html"
	// ConnectionTypeData clients receive JSON frames.
	ConnectionTypeData ConnectionType = "data"
)

const sendBufferSize = 256

// Client is one websocket connection of a player.
type Client struct {
	ID       string
	UserID   string
	Endpoint ConnectionType

	conn   *websocket.Conn
	mu     sync.RWMutex
	send   chan []byte
	closed bool
}

func newClient(id, userID string, endpoint ConnectionType, conn *websocket.Conn) *Client {
	return &Client{
		ID:       id,
		UserID:   userID,
		Endpoint: endpoint,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
	}
}

// SendMessage queues msg without blocking. It reports false when the client is
// closed or its buffer is full.
func (c *Client) SendMessage(msg []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		slog.Warn("Client send channel full, dropping message", "client_id", c.ID, "user_id", c.UserID)
		return false
	}
}

// Close stops the write pump. It is safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
