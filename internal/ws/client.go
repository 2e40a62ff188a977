package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// presenceKey identifies one participant's pending value on one best-effort
// channel (cursor or tool). Newer values for the same key overwrite older
// pending ones.
type presenceKey struct {
	kind   MessageType
	userID string
}

// Client represents one WebSocket connection. Reliable messages go through a
// bounded ordered channel; cursor and tool updates go through per-sender
// slots that coalesce under backpressure.
type Client struct {
	conn *websocket.Conn

	mu       sync.Mutex
	closed   bool
	send     chan []byte
	presence map[presenceKey][]byte

	// Signals the write pump that a presence slot changed. Buffered 1.
	presenceDirty chan struct{}

	// Join state, owned by the connection's read goroutine. hub is nil
	// until the join handshake succeeds.
	hub      *Hub
	userID   string
	userName string
}

// NewClient creates a new WebSocket client for an upgraded connection.
func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		conn:          conn,
		send:          make(chan []byte, 64),
		presence:      make(map[presenceKey][]byte),
		presenceDirty: make(chan struct{}, 1),
	}
}

// Send queues a reliable message for delivery. It never blocks: a full send
// buffer is treated as a failed transport and the client is closed. The
// return value reports whether the message was accepted.
func (c *Client) Send(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		// Recipient cannot keep up with the reliable stream.
		c.closeLocked()
		return false
	}
}

// SendMessage marshals and queues a reliable message.
func (c *Client) SendMessage(msg *Message) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("failed to marshal %s message: %v", msg.Type, err)
		return false
	}
	return c.Send(data)
}

// QueuePresence stores a best-effort presence payload for delivery,
// overwriting any pending payload for the same (kind, sender) pair.
func (c *Client) QueuePresence(kind MessageType, senderID string, data []byte) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.presence[presenceKey{kind: kind, userID: senderID}] = data
	c.mu.Unlock()

	select {
	case c.presenceDirty <- struct{}{}:
	default:
	}
}

// drainPresence takes all pending presence payloads, leaving the slots empty.
func (c *Client) drainPresence() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.presence) == 0 {
		return nil
	}
	pending := make([][]byte, 0, len(c.presence))
	for _, data := range c.presence {
		pending = append(pending, data)
	}
	c.presence = make(map[presenceKey][]byte)
	return pending
}

// Close closes the client's outbound path. Idempotent.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// IsClosed returns true if the client is closed.
func (c *Client) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Conn returns the underlying WebSocket connection.
func (c *Client) Conn() *websocket.Conn {
	return c.conn
}

// SendChan returns the reliable send channel for the client.
func (c *Client) SendChan() <-chan []byte {
	return c.send
}

// Joined reports whether this connection has completed the join handshake.
func (c *Client) Joined() bool {
	return c.hub != nil
}
