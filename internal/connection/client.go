package connection

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultSendBuffer = 256

// Client is one live transport session. The transport drains Send; the hub
// only ever enqueues.
type Client struct {
	ID          string
	Send        chan []byte
	ConnectedAt time.Time

	mu     sync.Mutex
	closed bool
}

func NewClient(buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	return &Client{
		ID:          uuid.NewString(),
		Send:        make(chan []byte, buffer),
		ConnectedAt: time.Now().UTC(),
	}
}

// ConnID implements hub.Conn.
func (c *Client) ConnID() string { return c.ID }

// Enqueue queues a frame without blocking. It reports false when the client
// is closed or its queue is full; the frame is dropped in both cases.
func (c *Client) Enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}

// Close closes the send queue once; the writer sees it and exits.
func (c *Client) Close() {
	c.mu.Lock()
	if !c.closed {
		close(c.Send)
		c.closed = true
	}
	c.mu.Unlock()
}

func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
