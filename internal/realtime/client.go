package realtime

import (
	"sync"

	"github.com/gorilla/websocket"

	realtimeTypes "github.com/mzalewski/devclock/pkg/realtime"
)

const outboundBufferSize = 64

// Client is one websocket subscriber. Outbound messages go through a
// bounded queue; a full queue marks the client dead and the hub drops it.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan realtimeTypes.ServerEnvelope

	mu     sync.RWMutex
	topics map[string]struct{}
	closed bool

	close sync.Once
}

func NewClient(id string, conn *websocket.Conn) *Client {
	return &Client{
		id:     id,
		conn:   conn,
		send:   make(chan realtimeTypes.ServerEnvelope, outboundBufferSize),
		topics: make(map[string]struct{}),
	}
}

func (c *Client) ID() string {
	return c.id
}

// Queue enqueues msg without blocking. The closed check and the send
// share the mutex with Close, so a concurrent Close cannot shut the
// channel mid-send.
func (c *Client) Queue(msg realtimeTypes.ServerEnvelope) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) WriteLoop() {
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (c *Client) Close() {
	c.close.Do(func() {
		_ = c.conn.Close()
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
	})
}

func (c *Client) Subscribe(topics []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, topic := range topics {
		c.topics[topic] = struct{}{}
	}
}

func (c *Client) Unsubscribe(topics []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, topic := range topics {
		delete(c.topics, topic)
	}
}

func (c *Client) IsSubscribed(topic string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.topics[topic]
	return ok
}
