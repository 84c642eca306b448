package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hearthcall/hearth/internal/core/domain"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size; SDP blobs fit comfortably.
	maxMessageSize = 64 * 1024

	sendBuffer = 256
)

// Client wraps one websocket connection. All writes go through the buffered
// send channel and a single writePump goroutine, which preserves the
// per-connection delivery order the signaling protocol relies on.
type Client struct {
	id   string
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan domain.Message
	closed bool
}

func NewClient(id string, conn *websocket.Conn) *Client {
	return &Client{
		id:   id,
		conn: conn,
		send: make(chan domain.Message, sendBuffer),
	}
}

func (c *Client) ID() string {
	return c.id
}

// enqueue queues msg for the write pump. Reports false when the client is
// closed or its buffer is full; the caller decides whether that matters.
func (c *Client) enqueue(msg domain.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

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

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump reads inbound frames and hands them to handle until the
// connection dies. It runs on the connection's HTTP handler goroutine;
// there is at most one reader per connection.
func (c *Client) ReadPump(handle func(domain.Event)) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var ev domain.Event
		if err := c.conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("conn_id", c.id).Msg("Unexpected close error")
			}
			return
		}
		handle(ev)
	}
}

// WritePump drains the send channel onto the socket and keeps the
// connection alive with pings. One goroutine per connection; it is the only
// writer.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				log.Error().Err(err).Str("conn_id", c.id).Msg("Error writing message")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
