package hub

import (
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// Buffer size for outbound messages
	sendBufferSize = 64
)

// Client is one WebSocket connection. Clients are read-only consumers of
// run updates; inbound frames only keep the connection alive.
type Client struct {
	ID   string
	conn *websocket.Conn
	Send chan ServerMessage
	hub  *Hub
}

// NewClient wraps an upgraded connection
func NewClient(id string, conn *websocket.Conn, h *Hub) *Client {
	return &Client{
		ID:   id,
		conn: conn,
		Send: make(chan ServerMessage, sendBufferSize),
		hub:  h,
	}
}

// TrySend queues a message without blocking; false means the buffer is full
func (c *Client) TrySend(msg ServerMessage) bool {
	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}

// ReadPump discards inbound frames and tears the client down on close
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				fmt.Printf("[Hub] client %s unexpected close: %v\n", c.ID, err)
			}
			return
		}
	}
}

// WritePump flushes queued messages and keeps the connection pinged
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				fmt.Printf("[Hub] client %s write error: %v\n", c.ID, err)
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
