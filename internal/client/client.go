package client

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/stats-explorer/pkg/models"
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

	sendBufferSize = 64
)

// Client is one dashboard websocket connection
type Client struct {
	ID      string
	conn    *websocket.Conn
	Send    chan models.ServerMessage // closed through Close
	hub     Hub
	seasons map[int]struct{}
	mu      sync.RWMutex

	sendMu sync.Mutex
	closed bool
}

// Hub defines the interface for the broadcast hub
type Hub interface {
	Unregister(client *Client)
}

// NewClient creates a new client instance
func NewClient(id string, conn *websocket.Conn, hub Hub) *Client {
	return &Client{
		ID:   id,
		conn: conn,
		Send: make(chan models.ServerMessage, sendBufferSize),
		hub:  hub,
	}
}

// ReadPump reads subscription messages until the connection closes
func (c *Client) ReadPump(ctx context.Context) {
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
		select {
		case <-ctx.Done():
			return
		default:
			var msg models.ClientMessage
			if err := c.conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("[ws] client %s unexpected close: %v", c.ID, err)
				}
				return
			}
			c.HandleMessage(msg)
		}
	}
}

// WritePump writes queued messages and keepalive pings
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				log.Printf("[ws] client %s write error: %v", c.ID, err)
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

// HandleMessage applies a client message
func (c *Client) HandleMessage(msg models.ClientMessage) {
	switch msg.Type {
	case "subscribe":
		c.SetSeasons(msg.Seasons)
		c.TrySend(models.ServerMessage{
			Type:      models.MessageTypeSubscribed,
			Payload:   map[string]interface{}{"seasons": msg.Seasons},
			Timestamp: time.Now(),
		})
	default:
		c.TrySend(models.ServerMessage{
			Type:      models.MessageTypeError,
			Payload:   map[string]interface{}{"error": "unknown message type: " + msg.Type},
			Timestamp: time.Now(),
		})
	}
}

// TrySend queues a message without blocking.
// Returns false when the client's buffer is full or the client is closed.
func (c *Client) TrySend(msg models.ServerMessage) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

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

// Close closes the send channel once. Later sends are dropped.
func (c *Client) Close() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// SetSeasons limits delivered events to the given seasons; none means all
func (c *Client) SetSeasons(seasons []int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seasons = make(map[int]struct{}, len(seasons))
	for _, s := range seasons {
		c.seasons[s] = struct{}{}
	}
}

// Wants reports whether the client subscribed to events for a season
func (c *Client) Wants(season int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.seasons) == 0 {
		return true
	}
	_, ok := c.seasons[season]
	return ok
}
