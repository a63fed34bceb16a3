package hub

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/client"
	"github.com/XavierBriggs/fortuna/services/stats-explorer/pkg/models"
)

// Hub maintains the set of active dashboard clients and broadcasts
// pipeline events to them
type Hub struct {
	clients   map[*client.Client]bool
	clientsMu sync.RWMutex

	broadcast  chan models.PipelineEvent
	register   chan *client.Client
	unregister chan *client.Client
	done       chan struct{}

	totalMessages int64
	metricsMu     sync.Mutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client.Client]bool),
		broadcast:  make(chan models.PipelineEvent, 256),
		register:   make(chan *client.Client),
		unregister: make(chan *client.Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	log.Println("[hub] Started")

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			close(h.done)
			return

		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// Register adds a client to the hub. A client registering after the hub
// stopped is closed straight away.
func (h *Hub) Register(c *client.Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.Close()
	}
}

// Unregister removes a client from the hub. It returns without blocking
// once the hub has stopped.
func (h *Hub) Unregister(c *client.Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Notify queues a pipeline event for broadcast. A full buffer drops the
// event rather than stalling the request that produced it.
func (h *Hub) Notify(_ context.Context, event models.PipelineEvent) error {
	select {
	case h.broadcast <- event:
	default:
		log.Printf("[hub] Broadcast buffer full, dropping %s", event.Type)
	}
	return nil
}

func (h *Hub) registerClient(c *client.Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[c] = true
	log.Printf("[hub] client %s connected (total: %d)", c.ID, len(h.clients))
}

func (h *Hub) unregisterClient(c *client.Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.Close()
		log.Printf("[hub] client %s disconnected (total: %d)", c.ID, len(h.clients))
	}
}

func (h *Hub) broadcastEvent(event models.PipelineEvent) {
	h.clientsMu.RLock()
	clients := make([]*client.Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	message := models.ServerMessage{
		Type:      models.MessageTypePipelineEvent,
		Payload:   event,
		Timestamp: time.Now(),
	}

	sent := 0
	for _, c := range clients {
		if !c.Wants(event.Season) {
			continue
		}
		if c.TrySend(message) {
			sent++
			continue
		}
		log.Printf("[hub] client %s buffer full, disconnecting", c.ID)
		go h.Unregister(c)
	}

	if sent > 0 {
		h.metricsMu.Lock()
		h.totalMessages++
		h.metricsMu.Unlock()
	}
}

// ClientCount returns the number of active clients
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// TotalMessages returns how many events reached at least one client
func (h *Hub) TotalMessages() int64 {
	h.metricsMu.Lock()
	defer h.metricsMu.Unlock()
	return h.totalMessages
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	log.Printf("[hub] Shutting down (%d active clients)", len(h.clients))
	for c := range h.clients {
		c.Close()
		delete(h.clients, c)
	}
}
