package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/client"
	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/hub"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the dashboard is served from the same origin
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EventsHandler streams pipeline events to dashboard clients
type EventsHandler struct {
	hub *hub.Hub
	ctx context.Context
}

// NewEventsHandler creates a websocket handler bound to a server lifetime
func NewEventsHandler(ctx context.Context, h *hub.Hub) *EventsHandler {
	return &EventsHandler{
		hub: h,
		ctx: ctx,
	}
}

// HandleWebSocket upgrades HTTP connections to WebSocket
// GET /ws
func (h *EventsHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade error: %v", err)
		return
	}

	c := client.NewClient(uuid.New().String(), conn, h.hub)
	h.hub.Register(c)

	// pumps outlive the request, so they use the server context
	go c.WritePump(h.ctx)
	go c.ReadPump(h.ctx)
}
