package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires every endpoint. events may be nil when the websocket
// stream is not served.
func NewRouter(h *Handler, events *EventsHandler, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", h.HealthCheck)

	if events != nil {
		r.Get("/ws", events.HandleWebSocket)
	}

	r.Group(func(r chi.Router) {
		// a cold season fetch can take a while
		r.Use(chimiddleware.Timeout(60 * time.Second))

		r.Get("/", h.Dashboard)

		r.Route("/api/v1", func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: corsOrigins,
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Accept", "Content-Type"},
				ExposedHeaders: []string{"Content-Disposition"},
				MaxAge:         300,
			}))

			r.Get("/seasons", h.GetSeasons)
			r.Get("/seasons/{season}/players", h.GetPlayers)
			r.Get("/seasons/{season}/players.{format}", h.DownloadPlayers)
			r.Post("/seasons/{season}/correlation", h.GetCorrelation)
		})
	})

	return r
}
