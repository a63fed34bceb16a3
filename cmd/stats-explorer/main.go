package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/audit"
	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/cache"
	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/config"
	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/export"
	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/hub"
	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/pipeline"
	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/providers/bbref"
	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/publisher"
	"github.com/redis/go-redis/v9"
)

// redisNamespaceTTL bounds how long a stopped process's memo entries linger
const redisNamespaceTTL = 24 * time.Hour

func main() {
	log.Println("=== Fortuna Stats Explorer ===")

	cfg := config.LoadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Event fan-out: dashboard websockets always, Redis stream when configured
	eventHub := hub.NewHub()
	go eventHub.Run(ctx)
	events := pipeline.NewNotifiers(eventHub)

	var store cache.Store = cache.NewMemoryStore()
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("❌ Failed to parse Redis URL: %v", err)
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("❌ Failed to connect to Redis: %v", err)
		}
		log.Printf("✓ Connected to Redis (namespace %s)", cfg.Redis.Namespace)

		store = cache.NewRedisStore(redisClient, cfg.Redis.Namespace, redisNamespaceTTL)
		events.Add(publisher.NewStreamPublisher(redisClient, cfg.Redis.StreamKey))
	} else {
		log.Println("✓ Using in-memory memo store")
	}

	var recorder audit.Recorder = audit.Nop{}
	if cfg.Audit.DSN != "" {
		pg, err := audit.NewPostgresRecorder(cfg.Audit.DSN)
		if err != nil {
			log.Fatalf("❌ Failed to connect to audit database: %v", err)
		}
		recorder = pg
		log.Println("✓ Connected to audit database")
	}
	defer recorder.Close()

	source := bbref.New(cfg.Source.BaseURL, cfg.Source.UserAgent, cfg.Source.Timeout)
	explorer := pipeline.New(
		pipeline.NewFetcher(source, store, events),
		export.NewEncoder(store),
		events,
		cfg.Source.FirstSeason,
	)

	router := handlers.NewRouter(
		handlers.NewHandler(explorer, recorder),
		handlers.NewEventsHandler(ctx, eventHub),
		cfg.Server.CORSOrigins,
	)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("✓ Stats Explorer listening on %s", cfg.Server.Addr)
		fmt.Println("  Endpoints:")
		fmt.Println("    GET  /")
		fmt.Println("    GET  /health")
		fmt.Println("    GET  /ws")
		fmt.Println("    GET  /api/v1/seasons")
		fmt.Println("    GET  /api/v1/seasons/{season}/players")
		fmt.Println("    GET  /api/v1/seasons/{season}/players.{csv|xlsx}")
		fmt.Println("    POST /api/v1/seasons/{season}/correlation")

		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Printf("❌ Server error: %v", err)
		cancel()
		return

	case sig := <-shutdown:
		log.Printf("⚠️  Received signal: %v", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("⚠️  Graceful shutdown failed: %v", err)
			if err := srv.Close(); err != nil {
				log.Printf("❌ Could not stop server: %v", err)
			}
		}
	}

	cancel()
	log.Println("✓ Shutdown complete")
}
