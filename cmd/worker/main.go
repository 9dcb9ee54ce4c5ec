// Package main provides the entrypoint for the Pub/Sub broadcast worker.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tpaulino/pushrelay/internal/config"
	"github.com/tpaulino/pushrelay/internal/database"
	"github.com/tpaulino/pushrelay/internal/push"
	"github.com/tpaulino/pushrelay/internal/push/webpush"
	"github.com/tpaulino/pushrelay/internal/subscription"
	"github.com/tpaulino/pushrelay/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "tpaulino-relay-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting broadcast worker")

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscriptionName := os.Getenv("PUBSUB_SUBSCRIPTION")
	if projectID == "" || subscriptionName == "" {
		log.Fatal().Msg("PUBSUB_PROJECT_ID and PUBSUB_SUBSCRIPTION are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The worker reads subscriptions from the same durable store as the
	// relay; without one it would broadcast into an empty mirror.
	if !cfg.Persistent() {
		log.Fatal().Msg("DATABASE_URL is required for the worker")
	}

	pool, err := database.Connect(ctx, database.DefaultConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	store := subscription.NewStore(subscription.StoreConfig{
		Durable: subscription.NewPostgresRepository(pool),
		Logger:  log,
	})
	store.LoadAll(ctx)

	sender := webpush.NewClient(webpush.ClientConfig{
		VAPIDPublicKey:  cfg.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.VAPIDPrivateKey,
		Subscriber:      cfg.VAPIDSubject,
		Logger:          log,
	})

	dispatcher := push.NewDispatcher(push.DispatcherConfig{
		Store:  store,
		Sender: sender,
		Logger: log,
	})

	handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
		ProjectID:        projectID,
		SubscriptionName: subscriptionName,
		Store:            store,
		Dispatcher:       dispatcher,
		Logger:           log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create pubsub handler")
	}
	defer handler.Close()

	// Health endpoint for the hosting platform
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","version":%q,"subscribers":%d}`, Version, store.Len())
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Receive blocks until the context is cancelled.
	go func() {
		if err := handler.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("pubsub receive error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
