// Package main provides the entrypoint for the push relay server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tpaulino/pushrelay/internal/api"
	"github.com/tpaulino/pushrelay/internal/api/middleware"
	"github.com/tpaulino/pushrelay/internal/config"
	"github.com/tpaulino/pushrelay/internal/database"
	"github.com/tpaulino/pushrelay/internal/push"
	"github.com/tpaulino/pushrelay/internal/push/webpush"
	"github.com/tpaulino/pushrelay/internal/subscription"
	"github.com/tpaulino/pushrelay/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "tpaulino-relay"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting push relay")

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to the durable store when configured; the relay runs
	// memory-only without it and clients rebuild the store on check-in.
	var durable subscription.Repository
	if cfg.Persistent() {
		pool, err := database.Connect(ctx, database.DefaultConfig(cfg.DatabaseURL))
		if err != nil {
			log.Warn().Err(err).Msg("database unavailable, running in-memory only")
		} else {
			defer pool.Close()
			durable = subscription.NewPostgresRepository(pool)
			log.Info().Msg("database connected")
		}
	} else {
		log.Warn().Msg("no DATABASE_URL configured, subscriptions will not survive restarts")
	}

	store := subscription.NewStore(subscription.StoreConfig{
		Durable: durable,
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
	log.Info().Msg("push dispatcher initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Logger:         log,
		ServiceName:    serviceName,
		Metrics:        metrics,
		Store:          store,
		Dispatcher:     dispatcher,
		VAPIDPublicKey: cfg.VAPIDPublicKey,
		APIKey:         cfg.APIKey,
		StaticDir:      cfg.StaticDir,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Bool("persisted", store.Persistent()).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
