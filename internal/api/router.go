// Package api provides the HTTP API for the push relay.
package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/tpaulino/pushrelay/internal/api/handler"
	"github.com/tpaulino/pushrelay/internal/api/middleware"
	"github.com/tpaulino/pushrelay/internal/push"
	"github.com/tpaulino/pushrelay/internal/subscription"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger         zerolog.Logger
	ServiceName    string
	Metrics        *middleware.Metrics
	Store          *subscription.Store
	Dispatcher     *push.Dispatcher
	VAPIDPublicKey string
	APIKey         string

	// StaticDir serves the built frontend with an index.html fallback
	// when non-empty.
	StaticDir string
}

// NewRouter creates a new chi router with all relay routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "tpaulino-relay"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Store)

	var broadcastMetrics *middleware.BroadcastMetrics
	if cfg.Metrics != nil {
		// Broadcast metrics share the meter; creation only fails when the
		// global meter provider is misconfigured, which NewMetrics would
		// have caught already.
		broadcastMetrics, _ = middleware.NewBroadcastMetrics()
	}

	pushHandler := handler.NewPushHandler(handler.PushHandlerConfig{
		Store:          cfg.Store,
		Dispatcher:     cfg.Dispatcher,
		VAPIDPublicKey: cfg.VAPIDPublicKey,
		Metrics:        broadcastMetrics,
	})

	subscribeRateLimit := middleware.RateLimitByIP(middleware.SubscribeRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.SecurityHeaders)
		r.Use(middleware.ContentTypeJSON)

		r.With(standardRateLimit).Get("/health", opsHandler.HealthCheck)

		r.Route("/push", func(r chi.Router) {
			r.With(standardRateLimit).Get("/vapid-key", pushHandler.VAPIDKey)
			r.With(subscribeRateLimit).Post("/subscribe", pushHandler.Subscribe)
			r.With(subscribeRateLimit).Post("/unsubscribe", pushHandler.Unsubscribe)

			// Broadcast trigger for the automation caller
			r.With(middleware.APIKey(cfg.APIKey)).Post("/send", pushHandler.Send)
		})
	})

	// SPA fallback for everything outside /api
	if cfg.StaticDir != "" {
		spa := handler.NewSPAHandler(cfg.StaticDir)
		r.NotFound(func(w http.ResponseWriter, req *http.Request) {
			if strings.HasPrefix(req.URL.Path, "/api/") {
				http.NotFound(w, req)
				return
			}
			spa.ServeHTTP(w, req)
		})
	}

	return r
}
