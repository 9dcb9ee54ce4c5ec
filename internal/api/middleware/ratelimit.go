package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	// Requests per window
	RequestLimit int
	// Window duration
	WindowLength time.Duration
}

// Default rate limit configurations.
var (
	// SubscribeRateLimit applies to subscription registration endpoints
	// (30 req/min). Resync fires once per app load per device, so anything
	// past this is a misbehaving client.
	SubscribeRateLimit = RateLimitConfig{
		RequestLimit: 30,
		WindowLength: time.Minute,
	}

	// StandardRateLimit applies to the remaining public endpoints (100 req/min).
	StandardRateLimit = RateLimitConfig{
		RequestLimit: 100,
		WindowLength: time.Minute,
	}
)

// RateLimitByIP creates a rate limiter middleware using client IP address.
// Uses X-Forwarded-For header if present (extracted by chi's RealIP middleware).
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(rateLimitExceededHandler),
	)
}

// rateLimitExceededHandler writes the flat error shape when the limit is hit.
func rateLimitExceededHandler(w http.ResponseWriter, r *http.Request) {
	// httprate doesn't expose exact reset time, so use a conservative estimate
	w.Header().Set("Retry-After", strconv.Itoa(60))
	writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
}
