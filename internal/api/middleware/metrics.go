package middleware

import (
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/tpaulino/pushrelay/internal/api/middleware"

// Metrics holds the OpenTelemetry metrics instruments.
type Metrics struct {
	requestDuration  metric.Float64Histogram
	requestTotal     metric.Int64Counter
	requestsInFlight metric.Int64UpDownCounter
}

// NewMetrics creates a new Metrics instance with initialized instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("Duration of HTTP server requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"http.server.request.total",
		metric.WithDescription("Total number of HTTP server requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	requestsInFlight, err := meter.Int64UpDownCounter(
		"http.server.requests_in_flight",
		metric.WithDescription("Number of HTTP requests currently being processed"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		requestsInFlight: requestsInFlight,
	}, nil
}

// Middleware returns an HTTP middleware that records metrics for each request.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			attrs := []attribute.KeyValue{
				attribute.String("http.method", r.Method),
				attribute.String("http.route", r.URL.Path),
			}
			m.requestsInFlight.Add(r.Context(), 1, metric.WithAttributes(attrs...))
			defer m.requestsInFlight.Add(r.Context(), -1, metric.WithAttributes(attrs...))

			wrapped := newResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()

			attrs = append(attrs, attribute.String("http.status_code", strconv.Itoa(wrapped.statusCode)))
			if wrapped.statusCode >= 400 {
				attrs = append(attrs, attribute.Bool("error", true))
			}

			m.requestDuration.Record(r.Context(), duration, metric.WithAttributes(attrs...))
			m.requestTotal.Add(r.Context(), 1, metric.WithAttributes(attrs...))
		})
	}
}

// BroadcastMetrics holds metrics for push broadcasts.
type BroadcastMetrics struct {
	deliveryTotal   metric.Int64Counter
	removedTotal    metric.Int64Counter
	broadcastLength metric.Float64Histogram
}

// NewBroadcastMetrics creates metrics for monitoring push fan-out.
func NewBroadcastMetrics() (*BroadcastMetrics, error) {
	meter := otel.Meter(meterName)

	deliveryTotal, err := meter.Int64Counter(
		"push.delivery.total",
		metric.WithDescription("Total number of push delivery attempts"),
		metric.WithUnit("{delivery}"),
	)
	if err != nil {
		return nil, err
	}

	removedTotal, err := meter.Int64Counter(
		"push.subscription.removed.total",
		metric.WithDescription("Subscriptions removed after the push service reported them gone"),
		metric.WithUnit("{subscription}"),
	)
	if err != nil {
		return nil, err
	}

	broadcastLength, err := meter.Float64Histogram(
		"push.broadcast.duration",
		metric.WithDescription("Duration of full push broadcasts in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &BroadcastMetrics{
		deliveryTotal:   deliveryTotal,
		removedTotal:    removedTotal,
		broadcastLength: broadcastLength,
	}, nil
}

// RecordBroadcast records the outcome of one broadcast.
func (m *BroadcastMetrics) RecordBroadcast(r *http.Request, sent, failed, removed int, duration time.Duration) {
	ctx := r.Context()
	m.deliveryTotal.Add(ctx, int64(sent), metric.WithAttributes(attribute.String("outcome", "sent")))
	m.deliveryTotal.Add(ctx, int64(failed), metric.WithAttributes(attribute.String("outcome", "failed")))
	m.removedTotal.Add(ctx, int64(removed))
	m.broadcastLength.Record(ctx, duration.Seconds())
}
