// Package webpush delivers notifications over the Web Push protocol with
// VAPID authentication.
package webpush

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"

	"github.com/tpaulino/pushrelay/internal/push"
	"github.com/tpaulino/pushrelay/internal/push/resilience"
	"github.com/tpaulino/pushrelay/internal/subscription"
)

// SenderName identifies this delivery transport.
const SenderName = "webpush"

// ClientConfig holds configuration for the Web Push client.
type ClientConfig struct {
	// VAPIDPublicKey and VAPIDPrivateKey sign delivery requests (required).
	VAPIDPublicKey  string
	VAPIDPrivateKey string

	// Subscriber is the contact URI included in VAPID claims (required by
	// push services, e.g. "mailto:ops@example.com").
	Subscriber string

	// TTL is how long (seconds) push services may hold an undelivered
	// notification. Defaults to 24 hours.
	TTL int

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a circuit-breaker client with delivery defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client sends notifications over Web Push.
type Client struct {
	options    webpush.Options
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Web Push client.
func NewClient(cfg ClientConfig) *Client {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 24 * 60 * 60
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(SenderName))
	}

	return &Client{
		options: webpush.Options{
			Subscriber:      cfg.Subscriber,
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
			TTL:             ttl,
			HTTPClient:      httpClient,
		},
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Send delivers one payload to one subscription endpoint. A 404/410 from
// the push service is reported as push.ErrEndpointGone so the caller can
// drop the subscription.
func (c *Client) Send(ctx context.Context, sub *subscription.Subscription, payload []byte) error {
	var keys webpush.Keys
	if err := json.Unmarshal(sub.Keys, &keys); err != nil {
		return fmt.Errorf("decoding subscription keys: %w", err)
	}

	target := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     keys,
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, target, &c.options)
	if err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return fmt.Errorf("%w: status %d", push.ErrEndpointGone, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

// Name returns the transport name.
func (c *Client) Name() string {
	return SenderName
}

// Ensure Client implements the Sender interface.
var _ push.Sender = (*Client)(nil)
