// Package worker consumes broadcast messages from Pub/Sub and hands them to
// the push dispatcher. It is an alternative trigger next to the HTTP send
// endpoint; both go through the same dispatcher and neither deduplicates.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/tpaulino/pushrelay/internal/push"
	"github.com/tpaulino/pushrelay/internal/subscription"
)

// PubSubHandler handles Pub/Sub broadcast messages.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	store            *subscription.Store
	dispatcher       *push.Dispatcher
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Store            *subscription.Store
	Dispatcher       *push.Dispatcher
	Logger           zerolog.Logger
}

// BroadcastMessage is the Pub/Sub message payload for a notification
// broadcast. It mirrors the HTTP send body.
type BroadcastMessage struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag,omitempty"`
	URL   string `json:"url,omitempty"`
}

// ErrInvalidBroadcast reports a message that can never be dispatched.
var ErrInvalidBroadcast = errors.New("broadcast message missing title or body")

// ParseBroadcast decodes and validates a raw broadcast payload.
func ParseBroadcast(data []byte) (BroadcastMessage, error) {
	var broadcast BroadcastMessage
	if err := json.Unmarshal(data, &broadcast); err != nil {
		return BroadcastMessage{}, fmt.Errorf("parsing broadcast message: %w", err)
	}
	if broadcast.Title == "" || broadcast.Body == "" {
		return BroadcastMessage{}, ErrInvalidBroadcast
	}
	return broadcast, nil
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// One broadcast at a time; the fan-out is sequential anyway and
	// concurrent broadcasts only interleave deliveries.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 1
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		store:            cfg.Store,
		dispatcher:       cfg.Dispatcher,
		logger:           cfg.Logger,
	}, nil
}

// Broadcast re-reads the durable layer and dispatches one message to every
// current subscriber. Subscribe and unsubscribe traffic lands in the relay
// process, so the worker's mirror is refreshed before each fan-out; devices
// registered or removed since the last broadcast are picked up here.
func (h *PubSubHandler) Broadcast(ctx context.Context, broadcast BroadcastMessage) (push.Report, error) {
	h.store.LoadAll(ctx)

	return h.dispatcher.Dispatch(ctx, push.Message{
		Title: broadcast.Title,
		Body:  broadcast.Body,
		Tag:   broadcast.Tag,
		URL:   broadcast.URL,
	})
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	broadcast, err := ParseBroadcast(msg.Data)
	if err != nil {
		logger.Error().Err(err).Msg("dropping broadcast message")
		// Malformed messages never become dispatchable; drop them.
		msg.Ack()
		return
	}

	report, err := h.Broadcast(ctx, broadcast)
	if err != nil {
		logger.Error().Err(err).Msg("broadcast dispatch failed")
		msg.Nack()
		return
	}

	logger.Info().
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Int("removed", report.Removed).
		Msg("broadcast message processed")
	msg.Ack()
}
