package push

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tpaulino/pushrelay/internal/subscription"
)

// DispatcherConfig holds configuration for the dispatcher.
type DispatcherConfig struct {
	Store  *subscription.Store
	Sender Sender
	Logger zerolog.Logger
}

// Dispatcher broadcasts one message to every stored subscription.
//
// Deliveries run sequentially; subscriber counts are small (single digits to
// low tens of devices) so total latency stays well within a request window.
// A failed delivery never blocks the rest of the fan-out, and endpoints the
// push service reports as gone are removed only after the full broadcast so
// the iteration never races its own cleanup. The dispatcher keeps no
// delivery memory: broadcasting the same message twice notifies everyone
// twice, and deduplication belongs to the trigger.
type Dispatcher struct {
	store  *subscription.Store
	sender Sender
	logger zerolog.Logger
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	return &Dispatcher{
		store:  cfg.Store,
		sender: cfg.Sender,
		logger: cfg.Logger,
	}
}

// Dispatch sends msg to every subscription currently in the store and
// returns the aggregate report. It fails outright only when the payload
// cannot be encoded; per-endpoint failures are counted.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) (Report, error) {
	payload, err := msg.Payload()
	if err != nil {
		return Report{}, fmt.Errorf("encoding payload: %w", err)
	}

	var report Report
	var gone []string

	for _, sub := range d.store.List() {
		if err := d.sender.Send(ctx, sub, payload); err != nil {
			report.Failed++
			d.logger.Error().
				Err(err).
				Str("device", sub.DeviceName).
				Msg("push delivery failed")

			if errors.Is(err, ErrEndpointGone) {
				gone = append(gone, sub.Endpoint)
			}
			continue
		}
		report.Sent++
	}

	for _, endpoint := range gone {
		d.store.Remove(ctx, endpoint)
		report.Removed++
	}
	report.Total = d.store.Len()

	d.logger.Info().
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Int("removed", report.Removed).
		Int("total", report.Total).
		Msg("push broadcast completed")

	return report, nil
}
