package push

import (
	"context"
	"errors"

	"github.com/tpaulino/pushrelay/internal/subscription"
)

// ErrEndpointGone is returned by a Sender when the push service reports the
// endpoint as permanently invalid (404/410). The dispatcher removes such
// endpoints from the store after the broadcast.
var ErrEndpointGone = errors.New("push endpoint gone")

// Sender delivers one encrypted payload to one subscription endpoint.
type Sender interface {
	Send(ctx context.Context, sub *subscription.Subscription, payload []byte) error
}
