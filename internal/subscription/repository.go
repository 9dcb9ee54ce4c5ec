package subscription

import "context"

// Repository defines the interface for durable subscription persistence.
type Repository interface {
	// Upsert creates or updates a subscription keyed by endpoint. The
	// stored created_at of an existing row is preserved.
	Upsert(ctx context.Context, sub *Subscription) error

	// Delete removes a subscription by endpoint. Deleting an unknown
	// endpoint is not an error.
	Delete(ctx context.Context, endpoint string) error

	// List retrieves all subscriptions.
	List(ctx context.Context) ([]*Subscription, error)
}
