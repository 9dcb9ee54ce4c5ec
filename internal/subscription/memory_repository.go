package subscription

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use the PostgreSQL implementation.
type InMemoryRepository struct {
	mu   sync.RWMutex
	subs map[string]*Subscription // keyed by endpoint
}

// NewInMemoryRepository creates a new in-memory subscription repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		subs: make(map[string]*Subscription),
	}
}

// Upsert creates or updates a subscription keyed by endpoint.
func (r *InMemoryRepository) Upsert(_ context.Context, sub *Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := sub.clone()
	if existing, ok := r.subs[sub.Endpoint]; ok {
		stored.CreatedAt = existing.CreatedAt
	}
	r.subs[sub.Endpoint] = stored
	return nil
}

// Delete removes a subscription by endpoint.
func (r *InMemoryRepository) Delete(_ context.Context, endpoint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.subs, endpoint)
	return nil
}

// List retrieves all subscriptions.
func (r *InMemoryRepository) List(_ context.Context) ([]*Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := make([]*Subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		subs = append(subs, sub.clone())
	}
	return subs, nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
