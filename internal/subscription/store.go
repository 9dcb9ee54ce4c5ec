package subscription

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Result reports how a store mutation was applied. The in-memory mirror
// always takes the write; Persisted tells whether the durable layer took it
// too, so callers can distinguish "registered until restart" from "durably
// saved" instead of finding out after the next restart.
type Result struct {
	Persisted bool
}

// StoreConfig holds configuration for the store.
type StoreConfig struct {
	// Durable is the durable persistence layer. Nil degrades the store to
	// in-memory-only operation.
	Durable Repository

	Logger zerolog.Logger
}

// Store owns the collection of push subscriptions. It keeps an in-memory
// mirror for fan-out and health reads, backed by an optional durable
// repository. The mirror is a cache: clients re-register on every app load,
// so the collection is always rebuildable from check-ins even when the
// durable layer is absent or behind.
type Store struct {
	durable Repository
	logger  zerolog.Logger

	mu   sync.RWMutex
	subs map[string]*Subscription
}

// NewStore creates a new subscription store.
func NewStore(cfg StoreConfig) *Store {
	return &Store{
		durable: cfg.Durable,
		logger:  cfg.Logger,
		subs:    make(map[string]*Subscription),
	}
}

// LoadAll replaces the in-memory mirror with the durable layer's contents,
// so registrations and removals made by another process become visible.
// Failures (connectivity, missing table) keep the current mirror and are
// logged; clients rebuild it through resync.
func (s *Store) LoadAll(ctx context.Context) {
	if s.durable == nil {
		return
	}

	subs, err := s.durable.List(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("subscription load skipped, keeping current mirror")
		return
	}

	loaded := make(map[string]*Subscription, len(subs))
	for _, sub := range subs {
		loaded[sub.Endpoint] = sub
	}

	s.mu.Lock()
	s.subs = loaded
	s.mu.Unlock()

	s.logger.Info().Int("count", len(subs)).Msg("subscriptions loaded from database")
}

// Upsert registers or refreshes a subscription. Last write wins on the
// endpoint key; created_at of a known endpoint is preserved. Durable-write
// failures are logged and reported through the Result, never returned as
// errors. The argument is not modified; defaults land on the stored copy.
func (s *Store) Upsert(ctx context.Context, sub *Subscription) Result {
	stored := sub.clone()
	if stored.DeviceName == "" {
		stored.DeviceName = DefaultDeviceName
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	if existing, ok := s.subs[sub.Endpoint]; ok {
		stored.CreatedAt = existing.CreatedAt
	}
	s.subs[sub.Endpoint] = stored
	total := len(s.subs)
	s.mu.Unlock()

	s.logger.Info().
		Str("device", stored.DeviceName).
		Int("total", total).
		Msg("push subscription registered")

	if s.durable == nil {
		return Result{}
	}

	if err := s.durable.Upsert(ctx, stored); err != nil {
		s.logger.Warn().Err(err).Msg("subscription save failed, kept in memory")
		return Result{}
	}
	return Result{Persisted: true}
}

// Remove deletes a subscription by endpoint from the mirror and the durable
// layer. Removing an unknown endpoint is a no-op.
func (s *Store) Remove(ctx context.Context, endpoint string) Result {
	s.mu.Lock()
	delete(s.subs, endpoint)
	s.mu.Unlock()

	if s.durable == nil {
		return Result{}
	}

	if err := s.durable.Delete(ctx, endpoint); err != nil {
		s.logger.Warn().Err(err).Msg("subscription delete failed")
		return Result{}
	}
	return Result{Persisted: true}
}

// List returns a snapshot of all known subscriptions. Order is unspecified.
func (s *Store) List() []*Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := make([]*Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub.clone())
	}
	return subs
}

// Len returns the number of known subscriptions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Persistent reports whether a durable layer is configured.
func (s *Store) Persistent() bool {
	return s.durable != nil
}
