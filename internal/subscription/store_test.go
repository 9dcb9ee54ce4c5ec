package subscription_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tpaulino/pushrelay/internal/subscription"
)

func testKeys(t *testing.T, auth string) json.RawMessage {
	t.Helper()
	keys, err := json.Marshal(map[string]string{"p256dh": "BPub", "auth": auth})
	require.NoError(t, err)
	return keys
}

func newStore(durable subscription.Repository) *subscription.Store {
	return subscription.NewStore(subscription.StoreConfig{
		Durable: durable,
		Logger:  zerolog.Nop(),
	})
}

func TestStore_UpsertLastWriteWins(t *testing.T) {
	store := newStore(subscription.NewInMemoryRepository())
	ctx := context.Background()

	store.Upsert(ctx, &subscription.Subscription{
		Endpoint:   "https://push.example/ep-1",
		Keys:       testKeys(t, "first"),
		DeviceName: "iPhone",
	})
	store.Upsert(ctx, &subscription.Subscription{
		Endpoint:   "https://push.example/ep-1",
		Keys:       testKeys(t, "second"),
		DeviceName: "Android",
	})

	subs := store.List()
	require.Len(t, subs, 1, "re-registration must never duplicate an endpoint")
	assert.Equal(t, "https://push.example/ep-1", subs[0].Endpoint)
	assert.Equal(t, "Android", subs[0].DeviceName)
	assert.JSONEq(t, string(testKeys(t, "second")), string(subs[0].Keys))
}

func TestStore_UpsertPreservesCreatedAt(t *testing.T) {
	store := newStore(nil)
	ctx := context.Background()

	store.Upsert(ctx, &subscription.Subscription{
		Endpoint: "https://push.example/ep-1",
		Keys:     testKeys(t, "first"),
	})
	first := store.List()[0].CreatedAt

	store.Upsert(ctx, &subscription.Subscription{
		Endpoint: "https://push.example/ep-1",
		Keys:     testKeys(t, "second"),
	})

	assert.Equal(t, first, store.List()[0].CreatedAt,
		"created_at records first registration")
}

func TestStore_UpsertDefaultsDeviceName(t *testing.T) {
	store := newStore(nil)

	store.Upsert(context.Background(), &subscription.Subscription{
		Endpoint: "https://push.example/ep-1",
		Keys:     testKeys(t, "a"),
	})

	assert.Equal(t, subscription.DefaultDeviceName, store.List()[0].DeviceName)
}

func TestStore_UpsertDoesNotMutateArgument(t *testing.T) {
	store := newStore(nil)

	sub := &subscription.Subscription{
		Endpoint: "https://push.example/ep-1",
		Keys:     testKeys(t, "a"),
	}
	store.Upsert(context.Background(), sub)

	assert.Empty(t, sub.DeviceName, "defaults belong to the stored copy")
	assert.True(t, sub.CreatedAt.IsZero())
	assert.Equal(t, subscription.DefaultDeviceName, store.List()[0].DeviceName)
	assert.False(t, store.List()[0].CreatedAt.IsZero())
}

func TestStore_RemoveUnknownEndpointIsNoOp(t *testing.T) {
	store := newStore(subscription.NewInMemoryRepository())
	ctx := context.Background()

	store.Upsert(ctx, &subscription.Subscription{
		Endpoint: "https://push.example/ep-1",
		Keys:     testKeys(t, "a"),
	})

	store.Remove(ctx, "https://push.example/never-registered")

	assert.Equal(t, 1, store.Len())
}

func TestStore_PersistedResult(t *testing.T) {
	durable := subscription.NewInMemoryRepository()
	store := newStore(durable)
	ctx := context.Background()

	result := store.Upsert(ctx, &subscription.Subscription{
		Endpoint: "https://push.example/ep-1",
		Keys:     testKeys(t, "a"),
	})
	assert.True(t, result.Persisted)

	memoryOnly := newStore(nil)
	result = memoryOnly.Upsert(ctx, &subscription.Subscription{
		Endpoint: "https://push.example/ep-1",
		Keys:     testKeys(t, "a"),
	})
	assert.False(t, result.Persisted)
	assert.Equal(t, 1, memoryOnly.Len(), "memory mirror takes the write regardless")
}

// failingRepository simulates a durable layer that is down.
type failingRepository struct{}

func (failingRepository) Upsert(context.Context, *subscription.Subscription) error {
	return errors.New("connection refused")
}

func (failingRepository) Delete(context.Context, string) error {
	return errors.New("connection refused")
}

func (failingRepository) List(context.Context) ([]*subscription.Subscription, error) {
	return nil, errors.New("relation does not exist")
}

func TestStore_DurableFailuresDegradeGracefully(t *testing.T) {
	store := newStore(failingRepository{})
	ctx := context.Background()

	// Hydration failure leaves the store empty, not crashed.
	store.LoadAll(ctx)
	assert.Equal(t, 0, store.Len())

	// Writes still apply in memory, reported as not persisted.
	result := store.Upsert(ctx, &subscription.Subscription{
		Endpoint: "https://push.example/ep-1",
		Keys:     testKeys(t, "a"),
	})
	assert.False(t, result.Persisted)
	assert.Equal(t, 1, store.Len())

	result = store.Remove(ctx, "https://push.example/ep-1")
	assert.False(t, result.Persisted)
	assert.Equal(t, 0, store.Len())
}

func TestStore_LoadAllFailureKeepsCurrentMirror(t *testing.T) {
	store := newStore(failingRepository{})
	ctx := context.Background()

	store.Upsert(ctx, &subscription.Subscription{
		Endpoint: "https://push.example/ep-1",
		Keys:     testKeys(t, "a"),
	})

	store.LoadAll(ctx)

	assert.Equal(t, 1, store.Len(), "a failed re-read must not wipe the mirror")
}

func TestStore_LoadAllSeesRemoteChanges(t *testing.T) {
	durable := subscription.NewInMemoryRepository()
	ctx := context.Background()

	// Two processes over the same durable layer: the relay takes
	// subscribe/unsubscribe traffic, the worker only broadcasts.
	relay := newStore(durable)
	workerStore := newStore(durable)
	workerStore.LoadAll(ctx)
	require.Equal(t, 0, workerStore.Len())

	relay.Upsert(ctx, &subscription.Subscription{
		Endpoint: "https://push.example/ep-1",
		Keys:     testKeys(t, "a"),
	})
	relay.Upsert(ctx, &subscription.Subscription{
		Endpoint: "https://push.example/ep-2",
		Keys:     testKeys(t, "b"),
	})

	workerStore.LoadAll(ctx)
	assert.Equal(t, 2, workerStore.Len(), "registrations after boot must become visible")

	relay.Remove(ctx, "https://push.example/ep-1")

	workerStore.LoadAll(ctx)
	require.Equal(t, 1, workerStore.Len(), "removals must propagate, not merge away")
	assert.Equal(t, "https://push.example/ep-2", workerStore.List()[0].Endpoint)
}

func TestStore_RestartRehydratesFromDurable(t *testing.T) {
	durable := subscription.NewInMemoryRepository()
	ctx := context.Background()

	store := newStore(durable)
	store.Upsert(ctx, &subscription.Subscription{
		Endpoint:   "https://push.example/ep-1",
		Keys:       testKeys(t, "a"),
		DeviceName: "iPhone",
	})
	store.Upsert(ctx, &subscription.Subscription{
		Endpoint:   "https://push.example/ep-2",
		Keys:       testKeys(t, "b"),
		DeviceName: "Desktop",
	})

	// Simulated restart: fresh mirror over the same durable layer.
	restarted := newStore(durable)
	restarted.LoadAll(ctx)

	endpoints := make(map[string]bool)
	for _, sub := range restarted.List() {
		endpoints[sub.Endpoint] = true
	}
	assert.Equal(t, map[string]bool{
		"https://push.example/ep-1": true,
		"https://push.example/ep-2": true,
	}, endpoints)
}

func TestStore_ListReturnsCopies(t *testing.T) {
	store := newStore(nil)
	store.Upsert(context.Background(), &subscription.Subscription{
		Endpoint: "https://push.example/ep-1",
		Keys:     testKeys(t, "a"),
	})

	subs := store.List()
	subs[0].DeviceName = "mutated"
	subs[0].Keys[0] = 'X'

	fresh := store.List()
	assert.Equal(t, subscription.DefaultDeviceName, fresh[0].DeviceName)
	assert.JSONEq(t, string(testKeys(t, "a")), string(fresh[0].Keys))
}
