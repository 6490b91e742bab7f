package hitl

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, ttl, nil), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store, _ := newTestRedisStore(t, 0)
	ctx := context.Background()

	req := &Request{
		ID:        "r1",
		RunID:     "run1",
		Node:      "review",
		Prompt:    "prior",
		Status:    StatusPending,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.Save(ctx, req))

	loaded, err := store.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, req.Node, loaded.Node)
	assert.Equal(t, req.RunID, loaded.RunID)
	assert.Equal(t, StatusPending, loaded.Status)
}

func TestRedisStoreLoadUnknown(t *testing.T) {
	t.Parallel()

	store, _ := newTestRedisStore(t, 0)
	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestRedisStoreUpdate(t *testing.T) {
	t.Parallel()

	store, _ := newTestRedisStore(t, 0)
	ctx := context.Background()

	req := &Request{ID: "r1", RunID: "run1", Status: StatusPending}
	require.NoError(t, store.Save(ctx, req))

	req.Status = StatusAnswered
	req.Answer = "yes"
	require.NoError(t, store.Update(ctx, req))

	loaded, err := store.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, StatusAnswered, loaded.Status)
	assert.Equal(t, "yes", loaded.Answer)
}

func TestRedisStoreUpdateUnknown(t *testing.T) {
	t.Parallel()

	store, _ := newTestRedisStore(t, 0)
	err := store.Update(context.Background(), &Request{ID: "nope"})
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestRedisStoreListPending(t *testing.T) {
	t.Parallel()

	store, _ := newTestRedisStore(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Request{ID: "a", RunID: "run1", Status: StatusPending}))
	require.NoError(t, store.Save(ctx, &Request{ID: "b", RunID: "run1", Status: StatusPending}))
	require.NoError(t, store.Save(ctx, &Request{ID: "c", RunID: "run2", Status: StatusPending}))

	b := &Request{ID: "b", RunID: "run1", Status: StatusAnswered, Answer: "ok"}
	require.NoError(t, store.Update(ctx, b))

	pending, err := store.ListPending(ctx, "run1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "a", pending[0].ID)
}

func TestRedisStoreTTLExpiry(t *testing.T) {
	t.Parallel()

	store, mr := newTestRedisStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Request{ID: "a", RunID: "run1", Status: StatusPending}))
	mr.FastForward(2 * time.Minute)

	_, err := store.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrRequestNotFound)

	// The run index may still hold the expired ID; listing skips it.
	pending, err := store.ListPending(ctx, "run1")
	require.NoError(t, err)
	assert.Empty(t, pending)
}
