package hitl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewInMemoryStore()
	ctx := context.Background()

	req := &Request{
		ID:        "r1",
		RunID:     "run1",
		Node:      "review",
		Prompt:    "prior output",
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Save(ctx, req))

	loaded, err := store.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "review", loaded.Node)
	assert.Equal(t, StatusPending, loaded.Status)

	// Mutating the loaded copy must not leak into the store.
	loaded.Status = StatusAnswered
	again, err := store.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, again.Status)
}

func TestInMemoryStoreLoadUnknown(t *testing.T) {
	t.Parallel()

	_, err := NewInMemoryStore().Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestInMemoryStoreUpdateUnknown(t *testing.T) {
	t.Parallel()

	err := NewInMemoryStore().Update(context.Background(), &Request{ID: "nope"})
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestInMemoryStoreListPending(t *testing.T) {
	t.Parallel()

	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Request{ID: "a", RunID: "run1", Status: StatusPending}))
	require.NoError(t, store.Save(ctx, &Request{ID: "b", RunID: "run1", Status: StatusAnswered}))
	require.NoError(t, store.Save(ctx, &Request{ID: "c", RunID: "run2", Status: StatusPending}))

	pending, err := store.ListPending(ctx, "run1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "a", pending[0].ID)
}
