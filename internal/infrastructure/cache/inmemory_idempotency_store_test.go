package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	newlyMarked, err := store.MarkProcessed(ctx, "event-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, newlyMarked)

	newlyMarked, err = store.MarkProcessed(ctx, "event-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, newlyMarked, "second mark of same event is not new")
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	processed, err := store.IsProcessed(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, processed)

	_, err = store.MarkProcessed(ctx, "event-1", time.Minute)
	require.NoError(t, err)

	processed, err = store.IsProcessed(ctx, "event-1")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestInMemoryIdempotencyStore_Expiry(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "event-1", 10*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	processed, err := store.IsProcessed(ctx, "event-1")
	require.NoError(t, err)
	assert.False(t, processed, "entry expires after its TTL")

	newlyMarked, err := store.MarkProcessed(ctx, "event-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, newlyMarked, "expired entry can be marked again")
}

func TestInMemoryIdempotencyStore_CloseIsIdempotent(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
