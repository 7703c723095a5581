package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/catalogd/backend/internal/domain/shared"
)

const idempotencyKeyPrefix = "catalogd:idempotency:"

// RedisIdempotencyStore is a Redis-backed IdempotencyStore. It relies on
// SET NX with an expiry, so multiple service instances share one view of
// which events have been processed.
type RedisIdempotencyStore struct {
	client *redis.Client
}

// NewRedisIdempotencyStore creates a new Redis-backed idempotency store
func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

// MarkProcessed marks an event as processed with a TTL.
// Returns true if the event was newly marked.
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, idempotencyKeyPrefix+eventID, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark event processed: %w", err)
	}
	return ok, nil
}

// IsProcessed checks if an event has already been processed
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, idempotencyKeyPrefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check event processed: %w", err)
	}
	return n > 0, nil
}

// Close closes the underlying Redis connection
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

// Ensure RedisIdempotencyStore implements IdempotencyStore
var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
