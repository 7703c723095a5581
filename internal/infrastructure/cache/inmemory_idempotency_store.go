package cache

import (
	"context"
	"sync"
	"time"

	"github.com/catalogd/backend/internal/domain/shared"
)

// InMemoryIdempotencyStore is a memory-backed IdempotencyStore for single
// process deployments and tests. Entries expire after their TTL and a
// background goroutine sweeps expired entries periodically.
type InMemoryIdempotencyStore struct {
	mu        sync.RWMutex
	entries   map[string]time.Time // eventID -> expiry
	stopCh    chan struct{}
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore creates a new in-memory idempotency store
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		entries: make(map[string]time.Time),
		stopCh:  make(chan struct{}),
	}

	go s.cleanupLoop()

	return s
}

// MarkProcessed marks an event as processed with a TTL
func (s *InMemoryIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expiry, ok := s.entries[eventID]; ok && time.Now().Before(expiry) {
		return false, nil
	}

	s.entries[eventID] = time.Now().Add(ttl)
	return true, nil
}

// IsProcessed checks if an event has already been processed
func (s *InMemoryIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiry, ok := s.entries[eventID]
	if !ok {
		return false, nil
	}
	return time.Now().Before(expiry), nil
}

// Close stops the cleanup goroutine
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopCh)
	})
	return nil
}

func (s *InMemoryIdempotencyStore) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.removeExpired()
		case <-s.stopCh:
			return
		}
	}
}

func (s *InMemoryIdempotencyStore) removeExpired() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for eventID, expiry := range s.entries {
		if now.After(expiry) {
			delete(s.entries, eventID)
		}
	}
}

// Ensure InMemoryIdempotencyStore implements IdempotencyStore
var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
