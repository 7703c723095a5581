package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/catalogd/backend/internal/infrastructure/media"
)

// MemoryObjectStorage is an in-memory object store for development and
// tests. Uploads overwrite by key, matching S3 PutObject semantics.
type MemoryObjectStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	baseURL string
}

type memoryObject struct {
	data        []byte
	contentType string
}

// Ensure MemoryObjectStorage implements the internalizer's ObjectStore
var _ media.ObjectStore = (*MemoryObjectStorage)(nil)

// NewMemoryObjectStorage creates a new MemoryObjectStorage
func NewMemoryObjectStorage() *MemoryObjectStorage {
	return &MemoryObjectStorage{
		objects: make(map[string]memoryObject),
		baseURL: "https://storage.example.com",
	}
}

// Upload stores data in memory, overwriting any existing object at the key
func (s *MemoryObjectStorage) Upload(ctx context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]byte, len(data))
	copy(copied, data)
	s.objects[storageKey] = memoryObject{data: copied, contentType: contentType}
	return nil
}

// ObjectExists checks if an object exists
func (s *MemoryObjectStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errors.New("storage key is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[storageKey]
	return ok, nil
}

// DeleteObject removes an object; deleting a missing key is not an error
func (s *MemoryObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, storageKey)
	return nil
}

// GenerateDownloadURL returns a fake URL containing the key
func (s *MemoryObjectStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}

	expiresAt := time.Now().Add(expiresIn)
	url := fmt.Sprintf("%s/%s?expires=%s", s.baseURL, storageKey, expiresAt.Format(time.RFC3339))
	return url, expiresAt, nil
}

// Get returns a stored object's data and content type
func (s *MemoryObjectStorage) Get(storageKey string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[storageKey]
	return obj.data, obj.contentType, ok
}

// Len returns the number of stored objects
func (s *MemoryObjectStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
