package store

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"registrations/pkg/platform/sentinel"
)

// DefaultCleanupInterval is how often expired entries are purged.
const DefaultCleanupInterval = 10 * time.Minute

// MemoryBackend keeps registrations in process memory. Entries are lost on
// restart, which matches the short-lived store the service is built around.
type MemoryBackend struct {
	cache *gocache.Cache
}

// NewMemoryBackend creates an in-memory backend. A non-positive
// cleanupInterval disables the janitor.
func NewMemoryBackend(cleanupInterval time.Duration) *MemoryBackend {
	return &MemoryBackend{
		cache: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	v, found := m.cache.Get(key)
	if !found {
		return nil, fmt.Errorf("key %s: %w", key, sentinel.ErrNotFound)
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("key %s holds %T, want []byte", key, v)
	}
	return b, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.cache.Set(key, value, expiration(ttl))
	return nil
}

// SetIfAbsent relies on go-cache's Add, which checks and stores under one lock.
func (m *MemoryBackend) SetIfAbsent(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if err := m.cache.Add(key, value, expiration(ttl)); err != nil {
		return false, nil
	}
	return true, nil
}

func (m *MemoryBackend) Clear(_ context.Context) error {
	m.cache.Flush()
	return nil
}

func (m *MemoryBackend) Ping(_ context.Context) error {
	return nil
}

// Len reports the number of stored entries, expired or not.
func (m *MemoryBackend) Len() int {
	return m.cache.ItemCount()
}

func expiration(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return gocache.NoExpiration
	}
	return ttl
}
