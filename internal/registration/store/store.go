package store

import (
	"context"
	"time"
)

// NoExpiry stores an entry until the backend clears or evicts it.
const NoExpiry time.Duration = 0

// Backend is the key/value cache registrations live in. Implementations must
// be safe for concurrent use. Get returns an error wrapping sentinel.ErrNotFound
// for a missing key.
//
//go:generate mockgen -source=store.go -destination=mocks/backend_mock.go -package=mocks Backend
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetIfAbsent stores value only when key holds nothing and reports
	// whether it did.
	SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
}
