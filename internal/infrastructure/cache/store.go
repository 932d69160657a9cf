// Package cache provides the read-path cache of the catalog replica:
// a byte-oriented Store abstraction with Redis and in-memory backends,
// and a Coordinator that owns key layout and invalidation.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Store.Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Store is a minimal byte cache. Both backends are safe for concurrent
// use; callers never depend on persistence, a store that loses every
// key is still correct.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// Incr atomically increments a counter key and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
	Close() error
}
