package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	itemKeyPrefix  = "catalog:item:"
	listKeyPrefix  = "catalog:list:"
	listVersionKey = "catalog:list:version"
)

// Coordinator owns the cache key layout and invalidation protocol of
// the catalog read path. Single items are cached under their id and
// deleted on sync. List pages embed a version token in their key; a
// sync bumps the version, so every previously cached page becomes
// unreachable at once without enumerating keys.
//
// Every store failure is a soft failure: the caller gets a computed
// result and the error is logged, never propagated.
type Coordinator struct {
	store   Store
	itemTTL time.Duration
	listTTL time.Duration
	logger  *zap.Logger
}

// NewCoordinator creates a Coordinator over the given store.
func NewCoordinator(store Store, itemTTL, listTTL time.Duration, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		store:   store,
		itemTTL: itemTTL,
		listTTL: listTTL,
		logger:  logger,
	}
}

// ItemKey returns the cache key of a single item.
func (c *Coordinator) ItemKey(itemID int64) string {
	return fmt.Sprintf("%s%d", itemKeyPrefix, itemID)
}

// ListKey returns the versioned cache key of a list page. The signature
// must be a deterministic encoding of the filter and page request.
func (c *Coordinator) ListKey(ctx context.Context, signature string) string {
	return fmt.Sprintf("%sv%d:%s", listKeyPrefix, c.listVersion(ctx), signature)
}

// listVersion reads the current list version. A missing key means no
// invalidation has happened yet; version 0 is valid and shared by all
// instances because the first Incr starts from it.
func (c *Coordinator) listVersion(ctx context.Context) int64 {
	raw, err := c.store.Get(ctx, listVersionKey)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.logger.Warn("failed to read list cache version", zap.Error(err))
		}
		return 0
	}
	version, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0
	}
	return version
}

// InvalidateItem drops the cached item entry.
func (c *Coordinator) InvalidateItem(ctx context.Context, itemID int64) {
	if err := c.store.Del(ctx, c.ItemKey(itemID)); err != nil {
		c.logger.Warn("failed to invalidate item cache",
			zap.Int64("item_id", itemID),
			zap.Error(err))
	}
}

// InvalidateLists bumps the list version, detaching every cached list
// page. Stale pages age out through their TTL.
func (c *Coordinator) InvalidateLists(ctx context.Context) {
	if _, err := c.store.Incr(ctx, listVersionKey); err != nil {
		c.logger.Warn("failed to bump list cache version", zap.Error(err))
	}
}

// ItemTTL returns the TTL for single-item entries.
func (c *Coordinator) ItemTTL() time.Duration {
	return c.itemTTL
}

// ListTTL returns the TTL for list page entries.
func (c *Coordinator) ListTTL() time.Duration {
	return c.listTTL
}

// GetOrCompute serves a JSON-cached value under key, computing and
// storing it on miss. Store and codec failures degrade to a plain
// compute; compute errors are returned as-is and never cached.
func GetOrCompute[T any](ctx context.Context, c *Coordinator, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	raw, err := c.store.Get(ctx, key)
	if err == nil {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		c.logger.Warn("discarding undecodable cache entry", zap.String("key", key))
	} else if !errors.Is(err, ErrMiss) {
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	value, err := compute(ctx)
	if err != nil {
		return value, err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return value, nil
	}
	if err := c.store.Set(ctx, key, encoded, ttl); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}
