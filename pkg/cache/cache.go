package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/magislabs/pricing-backend/pkg/config"
	"github.com/magislabs/pricing-backend/pkg/logger"
	"github.com/magislabs/pricing-backend/pkg/redis"
)

// Store is the subset of the redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	DelByPrefix(ctx context.Context, prefix string) error
	CacheKey(scope string, parts ...string) string
	CachePrefix() string
}

// Cache is a read-through cache in front of rule-table, store-config, and
// campaign lookups. Entries are JSON blobs with a shared TTL; mutations to
// the underlying data clear the whole cache rather than tracking
// fine-grained dependencies.
type Cache struct {
	store Store
	ttl   time.Duration
	logg  *logger.Logger
}

func New(store Store, cfg config.CacheConfig, logg *logger.Logger) (*Cache, error) {
	if store == nil {
		return nil, errors.New("cache store is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cache{store: store, ttl: ttl, logg: logg}, nil
}

// Key builds a cache key from a scope and its discriminating parts.
func (c *Cache) Key(scope string, parts ...string) string {
	return c.store.CacheKey(scope, parts...)
}

// GetOrCompute returns the cached JSON value at key decoded into dest, or
// runs compute, caches its result, and decodes that. Cache write failures
// degrade to computing every time and are logged, not returned.
func (c *Cache) GetOrCompute(ctx context.Context, key string, dest any, compute func(context.Context) (any, error)) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("cache key is required")
	}

	raw, err := c.store.Get(ctx, key)
	if err == nil {
		if decodeErr := json.Unmarshal([]byte(raw), dest); decodeErr == nil {
			return nil
		}
		// Undecodable entry, fall through and recompute.
	} else if !redis.IsNil(err) {
		c.logg.Warn(ctx, fmt.Sprintf("cache read failed for %s: %v", key, err))
	}

	value, err := compute(ctx)
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding cache value: %w", err)
	}
	if setErr := c.store.Set(ctx, key, string(encoded), c.ttl); setErr != nil {
		c.logg.Warn(ctx, fmt.Sprintf("cache write failed for %s: %v", key, setErr))
	}

	return json.Unmarshal(encoded, dest)
}

// Clear drops every cached entry. Called after any mutation to rule tables,
// store fee config, or campaigns.
func (c *Cache) Clear(ctx context.Context) error {
	return c.store.DelByPrefix(ctx, c.store.CachePrefix())
}
