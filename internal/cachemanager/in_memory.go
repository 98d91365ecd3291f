package cachemanager

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/dmxcheck/internal/log"
)

const DefaultExpiration = 10 * time.Minute
const DefaultCleanupInterval = 30 * time.Minute

// InMemory is a go-cache backed Manager. The useCase label only feeds the
// logs; it distinguishes multiple caches in one process.
type InMemory[K ~string, V any] struct {
	useCase string
	cache   *gocache.Cache
}

// NewInMemory initializes an in-memory cache with the given expiration and
// cleanup interval.
func NewInMemory[K ~string, V any](useCase string, defaultExpiration, cleanupInterval time.Duration) *InMemory[K, V] {
	return &InMemory[K, V]{
		useCase: useCase,
		cache:   gocache.New(defaultExpiration, cleanupInterval),
	}
}

// Get retrieves an item by key.
func (c *InMemory[K, V]) Get(ctx context.Context, key K) (V, bool) {
	var zero V

	value, found := c.cache.Get(string(key))
	if !found {
		return zero, false
	}

	v, ok := value.(V)
	if !ok {
		log.Error(log.CatCache, "wrong type assertion when getting value", "use_case", c.useCase, "key", string(key))
		return zero, false
	}

	log.Debug(log.CatCache, "cache hit", "use_case", c.useCase, "key", string(key))
	return v, true
}

// Set stores a value under key with the given TTL.
func (c *InMemory[K, V]) Set(ctx context.Context, key K, value V, ttl time.Duration) {
	c.cache.Set(string(key), value, ttl)
}

// Delete removes the given keys.
func (c *InMemory[K, V]) Delete(ctx context.Context, keys ...K) {
	for _, key := range keys {
		c.cache.Delete(string(key))
	}
}

// Flush drops everything.
func (c *InMemory[K, V]) Flush(ctx context.Context) {
	c.cache.Flush()
}
