package cachemanager

import (
	"context"
	"time"
)

// ReadThrough wraps a Manager with a loader: misses call the loader and
// populate the cache. skipCache turns the wrapper into a passthrough, used
// when the caller wants every read to hit disk.
type ReadThrough[K ~string, V any] struct {
	cache     Manager[K, V]
	load      func(ctx context.Context, key K) (V, error)
	skipCache bool
}

func NewReadThrough[K ~string, V any](
	cache Manager[K, V],
	load func(ctx context.Context, key K) (V, error),
	skipCache bool,
) *ReadThrough[K, V] {
	return &ReadThrough[K, V]{
		cache:     cache,
		load:      load,
		skipCache: skipCache,
	}
}

// Get returns the cached value for key, loading and caching it on a miss.
func (r *ReadThrough[K, V]) Get(ctx context.Context, key K, ttl time.Duration) (V, error) {
	if r.skipCache {
		return r.load(ctx, key)
	}

	if value, ok := r.cache.Get(ctx, key); ok {
		return value, nil
	}

	value, err := r.load(ctx, key)
	if err != nil {
		return value, err
	}

	r.cache.Set(ctx, key, value, ttl)
	return value, nil
}
