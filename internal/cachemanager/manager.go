// Package cachemanager provides a small TTL cache used by the resolver to
// avoid re-reading policy pack files between conversions.
package cachemanager

import (
	"context"
	"time"
)

// Manager is the cache contract the resolver depends on.
type Manager[K ~string, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K)
	Flush(ctx context.Context)
}
