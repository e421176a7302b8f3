// Package cache provides the read-through series cache behind the data
// facade. Two backends: an in-process TTL map (default) and Redis for runs
// that share a warm cache across invocations. The signal core itself never
// caches; this layer belongs to the data collaborator.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented KV store with per-entry TTL.
type Cache interface {
	// Get returns the cached payload and whether it was present and fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores payload under key for ttl.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	// Name identifies the backend for metrics labels.
	Name() string
	Close() error
}

// Nop is a disabled cache: every read misses, every write is dropped.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}
func (Nop) Name() string { return "none" }
func (Nop) Close() error { return nil }
