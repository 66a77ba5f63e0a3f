// Package cache provides key-based, time-boxed memoization of expensive
// asynchronous lookups. It exists to keep the ledger query layer from
// re-issuing identical remote reads while a previous result is still fresh.
package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL bounds how long a stored value is served without recompute.
const DefaultTTL = 5 * time.Second

// entry is one stored value with its storage instant.
type entry[T any] struct {
	value    T
	storedAt time.Time
}

// Cache memoizes compute results per key until they expire. Eviction is
// lazy: expiry is checked on read and nothing is swept proactively, so
// memory is bounded by the number of distinct keys used in a process.
//
// Concurrent misses for the same key are not coalesced; each caller runs
// its own compute and the last result wins. Failed computes are never
// stored, so a prior live entry survives a failed refresh attempt.
type Cache[T any] struct {
	mu      sync.Mutex
	entries map[string]entry[T]
	ttl     time.Duration
	now     func() time.Time
}

// Option applies a configuration option to the Cache.
type Option[T any] func(*Cache[T])

// WithTTL overrides the default time-to-live for stored entries.
func WithTTL[T any](ttl time.Duration) Option[T] {
	return func(c *Cache[T]) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock injects a time source. Tests use this to cross the freshness
// boundary deterministically.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *Cache[T]) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a cache with configuration options.
func New[T any](opts ...Option[T]) *Cache[T] {
	c := &Cache[T]{
		entries: make(map[string]entry[T]),
		ttl:     DefaultTTL,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetOrCompute returns the live value stored under key, or runs compute,
// stores its result, and returns it. compute failures propagate to the
// caller and leave any previously stored entry untouched.
func (c *Cache[T]) GetOrCompute(ctx context.Context, key string, compute func(context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Sub(e.storedAt) < c.ttl {
		c.mu.Unlock()
		return e.value, nil
	}
	c.mu.Unlock()

	value, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	c.mu.Lock()
	c.entries[key] = entry[T]{value: value, storedAt: c.now()}
	c.mu.Unlock()

	return value, nil
}

// Peek reports the live value under key without computing anything.
func (c *Cache[T]) Peek(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.storedAt) >= c.ttl {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Clear drops every stored entry.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[T])
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
