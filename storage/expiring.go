// Package storage provides the caches behind camera queries.
//
// Information Hiding:
// - Expiry is checked lazily on access; there is no sweeper goroutine
// - Query identity is structural: keys come from a deterministic encoding
// - Persistence (SQLite) is optional and hidden behind ResultStorage
package storage

import (
	"sync"
	"time"

	"github.com/richinex/periscope/internal/clock"
)

// cacheEntry is a value plus the absolute instant it stops being valid.
type cacheEntry[V any] struct {
	value  V
	expiry time.Time
}

// ExpiringCache is a key/value store where each entry carries its own
// expiry. An entry read at or after its expiry behaves as absent and is
// evicted by that read.
//
// Safe for concurrent use. There is no single-flight: two callers that
// miss on the same key will both compute it and the last Set wins.
type ExpiringCache[K comparable, V any] struct {
	mu      sync.Mutex
	clock   clock.Clock
	entries map[K]cacheEntry[V]
}

// NewExpiringCache creates an empty cache reading time from c (the real
// clock when nil).
func NewExpiringCache[K comparable, V any](c clock.Clock) *ExpiringCache[K, V] {
	if c == nil {
		c = clock.Real()
	}
	return &ExpiringCache[K, V]{
		clock:   c,
		entries: make(map[K]cacheEntry[V]),
	}
}

// Get returns the value for key if present and unexpired.
func (c *ExpiringCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lookup(key)
	if !ok {
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Has reports whether key is present and unexpired, with the same eviction
// behaviour as Get.
func (c *ExpiringCache[K, V]) Has(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.lookup(key)
	return ok
}

// Set stores value under key until expiry, replacing any existing entry.
func (c *ExpiringCache[K, V]) Set(key K, value V, expiry time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry[V]{value: value, expiry: expiry}
}

// Delete removes key.
func (c *ExpiringCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Len returns the number of stored entries, including expired entries that
// have not been read since they expired.
func (c *ExpiringCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Clear drops every entry.
func (c *ExpiringCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]cacheEntry[V])
}

// lookup must be called with c.mu held.
func (c *ExpiringCache[K, V]) lookup(key K) (cacheEntry[V], bool) {
	entry, ok := c.entries[key]
	if !ok {
		return cacheEntry[V]{}, false
	}
	if !c.clock.Now().Before(entry.expiry) {
		delete(c.entries, key)
		return cacheEntry[V]{}, false
	}
	return entry, true
}
