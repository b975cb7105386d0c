// Package cache provides a time-bounded cache with in-flight request
// de-duplication for read-mostly catalog data. There is no eviction beyond
// expiry: the data set (centers, clinics, a day of slots) is small and bounded.
package cache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value   V
	written time.Time
}

// Cache is a TTL cache. Concurrent GetOrLoad calls for the same key share a
// single loader invocation.
type Cache[V any] struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]entry[V]
	flights *singleflight.Group // swapped out by InvalidateAll
	gen     uint64              // bumped by InvalidateAll so stale loads are not stored
}

// New creates a cache whose entries expire ttl after they were written.
func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		ttl:     ttl,
		entries: make(map[string]entry[V]),
		flights: new(singleflight.Group),
	}
}

// Get returns the cached value for key if present and not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || time.Since(e.written) >= c.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

// GetOrLoad returns the cached value for key, invoking loader on miss. If a
// load for key is already in flight all callers await that one outcome. Loader
// failures are not cached.
func (c *Cache[V]) GetOrLoad(key string, loader func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	c.mu.RLock()
	flights := c.flights
	gen := c.gen
	c.mu.RUnlock()

	v, err, _ := flights.Do(key, func() (interface{}, error) {
		// A concurrent caller may have filled the entry while we waited
		// for the flight slot.
		if v, ok := c.Get(key); ok {
			return v, nil
		}

		v, err := loader()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.gen == gen {
			c.entries[key] = entry[V]{value: v, written: time.Now()}
		}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// InvalidateAll clears every entry and abandons in-flight loads, so no read
// started after the call observes data fetched before it.
func (c *Cache[V]) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
	c.flights = new(singleflight.Group)
	c.gen++
}

// Len reports the number of entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
