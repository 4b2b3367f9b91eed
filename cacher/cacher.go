// Package cacher implements the edge node: it terminates client RPCs,
// memoizes responses by the raw request body, and invalidates its memo
// whenever the origin's last-update timestamp moves.
package cacher

import (
	"net/http"
	"sync"
)

// MaxCacheEntries bounds the memo; once full, new responses are simply
// not cached rather than evicting an existing entry.
const MaxCacheEntries = 20

type entry struct {
	body    []byte
	header  http.Header
	trailer http.Header
}

// Cache is the bounded request-body-keyed memo, guarded by one
// reader-writer lock shared with the last-update bookkeeping.
type Cache struct {
	mu             sync.RWMutex
	entries        map[string]entry
	lastUpdateTS   uint32
	lastUpdateSeen bool
}

// NewCache returns an empty cache with no known last-update timestamp.
func NewCache() *Cache {
	return &Cache{entries: map[string]entry{}}
}

func (c *Cache) get(key string) (entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

// insert adds (key -> e) unless the cache is already at capacity, in
// which case the response is silently left uncached per the documented
// no-eviction policy.
func (c *Cache) insert(key string, e entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= MaxCacheEntries {
		return
	}
	c.entries[key] = e
}

// refreshLastUpdate compares the timestamp learned from the origin against
// the last known value, clearing the cache and adopting the new value
// whenever they differ. ok is false on the unrecoverable paths (origin
// call failed, no client configured, or the origin reported no timestamp
// at all), in which case the adopted value is zero regardless of ts.
func (c *Cache) refreshLastUpdate(ts uint32, ok bool) {
	if !ok {
		ts = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastUpdateSeen && c.lastUpdateTS == ts {
		return
	}

	c.entries = map[string]entry{}
	c.lastUpdateTS = ts
	c.lastUpdateSeen = true
}
