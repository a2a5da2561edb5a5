package geocoding

import (
	"sync"
	"time"
)

// DefaultCacheTTL is how long a provider resolution stays valid.
const DefaultCacheTTL = time.Hour

// CacheStats is a point-in-time view of cache usage.
type CacheStats struct {
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

// Cache maps normalized query text to resolved coordinates.
// Entries expire lazily on read; there is no background eviction.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]CacheEntry
	hits    uint64
	misses  uint64
}

// NewCache creates a cache. A zero ttl uses DefaultCacheTTL and a nil clock uses time.Now.
func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]CacheEntry),
	}
}

// Get returns the entry for key if it was resolved less than ttl ago.
func (c *Cache) Get(key string) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || c.now().Sub(entry.ResolvedAt) >= c.ttl {
		c.misses++
		return CacheEntry{}, false
	}
	c.hits++
	return entry, true
}

// Put stores entry under key, stamping ResolvedAt when it is zero. Last write wins.
func (c *Cache) Put(key string, entry CacheEntry) {
	if entry.ResolvedAt.IsZero() {
		entry.ResolvedAt = c.now()
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns entry and hit counters.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{
		Entries: len(c.entries),
		Hits:    c.hits,
		Misses:  c.misses,
	}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]CacheEntry)
	c.mu.Unlock()
}
