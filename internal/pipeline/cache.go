package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// CacheKey identifies one memoized build: the protein name plus a hash
// of the inputs it was computed from. Callers construct the key and
// decide when to evict, so the core never makes caching decisions.
type CacheKey struct {
	Protein string
	Hash    string
}

// ContentHash hashes the given input strings into a stable hex digest
// for use in a CacheKey.
func ContentHash(inputs ...string) string {
	h := sha256.New()
	for _, in := range inputs {
		h.Write([]byte(in))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Cache memoizes build artifacts per cache key. Safe for concurrent use
// by the worker pool.
type Cache struct {
	mu      sync.RWMutex
	entries map[CacheKey]*Artifacts
}

// NewCache creates an empty artifact cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[CacheKey]*Artifacts)}
}

// Get returns the cached artifacts for a key, if present.
func (c *Cache) Get(key CacheKey) (*Artifacts, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.entries[key]
	return a, ok
}

// Put stores artifacts under a key.
func (c *Cache) Put(key CacheKey, a *Artifacts) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = a
}

// Evict removes a key.
func (c *Cache) Evict(key CacheKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
