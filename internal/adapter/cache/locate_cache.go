// Package cache memoises specifier lookups across passes, for hosts that
// relocate the same chunks repeatedly (watch-mode rebuilds).
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"relocate/internal/domain"
	"relocate/internal/port"
)

// LocateCache is an LRU of located specifiers keyed by chunk text.
type LocateCache struct {
	mu      sync.RWMutex
	entries map[string][]domain.SpecifierReference
	order   []string
	maxSize int

	hits, misses int
}

func NewLocateCache(maxSize int) *LocateCache {
	if maxSize <= 0 {
		maxSize = 512
	}
	return &LocateCache{
		entries: make(map[string][]domain.SpecifierReference),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
	}
}

func cacheKey(code string) string {
	hash := sha256.Sum256([]byte(code))
	return hex.EncodeToString(hash[:16])
}

func (c *LocateCache) Get(code string) ([]domain.SpecifierReference, bool) {
	key := cacheKey(code)

	c.mu.Lock()
	defer c.mu.Unlock()
	refs, exists := c.entries[key]
	if !exists {
		c.misses++
		return nil, false
	}
	c.hits++
	c.moveToEnd(key)
	return refs, true
}

func (c *LocateCache) Put(code string, refs []domain.SpecifierReference) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(code)

	if _, exists := c.entries[key]; exists {
		c.entries[key] = refs
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = refs
	c.order = append(c.order, key)
}

func (c *LocateCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string][]domain.SpecifierReference)
	c.order = c.order[:0]
}

func (c *LocateCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit and miss counts since creation.
func (c *LocateCache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

func (c *LocateCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *LocateCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *LocateCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// CachedLocator wraps a SpecifierLocator with a LocateCache. Parse
// failures are not cached.
type CachedLocator struct {
	locator port.SpecifierLocator
	cache   *LocateCache
}

func NewCachedLocator(locator port.SpecifierLocator, cache *LocateCache) *CachedLocator {
	return &CachedLocator{
		locator: locator,
		cache:   cache,
	}
}

func (l *CachedLocator) Locate(code string) ([]domain.SpecifierReference, error) {
	if refs, hit := l.cache.Get(code); hit {
		return copyRefs(refs), nil
	}

	refs, err := l.locator.Locate(code)
	if err != nil {
		return nil, err
	}

	l.cache.Put(code, copyRefs(refs))
	return refs, nil
}

func copyRefs(refs []domain.SpecifierReference) []domain.SpecifierReference {
	if refs == nil {
		return nil
	}
	out := make([]domain.SpecifierReference, len(refs))
	copy(out, refs)
	return out
}
