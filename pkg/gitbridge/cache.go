package gitbridge

import (
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// packCacheEntries caps the entry count; the byte budget is the real
// limit and evicts earlier for large packs.
const packCacheEntries = 1024

// packCache holds synthesized packs keyed by "{repo}@{commitID}". Keys
// embed the backend commit id, so a new commit naturally misses; explicit
// invalidation just frees the bytes sooner.
type packCache struct {
	mu     sync.Mutex
	lru    *lru.Cache[string, *snapshot]
	budget int64
	bytes  int64
}

func newPackCache(budget int64) *packCache {
	c := &packCache{budget: budget}
	c.lru, _ = lru.NewWithEvict[string, *snapshot](packCacheEntries, func(_ string, snap *snapshot) {
		c.bytes -= int64(len(snap.Pack))
	})
	return c
}

func (c *packCache) get(key string) (*snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Get(key)
}

func (c *packCache) add(key string, snap *snapshot) {
	size := int64(len(snap.Pack))
	if size > c.budget {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, snap)
	c.bytes += size
	for c.bytes > c.budget && c.lru.Len() > 0 {
		c.lru.RemoveOldest()
	}
}

// invalidate drops every cached pack for one backend repo.
func (c *packCache) invalidate(canonical string) {
	prefix := canonical + "@"
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.lru.Remove(key)
		}
	}
}
