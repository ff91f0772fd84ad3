package engine

import (
	"sort"
	"sync"
)

// ResultCache is a bounded map from fingerprint to summary text. When an
// insert would push the size past the cleanup threshold, the cache prunes
// half the configured max size, selecting keys in ordinal order. Entries
// never expire by time.
type ResultCache struct {
	entries          map[string]string
	maxSize          int
	cleanupThreshold int
	mu               sync.Mutex
}

// NewResultCache creates a cache with the given target size and cleanup
// threshold. The threshold is clamped to stay above the target size.
func NewResultCache(maxSize, cleanupThreshold int) *ResultCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if cleanupThreshold <= maxSize {
		cleanupThreshold = maxSize + maxSize/2
	}
	return &ResultCache{
		entries:          make(map[string]string),
		maxSize:          maxSize,
		cleanupThreshold: cleanupThreshold,
	}
}

// Get returns the cached summary for a fingerprint.
func (c *ResultCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	summary, exists := c.entries[key]
	return summary, exists
}

// Put stores a summary, pruning first when the cache has reached the
// cleanup threshold. It returns the number of entries pruned.
func (c *ResultCache) Put(key, summary string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	pruned := 0
	if len(c.entries) >= c.cleanupThreshold {
		pruned = c.prune()
	}

	c.entries[key] = summary
	return pruned
}

// prune removes maxSize/2 entries in key ordinal order. Caller holds the lock.
func (c *ResultCache) prune() int {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	count := c.maxSize / 2
	if count > len(keys) {
		count = len(keys)
	}
	for _, k := range keys[:count] {
		delete(c.entries, k)
	}
	return count
}

// Clear removes all entries.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]string)
}

// Len returns the current entry count.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
