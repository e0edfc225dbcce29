// Package cache holds answered questions so repeated asks skip the model.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/nikk2511/Puja-ai-shopify/internal/models"
)

// Cache is an in-process answer cache keyed by normalized question and
// preset. A zero TTL means entries never expire.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]models.CacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// New creates a cache with the given TTL.
func New(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]models.CacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Key derives the cache key for a question and preset. Case and runs of
// whitespace in the question do not affect the key.
func Key(question, presetID string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	sum := md5.Sum([]byte(normalized + ":" + presetID))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached result for the key, if present and unexpired.
// Expired entries are removed on access.
func (c *Cache) Get(key string) (models.AskResult, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return models.AskResult{}, false
	}

	if c.ttl > 0 && c.now().Sub(entry.CreatedAt) > c.ttl {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return models.AskResult{}, false
	}
	return entry.Result, true
}

// Put stores a result under the key.
func (c *Cache) Put(key string, result models.AskResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = models.CacheEntry{Result: result, CreatedAt: c.now()}
}

// Clear empties the cache and returns how many entries were removed.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]models.CacheEntry)
	return n
}

// Len reports the number of cached entries, including any not yet expired
// lazily.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
