package resource

import (
	"github.com/aretw0/contextplus/pkg/cache"
	"github.com/aretw0/contextplus/pkg/domain"
	"github.com/aretw0/contextplus/pkg/traversal"
)

// DefaultCacheSize is the capacity of a resource cache created without one.
const DefaultCacheSize = 10000

// Cache holds previously produced nodes keyed by their path. A root that
// outlives requests provides one so its children are bounded.
type Cache struct {
	lru *cache.LRU[string, domain.Node]
}

// NewCache creates a resource cache. A non-positive size yields DefaultCacheSize.
func NewCache(size int) *Cache {
	if size < 1 {
		size = DefaultCacheSize
	}
	return &Cache{lru: cache.NewOrDefault[string, domain.Node](size)}
}

// Get returns the node cached for the path names.
func (c *Cache) Get(names []string) (domain.Node, bool) {
	return c.GetKey(traversal.Key(names))
}

// GetKey returns the node cached for a canonical path key.
func (c *Cache) GetKey(key string) (domain.Node, bool) {
	return c.lru.Get(key)
}

// Save caches n under its own path and returns that path.
func (c *Cache) Save(n domain.Node) []string {
	names := traversal.PathNames(n)
	c.SetKey(traversal.Key(names), n)
	return names
}

// Set caches n under explicit path names.
func (c *Cache) Set(names []string, n domain.Node) {
	c.SetKey(traversal.Key(names), n)
}

// SetKey caches n under a canonical path key.
func (c *Cache) SetKey(key string, n domain.Node) {
	c.lru.Set(key, n)
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.lru.Clear()
}

// Stats returns the underlying LRU counters.
func (c *Cache) Stats() cache.Stats {
	return c.lru.Stats()
}
