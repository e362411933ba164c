// Package cache provides the bounded caches used to keep long-lived roots from
// accumulating child objects across traversals.
package cache

import (
	"fmt"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// DefaultSize is the capacity used when a non-positive size is requested through NewOrDefault.
const DefaultSize = 100

// Stats holds diagnostic counters. They are not part of the functional contract.
type Stats struct {
	Hits   uint64
	Misses uint64
	Len    int
	Size   int
}

// LRU is a fixed-capacity cache evicting the least recently used key.
// Both Get hits and Set count as a use. Safe for concurrent use.
type LRU[K comparable, V any] struct {
	mu     sync.Mutex
	size   int
	lru    *simplelru.LRU[K, V]
	hits   uint64
	misses uint64
}

// New creates an LRU holding at most size entries. size must be at least 1.
func New[K comparable, V any](size int) (*LRU[K, V], error) {
	if size < 1 {
		return nil, fmt.Errorf("cache size must be at least 1, got %d", size)
	}
	inner, err := simplelru.NewLRU[K, V](size, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru: %w", err)
	}
	return &LRU[K, V]{size: size, lru: inner}, nil
}

// NewOrDefault is like New but falls back to DefaultSize for a non-positive size.
func NewOrDefault[K comparable, V any](size int) *LRU[K, V] {
	if size < 1 {
		size = DefaultSize
	}
	c, err := New[K, V](size)
	if err != nil {
		// unreachable: size is positive
		panic(err)
	}
	return c
}

// Get returns the value for key and marks it most recently used.
// The boolean is false on a miss.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lru.Get(key)
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

// Set inserts or overwrites key, evicting the least recently used entry when full.
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, value)
}

// Clear removes every entry and resets the counters.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
	c.hits = 0
	c.misses = 0
}

// Len returns the number of entries currently held.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Size returns the capacity.
func (c *LRU[K, V]) Size() int {
	return c.size
}

// Stats returns a snapshot of the diagnostic counters.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Len: c.lru.Len(), Size: c.size}
}
