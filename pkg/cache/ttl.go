package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	// DefaultExpiration applies to values stored without an explicit TTL.
	DefaultExpiration = 10 * time.Minute
	// DefaultCleanupInterval is how often expired values are purged.
	DefaultCleanupInterval = 30 * time.Minute
)

// TTL is an expiring key/value cache shared by a site's descendants through the
// cache capability. Safe for concurrent use.
type TTL struct {
	cache *gocache.Cache
}

// NewTTL creates a TTL cache. Non-positive durations fall back to the defaults.
func NewTTL(defaultExpiration, cleanupInterval time.Duration) *TTL {
	if defaultExpiration <= 0 {
		defaultExpiration = DefaultExpiration
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	return &TTL{cache: gocache.New(defaultExpiration, cleanupInterval)}
}

// Get retrieves a value. The boolean is false when the key is absent or expired.
func (c *TTL) Get(key string) (any, bool) {
	return c.cache.Get(key)
}

// Set stores a value with the default expiration.
func (c *TTL) Set(key string, value any) {
	c.cache.SetDefault(key, value)
}

// SetWithTTL stores a value with an explicit expiration.
func (c *TTL) SetWithTTL(key string, value any, ttl time.Duration) {
	c.cache.Set(key, value, ttl)
}

// Delete removes keys.
func (c *TTL) Delete(keys ...string) {
	for _, key := range keys {
		c.cache.Delete(key)
	}
}

// Flush removes everything.
func (c *TTL) Flush() {
	c.cache.Flush()
}

// Lookup is a typed Get.
func Lookup[V any](c *TTL, key string) (V, bool) {
	var zero V
	value, found := c.Get(key)
	if !found {
		return zero, false
	}
	v, ok := value.(V)
	if !ok {
		return zero, false
	}
	return v, true
}
