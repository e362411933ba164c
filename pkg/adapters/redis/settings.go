package redis

import (
	"github.com/aretw0/contextplus"
	backend "github.com/redis/go-redis/v9"
)

// NewFromSettings creates a store over client with the prefix and TTL
// configured in the site settings.
func NewFromSettings(client backend.UniversalClient, s contextplus.Settings) *Store {
	opts := []Option{WithTTL(s.RedisTTL())}
	if s.Redis.Prefix != "" {
		opts = append(opts, WithPrefix(s.Redis.Prefix))
	}
	return NewFromClient(client, opts...)
}
