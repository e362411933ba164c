package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/contextplus"
	"github.com/aretw0/contextplus/pkg/adapters/redis"
	"github.com/aretw0/contextplus/pkg/domain"
	"github.com/aretw0/contextplus/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, backend.UniversalClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := setup(t)

	store := redis.NewFromClient(client)
	ports.RunStateStoreContract(t, store)
}

func TestRedisStore_TTL(t *testing.T) {
	ctx := context.Background()
	mr, client := setup(t)
	store := redis.NewFromClient(client, redis.WithTTL(time.Minute))

	require.NoError(t, store.Save(ctx, "cart", "open"))
	assert.True(t, mr.Exists(redis.DefaultPrefix+"cart"))

	mr.FastForward(2 * time.Minute)

	_, err := store.Load(ctx, "cart")
	assert.ErrorIs(t, err, domain.ErrStateNotFound)
}

func TestRedisStore_Prefix(t *testing.T) {
	ctx := context.Background()
	mr, client := setup(t)
	store := redis.NewFromClient(client, redis.WithPrefix("app:"))

	require.NoError(t, store.Save(ctx, "k", "draft"))
	assert.True(t, mr.Exists("app:k"))
	assert.False(t, mr.Exists(redis.DefaultPrefix+"k"))

	raw, err := mr.Get("app:k")
	require.NoError(t, err)
	assert.Contains(t, raw, `"state":"draft"`)

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"k"}, keys)
}

func TestNewFromSettings(t *testing.T) {
	ctx := context.Background()
	mr, client := setup(t)

	settings, err := contextplus.ParseSettings([]byte("redis:\n  prefix: \"shop:\"\n  ttl: 1m\n"))
	require.NoError(t, err)

	store := redis.NewFromSettings(client, settings)
	require.NoError(t, store.Save(ctx, "cart", "open"))
	assert.Equal(t, time.Minute, mr.TTL("shop:cart"))

	site := contextplus.NewSite(nil, "shop", contextplus.WithStateStore(store))
	item := contextplus.NewStoredItem(nil, site, "cart-1")
	require.NoError(t, item.SetState(ctx, "paid"))

	state, err := store.Load(ctx, item.StateKey())
	require.NoError(t, err)
	assert.Equal(t, "paid", state)
}
