package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/cart"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, "storefront:", ttl), mr
}

func TestStore_GetMissing(t *testing.T) {
	s, _ := setupTestRedis(t, 0)

	_, err := s.Get(context.Background(), cart.StorageKey)
	require.ErrorIs(t, err, cart.ErrKeyNotFound)
}

func TestStore_SetGet(t *testing.T) {
	s, mr := setupTestRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, cart.StorageKey, []byte(`[]`)))

	raw, err := mr.Get("storefront:" + cart.StorageKey)
	require.NoError(t, err)
	assert.Equal(t, `[]`, raw)
	assert.Zero(t, mr.TTL("storefront:"+cart.StorageKey))

	got, err := s.Get(ctx, cart.StorageKey)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))
}

func TestStore_TTL(t *testing.T) {
	s, mr := setupTestRedis(t, time.Hour)

	require.NoError(t, s.Set(context.Background(), cart.StorageKey, []byte(`[]`)))
	assert.Equal(t, time.Hour, mr.TTL("storefront:"+cart.StorageKey))

	mr.FastForward(2 * time.Hour)
	_, err := s.Get(context.Background(), cart.StorageKey)
	require.ErrorIs(t, err, cart.ErrKeyNotFound)
}

func TestStore_ServerDown(t *testing.T) {
	s, mr := setupTestRedis(t, 0)
	mr.Close()

	_, err := s.Get(context.Background(), cart.StorageKey)
	require.Error(t, err)
	assert.NotErrorIs(t, err, cart.ErrKeyNotFound)

	err = s.Set(context.Background(), cart.StorageKey, []byte(`[]`))
	require.Error(t, err)
	require.Error(t, s.Ping(context.Background()))
}

func TestStore_WithEngine(t *testing.T) {
	s, _ := setupTestRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, cart.StorageKey, []byte(`[{"product":{"id":2,"title":"Ball","price":24.99},"quantity":2}]`)))

	e := cart.NewEngine(ctx, s, cart.Options{})
	assert.Equal(t, 2, e.ItemCount())
	require.NoError(t, e.UpdateQuantity(2, 5))
	require.NoError(t, e.Close(ctx))

	data, err := s.Get(ctx, cart.StorageKey)
	require.NoError(t, err)
	items, err := cart.DecodeItems(data)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
}
