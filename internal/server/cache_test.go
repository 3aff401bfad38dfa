package server

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCacheWithClient(client, DefaultRedisPrefix), mr
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	v, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	now = now.Add(2 * time.Minute)
	_, err = c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "b")
	assert.NoError(t, err, "no ttl never expires")

	require.NoError(t, c.Clear(ctx))
	_, err = c.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewMemoryCache()
	assert.ErrorIs(t, c.Set(ctx, "a", nil, 0), context.Canceled)
	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	c, mr := setupTestRedis(t)

	_, err := c.Get(ctx, "/api/kits")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "/api/kits", []byte("data"), time.Minute))
	assert.True(t, mr.Exists(DefaultRedisPrefix+"/api/kits"))
	v, err := c.Get(ctx, "/api/kits")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), v)

	mr.FastForward(2 * time.Minute)
	_, err = c.Get(ctx, "/api/kits")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCacheClearKeepsOtherKeys(t *testing.T) {
	ctx := context.Background()
	c, mr := setupTestRedis(t)

	require.NoError(t, mr.Set("other:key", "x"))
	require.NoError(t, c.Set(ctx, "/api/kits", []byte("a"), 0))
	require.NoError(t, c.Set(ctx, "/api/manual", []byte("b"), 0))

	require.NoError(t, c.Clear(ctx))
	assert.False(t, mr.Exists(DefaultRedisPrefix+"/api/kits"))
	assert.False(t, mr.Exists(DefaultRedisPrefix+"/api/manual"))
	assert.True(t, mr.Exists("other:key"))
}

func TestNewRedisCacheConnectionError(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisCache(context.Background(), addr)
	assert.Error(t, err)
}
