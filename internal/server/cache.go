package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores rendered responses
type Cache interface {
	// Get returns ErrCacheMiss for absent or expired keys
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value; a zero ttl keeps it until Clear
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Clear removes every value
	Clear(ctx context.Context) error
}

// ErrCacheMiss is returned when a key is not in the cache
var ErrCacheMiss = errors.New("cache miss")

// generationCache counts clears so a response rendered before a clear is
// not stored after it. Set and Clear serialize on mu: a store either
// lands before the clear removes it or sees the new generation and is
// dropped.
type generationCache struct {
	Cache
	mu  sync.RWMutex
	gen uint64
}

// withGenerations wraps c unless it already counts generations
func withGenerations(c Cache) *generationCache {
	if g, ok := c.(*generationCache); ok {
		return g
	}
	return &generationCache{Cache: c}
}

func (g *generationCache) generation() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.gen
}

// setAt stores value only if no Clear happened since gen was read
func (g *generationCache) setAt(ctx context.Context, gen uint64, key string, value []byte, ttl time.Duration) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.gen != gen {
		return false, nil
	}
	return true, g.Cache.Set(ctx, key, value, ttl)
}

func (g *generationCache) Clear(ctx context.Context) error {
	g.mu.Lock()
	g.gen++
	g.mu.Unlock()
	return g.Cache.Clear(ctx)
}

type cacheItem struct {
	value      []byte
	expiration time.Time
}

// MemoryCache is a process-local Cache; expired items are dropped when read
type MemoryCache struct {
	data sync.Map
	now  func() time.Time
}

// NewMemoryCache creates an empty in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{now: time.Now}
}

// Get implements Cache
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	value, ok := m.data.Load(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	item := value.(cacheItem)
	if !item.expiration.IsZero() && m.now().After(item.expiration) {
		m.data.CompareAndDelete(key, value)
		return nil, ErrCacheMiss
	}
	return item.value, nil
}

// Set implements Cache
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	item := cacheItem{value: value}
	if ttl > 0 {
		item.expiration = m.now().Add(ttl)
	}
	m.data.Store(key, item)
	return nil
}

// Clear implements Cache
func (m *MemoryCache) Clear(context.Context) error {
	m.data.Clear()
	return nil
}

// RedisCache is a Cache shared by every server instance using the same
// Redis. Keys are namespaced by Prefix.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// DefaultRedisPrefix namespaces cached responses
const DefaultRedisPrefix = "kitlend:"

// NewRedisCache connects to Redis at addr and checks the connection
func NewRedisCache(ctx context.Context, addr string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewRedisCacheWithClient(client, DefaultRedisPrefix), nil
}

// NewRedisCacheWithClient wraps an existing client
func NewRedisCacheWithClient(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

// Get implements Cache
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return value, err
}

// Set implements Cache
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.prefix+key, value, ttl).Err()
}

// Clear implements Cache. Only keys under the prefix are removed.
func (r *RedisCache) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close closes the Redis connection
func (r *RedisCache) Close() error {
	return r.client.Close()
}
