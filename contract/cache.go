package contract

import (
	"context"
	"time"

	"github.com/go-redis/redis"
	gocache "github.com/patrickmn/go-cache"
	stderr "github.com/pkg/errors"
)

const (
	CacheProviderNone  = "none"
	CacheProviderMem   = "mem"
	CacheProviderRedis = "redis"
)

// Cache stores artifact documents for a bounded time
type Cache interface {
	// Get returns the document stored for key. ok is false if there
	// is no document or if it expired
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value for key for the provided ttl
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// NoCache is a Cache that never stores anything
type NoCache struct{}

func (NoCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

func (NoCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

// defaultCleanupInterval is how often expired documents are evicted
// from a MemCache
const defaultCleanupInterval = time.Minute

// MemCache is a Cache local to the process. Expired documents are
// evicted by the go-cache janitor every cleanup interval
type MemCache struct {
	cache *gocache.Cache
}

// NewMemCache creates an empty MemCache. A zero cleanupInterval uses
// the default of one minute
func NewMemCache(cleanupInterval time.Duration) *MemCache {
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	}

	return &MemCache{cache: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (c *MemCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false, nil
	}

	return v.([]byte), true, nil
}

// Set stores value for ttl. A ttl that is not positive keeps the
// document until it is replaced
func (c *MemCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}

	c.cache.Set(key, value, ttl)
	return nil
}

// Len returns the number of documents held, including expired ones
// the janitor has not evicted yet
func (c *MemCache) Len() int {
	return c.cache.ItemCount()
}

// RedisClient is the subset of the redis client used by RedisCache
type RedisClient interface {
	Get(key string) *redis.StringCmd
	Set(key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisCache is a Cache shared between the instances of the service
type RedisCache struct {
	client RedisClient
	prefix string
}

// NewRedisCache creates a RedisCache connected to addr
func NewRedisCache(addr string) *RedisCache {
	return NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: addr}))
}

// NewRedisCacheWithClient creates a RedisCache on top of client
func NewRedisCacheWithClient(client RedisClient) *RedisCache {
	return &RedisCache{client: client, prefix: "artifact:"}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(c.prefix + key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, stderr.Wrap(err, "failed to get artifact from redis")
	}

	return value, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(c.prefix+key, value, ttl).Err(); err != nil {
		return stderr.Wrap(err, "failed to set artifact in redis")
	}

	return nil
}
