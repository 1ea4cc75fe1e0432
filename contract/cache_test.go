package contract

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMemCacheGet(t *testing.T) {
	cache := NewMemCache(0)

	assert.Nil(t, cache.Set(context.Background(), "url", []byte("doc"), time.Minute))

	v, ok, err := cache.Get(context.Background(), "url")
	assert.Nil(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("doc"), v)
}

func TestMemCacheExpires(t *testing.T) {
	cache := NewMemCache(0)

	assert.Nil(t, cache.Set(context.Background(), "url", []byte("doc"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, ok, err := cache.Get(context.Background(), "url")
	assert.Nil(t, err)
	assert.False(t, ok)
}

func TestMemCacheEvictsExpiredEntries(t *testing.T) {
	cache := NewMemCache(5 * time.Millisecond)

	for i := 0; i < 1000; i++ {
		key := fmt.Sprintf("https://artifacts.example.org/%d.json", i)
		assert.Nil(t, cache.Set(context.Background(), key, []byte("doc"), time.Millisecond))
	}

	assert.Eventually(t, func() bool { return cache.Len() == 0 },
		time.Second, 10*time.Millisecond)
}

func TestMemCacheMissing(t *testing.T) {
	_, ok, err := NewMemCache(0).Get(context.Background(), "url")

	assert.Nil(t, err)
	assert.False(t, ok)
}

type mockRedisClient struct {
	mock.Mock
}

func (c *mockRedisClient) Get(key string) *redis.StringCmd {
	args := c.Called(key)
	return args.Get(0).(*redis.StringCmd)
}

func (c *mockRedisClient) Set(key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := c.Called(key, value, expiration)
	return args.Get(0).(*redis.StatusCmd)
}

func TestRedisCacheGet(t *testing.T) {
	client := &mockRedisClient{}
	client.On("Get", "artifact:url").Return(redis.NewStringResult("doc", nil))
	cache := NewRedisCacheWithClient(client)

	v, ok, err := cache.Get(context.Background(), "url")

	assert.Nil(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("doc"), v)
}

func TestRedisCacheGetMissing(t *testing.T) {
	client := &mockRedisClient{}
	client.On("Get", "artifact:url").Return(redis.NewStringResult("", redis.Nil))
	cache := NewRedisCacheWithClient(client)

	_, ok, err := cache.Get(context.Background(), "url")

	assert.Nil(t, err)
	assert.False(t, ok)
}

func TestRedisCacheGetError(t *testing.T) {
	client := &mockRedisClient{}
	client.On("Get", "artifact:url").Return(redis.NewStringResult("", errors.New("connection refused")))
	cache := NewRedisCacheWithClient(client)

	_, ok, err := cache.Get(context.Background(), "url")

	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisCacheSet(t *testing.T) {
	client := &mockRedisClient{}
	client.On("Set", "artifact:url", []byte("doc"), time.Minute).Return(redis.NewStatusResult("OK", nil))
	cache := NewRedisCacheWithClient(client)

	err := cache.Set(context.Background(), "url", []byte("doc"), time.Minute)

	assert.Nil(t, err)
	client.AssertNumberOfCalls(t, "Set", 1)
}
