package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKV backs the cache with Redis. Keys are namespaced under prefix.
type RedisKV struct {
	client *redis.Client
	prefix string
}

func NewRedisKV(addr, password string, db int, prefix string) *RedisKV {
	if prefix == "" {
		prefix = "promogen:cache:"
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	return &RedisKV{client: client, prefix: prefix}
}

// NewRedisKVWithClient wraps an existing client; used by tests.
func NewRedisKVWithClient(client *redis.Client, prefix string) *RedisKV {
	if prefix == "" {
		prefix = "promogen:cache:"
	}
	return &RedisKV{client: client, prefix: prefix}
}

func (r *RedisKV) Initialize(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisKV) Close() error { return r.client.Close() }

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.prefix+key, value, ttl).Err()
}
