package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

var _ Cache[struct{}] = (*RedisCache[struct{}])(nil)

// RedisCache shares cached values between server instances. Values are
// stored as JSON under keyPrefix+key.
type RedisCache[T any] struct {
	client    *redis.Client
	keyPrefix string
}

type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// NewRedisCache connects and pings the server before returning.
func NewRedisCache[T any](ctx context.Context, opts RedisOptions) (*RedisCache[T], error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisCacheFromClient[T](client, opts.KeyPrefix), nil
}

// NewRedisCacheFromClient wraps an existing client, letting several typed
// caches share one connection pool.
func NewRedisCacheFromClient[T any](client *redis.Client, keyPrefix string) *RedisCache[T] {
	return &RedisCache[T]{client: client, keyPrefix: keyPrefix}
}

func (r *RedisCache[T]) Get(ctx context.Context, key string) (T, error) {
	var zero T
	data, err := r.client.Get(ctx, r.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, ErrCacheMiss
		}
		return zero, fmt.Errorf("redis get %s: %w", key, err)
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return value, nil
}

func (r *RedisCache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return r.client.Set(ctx, r.keyPrefix+key, data, ttl).Err()
}

func (r *RedisCache[T]) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = r.keyPrefix + key
	}
	return r.client.Del(ctx, full...).Err()
}

func (r *RedisCache[T]) Close() error {
	return r.client.Close()
}

func (r *RedisCache[T]) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
