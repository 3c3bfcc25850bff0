package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultScanBatchSize = 100

// Redis is a Cache shared between processes.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an existing client. The caller owns the client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Get implements Cache.
func (r *Redis) Get(ctx context.Context, key string) (float64, bool, error) {
	value, err := r.client.Get(ctx, key).Float64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return value, true, nil
}

// Set implements Cache.
func (r *Redis) Set(ctx context.Context, key string, value float64, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// DeletePrefix implements Cache using SCAN so large keyspaces are not blocked.
func (r *Redis) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	var cursor uint64
	var deleted int64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, prefix+"*", defaultScanBatchSize).Result()
		if err != nil {
			return int(deleted), err
		}
		if len(keys) > 0 {
			n, err := r.client.Del(ctx, keys...).Result()
			if err != nil {
				return int(deleted), err
			}
			deleted += n
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return int(deleted), nil
}

// Flush implements Cache.
func (r *Redis) Flush(ctx context.Context) error {
	_, err := r.DeletePrefix(ctx, Namespace)
	return err
}
