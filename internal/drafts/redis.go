package drafts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "drafts:"

// RedisStore keeps each device in one Redis hash. Every write refreshes the
// hash expiry.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisStore creates a device store on a Redis client.
func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func hashKey(device string) string { return keyPrefix + device }

// Get reads one field of the device hash.
func (s *RedisStore) Get(ctx context.Context, device, key string) (string, bool, error) {
	v, err := s.client.HGet(ctx, hashKey(device), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("hget %s: %w", key, err)
	}
	return v, true, nil
}

// Set writes one field of the device hash and refreshes the hash expiry.
func (s *RedisStore) Set(ctx context.Context, device, key, value string) error {
	hk := hashKey(device)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, hk, key, value)
	if s.ttl > 0 {
		pipe.Expire(ctx, hk, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Delete removes fields from the device hash.
func (s *RedisStore) Delete(ctx context.Context, device string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.HDel(ctx, hashKey(device), keys...).Err(); err != nil {
		return fmt.Errorf("hdel: %w", err)
	}
	return nil
}
