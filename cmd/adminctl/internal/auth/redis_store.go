package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Pachada/ReactBase/pkg/sdk"
)

// RedisStore implements sdk.KV on redis so several hosts can share a session.
// With a positive ttl every key expires after that long without being read or
// written, which gives the ephemeral tier its idle timeout.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// Ensure RedisStore implements sdk.KV at compile time.
var _ sdk.KV = (*RedisStore)(nil)

// NewRedisStore creates a store whose keys live under prefix.
func NewRedisStore(rdb redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(k string) string {
	return s.prefix + ":" + k
}

// Get reads a value, sliding its expiry when the store has a ttl.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	var cmd *redis.StringCmd
	if s.ttl > 0 {
		cmd = s.rdb.GetEx(ctx, s.key(key), s.ttl)
	} else {
		cmd = s.rdb.Get(ctx, s.key(key))
	}

	value, err := cmd.Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

// Set writes a value.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes a value.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
