package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore is a Store over a redis client.
type RedisStore struct {
	client    redis.UniversalClient
	scanCount int64
	opTimeout time.Duration
}

// NewRedisStore create a redis backed Store
func NewRedisStore(client redis.UniversalClient, scanCount int64, opTimeout time.Duration) *RedisStore {
	if scanCount <= 0 {
		scanCount = 100
	}
	return &RedisStore{client: client, scanCount: scanCount, opTimeout: opTimeout}
}

func (r *RedisStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.opTimeout)
}

// Get returns (nil, false, nil) on a miss.
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores value with ttl
func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return r.client.Set(ctx, key, value, ttl).Err()
}

// DeleteByPrefix SCAN MATCH prefix* 後批次 DEL, 不使用 KEYS 避免阻塞 redis
func (r *RedisStore) DeleteByPrefix(ctx context.Context, prefix string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var cursor uint64
	match := escapeGlob(prefix) + "*"
	for {
		keys, next, err := r.client.Scan(ctx, cursor, match, r.scanCount).Result()
		if err != nil {
			return fmt.Errorf("redis scan %s: %w", match, err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del %d keys: %w", len(keys), err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// escapeGlob quotes redis glob metacharacters in a literal prefix.
func escapeGlob(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
