// Package cache is a read-through JSON cache with prefix invalidation.
// Failures of the backing store are logged and fall through to compute;
// the cache never changes what a caller observes, only how fast.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"chat_delivery_service/pkg/logger"

	"go.uber.org/zap"
)

// Store is the byte-level backend of the cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// GetOrSet returns the cached value for key, or computes, stores and returns it.
func GetOrSet[T any](ctx context.Context, s Store, key string, ttl time.Duration, compute func(ctx context.Context) (T, error)) (T, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		logger.Log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}
	if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		logger.Log.Warn("cache entry undecodable, recomputing", zap.String("key", key))
	}

	v, err := compute(ctx)
	if err != nil {
		return v, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		logger.Log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return v, nil
	}
	if err := s.Set(ctx, key, data, ttl); err != nil {
		logger.Log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return v, nil
}

// InvalidateByPrefix drops every entry under each prefix.
// Errors are logged; entries left behind expire with their TTL.
func InvalidateByPrefix(ctx context.Context, s Store, prefixes ...string) {
	for _, p := range prefixes {
		if err := s.DeleteByPrefix(ctx, p); err != nil {
			logger.Log.Warn("cache invalidate failed", zap.String("prefix", p), zap.Error(err))
		}
	}
}

// DelayedDelete deletes again delay after every DeleteByPrefix.
// 讀取在 invalidate 之前算完, 之後才 Set 的舊值會被第二次刪除清掉
type DelayedDelete struct {
	Store
	delay   time.Duration
	pending sync.WaitGroup
}

// WithDelayedDelete wrap s, delay <= 0 returns s unchanged
func WithDelayedDelete(s Store, delay time.Duration) Store {
	if delay <= 0 {
		return s
	}
	return &DelayedDelete{Store: s, delay: delay}
}

// DeleteByPrefix delete now and once more after delay
func (d *DelayedDelete) DeleteByPrefix(ctx context.Context, prefix string) error {
	err := d.Store.DeleteByPrefix(ctx, prefix)

	bg := context.WithoutCancel(ctx)
	d.pending.Add(1)
	time.AfterFunc(d.delay, func() {
		defer d.pending.Done()
		if err := d.Store.DeleteByPrefix(bg, prefix); err != nil {
			logger.Log.Warn("cache delayed invalidate failed", zap.String("prefix", prefix), zap.Error(err))
		}
	})
	return err
}

// Wait blocks until every scheduled second delete has run
func (d *DelayedDelete) Wait() {
	d.pending.Wait()
}

// Noop is a Store that never holds anything, used when caching is disabled.
type Noop struct{}

// Get always misses
func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set discards
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }

// DeleteByPrefix does nothing
func (Noop) DeleteByPrefix(context.Context, string) error { return nil }
