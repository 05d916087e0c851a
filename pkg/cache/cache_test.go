package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"chat_delivery_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	var b []byte
	if args.Get(0) != nil {
		b = args.Get(0).([]byte)
	}
	return b, args.Bool(1), args.Error(2)
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *mockStore) DeleteByPrefix(ctx context.Context, prefix string) error {
	return m.Called(ctx, prefix).Error(0)
}

type summary struct {
	ID     string `json:"id"`
	Unread int    `json:"unread"`
}

func TestGetOrSet(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	t.Run("hit skips compute", func(t *testing.T) {
		s := new(mockStore)
		cached, _ := json.Marshal(summary{ID: "c1", Unread: 3})
		s.On("Get", ctx, "k").Return(cached, true, nil)

		got, err := GetOrSet(ctx, s, "k", time.Minute, func(context.Context) (summary, error) {
			t.Fatal("compute must not run on a hit")
			return summary{}, nil
		})
		assert.NoError(t, err)
		assert.Equal(t, summary{ID: "c1", Unread: 3}, got)
		s.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("miss computes and stores", func(t *testing.T) {
		s := new(mockStore)
		s.On("Get", ctx, "k").Return(nil, false, nil)
		want, _ := json.Marshal(summary{ID: "c2"})
		s.On("Set", ctx, "k", want, time.Minute).Return(nil)

		got, err := GetOrSet(ctx, s, "k", time.Minute, func(context.Context) (summary, error) {
			return summary{ID: "c2"}, nil
		})
		assert.NoError(t, err)
		assert.Equal(t, "c2", got.ID)
		s.AssertExpectations(t)
	})

	t.Run("store errors fall through", func(t *testing.T) {
		s := new(mockStore)
		s.On("Get", ctx, "k").Return(nil, false, errors.New("redis down"))
		s.On("Set", ctx, "k", mock.Anything, time.Minute).Return(errors.New("redis down"))

		got, err := GetOrSet(ctx, s, "k", time.Minute, func(context.Context) (summary, error) {
			return summary{ID: "c3"}, nil
		})
		assert.NoError(t, err)
		assert.Equal(t, "c3", got.ID)
	})

	t.Run("compute error is returned and not cached", func(t *testing.T) {
		s := new(mockStore)
		s.On("Get", ctx, "k").Return(nil, false, nil)

		_, err := GetOrSet(ctx, s, "k", time.Minute, func(context.Context) (summary, error) {
			return summary{}, errors.New("db down")
		})
		assert.EqualError(t, err, "db down")
		s.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("noop always computes", func(t *testing.T) {
		calls := 0
		for i := 0; i < 2; i++ {
			_, err := GetOrSet(ctx, Noop{}, "k", time.Minute, func(context.Context) (int, error) {
				calls++
				return calls, nil
			})
			assert.NoError(t, err)
		}
		assert.Equal(t, 2, calls)
	})
}

func TestInvalidateByPrefix(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()
	s := new(mockStore)
	s.On("DeleteByPrefix", ctx, "a:").Return(errors.New("scan failed"))
	s.On("DeleteByPrefix", ctx, "b:").Return(nil)

	InvalidateByPrefix(ctx, s, "a:", "b:")

	s.AssertExpectations(t)
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `chat:conversation:list:abc:`, escapeGlob("chat:conversation:list:abc:"))
	assert.Equal(t, `a\*b\?c\[d\]`, escapeGlob("a*b?c[d]"))
}

// mapStore in-memory Store
type mapStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *mapStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mapStore) DeleteByPrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

// 讀取端在 invalidate 之前算完, invalidate 之後才寫回舊值
func TestDelayedDelete_ClearsLateStaleWrite(t *testing.T) {
	logger.SetNewNop()
	ctx, cancel := context.WithCancel(context.Background())
	backend := &mapStore{data: map[string][]byte{}}
	store := WithDelayedDelete(backend, 20*time.Millisecond)
	delayed, ok := store.(*DelayedDelete)
	require.True(t, ok)

	computed := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = GetOrSet(ctx, store, "conv:list:a:1", time.Hour, func(context.Context) (summary, error) {
			close(computed)
			<-release
			return summary{ID: "c1", Unread: 0}, nil
		})
	}()

	<-computed
	// 寫入端 commit 後 invalidate, request context 隨即結束
	InvalidateByPrefix(ctx, store, "conv:list:a:")
	cancel()
	close(release)
	<-done

	_, stale, _ := backend.Get(context.Background(), "conv:list:a:1")
	require.True(t, stale, "late Set lands after the first delete")

	delayed.Wait()
	_, stale, _ = backend.Get(context.Background(), "conv:list:a:1")
	assert.False(t, stale, "second delete drops the stale entry")
}

func TestWithDelayedDelete_Disabled(t *testing.T) {
	backend := &mapStore{data: map[string][]byte{}}
	assert.Same(t, backend, WithDelayedDelete(backend, 0))
}
