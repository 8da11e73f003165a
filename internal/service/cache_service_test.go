package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/opr-api/pkg/errors"
)

// memoryCache is an in-memory CacheRepository used across service tests.
type memoryCache struct {
	mu      sync.Mutex
	items   map[string][]byte
	getErr  error
	deleted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = raw
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.items, key)
		m.deleted = append(m.deleted, key)
	}
	return nil
}

func (m *memoryCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[key]
	return ok
}

func TestCacheKeys(t *testing.T) {
	day := time.Date(2026, 10, 15, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "events:upcoming:2026-10-15", UpcomingEventsKey(day))
	assert.Equal(t, "article:42:detail", ArticleDetailKey(42))
}

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := newMemoryCache()
	svc := NewCacheService(repo, NewMetricsService(), time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	var out []string
	assert.False(t, svc.Get(ctx, "k", &out))
	svc.Set(ctx, "k", []string{"a"}, 0)
	assert.True(t, svc.Get(ctx, "k", &out))
	assert.Equal(t, []string{"a"}, out)

	svc.Invalidate(ctx, "k")
	assert.False(t, repo.has("k"))
}

func TestCacheServiceFailsOpen(t *testing.T) {
	repo := newMemoryCache()
	repo.getErr = errors.New("connection refused")
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)

	var out []string
	assert.False(t, svc.Get(context.Background(), "k", &out))
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newMemoryCache()
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), false)
	svc.Set(context.Background(), "k", "v", 0)
	assert.False(t, repo.has("k"))
}

func TestCacheServiceSetIfCurrentSkipsAfterInvalidate(t *testing.T) {
	repo := newMemoryCache()
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	gen := svc.Generation("article:1:detail")
	svc.Invalidate(ctx, "article:1:detail")
	assert.False(t, svc.SetIfCurrent(ctx, "article:1:detail", gen, "stale", 0))
	assert.False(t, repo.has("article:1:detail"))

	gen = svc.Generation("article:1:detail")
	assert.True(t, svc.SetIfCurrent(ctx, "article:1:detail", gen, "fresh", 0))
	assert.True(t, repo.has("article:1:detail"))

	other := svc.Generation("article:2:detail")
	svc.Invalidate(ctx, "article:1:detail")
	assert.True(t, svc.SetIfCurrent(ctx, "article:2:detail", other, "untouched", 0))
}
