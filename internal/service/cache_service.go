package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/opr-api/internal/models"
	appErrors "github.com/noah-isme/opr-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// UpcomingEventsKey is the cache key for events still open on day.
func UpcomingEventsKey(day time.Time) string {
	return "events:upcoming:" + models.DateOf(day).Format("2006-01-02")
}

// ArticleDetailKey is the cache key for an article aggregate.
func ArticleDetailKey(id int64) string {
	return fmt.Sprintf("article:%d:detail", id)
}

// CacheService wraps the cache repository with metrics and fail-open semantics.
// Lookups that error are reported as misses so reads fall through to the database.
//
// Every Invalidate bumps a per-key generation. SetIfCurrent refuses to store a
// value read before the latest invalidation, so a slow read-through miss cannot
// put back an aggregate a concurrent write has just dropped. Generations are
// process-local; replicas sharing one Redis still rely on the TTL.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool

	mu          sync.Mutex
	generations map[string]uint64
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{
		repo:        repo,
		metrics:     metrics,
		defaultTTL:  defaultTTL,
		logger:      logger,
		enabled:     enabled,
		generations: map[string]uint64{},
	}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get loads key into dest and reports whether it was a hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return true
}

// Generation returns the invalidation counter of key. Capture it before reading
// the source of truth and hand it to SetIfCurrent.
func (s *CacheService) Generation(key string) uint64 {
	if !s.Enabled() {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[key]
}

// SetIfCurrent stores value unless key was invalidated after generation was taken.
// It reports whether the value was written.
func (s *CacheService) SetIfCurrent(ctx context.Context, key string, generation uint64, value interface{}, ttl time.Duration) bool {
	if !s.Enabled() {
		return false
	}
	// held across the write so a racing Invalidate deletes after it lands
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[key] != generation {
		s.logger.Debug("cache write skipped, key invalidated during read", zap.String("key", key))
		return false
	}
	s.set(ctx, key, value, ttl)
	return true
}

// Set stores value under key. Failures are logged, never returned.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !s.Enabled() {
		return
	}
	s.set(ctx, key, value, ttl)
}

func (s *CacheService) set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops the given keys.
func (s *CacheService) Invalidate(ctx context.Context, keys ...string) {
	if !s.Enabled() {
		return
	}
	s.mu.Lock()
	for _, key := range keys {
		s.generations[key]++
	}
	s.mu.Unlock()
	if err := s.repo.Delete(ctx, keys...); err != nil {
		s.logger.Warn("cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
