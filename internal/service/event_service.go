package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/opr-api/internal/models"
	appErrors "github.com/noah-isme/opr-api/pkg/errors"
)

type eventRepository interface {
	ListEndingOnOrAfter(ctx context.Context, day time.Time) ([]models.Event, error)
	GetByID(ctx context.Context, id int64) (*models.Event, error)
}

// EventService lists calls for papers that still accept submissions.
type EventService struct {
	repo   eventRepository
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewEventService constructs an EventService. cache may be nil.
func NewEventService(repo eventRepository, cache *CacheService, ttl time.Duration, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{repo: repo, cache: cache, ttl: ttl, logger: logger, now: time.Now}
}

// ListUpcoming returns events whose end date is today or later, by start date.
// The bool reports whether the result was served from cache.
func (s *EventService) ListUpcoming(ctx context.Context) ([]models.Event, bool, error) {
	today := models.DateOf(s.now())
	key := UpcomingEventsKey(today)

	var cached []models.Event
	if s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}

	events, err := s.repo.ListEndingOnOrAfter(ctx, today)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to list events")
	}
	s.cache.Set(ctx, key, events, s.ttl)
	return events, false, nil
}
