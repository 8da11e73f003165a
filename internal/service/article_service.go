package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/opr-api/internal/dto"
	"github.com/noah-isme/opr-api/internal/models"
	appErrors "github.com/noah-isme/opr-api/pkg/errors"
	"github.com/noah-isme/opr-api/pkg/filecodec"
)

type articleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	GetByID(ctx context.Context, id int64) (*models.Article, error)
	GetDetail(ctx context.Context, id int64) (*models.Article, error)
	ListByCreator(ctx context.Context, creatorID int64) ([]models.ArticleSummary, error)
	UpdateFile(ctx context.Context, id int64, file []byte, updatedAt time.Time) error
}

type userLookup interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

type eventLookup interface {
	GetByID(ctx context.Context, id int64) (*models.Event, error)
}

// ArticleConfig tunes article handling.
type ArticleConfig struct {
	MaxFileSize int64
	CacheTTL    time.Duration
}

// ArticleService implements article submission and retrieval.
type ArticleService struct {
	articles  articleRepository
	users     userLookup
	events    eventLookup
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ArticleConfig
	now       func() time.Time
}

// NewArticleService constructs an ArticleService.
func NewArticleService(articles articleRepository, users userLookup, events eventLookup, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ArticleConfig) *ArticleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ArticleService{
		articles:  articles,
		users:     users,
		events:    events,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// CreateArticle submits a new article on behalf of actor.
func (s *ArticleService) CreateArticle(ctx context.Context, actor *models.JWTClaims, req dto.CreateArticleRequest) (*models.Article, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "name, description, event and file are required")
	}
	if req.Creator != nil && *req.Creator != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "articles can only be submitted as yourself")
	}

	file, err := decodePDF(req.File, "file", s.cfg.MaxFileSize)
	if err != nil {
		return nil, err
	}

	creator, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "creator not found")
		}
		return nil, appErrors.Internal(err, "failed to load creator")
	}

	event, err := s.events.GetByID(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Internal(err, "failed to load event")
	}

	now := s.now().UTC()
	if !event.AcceptsSubmissionsOn(now) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "event is no longer accepting submissions")
	}

	article := &models.Article{
		CreatorID:   creator.ID,
		EventID:     event.ID,
		Name:        req.Name,
		Description: req.Description,
		File:        file,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.articles.Create(ctx, article); err != nil {
		return nil, appErrors.Internal(err, "failed to create article")
	}
	article.Creator = creator.Summary()
	article.Event = event
	article.ArticleReviewers = []models.ArticleReviewer{}

	s.metrics.ArticleSubmitted()
	s.logger.Info("article submitted",
		zap.Int64("article_id", article.ID),
		zap.Int64("creator_id", article.CreatorID),
		zap.Int64("event_id", article.EventID),
		zap.Int("file_bytes", len(file)),
	)
	return article, nil
}

// GetArticleByID returns the article aggregate. The bool reports a cache hit.
func (s *ArticleService) GetArticleByID(ctx context.Context, id int64) (*models.Article, bool, error) {
	key := ArticleDetailKey(id)
	var cached models.Article
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}
	generation := s.cache.Generation(key)

	article, err := s.articles.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "article not found")
		}
		return nil, false, appErrors.Internal(err, "failed to load article")
	}
	s.cache.SetIfCurrent(ctx, key, generation, article, s.cfg.CacheTTL)
	return article, false, nil
}

// UpdateArticleFile replaces the article PDF. Only the creator may do so.
// Existing assignments and reviews are kept as they are.
func (s *ArticleService) UpdateArticleFile(ctx context.Context, id int64, actor *models.JWTClaims, req dto.UpdateArticleFileRequest) (*models.Article, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "article not found")
		}
		return nil, appErrors.Internal(err, "failed to load article")
	}
	if article.CreatorID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the creator can update the article file")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "file is required")
	}
	file, err := decodePDF(req.File, "file", s.cfg.MaxFileSize)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.articles.UpdateFile(ctx, id, file, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "article not found")
		}
		return nil, appErrors.Internal(err, "failed to update article file")
	}
	s.cache.Invalidate(ctx, ArticleDetailKey(id))

	article.File = file
	article.UpdatedAt = now
	s.logger.Info("article file replaced", zap.Int64("article_id", id), zap.Int("file_bytes", len(file)))
	return article, nil
}

// ListArticlesByCreator returns the actor's own articles, newest first.
func (s *ArticleService) ListArticlesByCreator(ctx context.Context, actor *models.JWTClaims) ([]models.ArticleSummary, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	articles, err := s.articles.ListByCreator(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list articles")
	}
	return articles, nil
}

// decodePDF decodes a base64 PDF payload and maps codec failures to validation errors.
func decodePDF(text, field string, maxSize int64) ([]byte, error) {
	data, err := filecodec.DecodePDF(text)
	if err != nil {
		msg := fmt.Sprintf("%s must be a base64 encoded PDF", field)
		if errors.Is(err, filecodec.ErrEmpty) {
			msg = fmt.Sprintf("%s is required", field)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, msg)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s exceeds %d bytes", field, maxSize))
	}
	return data, nil
}
