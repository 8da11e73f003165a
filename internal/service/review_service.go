package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/opr-api/internal/dto"
	"github.com/noah-isme/opr-api/internal/models"
	"github.com/noah-isme/opr-api/internal/repository"
	appErrors "github.com/noah-isme/opr-api/pkg/errors"
)

// JobReviewSubmitted is the queue job type emitted after a review is stored.
const JobReviewSubmitted = "review.submitted"

// ReviewSubmittedPayload identifies a freshly stored review for notification.
type ReviewSubmittedPayload struct {
	ArticleID         int64
	ArticleReviewerID int64
	ReviewID          int64
	ReviewerName      string
}

type articleReviewerRepository interface {
	GetByID(ctx context.Context, id int64) (*models.ArticleReviewer, error)
	Create(ctx context.Context, assignment *models.ArticleReviewer) error
	ListByReviewer(ctx context.Context, reviewerID int64) ([]models.ArticleReviewer, error)
}

type reviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
}

type articleDetailReader interface {
	GetByID(ctx context.Context, id int64) (*models.Article, error)
	GetDetail(ctx context.Context, id int64) (*models.Article, error)
}

type jobEnqueuer interface {
	Enqueue(jobType string, payload interface{}) (string, error)
}

// ReviewService manages reviewer assignments and the reviews submitted against them.
type ReviewService struct {
	assignments articleReviewerRepository
	reviews     reviewRepository
	articles    articleDetailReader
	users       userLookup
	cache       *CacheService
	metrics     *MetricsService
	jobs        jobEnqueuer
	validator   *validator.Validate
	logger      *zap.Logger
	maxFileSize int64
	now         func() time.Time
}

// NewReviewService constructs a ReviewService. jobs may be nil to disable notifications.
func NewReviewService(assignments articleReviewerRepository, reviews reviewRepository, articles articleDetailReader, users userLookup, cache *CacheService, metrics *MetricsService, jobs jobEnqueuer, validate *validator.Validate, logger *zap.Logger, maxFileSize int64) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ReviewService{
		assignments: assignments,
		reviews:     reviews,
		articles:    articles,
		users:       users,
		cache:       cache,
		metrics:     metrics,
		jobs:        jobs,
		validator:   validate,
		logger:      logger,
		maxFileSize: maxFileSize,
		now:         time.Now,
	}
}

// ListReviewsForReviewer returns the reviewer's assignments, newest first.
// Only the reviewer themselves or an administrator may list them.
func (s *ReviewService) ListReviewsForReviewer(ctx context.Context, reviewerID int64, actor *models.JWTClaims) ([]models.ArticleReviewer, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.UserID != reviewerID && !actor.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot list another reviewer's assignments")
	}
	assignments, err := s.assignments.ListByReviewer(ctx, reviewerID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list assignments")
	}
	return assignments, nil
}

// SubmitReview appends a review to the assignment. Only the assigned reviewer may submit.
func (s *ReviewService) SubmitReview(ctx context.Context, articleReviewerID int64, actor *models.JWTClaims, req dto.SubmitReviewRequest) (*models.Review, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	assignment, err := s.assignments.GetByID(ctx, articleReviewerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Internal(err, "failed to load assignment")
	}
	if assignment.ReviewerID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assigned reviewer can submit a review")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "review file is required")
	}

	file, err := decodePDF(req.File, "file", s.maxFileSize)
	if err != nil {
		return nil, err
	}
	var original []byte
	if strings.TrimSpace(req.OriginalFile) != "" {
		if original, err = decodePDF(req.OriginalFile, "originalFile", s.maxFileSize); err != nil {
			return nil, err
		}
	}

	review := &models.Review{
		ArticleReviewerID: assignment.ID,
		Comments:          strings.TrimSpace(req.Comments),
		File:              file,
		OriginalFile:      original,
		CreatedAt:         s.now().UTC(),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, appErrors.Internal(err, "failed to store review")
	}

	s.cache.Invalidate(ctx, ArticleDetailKey(assignment.ArticleID))
	s.metrics.ReviewSubmitted()
	s.logger.Info("review submitted",
		zap.Int64("review_id", review.ID),
		zap.Int64("article_reviewer_id", assignment.ID),
		zap.Int64("article_id", assignment.ArticleID),
	)
	s.notify(ReviewSubmittedPayload{
		ArticleID:         assignment.ArticleID,
		ArticleReviewerID: assignment.ID,
		ReviewID:          review.ID,
		ReviewerName:      actor.Name,
	})
	return review, nil
}

// ListReviewsForArticle flattens every assignment's reviews into one list
// labelled with the reviewer name, sorted by descending id.
func (s *ReviewService) ListReviewsForArticle(ctx context.Context, articleID int64) ([]models.FlatReview, error) {
	article, err := s.articles.GetDetail(ctx, articleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "article not found")
		}
		return nil, appErrors.Internal(err, "failed to load article")
	}
	return FlattenReviews(article.ArticleReviewers), nil
}

// FlattenReviews projects assignment reviews into reviewer-labelled rows.
func FlattenReviews(assignments []models.ArticleReviewer) []models.FlatReview {
	total := 0
	for _, a := range assignments {
		total += len(a.Reviews)
	}
	out := make([]models.FlatReview, 0, total)
	for _, a := range assignments {
		name := ""
		if a.Reviewer != nil {
			name = a.Reviewer.Name
		}
		for _, r := range a.Reviews {
			out = append(out, models.FlatReview{
				ID:           r.ID,
				ReviewerName: name,
				Comments:     r.Comments,
				File:         r.File,
				OriginalFile: r.OriginalFile,
				CreatedAt:    r.CreatedAt,

				FileSize:         r.FileBytes(),
				OriginalFileSize: r.OriginalFileBytes(),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// AssignReviewer creates an assignment of reviewer to article. Administrators only.
func (s *ReviewService) AssignReviewer(ctx context.Context, articleID int64, actor *models.JWTClaims, req dto.AssignReviewerRequest) (*models.ArticleReviewer, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can assign reviewers")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "reviewerId is required")
	}

	article, err := s.articles.GetByID(ctx, articleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "article not found")
		}
		return nil, appErrors.Internal(err, "failed to load article")
	}
	reviewer, err := s.users.FindByID(ctx, req.ReviewerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reviewer not found")
		}
		return nil, appErrors.Internal(err, "failed to load reviewer")
	}
	if reviewer.ID == article.CreatorID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "the creator cannot review their own article")
	}

	now := s.now().UTC()
	assignment := &models.ArticleReviewer{
		ArticleID:  article.ID,
		ReviewerID: reviewer.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "reviewer already assigned to this article")
		}
		return nil, appErrors.Internal(err, "failed to assign reviewer")
	}
	assignment.Reviewer = reviewer.Summary()
	if assignment.Reviews == nil {
		assignment.Reviews = []models.Review{}
	}

	s.cache.Invalidate(ctx, ArticleDetailKey(article.ID))
	s.metrics.ReviewerAssigned()
	s.logger.Info("reviewer assigned",
		zap.Int64("article_id", article.ID),
		zap.Int64("reviewer_id", reviewer.ID),
		zap.Int64("assigned_by", actor.UserID),
	)
	return assignment, nil
}

func (s *ReviewService) notify(payload ReviewSubmittedPayload) {
	if s.jobs == nil {
		return
	}
	id, err := s.jobs.Enqueue(JobReviewSubmitted, payload)
	if err != nil {
		s.logger.Warn("failed to enqueue review notification", zap.Int64("review_id", payload.ReviewID), zap.Error(err))
		return
	}
	s.logger.Debug("review notification enqueued", zap.String("job_id", id), zap.Int64("review_id", payload.ReviewID))
}
