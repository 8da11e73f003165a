package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/opr-api/internal/models"
)

// ArticleReviewerRepository manages reviewer assignments.
type ArticleReviewerRepository struct {
	db *sqlx.DB
}

// NewArticleReviewerRepository creates the repository.
func NewArticleReviewerRepository(db *sqlx.DB) *ArticleReviewerRepository {
	return &ArticleReviewerRepository{db: db}
}

type reviewerAssignmentRow struct {
	models.ArticleReviewer
	ArticleCreatorID   int64     `db:"article_creator_id"`
	ArticleEventID     int64     `db:"article_event_id"`
	ArticleName        string    `db:"article_name"`
	ArticleDescription string    `db:"article_description"`
	ArticleCreatedAt   time.Time `db:"article_created_at"`
	ArticleUpdatedAt   time.Time `db:"article_updated_at"`
}

// GetByID returns the bare assignment row.
func (r *ArticleReviewerRepository) GetByID(ctx context.Context, id int64) (*models.ArticleReviewer, error) {
	const query = `SELECT id, article_id, reviewer_id, created_at, updated_at FROM article_reviewers WHERE id = $1`
	var assignment models.ArticleReviewer
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get article reviewer: %w", err)
	}
	assignment.Reviews = []models.Review{}
	return &assignment, nil
}

// Create inserts an assignment. A repeated (article, reviewer) pair yields ErrDuplicate.
func (r *ArticleReviewerRepository) Create(ctx context.Context, assignment *models.ArticleReviewer) error {
	now := time.Now().UTC()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = assignment.CreatedAt
	const query = `INSERT INTO article_reviewers (article_id, reviewer_id, created_at, updated_at)
VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		assignment.ArticleID, assignment.ReviewerID, assignment.CreatedAt, assignment.UpdatedAt,
	).Scan(&assignment.ID); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create article reviewer: %w", err)
	}
	if assignment.Reviews == nil {
		assignment.Reviews = []models.Review{}
	}
	return nil
}

// ListByReviewer returns the reviewer's assignments, newest first, each with
// its article summary and reviews.
func (r *ArticleReviewerRepository) ListByReviewer(ctx context.Context, reviewerID int64) ([]models.ArticleReviewer, error) {
	const query = `SELECT ar.id, ar.article_id, ar.reviewer_id, ar.created_at, ar.updated_at,
a.creator_id AS article_creator_id, a.event_id AS article_event_id, a.name AS article_name,
a.description AS article_description, a.created_at AS article_created_at, a.updated_at AS article_updated_at
FROM article_reviewers ar
JOIN articles a ON a.id = ar.article_id
WHERE ar.reviewer_id = $1
ORDER BY ar.id DESC`
	var rows []reviewerAssignmentRow
	if err := r.db.SelectContext(ctx, &rows, query, reviewerID); err != nil {
		return nil, fmt.Errorf("list assignments by reviewer: %w", err)
	}

	assignments := make([]models.ArticleReviewer, len(rows))
	ids := make([]int64, len(rows))
	for i, row := range rows {
		assignment := row.ArticleReviewer
		assignment.Article = &models.ArticleSummary{
			ID:          row.ArticleID,
			CreatorID:   row.ArticleCreatorID,
			EventID:     row.ArticleEventID,
			Name:        row.ArticleName,
			Description: row.ArticleDescription,
			CreatedAt:   row.ArticleCreatedAt,
			UpdatedAt:   row.ArticleUpdatedAt,
		}
		assignments[i] = assignment
		ids[i] = assignment.ID
	}
	if err := attachReviews(ctx, r.db, assignments, ids); err != nil {
		return nil, err
	}
	return assignments, nil
}
