package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/opr-api/internal/models"
)

// ReviewRepository appends reviews. Rows are never updated.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository creates the repository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review and assigns its generated id.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO reviews (article_reviewer_id, comments, file, original_file, created_at)
VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		review.ArticleReviewerID, review.Comments, review.File, nullableBytes(review.OriginalFile), review.CreatedAt,
	).Scan(&review.ID); err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}
