package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/opr-api/internal/models"
)

// ArticleRepository persists articles and composes the article detail aggregate.
type ArticleRepository struct {
	db *sqlx.DB
}

// NewArticleRepository creates the repository.
func NewArticleRepository(db *sqlx.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

type articleRow struct {
	models.Article
	CreatorName    string    `db:"creator_name"`
	CreatorEmail   string    `db:"creator_email"`
	EventName      string    `db:"event_name"`
	EventStartDate time.Time `db:"event_start_date"`
	EventEndDate   time.Time `db:"event_end_date"`
}

func (row *articleRow) toModel() *models.Article {
	article := row.Article
	article.Creator = &models.UserSummary{ID: row.CreatorID, Name: row.CreatorName, Email: row.CreatorEmail}
	article.Event = &models.Event{ID: row.EventID, Name: row.EventName, StartDate: row.EventStartDate, EndDate: row.EventEndDate}
	return &article
}

type assignmentRow struct {
	models.ArticleReviewer
	ReviewerName  string `db:"reviewer_name"`
	ReviewerEmail string `db:"reviewer_email"`
}

// Create inserts a new article and assigns its generated id.
func (r *ArticleRepository) Create(ctx context.Context, article *models.Article) error {
	now := time.Now().UTC()
	if article.CreatedAt.IsZero() {
		article.CreatedAt = now
	}
	article.UpdatedAt = article.CreatedAt
	const query = `INSERT INTO articles (creator_id, event_id, name, description, file, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		article.CreatorID, article.EventID, article.Name, article.Description, article.File, article.CreatedAt, article.UpdatedAt,
	).Scan(&article.ID); err != nil {
		return fmt.Errorf("create article: %w", err)
	}
	return nil
}

const articleSelect = `SELECT a.id, a.creator_id, a.event_id, a.name, a.description, %s AS file, a.created_at, a.updated_at,
u.name AS creator_name, u.email AS creator_email,
e.name AS event_name, e.start_date AS event_start_date, e.end_date AS event_end_date
FROM articles a
JOIN users u ON u.id = a.creator_id
JOIN events e ON e.id = a.event_id
WHERE a.id = $1`

const (
	reviewsWithFiles = `SELECT id, article_reviewer_id, comments, file, original_file, created_at
FROM reviews WHERE article_reviewer_id = ANY($1) ORDER BY id DESC`
	reviewsWithoutFiles = `SELECT id, article_reviewer_id, comments, NULL::bytea AS file, NULL::bytea AS original_file,
octet_length(file) AS file_size, COALESCE(octet_length(original_file), 0) AS original_file_size, created_at
FROM reviews WHERE article_reviewer_id = ANY($1) ORDER BY id DESC`
)

// GetByID returns the article with its creator and event joined in.
func (r *ArticleRepository) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	return r.get(ctx, id, "a.file")
}

// GetSummary is GetByID without the article file.
func (r *ArticleRepository) GetSummary(ctx context.Context, id int64) (*models.Article, error) {
	return r.get(ctx, id, "NULL::bytea")
}

func (r *ArticleRepository) get(ctx context.Context, id int64, fileColumn string) (*models.Article, error) {
	var row articleRow
	if err := r.db.GetContext(ctx, &row, fmt.Sprintf(articleSelect, fileColumn), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get article: %w", err)
	}
	return row.toModel(), nil
}

// GetDetail returns the article aggregate: creator, event, and every reviewer
// assignment with its reviews (assignments by ascending id, reviews newest first).
func (r *ArticleRepository) GetDetail(ctx context.Context, id int64) (*models.Article, error) {
	article, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if article.ArticleReviewers, err = r.assignments(ctx, id, reviewsWithFiles); err != nil {
		return nil, err
	}
	return article, nil
}

// GetOutline is GetDetail with every file left out. Reviews carry file sizes instead.
func (r *ArticleRepository) GetOutline(ctx context.Context, id int64) (*models.Article, error) {
	article, err := r.GetSummary(ctx, id)
	if err != nil {
		return nil, err
	}
	if article.ArticleReviewers, err = r.assignments(ctx, id, reviewsWithoutFiles); err != nil {
		return nil, err
	}
	return article, nil
}

func (r *ArticleRepository) assignments(ctx context.Context, articleID int64, reviewsQuery string) ([]models.ArticleReviewer, error) {
	const query = `SELECT ar.id, ar.article_id, ar.reviewer_id, ar.created_at, ar.updated_at,
u.name AS reviewer_name, u.email AS reviewer_email
FROM article_reviewers ar
JOIN users u ON u.id = ar.reviewer_id
WHERE ar.article_id = $1
ORDER BY ar.id ASC`
	var rows []assignmentRow
	if err := r.db.SelectContext(ctx, &rows, query, articleID); err != nil {
		return nil, fmt.Errorf("list article reviewers: %w", err)
	}

	assignments := make([]models.ArticleReviewer, len(rows))
	ids := make([]int64, len(rows))
	for i, row := range rows {
		assignment := row.ArticleReviewer
		assignment.Reviewer = &models.UserSummary{ID: row.ReviewerID, Name: row.ReviewerName, Email: row.ReviewerEmail}
		assignments[i] = assignment
		ids[i] = assignment.ID
	}
	if err := loadReviews(ctx, r.db, reviewsQuery, assignments, ids); err != nil {
		return nil, err
	}
	return assignments, nil
}

// ListByCreator returns summaries of the creator's articles, newest first.
func (r *ArticleRepository) ListByCreator(ctx context.Context, creatorID int64) ([]models.ArticleSummary, error) {
	const query = `SELECT id, creator_id, event_id, name, description, created_at, updated_at
FROM articles WHERE creator_id = $1 ORDER BY id DESC`
	articles := []models.ArticleSummary{}
	if err := r.db.SelectContext(ctx, &articles, query, creatorID); err != nil {
		return nil, fmt.Errorf("list articles by creator: %w", err)
	}
	return articles, nil
}

// UpdateFile replaces the article file and bumps updated_at.
// Concurrent writers race with last-write-wins semantics.
func (r *ArticleRepository) UpdateFile(ctx context.Context, id int64, file []byte, updatedAt time.Time) error {
	const query = `UPDATE articles SET file = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, file, updatedAt)
	if err != nil {
		return fmt.Errorf("update article file: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update article file: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// attachReviews loads full reviews for the given assignment ids and distributes them in place.
func attachReviews(ctx context.Context, q sqlx.QueryerContext, assignments []models.ArticleReviewer, ids []int64) error {
	return loadReviews(ctx, q, reviewsWithFiles, assignments, ids)
}

func loadReviews(ctx context.Context, q sqlx.QueryerContext, query string, assignments []models.ArticleReviewer, ids []int64) error {
	index := make(map[int64]int, len(assignments))
	for i := range assignments {
		assignments[i].Reviews = []models.Review{}
		index[assignments[i].ID] = i
	}
	if len(ids) == 0 {
		return nil
	}

	var reviews []models.Review
	if err := sqlx.SelectContext(ctx, q, &reviews, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("list reviews: %w", err)
	}
	for _, review := range reviews {
		if i, ok := index[review.ArticleReviewerID]; ok {
			assignments[i].Reviews = append(assignments[i].Reviews, review)
		}
	}
	return nil
}
