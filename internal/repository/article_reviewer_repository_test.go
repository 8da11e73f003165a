package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/opr-api/internal/models"
)

func TestArticleReviewerCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewArticleReviewerRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO article_reviewers (article_id, reviewer_id, created_at, updated_at)")).
		WithArgs(int64(7), int64(5), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), &models.ArticleReviewer{ArticleID: 7, ReviewerID: 5})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleReviewerCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewArticleReviewerRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO article_reviewers")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))

	assignment := &models.ArticleReviewer{ArticleID: 7, ReviewerID: 5}
	require.NoError(t, repo.Create(context.Background(), assignment))
	assert.Equal(t, int64(12), assignment.ID)
	assert.NotNil(t, assignment.Reviews)
}

func TestListByReviewerNestsArticleAndReviews(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewArticleReviewerRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE ar.reviewer_id = $1\nORDER BY ar.id DESC")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "article_id", "reviewer_id", "created_at", "updated_at",
			"article_creator_id", "article_event_id", "article_name", "article_description", "article_created_at", "article_updated_at",
		}).
			AddRow(int64(3), int64(8), int64(5), now, now, int64(2), int64(1), "Later", "l", now, now).
			AddRow(int64(1), int64(7), int64(5), now, now, int64(2), int64(1), "Earlier", "e", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM reviews WHERE article_reviewer_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "article_reviewer_id", "comments", "file", "original_file", "created_at"}).
			AddRow(int64(40), int64(3), "looks good", []byte("r"), nil, now))

	assignments, err := repo.ListByReviewer(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.Equal(t, "Later", assignments[0].Article.Name)
	assert.Len(t, assignments[0].Reviews, 1)
	assert.Empty(t, assignments[1].Reviews)
	assert.NoError(t, mock.ExpectationsWereMet())
}
