package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/opr-api/internal/models"
)

func TestReviewCreateStoresMissingOriginalAsNull(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO reviews (article_reviewer_id, comments, file, original_file, created_at)")).
		WithArgs(int64(3), "fine", []byte("%PDF"), nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(44)))

	review := &models.Review{ArticleReviewerID: 3, Comments: "fine", File: []byte("%PDF")}
	require.NoError(t, repo.Create(context.Background(), review))
	assert.Equal(t, int64(44), review.ID)
	assert.False(t, review.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
