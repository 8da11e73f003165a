package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/opr-api/internal/dto"
	"github.com/noah-isme/opr-api/internal/models"
	appErrors "github.com/noah-isme/opr-api/pkg/errors"
	"github.com/noah-isme/opr-api/pkg/export"
)

type articleOutlineReader interface {
	GetOutline(ctx context.Context, id int64) (*models.Article, error)
}

var reviewExportHeaders = []string{"ID", "Reviewer", "Submitted At", "Comments", "Annotated PDF", "Original PDF"}

// ExportService renders an article's reviewer feedback as a downloadable document.
type ExportService struct {
	articles  articleOutlineReader
	renderers map[dto.ExportFormat]export.Renderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(articles articleOutlineReader, csv, pdf export.Renderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		articles: articles,
		renderers: map[dto.ExportFormat]export.Renderer{
			dto.ExportFormatCSV: csv,
			dto.ExportFormatPDF: pdf,
		},
		logger: logger,
	}
}

// ExportArticleReviews renders the flattened review list of an article.
// Only the article creator or an administrator may export.
func (s *ExportService) ExportArticleReviews(ctx context.Context, articleID int64, actor *models.JWTClaims, format dto.ExportFormat) (*dto.ExportFile, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if format == "" {
		format = dto.ExportFormatPDF
	}
	renderer, ok := s.renderers[dto.ExportFormat(strings.ToLower(string(format)))]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be pdf or csv")
	}

	article, err := s.articles.GetOutline(ctx, articleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "article not found")
		}
		return nil, appErrors.Internal(err, "failed to load article")
	}
	if article.CreatorID != actor.UserID && !actor.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the creator can export reviews")
	}

	reviews := FlattenReviews(article.ArticleReviewers)
	data, err := renderer.Render(reviewDataset(reviews), fmt.Sprintf("Reviews for %s", article.Name))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Info("reviews exported",
		zap.Int64("article_id", articleID),
		zap.String("format", renderer.Extension()),
		zap.Int("reviews", len(reviews)),
	)
	return &dto.ExportFile{
		Filename:    fmt.Sprintf("article_%d_reviews.%s", articleID, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        data,
	}, nil
}

func reviewDataset(reviews []models.FlatReview) export.Dataset {
	rows := make([]map[string]string, 0, len(reviews))
	for _, r := range reviews {
		rows = append(rows, map[string]string{
			"ID":            strconv.FormatInt(r.ID, 10),
			"Reviewer":      r.ReviewerName,
			"Submitted At":  r.CreatedAt.UTC().Format(time.RFC3339),
			"Comments":      r.Comments,
			"Annotated PDF": byteSize(r.FileSize),
			"Original PDF":  byteSize(r.OriginalFileSize),
		})
	}
	return export.Dataset{Headers: reviewExportHeaders, Rows: rows}
}

func byteSize(n int64) string {
	if n == 0 {
		return "-"
	}
	return fmt.Sprintf("%d bytes", n)
}
