package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html/template"

	"go.uber.org/zap"

	"github.com/noah-isme/opr-api/internal/models"
	"github.com/noah-isme/opr-api/pkg/jobs"
	"github.com/noah-isme/opr-api/pkg/mailer"
)

type mailSender interface {
	Enabled() bool
	Send(ctx context.Context, msg mailer.Message) error
}

type articleReader interface {
	GetSummary(ctx context.Context, id int64) (*models.Article, error)
}

var reviewMailTemplate = template.Must(template.New("review").Parse(
	`<p>Hello {{.CreatorName}},</p>
<p>{{if .ReviewerName}}{{.ReviewerName}} has{{else}}A reviewer has{{end}} submitted a new review for your article <strong>{{.ArticleName}}</strong>.</p>
<p>Open the article to read the comments and the annotated PDF.</p>`))

// NotificationService e-mails article creators when their article receives a review.
type NotificationService struct {
	articles articleReader
	mailer   mailSender
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(articles articleReader, sender mailSender, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{articles: articles, mailer: sender, metrics: metrics, logger: logger}
}

// Register binds the notification handlers on q.
func (s *NotificationService) Register(q *jobs.Queue) {
	q.Register(JobReviewSubmitted, s.HandleReviewSubmitted)
}

// HandleReviewSubmitted processes a review.submitted job. Returned errors are retried by the queue.
func (s *NotificationService) HandleReviewSubmitted(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(ReviewSubmittedPayload)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID), zap.Any("payload", job.Payload))
		s.metrics.NotificationResult("skipped")
		return nil
	}
	if s.mailer == nil || !s.mailer.Enabled() {
		s.logger.Debug("mail disabled, skipping review notification", zap.Int64("review_id", payload.ReviewID))
		s.metrics.NotificationResult("skipped")
		return nil
	}

	article, err := s.articles.GetSummary(ctx, payload.ArticleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.NotificationResult("skipped")
			return nil
		}
		s.metrics.NotificationResult("failed")
		return fmt.Errorf("load article %d: %w", payload.ArticleID, err)
	}
	if article.Creator == nil || article.Creator.Email == "" {
		s.metrics.NotificationResult("skipped")
		return nil
	}

	var body bytes.Buffer
	if err := reviewMailTemplate.Execute(&body, map[string]string{
		"CreatorName":  article.Creator.Name,
		"ReviewerName": payload.ReviewerName,
		"ArticleName":  article.Name,
	}); err != nil {
		s.metrics.NotificationResult("failed")
		return fmt.Errorf("render review mail: %w", err)
	}

	msg := mailer.Message{
		To:      []string{article.Creator.Email},
		Subject: fmt.Sprintf("New review for %s", article.Name),
		HTML:    body.String(),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.metrics.NotificationResult("failed")
		return err
	}
	s.metrics.NotificationResult("sent")
	s.logger.Info("review notification sent",
		zap.String("job_id", job.ID),
		zap.Int64("article_id", article.ID),
		zap.Int64("review_id", payload.ReviewID),
	)
	return nil
}
