package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/opr-api/internal/dto"
	"github.com/noah-isme/opr-api/internal/models"
	"github.com/noah-isme/opr-api/pkg/response"
)

type reviewService interface {
	ListReviewsForReviewer(ctx context.Context, reviewerID int64, actor *models.JWTClaims) ([]models.ArticleReviewer, error)
	SubmitReview(ctx context.Context, articleReviewerID int64, actor *models.JWTClaims, req dto.SubmitReviewRequest) (*models.Review, error)
	ListReviewsForArticle(ctx context.Context, articleID int64) ([]models.FlatReview, error)
	AssignReviewer(ctx context.Context, articleID int64, actor *models.JWTClaims, req dto.AssignReviewerRequest) (*models.ArticleReviewer, error)
}

// ReviewHandler exposes reviewer assignment and review endpoints.
type ReviewHandler struct {
	service reviewService
}

// NewReviewHandler builds the handler.
func NewReviewHandler(service reviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// ListForReviewer godoc
// @Summary List a reviewer's assignments
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Param userId path int true "Reviewer user ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /article/reviewer/{userId} [get]
func (h *ReviewHandler) ListForReviewer(c *gin.Context) {
	reviewerID, err := idParam(c, "userId")
	if err != nil {
		response.Error(c, err)
		return
	}
	assignments, err := h.service.ListReviewsForReviewer(c.Request.Context(), reviewerID, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments)
}

// Submit godoc
// @Summary Submit a review
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ArticleReviewer ID"
// @Param payload body dto.SubmitReviewRequest true "Review payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /article-reviewer/{id}/review [post]
func (h *ReviewHandler) Submit(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidBody(err, "invalid review payload"))
		return
	}
	review, err := h.service.SubmitReview(c.Request.Context(), id, claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, review)
}

// ListForArticle godoc
// @Summary List an article's reviews
// @Description Reviews from every reviewer, labelled with the reviewer name, newest first
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Param id path int true "Article ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /article/{id}/reviews [get]
func (h *ReviewHandler) ListForArticle(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	reviews, err := h.service.ListReviewsForArticle(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviews)
}

// Assign godoc
// @Summary Assign a reviewer to an article
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Article ID"
// @Param payload body dto.AssignReviewerRequest true "Reviewer"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /article/{id}/reviewer [post]
func (h *ReviewHandler) Assign(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.AssignReviewerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidBody(err, "invalid reviewer payload"))
		return
	}
	assignment, err := h.service.AssignReviewer(c.Request.Context(), id, claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}
