package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/opr-api/internal/dto"
	"github.com/noah-isme/opr-api/internal/middleware"
	"github.com/noah-isme/opr-api/internal/models"
	"github.com/noah-isme/opr-api/pkg/response"
)

type articleService interface {
	CreateArticle(ctx context.Context, actor *models.JWTClaims, req dto.CreateArticleRequest) (*models.Article, error)
	GetArticleByID(ctx context.Context, id int64) (*models.Article, bool, error)
	UpdateArticleFile(ctx context.Context, id int64, actor *models.JWTClaims, req dto.UpdateArticleFileRequest) (*models.Article, error)
	ListArticlesByCreator(ctx context.Context, actor *models.JWTClaims) ([]models.ArticleSummary, error)
}

type exportService interface {
	ExportArticleReviews(ctx context.Context, articleID int64, actor *models.JWTClaims, format dto.ExportFormat) (*dto.ExportFile, error)
}

// ArticleHandler exposes article submission endpoints.
type ArticleHandler struct {
	articles articleService
	exports  exportService
}

// NewArticleHandler builds the handler.
func NewArticleHandler(articles articleService, exports exportService) *ArticleHandler {
	return &ArticleHandler{articles: articles, exports: exports}
}

// Create godoc
// @Summary Submit an article
// @Description File is base64 text, optionally prefixed with data:application/pdf;base64,
// @Tags Articles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateArticleRequest true "Article payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /article [post]
func (h *ArticleHandler) Create(c *gin.Context) {
	var req dto.CreateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidBody(err, "invalid article payload"))
		return
	}
	article, err := h.articles.CreateArticle(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, article)
}

// List godoc
// @Summary List my articles
// @Tags Articles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /article [get]
func (h *ArticleHandler) List(c *gin.Context) {
	articles, err := h.articles.ListArticlesByCreator(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, articles)
}

// Get godoc
// @Summary Get article detail
// @Description Article with creator, event and every reviewer assignment with its reviews
// @Tags Articles
// @Produce json
// @Security BearerAuth
// @Param id path int true "Article ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /article/{id} [get]
func (h *ArticleHandler) Get(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	article, hit, err := h.articles.GetArticleByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, article, middleware.ExtractMeta(c))
}

// UpdateFile godoc
// @Summary Re-submit the article file
// @Tags Articles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Article ID"
// @Param payload body dto.UpdateArticleFileRequest true "New file"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /article/{id} [put]
func (h *ArticleHandler) UpdateFile(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateArticleFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidBody(err, "invalid file payload"))
		return
	}
	article, err := h.articles.UpdateArticleFile(c.Request.Context(), id, claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, article)
}

// ExportReviews godoc
// @Summary Download the article's reviews
// @Tags Articles
// @Produce application/pdf
// @Produce text/csv
// @Security BearerAuth
// @Param id path int true "Article ID"
// @Param format query string false "pdf (default) or csv"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /article/{id}/reviews/export [get]
func (h *ArticleHandler) ExportReviews(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exports.ExportArticleReviews(c.Request.Context(), id, claimsFromContext(c), dto.ExportFormat(c.Query("format")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
