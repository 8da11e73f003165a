package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/opr-api/internal/middleware"
	"github.com/noah-isme/opr-api/internal/models"
	"github.com/noah-isme/opr-api/pkg/response"
)

type eventService interface {
	ListUpcoming(ctx context.Context) ([]models.Event, bool, error)
}

// EventHandler exposes calls for papers.
type EventHandler struct {
	service eventService
}

// NewEventHandler builds the handler.
func NewEventHandler(service eventService) *EventHandler {
	return &EventHandler{service: service}
}

// List godoc
// @Summary List upcoming events
// @Description Events whose end date is today or later, ordered by start date
// @Tags Events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /event [get]
func (h *EventHandler) List(c *gin.Context) {
	events, hit, err := h.service.ListUpcoming(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, events, middleware.ExtractMeta(c))
}
