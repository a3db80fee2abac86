package handler

import (
	"context"
	"net/http"
	"strings"

	"area-resolver-api/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// AreaSearchHandler handles district name searches
type AreaSearchHandler struct {
	service AreaSearchService
}

// AreaSearchService interface for dependency injection
type AreaSearchService interface {
	SearchAreas(context.Context, string) ([]models.AreaSummary, error)
}

// NewAreaSearchHandler creates a new area search handler
func NewAreaSearchHandler(svc AreaSearchService) *AreaSearchHandler {
	return &AreaSearchHandler{service: svc}
}

// SearchAreas handles GET /areas requests
//
//	@Summary		Search stored districts by name
//	@Description	Case-insensitive substring match over imported boundary snapshots, for manual selection.
//	@Tags			area
//	@Produce		json
//	@Param			q	query		string	true	"Name fragment"
//	@Success		200	{array}		models.AreaSummary
//	@Failure		400	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/areas [get]
func (h *AreaSearchHandler) SearchAreas(c *gin.Context) {
	if h.service == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "area search requires a database"})
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing required query parameter 'q'"})
		return
	}

	areas, err := h.service.SearchAreas(c.Request.Context(), query)
	if err != nil {
		log.Error().Err(err).Str("q", query).Msg("area search failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if areas == nil {
		areas = []models.AreaSummary{}
	}

	c.JSON(http.StatusOK, areas)
}
