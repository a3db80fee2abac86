package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"area-resolver-api/internal/metrics"
	"area-resolver-api/internal/models"
	"area-resolver-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// AreaHandler handles administrative area lookups
type AreaHandler struct {
	service AreaService
}

// AreaService interface for dependency injection
type AreaService interface {
	ResolveArea(context.Context, float64, float64) (*models.AreaResult, error)
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// NewAreaHandler creates a new area handler
func NewAreaHandler(svc AreaService) *AreaHandler {
	return &AreaHandler{service: svc}
}

// ResolveArea handles GET /area requests
//
//	@Summary		Resolve the district containing a point
//	@Description	Queries the configured boundary layers in priority order and falls back to local containment over the primary layer.
//	@Tags			area
//	@Produce		json
//	@Param			lat	query		number	true	"Latitude (WGS84)"
//	@Param			lng	query		number	true	"Longitude (WGS84); lon is accepted as an alias"
//	@Success		200	{object}	models.AreaResult
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		502	{object}	ErrorResponse
//	@Failure		504	{object}	ErrorResponse
//	@Router			/area [get]
func (h *AreaHandler) ResolveArea(c *gin.Context) {
	latStr := c.Query("lat")
	lngStr := c.Query("lng")
	if lngStr == "" {
		lngStr = c.Query("lon")
	}

	if latStr == "" || lngStr == "" {
		h.fail(c, http.StatusBadRequest, ErrorResponse{Error: "missing required query parameters 'lat' and 'lng'"})
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		h.fail(c, http.StatusBadRequest, ErrorResponse{Error: "invalid latitude format"})
		return
	}

	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		h.fail(c, http.StatusBadRequest, ErrorResponse{Error: "invalid longitude format"})
		return
	}

	result, err := h.service.ResolveArea(c.Request.Context(), lat, lng)
	if err != nil {
		status, body := errorResponse(err)
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Float64("lat", lat).Float64("lng", lng).Msg("area resolution failed")
		}
		h.fail(c, status, body)
		return
	}

	metrics.RequestsTotal.WithLabelValues(strconv.Itoa(http.StatusOK)).Inc()
	c.JSON(http.StatusOK, result)
}

func (h *AreaHandler) fail(c *gin.Context, status int, body ErrorResponse) {
	metrics.RequestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	c.JSON(status, body)
}

// errorResponse maps a service error to an HTTP status and body.
func errorResponse(err error) (int, ErrorResponse) {
	if errors.Is(err, service.ErrInvalidCoordinates) {
		return http.StatusBadRequest, ErrorResponse{Error: "coordinates out of range"}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, ErrorResponse{Error: "boundary lookup timed out"}
	}
	if gerr, ok := models.AsGisError(err); ok {
		switch gerr.Code {
		case models.CodeNoData:
			return http.StatusNotFound, ErrorResponse{Error: gerr.Message, Code: string(gerr.Code)}
		case models.CodeNetworkError:
			return http.StatusBadGateway, ErrorResponse{Error: "boundary services unavailable", Code: string(gerr.Code)}
		}
	}
	return http.StatusInternalServerError, ErrorResponse{Error: "internal server error"}
}
