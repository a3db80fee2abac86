package service

import (
	"context"
	"errors"
	"fmt"

	"area-resolver-api/internal/metrics"
	"area-resolver-api/internal/models"

	"github.com/rs/zerolog/log"
)

// ErrInvalidCoordinates is returned for points outside the WGS84 range.
var ErrInvalidCoordinates = errors.New("service: invalid coordinates")

// AreaResolverInterface for dependency injection
type AreaResolverInterface interface {
	Resolve(ctx context.Context, point models.Point) (*models.AreaResult, error)
}

// AreaCache stores resolved areas by point. Get returns (nil, nil) on a miss.
type AreaCache interface {
	Get(ctx context.Context, point models.Point) (*models.AreaResult, error)
	Set(ctx context.Context, point models.Point, result *models.AreaResult) error
}

// AreaService contains the business logic for administrative area lookups
type AreaService struct {
	resolver AreaResolverInterface
	cache    AreaCache
}

// NewAreaService creates a new area service. cache may be nil.
func NewAreaService(resolver AreaResolverInterface, cache AreaCache) *AreaService {
	return &AreaService{resolver: resolver, cache: cache}
}

// ResolveArea validates the coordinates and resolves the enclosing district
func (s *AreaService) ResolveArea(ctx context.Context, lat, lng float64) (*models.AreaResult, error) {
	point := models.Point{Lat: lat, Lng: lng}
	if !point.Valid() {
		return nil, fmt.Errorf("%w: lat=%f lng=%f", ErrInvalidCoordinates, lat, lng)
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, point)
		if err != nil {
			log.Warn().Err(err).Msg("area cache read failed")
		}
		if cached != nil {
			metrics.CacheHitsTotal.Inc()
			return cached, nil
		}
		metrics.CacheMissesTotal.Inc()
	}

	result, err := s.resolver.Resolve(ctx, point)
	if err != nil {
		if gerr, ok := models.AsGisError(err); ok {
			metrics.ResolutionsTotal.WithLabelValues(string(gerr.Code)).Inc()
		} else {
			metrics.ResolutionsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}
	metrics.ResolutionsTotal.WithLabelValues(string(result.Confidence)).Inc()

	// Fallback answers are only kept until the layers recover.
	if s.cache != nil && result.Source != models.SourceClientFallback {
		if err := s.cache.Set(ctx, point, result); err != nil {
			log.Warn().Err(err).Msg("area cache write failed")
		}
	}

	return result, nil
}
