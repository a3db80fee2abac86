package service

import (
	"context"
	"fmt"
	"strings"

	"area-resolver-api/internal/models"
)

// AreaSearchService lists stored districts by name, for manual area selection
// when a point cannot be resolved
type AreaSearchService struct {
	repo AreaSearchRepository
}

// AreaSearchRepository interface for dependency injection
type AreaSearchRepository interface {
	SearchAreasByName(ctx context.Context, query string) ([]models.AreaSummary, error)
}

// NewAreaSearchService creates a new area search service
func NewAreaSearchService(repo AreaSearchRepository) *AreaSearchService {
	return &AreaSearchService{repo: repo}
}

// SearchAreas searches stored boundary snapshots by area name
func (s *AreaSearchService) SearchAreas(ctx context.Context, query string) ([]models.AreaSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("service: query cannot be empty")
	}

	areas, err := s.repo.SearchAreasByName(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("service: failed to search areas: %w", err)
	}

	return areas, nil
}
