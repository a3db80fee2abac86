package repository

import (
	"context"
	"fmt"

	"area-resolver-api/internal/models"

	"github.com/paulmach/orb/geojson"
)

// Source is implemented by every boundary backend.
type Source interface {
	QueryContainingFeature(ctx context.Context, layer models.BoundaryLayer, point models.Point) (*geojson.Feature, error)
	DownloadAllFeatures(ctx context.Context, layer models.BoundaryLayer) ([]*geojson.Feature, error)
}

// SourceRouter dispatches each layer to the backend registered for its kind.
type SourceRouter struct {
	sources map[string]Source
}

// NewSourceRouter creates an empty router
func NewSourceRouter() *SourceRouter {
	return &SourceRouter{sources: make(map[string]Source)}
}

// Register binds a layer kind to a backend. A nil source is ignored.
func (r *SourceRouter) Register(kind string, src Source) *SourceRouter {
	if src != nil {
		r.sources[kind] = src
	}
	return r
}

func (r *SourceRouter) route(layer models.BoundaryLayer) (Source, error) {
	src, ok := r.sources[layer.KindOrDefault()]
	if !ok {
		return nil, models.NewNetworkError(fmt.Sprintf("layer %s: no backend for kind %q", layer.Name, layer.KindOrDefault()), nil)
	}
	return src, nil
}

// QueryContainingFeature forwards to the layer's backend
func (r *SourceRouter) QueryContainingFeature(ctx context.Context, layer models.BoundaryLayer, point models.Point) (*geojson.Feature, error) {
	src, err := r.route(layer)
	if err != nil {
		return nil, err
	}
	return src.QueryContainingFeature(ctx, layer, point)
}

// DownloadAllFeatures forwards to the layer's backend
func (r *SourceRouter) DownloadAllFeatures(ctx context.Context, layer models.BoundaryLayer) ([]*geojson.Feature, error) {
	src, err := r.route(layer)
	if err != nil {
		return nil, err
	}
	return src.DownloadAllFeatures(ctx, layer)
}
