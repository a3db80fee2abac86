package repository

import (
	"context"
	"testing"

	"area-resolver-api/internal/models"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	name string
}

func (s staticSource) QueryContainingFeature(context.Context, models.BoundaryLayer, models.Point) (*geojson.Feature, error) {
	f := geojson.NewFeature(orb.Polygon{})
	f.Properties["name"] = s.name
	return f, nil
}

func (s staticSource) DownloadAllFeatures(ctx context.Context, layer models.BoundaryLayer) ([]*geojson.Feature, error) {
	f, _ := s.QueryContainingFeature(ctx, layer, models.Point{})
	return []*geojson.Feature{f}, nil
}

func TestSourceRouter(t *testing.T) {
	router := NewSourceRouter().
		Register(models.LayerKindArcGIS, staticSource{name: "remote"}).
		Register(models.LayerKindPostGIS, staticSource{name: "local"})

	ctx := context.Background()

	f, err := router.QueryContainingFeature(ctx, models.BoundaryLayer{Name: "default kind"}, models.Point{})
	require.NoError(t, err)
	assert.Equal(t, "remote", f.Properties["name"])

	all, err := router.DownloadAllFeatures(ctx, models.BoundaryLayer{Name: "snapshot", Kind: models.LayerKindPostGIS})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "local", all[0].Properties["name"])

	_, err = router.QueryContainingFeature(ctx, models.BoundaryLayer{Name: "odd", Kind: "wfs"}, models.Point{})
	assert.ErrorIs(t, err, models.ErrNetwork)
}
