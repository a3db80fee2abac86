package repository

import (
	"context"
	"errors"
	"fmt"

	"area-resolver-api/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
)

// Schema creates the boundary snapshot table used by postgis layers.
const Schema = `
	CREATE EXTENSION IF NOT EXISTS postgis;

	CREATE TABLE IF NOT EXISTS boundaries (
		id BIGSERIAL PRIMARY KEY,
		layer VARCHAR(255) NOT NULL,
		area_name VARCHAR(255) NOT NULL DEFAULT '',
		attributes JSONB NOT NULL DEFAULT '{}'::jsonb,
		geom GEOMETRY(GEOMETRY, 4326) NOT NULL
	);
	CREATE INDEX IF NOT EXISTS boundaries_layer_idx ON boundaries (layer);
	CREATE INDEX IF NOT EXISTS boundaries_geom_idx ON boundaries USING GIST (geom);
	CREATE INDEX IF NOT EXISTS boundaries_area_name_idx ON boundaries (lower(area_name));
`

// Repository stores boundary snapshots in PostgreSQL/PostGIS
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the boundaries table and indexes if missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("repository: failed to create schema: %w", err)
	}
	return nil
}

// NameFunc extracts the display name stored alongside a feature.
type NameFunc func(f *geojson.Feature) string

// ReplaceLayer atomically swaps the stored features of a layer. Non-polygon
// features are skipped. nameOf may be nil.
func (r *Repository) ReplaceLayer(ctx context.Context, layer string, features []*geojson.Feature, nameOf NameFunc) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM boundaries WHERE layer = $1`, layer); err != nil {
		return 0, fmt.Errorf("repository: failed to clear layer %s: %w", layer, err)
	}

	batch := &pgx.Batch{}
	inserted := 0
	for _, f := range features {
		if f == nil || !isAreal(f.Geometry) {
			continue
		}
		attrs := map[string]interface{}(f.Properties)
		if attrs == nil {
			attrs = map[string]interface{}{}
		}
		name := ""
		if nameOf != nil {
			name = nameOf(f)
		}
		batch.Queue(
			`INSERT INTO boundaries (layer, area_name, attributes, geom) VALUES ($1, $2, $3, ST_GeomFromEWKT($4))`,
			layer, name, attrs, "SRID=4326;"+wkt.MarshalString(f.Geometry),
		)
		inserted++
	}

	if inserted > 0 {
		br := tx.SendBatch(ctx, batch)
		for i := 0; i < inserted; i++ {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return 0, fmt.Errorf("repository: failed to insert feature %d: %w", i, err)
			}
		}
		if err := br.Close(); err != nil {
			return 0, fmt.Errorf("repository: failed to finish batch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("repository: failed to commit layer %s: %w", layer, err)
	}
	return inserted, nil
}

// CountFeatures returns the number of stored features for a layer
func (r *Repository) CountFeatures(ctx context.Context, layer string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM boundaries WHERE layer = $1`, layer).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to count features: %w", err)
	}
	return count, nil
}

// SearchAreasByName performs a case-insensitive substring search over stored area names
func (r *Repository) SearchAreasByName(ctx context.Context, query string) ([]models.AreaSummary, error) {
	sql := `
		SELECT DISTINCT layer, area_name
		FROM boundaries
		WHERE area_name <> ''
		AND lower(area_name) LIKE '%' || lower($1) || '%'
		ORDER BY area_name, layer
		LIMIT 20
	`

	rows, err := r.db.Query(ctx, sql, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to execute search query: %w", err)
	}
	defer rows.Close()

	var areas []models.AreaSummary
	for rows.Next() {
		area := models.AreaSummary{AreaType: models.AreaTypeDistrict}
		if err := rows.Scan(&area.Layer, &area.AreaName); err != nil {
			return nil, fmt.Errorf("repository: failed to scan area: %w", err)
		}
		areas = append(areas, area)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating rows: %w", err)
	}

	return areas, nil
}

// QueryContainingFeature performs a spatial query for the stored polygon intersecting the point
func (r *Repository) QueryContainingFeature(ctx context.Context, layer models.BoundaryLayer, point models.Point) (*geojson.Feature, error) {
	sql := `
		SELECT attributes, ST_AsGeoJSON(geom)
		FROM boundaries
		WHERE layer = $1
		AND ST_Intersects(geom, ST_SetSRID(ST_MakePoint($2, $3), 4326))
		ORDER BY id
		LIMIT 1
	`

	var attrs map[string]interface{}
	var geomJSON string
	err := r.db.QueryRow(ctx, sql, layer.Name, point.Lng, point.Lat).Scan(&attrs, &geomJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, models.NewNetworkError("repository: failed to execute spatial query", err)
	}

	f, err := toFeature(attrs, geomJSON)
	if err != nil {
		return nil, models.NewNetworkError("repository: failed to decode geometry", err)
	}
	return f, nil
}

// DownloadAllFeatures returns every stored feature of a layer in insertion order
func (r *Repository) DownloadAllFeatures(ctx context.Context, layer models.BoundaryLayer) ([]*geojson.Feature, error) {
	rows, err := r.db.Query(ctx, `SELECT attributes, ST_AsGeoJSON(geom) FROM boundaries WHERE layer = $1 ORDER BY id`, layer.Name)
	if err != nil {
		return nil, models.NewNetworkError("repository: failed to execute layer query", err)
	}
	defer rows.Close()

	var features []*geojson.Feature
	for rows.Next() {
		var attrs map[string]interface{}
		var geomJSON string
		if err := rows.Scan(&attrs, &geomJSON); err != nil {
			return nil, models.NewNetworkError("repository: failed to scan feature", err)
		}
		f, err := toFeature(attrs, geomJSON)
		if err != nil {
			return nil, models.NewNetworkError("repository: failed to decode geometry", err)
		}
		features = append(features, f)
	}

	if err := rows.Err(); err != nil {
		return nil, models.NewNetworkError("repository: error iterating rows", err)
	}

	return features, nil
}

func toFeature(attrs map[string]interface{}, geomJSON string) (*geojson.Feature, error) {
	g, err := geojson.UnmarshalGeometry([]byte(geomJSON))
	if err != nil {
		return nil, err
	}
	f := geojson.NewFeature(g.Geometry())
	for k, v := range attrs {
		f.Properties[k] = v
	}
	return f, nil
}

func isAreal(g orb.Geometry) bool {
	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon:
		return true
	}
	return false
}
