package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"area-resolver-api/internal/config"
	"area-resolver-api/internal/models"
	"area-resolver-api/internal/repository"
	"area-resolver-api/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paulmach/orb/geojson"
)

func main() {
	layerName := flag.String("layer", "", "Name to store the boundaries under")
	file := flag.String("file", "", "Path to a GeoJSON FeatureCollection (default: bulk download of the configured layer)")
	configDir := flag.String("config", "configs", "Directory containing app.yaml")
	flag.Parse()

	if *layerName == "" {
		fmt.Println("Error: --layer flag is required")
		os.Exit(1)
	}

	// Load config
	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if cfg.DBSource == "" {
		fmt.Println("Error: db_source is not configured")
		os.Exit(1)
	}

	ctx := context.Background()

	var features []*geojson.Feature
	if *file != "" {
		fmt.Printf("Starting import from file: %s\n", *file)
		features, err = parseGeoJSON(*file)
	} else {
		fmt.Printf("Starting bulk download of layer: %s\n", *layerName)
		features, err = download(ctx, cfg, *layerName)
	}
	if err != nil {
		fmt.Printf("Error reading boundaries: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Parsed %d features\n", len(features))

	// Connect to DB
	conn, err := pgxpool.New(ctx, cfg.DBSource)
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	repo := repository.NewRepository(conn)

	// Ensure table exists
	if err := repo.EnsureSchema(ctx); err != nil {
		fmt.Printf("Error creating table: %v\n", err)
		os.Exit(1)
	}

	// Insert records
	normalizer := service.NewNormalizer()
	inserted, err := repo.ReplaceLayer(ctx, *layerName, features, func(f *geojson.Feature) string {
		name, _ := normalizer.ExtractName(f.Properties)
		return name
	})
	if err != nil {
		fmt.Printf("Error inserting features: %v\n", err)
		os.Exit(1)
	}

	// Verify data
	if err := verifyImport(ctx, repo, *layerName, inserted); err != nil {
		fmt.Printf("Error verifying import: %v\n", err)
		os.Exit(1)
	}

	if skipped := len(features) - inserted; skipped > 0 {
		fmt.Printf("Skipped %d non-polygon features\n", skipped)
	}
	fmt.Printf("Successfully imported %d features into layer %s\n", inserted, *layerName)
}

func parseGeoJSON(filePath string) ([]*geojson.Feature, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode feature collection: %w", err)
	}
	return fc.Features, nil
}

func download(ctx context.Context, cfg config.Config, name string) ([]*geojson.Feature, error) {
	var layer *models.BoundaryLayer
	for i := range cfg.Layers {
		if cfg.Layers[i].Name == name {
			layer = &cfg.Layers[i]
			break
		}
	}
	if layer == nil {
		return nil, fmt.Errorf("layer %q is not configured", name)
	}
	if layer.KindOrDefault() != models.LayerKindArcGIS {
		return nil, fmt.Errorf("layer %q is %s, only arcgis layers can be downloaded", name, layer.KindOrDefault())
	}

	// Imports are offline; allow a longer bulk download than the request path.
	client := repository.NewArcGISClient(
		repository.WithQueryTimeout(cfg.QueryTimeout),
		repository.WithBulkTimeout(10*time.Minute),
	)
	return client.DownloadAllFeatures(ctx, *layer)
}

func verifyImport(ctx context.Context, repo *repository.Repository, layer string, expectedCount int) error {
	count, err := repo.CountFeatures(ctx, layer)
	if err != nil {
		return fmt.Errorf("failed to count features: %w", err)
	}

	if count != expectedCount {
		return fmt.Errorf("feature count mismatch: expected %d, got %d", expectedCount, count)
	}

	// Check a sample feature
	if expectedCount > 0 {
		f, err := repo.DownloadAllFeatures(ctx, models.BoundaryLayer{Name: layer})
		if err != nil {
			return fmt.Errorf("failed to read back features: %w", err)
		}
		if len(f) > 0 {
			fmt.Printf("Sample feature: %s %v\n", f[0].Geometry.GeoJSONType(), f[0].Properties)
		}
	}
	return nil
}
