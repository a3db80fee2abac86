package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"area-resolver-api/internal/models"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// Values are read from app.yaml and can be overridden by AREA_* environment variables.
type Config struct {
	ServerAddress           string                 `mapstructure:"server_address"`
	DBSource                string                 `mapstructure:"db_source"`
	RedisAddress            string                 `mapstructure:"redis_address"`
	RedisPassword           string                 `mapstructure:"redis_password"`
	RedisDB                 int                    `mapstructure:"redis_db"`
	CacheTTL                time.Duration          `mapstructure:"cache_ttl"`
	QueryTimeout            time.Duration          `mapstructure:"query_timeout"`
	BulkTimeout             time.Duration          `mapstructure:"bulk_timeout"`
	NearEdgeMeters          float64                `mapstructure:"near_edge_meters"`
	AlternativeRadiusMeters float64                `mapstructure:"alternative_radius_meters"`
	LogLevel                string                 `mapstructure:"log_level"`
	LogFormat               string                 `mapstructure:"log_format"`
	Layers                  []models.BoundaryLayer `mapstructure:"layers"`
}

// LoadConfig reads configuration from app.yaml in path, then the environment.
// A missing file is not an error; defaults and environment still apply.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("area")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("config: failed to decode: %w", err)
	}

	err = config.Validate()
	return config, err
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_address", ":8080")
	v.SetDefault("db_source", "")
	v.SetDefault("redis_address", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("cache_ttl", 24*time.Hour)
	v.SetDefault("query_timeout", 10*time.Second)
	v.SetDefault("bulk_timeout", 30*time.Second)
	v.SetDefault("near_edge_meters", 10.0)
	v.SetDefault("alternative_radius_meters", 20.0)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}

// Validate checks the layer list.
func (c Config) Validate() error {
	if len(c.Layers) == 0 {
		return errors.New("config: at least one boundary layer is required")
	}
	seen := make(map[string]bool, len(c.Layers))
	for i, l := range c.Layers {
		if strings.TrimSpace(l.Name) == "" {
			return fmt.Errorf("config: layers[%d]: name is required", i)
		}
		if seen[l.Name] {
			return fmt.Errorf("config: layers[%d]: duplicate name %q", i, l.Name)
		}
		seen[l.Name] = true

		switch l.KindOrDefault() {
		case models.LayerKindArcGIS:
			if strings.TrimSpace(l.EndpointBaseURL) == "" {
				return fmt.Errorf("config: layer %q: endpoint_base_url is required", l.Name)
			}
		case models.LayerKindPostGIS:
			if c.DBSource == "" {
				return fmt.Errorf("config: layer %q: postgis layers require db_source", l.Name)
			}
		default:
			return fmt.Errorf("config: layer %q: unknown kind %q", l.Name, l.Kind)
		}
	}
	if c.NearEdgeMeters < 0 || c.AlternativeRadiusMeters < 0 {
		return errors.New("config: distance thresholds must not be negative")
	}
	return nil
}
