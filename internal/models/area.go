package models

import (
	"encoding/json"

	"github.com/paulmach/orb"
)

// AreaTypeDistrict is the only area type this service resolves.
const AreaTypeDistrict = "District"

// SourceClientFallback marks results computed from a bulk download instead of a server-side query.
const SourceClientFallback = "client-fallback"

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point lies within the WGS84 coordinate range.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Orb returns the point in orb's lon/lat order.
func (p Point) Orb() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// Layer kinds
const (
	LayerKindArcGIS  = "arcgis"
	LayerKindPostGIS = "postgis"
)

// BoundaryLayer is one configured polygon source. Order in the configured list is priority.
type BoundaryLayer struct {
	Name            string `mapstructure:"name" json:"name"`
	EndpointBaseURL string `mapstructure:"endpoint_base_url" json:"endpointBaseUrl"`
	Description     string `mapstructure:"description" json:"description"`
	Kind            string `mapstructure:"kind" json:"kind"`
}

// KindOrDefault returns the layer kind, treating an empty kind as arcgis.
func (l BoundaryLayer) KindOrDefault() string {
	if l.Kind == "" {
		return LayerKindArcGIS
	}
	return l.Kind
}

type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// AreaResult is the resolved administrative area for a point.
// Alternatives is non-nil exactly when Confidence is low.
type AreaResult struct {
	AreaName     string       `json:"areaName"`
	AreaType     string       `json:"areaType"`
	Confidence   Confidence   `json:"confidence,omitempty"`
	Source       string       `json:"source"`
	Alternatives []AreaResult `json:"alternatives,omitempty"`
}

// MarshalJSON emits alternatives whenever the slice is non-nil, so a low
// confidence result without neighbours still carries an empty list.
func (r AreaResult) MarshalJSON() ([]byte, error) {
	type plain AreaResult
	if r.Alternatives == nil {
		return json.Marshal(plain(r))
	}
	return json.Marshal(struct {
		plain
		Alternatives []AreaResult `json:"alternatives"`
	}{plain: plain(r), Alternatives: r.Alternatives})
}

// UnmarshalJSON keeps an explicit empty alternatives list non-nil.
func (r *AreaResult) UnmarshalJSON(data []byte) error {
	type plain AreaResult
	var aux struct {
		plain
		Alternatives *[]AreaResult `json:"alternatives"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = AreaResult(aux.plain)
	if aux.Alternatives != nil {
		r.Alternatives = *aux.Alternatives
		if r.Alternatives == nil {
			r.Alternatives = []AreaResult{}
		}
	}
	return nil
}

// AreaSummary is a stored area offered for manual selection.
type AreaSummary struct {
	Layer    string `json:"layer"`
	AreaName string `json:"areaName"`
	AreaType string `json:"areaType"`
}
