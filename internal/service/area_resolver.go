package service

import (
	"context"
	"fmt"
	"time"

	"area-resolver-api/internal/geometry"
	"area-resolver-api/internal/metrics"
	"area-resolver-api/internal/models"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultNearEdgeMeters is the boundary distance under which a match is ambiguous.
	DefaultNearEdgeMeters = 10.0

	// DefaultAlternativeRadiusMeters bounds which neighbouring areas are offered as alternatives.
	DefaultAlternativeRadiusMeters = 20.0

	defaultFallbackTimeout = 30 * time.Second
)

// BoundarySource interface for dependency injection
type BoundarySource interface {
	QueryContainingFeature(ctx context.Context, layer models.BoundaryLayer, point models.Point) (*geojson.Feature, error)
	DownloadAllFeatures(ctx context.Context, layer models.BoundaryLayer) ([]*geojson.Feature, error)
}

// AttemptOutcome is the result of querying one layer in the tiered pass.
type AttemptOutcome string

const (
	OutcomeHit      AttemptOutcome = "hit"
	OutcomeMiss     AttemptOutcome = "miss"
	OutcomeUnusable AttemptOutcome = "unusable"
	OutcomeError    AttemptOutcome = "error"
)

// LayerAttempt records one layer query.
type LayerAttempt struct {
	Layer   string
	Outcome AttemptOutcome
	Err     error
}

// Resolution is a resolver result together with how it was reached.
type Resolution struct {
	Result       *models.AreaResult
	Attempts     []LayerAttempt
	UsedFallback bool
}

// ResolverOption configures an AreaResolver.
type ResolverOption func(*AreaResolver)

// WithLogger sets the logger used for layer and fallback diagnostics.
func WithLogger(l zerolog.Logger) ResolverOption {
	return func(r *AreaResolver) {
		r.logger = l
	}
}

// WithThresholds overrides the near-edge and alternative radius, in meters.
func WithThresholds(nearEdgeMeters, alternativeRadiusMeters float64) ResolverOption {
	return func(r *AreaResolver) {
		if nearEdgeMeters > 0 {
			r.nearEdgeMeters = nearEdgeMeters
		}
		if alternativeRadiusMeters > 0 {
			r.alternativeRadiusMeters = alternativeRadiusMeters
		}
	}
}

// WithFallbackTimeout bounds the client-side fallback pass.
func WithFallbackTimeout(d time.Duration) ResolverOption {
	return func(r *AreaResolver) {
		if d > 0 {
			r.fallbackTimeout = d
		}
	}
}

// WithNormalizer replaces the default attribute normalizer.
func WithNormalizer(n *Normalizer) ResolverOption {
	return func(r *AreaResolver) {
		if n != nil {
			r.normalizer = n
		}
	}
}

// AreaResolver finds the district enclosing a point by querying boundary
// layers in priority order, falling back to client-side containment over the
// primary layer when no layer yields a usable name.
type AreaResolver struct {
	layers                  []models.BoundaryLayer
	source                  BoundarySource
	normalizer              *Normalizer
	logger                  zerolog.Logger
	nearEdgeMeters          float64
	alternativeRadiusMeters float64
	fallbackTimeout         time.Duration
}

// NewAreaResolver creates a resolver over layers; layers[0] is the primary layer.
func NewAreaResolver(layers []models.BoundaryLayer, source BoundarySource, opts ...ResolverOption) *AreaResolver {
	r := &AreaResolver{
		layers:                  append([]models.BoundaryLayer(nil), layers...),
		source:                  source,
		normalizer:              NewNormalizer(),
		logger:                  log.Logger,
		nearEdgeMeters:          DefaultNearEdgeMeters,
		alternativeRadiusMeters: DefaultAlternativeRadiusMeters,
		fallbackTimeout:         defaultFallbackTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the administrative area containing point.
func (r *AreaResolver) Resolve(ctx context.Context, point models.Point) (*models.AreaResult, error) {
	res, err := r.ResolveWithTrace(ctx, point)
	if err != nil {
		return nil, err
	}
	return res.Result, nil
}

// ResolveWithTrace is Resolve plus the per-layer attempts. The returned
// Resolution is non-nil even on error.
func (r *AreaResolver) ResolveWithTrace(ctx context.Context, point models.Point) (*Resolution, error) {
	res := &Resolution{}
	if len(r.layers) == 0 {
		return res, models.NewNoDataError("no boundary layers configured")
	}

	for _, layer := range r.layers {
		if err := ctx.Err(); err != nil {
			return res, cancelled(err)
		}

		attempt, result := r.queryLayer(ctx, layer, point)
		res.Attempts = append(res.Attempts, attempt)

		if err := ctx.Err(); err != nil {
			return res, cancelled(err)
		}
		if result != nil {
			res.Result = result
			return res, nil
		}
	}

	res.UsedFallback = true
	start := time.Now()
	result, err := r.resolveOnClient(ctx, point)
	metrics.FallbackDurationMs.Observe(float64(time.Since(start).Milliseconds()))

	if ctxErr := ctx.Err(); ctxErr != nil {
		metrics.FallbackTotal.WithLabelValues("cancelled").Inc()
		return res, cancelled(ctxErr)
	}
	if err != nil {
		gerr, ok := models.AsGisError(err)
		if !ok {
			gerr = models.NewNetworkError("client-side fallback failed", err)
		}
		metrics.FallbackTotal.WithLabelValues(string(gerr.Code)).Inc()
		r.logger.Warn().Err(err).Float64("lat", point.Lat).Float64("lng", point.Lng).Msg("client-side fallback failed")
		return res, gerr
	}

	metrics.FallbackTotal.WithLabelValues(string(result.Confidence)).Inc()
	res.Result = result
	return res, nil
}

func (r *AreaResolver) queryLayer(ctx context.Context, layer models.BoundaryLayer, point models.Point) (LayerAttempt, *models.AreaResult) {
	attempt := LayerAttempt{Layer: layer.Name}

	start := time.Now()
	f, err := r.source.QueryContainingFeature(ctx, layer, point)
	metrics.LayerQueryDurationMs.WithLabelValues(layer.Name).Observe(float64(time.Since(start).Milliseconds()))

	var result *models.AreaResult
	switch {
	case err != nil:
		attempt.Outcome = OutcomeError
		attempt.Err = err
	case f == nil:
		attempt.Outcome = OutcomeMiss
	default:
		formatted, ferr := r.normalizer.FormatResult(f)
		if ferr != nil {
			attempt.Outcome = OutcomeUnusable
			attempt.Err = ferr
			break
		}
		attempt.Outcome = OutcomeHit
		formatted.Confidence = models.ConfidenceHigh
		formatted.Source = layer.Name
		result = &formatted
	}

	metrics.LayerQueriesTotal.WithLabelValues(layer.Name, string(attempt.Outcome)).Inc()
	r.logger.Debug().
		Str("layer", layer.Name).
		Str("outcome", string(attempt.Outcome)).
		AnErr("err", attempt.Err).
		Msg("boundary layer queried")

	return attempt, result
}

type candidate struct {
	result       models.AreaResult
	contains     bool
	boundaryDist float64
	// featureDist is zero when contains is set.
	featureDist float64
}

// resolveOnClient downloads the primary layer once and evaluates containment locally.
func (r *AreaResolver) resolveOnClient(ctx context.Context, point models.Point) (*models.AreaResult, error) {
	primary := r.layers[0]

	ctx, cancel := context.WithTimeout(ctx, r.fallbackTimeout)
	defer cancel()

	features, err := r.source.DownloadAllFeatures(ctx, primary)
	if err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return nil, models.NewNoDataError(fmt.Sprintf("layer %s returned no features", primary.Name))
	}

	p := point.Orb()
	var candidates []candidate
	for _, f := range features {
		if f == nil || f.Geometry == nil {
			continue
		}
		formatted, ferr := r.normalizer.FormatResult(f)
		if ferr != nil {
			r.logger.Debug().Err(ferr).Str("layer", primary.Name).Msg("skipping unnamed feature")
			continue
		}
		formatted.Source = models.SourceClientFallback
		candidates = append(candidates, candidate{
			result:       formatted,
			contains:     geometry.PointInPolygon(p, f.Geometry),
			boundaryDist: geometry.MinDistanceToBoundary(p, f.Geometry),
			featureDist:  geometry.DistanceToFeature(p, f.Geometry),
		})
	}
	if len(candidates) == 0 {
		return nil, models.NewNoDataError(fmt.Sprintf("layer %s has no named features", primary.Name))
	}

	var containing []int
	for i, c := range candidates {
		if c.contains {
			containing = append(containing, i)
		}
	}

	best := -1
	confidence := models.ConfidenceHigh
	var alternatives []models.AreaResult

	if len(containing) > 0 {
		best = containing[0]
		switch {
		case candidates[best].boundaryDist <= r.nearEdgeMeters:
			confidence = models.ConfidenceLow
			alternatives = r.nearby(candidates, best)
		case len(containing) > 1:
			confidence = models.ConfidenceLow
			alternatives = r.distinct(candidates, best, containing[1:])
		}
	} else {
		for i, c := range candidates {
			if best < 0 || c.boundaryDist < candidates[best].boundaryDist {
				best = i
			}
		}
		if candidates[best].boundaryDist > r.nearEdgeMeters {
			return nil, models.NewNoDataError(fmt.Sprintf(
				"outside known administrative areas (nearest boundary %.0fm away)", candidates[best].boundaryDist))
		}
		confidence = models.ConfidenceLow
		alternatives = r.nearby(candidates, best)
	}

	result := candidates[best].result
	result.Confidence = confidence
	result.Alternatives = alternatives

	r.logger.Debug().
		Str("area", result.AreaName).
		Str("confidence", string(confidence)).
		Float64("boundary_m", candidates[best].boundaryDist).
		Int("alternatives", len(alternatives)).
		Msg("client-side fallback resolved")

	return &result, nil
}

// nearby lists candidates within the alternative radius, excluding best.
func (r *AreaResolver) nearby(candidates []candidate, best int) []models.AreaResult {
	var idx []int
	for i, c := range candidates {
		if i != best && c.featureDist <= r.alternativeRadiusMeters {
			idx = append(idx, i)
		}
	}
	return r.distinct(candidates, best, idx)
}

// distinct returns the results at idx, dropping names equal to best's or already seen.
// The slice is never nil.
func (r *AreaResolver) distinct(candidates []candidate, best int, idx []int) []models.AreaResult {
	seen := map[string]bool{candidates[best].result.AreaName: true}
	out := make([]models.AreaResult, 0, len(idx))
	for _, i := range idx {
		name := candidates[i].result.AreaName
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, candidates[i].result)
	}
	return out
}

func cancelled(err error) error {
	return fmt.Errorf("service: resolution cancelled: %w", err)
}
