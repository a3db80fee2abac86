package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "area_requests_total",
		Help: "Total number of /area requests by HTTP status",
	}, []string{"status"})
	ResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "area_resolutions_total",
		Help: "Resolver outcomes by confidence or error code",
	}, []string{"outcome"})
	LayerQueriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "area_layer_queries_total",
		Help: "Boundary layer queries by outcome (hit, miss, unusable, error)",
	}, []string{"layer", "outcome"})
	LayerQueryDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "area_layer_query_duration_ms",
		Help:    "Boundary layer query duration in milliseconds",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	}, []string{"layer"})
	FallbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "area_fallback_total",
		Help: "Client-side fallback passes by outcome",
	}, []string{"outcome"})
	FallbackDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "area_fallback_duration_ms",
		Help:    "Client-side fallback duration in milliseconds, including the bulk download",
		Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "area_cache_hits_total",
		Help: "Total result cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "area_cache_misses_total",
		Help: "Total result cache misses",
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(ResolutionsTotal)
	prometheus.MustRegister(LayerQueriesTotal)
	prometheus.MustRegister(LayerQueryDurationMs)
	prometheus.MustRegister(FallbackTotal)
	prometheus.MustRegister(FallbackDurationMs)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
}

// Handler exposes the registered metrics for scraping.
func Handler() http.Handler { return promhttp.Handler() }
