// Package metrics holds the Prometheus instruments for revlens.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache load results.
const (
	CacheHit     = "hit"
	CacheMiss    = "miss"
	CacheCorrupt = "corrupt"
)

var (
	ProfileBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "revlens_profile_build_duration_seconds",
			Help:    "Duration of a full product profile rebuild",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	ProfilesBuilt = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "revlens_product_profiles_built_total",
			Help: "Total number of product keyword profiles built",
		},
	)

	ProfileCacheLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revlens_profile_cache_loads_total",
			Help: "Profile cache load attempts by result",
		},
		[]string{"result"}, // hit, miss, corrupt
	)

	ProfileCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "revlens_profile_cache_products",
			Help: "Number of products in the current profile snapshot",
		},
	)

	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revlens_recommend_requests_total",
			Help: "Recommendation requests by outcome",
		},
		[]string{"outcome"}, // ok, empty_profile, error
	)

	NegativeReviewsAnalyzed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "revlens_negative_reviews_analyzed_total",
			Help: "Negative reviews run through keyword aggregation",
		},
	)

	AnalyzerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revlens_analyzer_errors_total",
			Help: "Morphological analyzer failures swallowed by keyword extraction",
		},
		[]string{"analyzer"},
	)

	AnalyzerBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "revlens_analyzer_circuit_breaker_state",
			Help: "Remote analyzer breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	AnalyzerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revlens_analyzer_requests_total",
			Help: "Remote analyzer requests by result",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "revlens_api_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "status"},
	)
)

// ObserveAPIRequest records one HTTP request.
func ObserveAPIRequest(route string, status int, d time.Duration) {
	APIRequestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(d.Seconds())
}
