// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics registers the Prometheus collectors for the enrichment
// engine and offers small recording helpers so callers never touch label
// values directly.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cache
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neighborfit_cache_hits_total",
			Help: "Cache lookups that returned a valid entry",
		},
		[]string{"source"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neighborfit_cache_misses_total",
			Help: "Cache lookups that found no valid entry",
		},
		[]string{"source"},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "neighborfit_cache_entries",
			Help: "Entries currently held by the cache store",
		},
	)

	CachePersistErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "neighborfit_cache_persist_errors_total",
			Help: "Failed writes of the durable cache file",
		},
	)

	CacheSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "neighborfit_cache_swept_total",
			Help: "Expired entries removed by sweeps",
		},
	)

	// Upstream sources
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neighborfit_upstream_requests_total",
			Help: "Upstream calls by source, upstream and outcome",
		},
		[]string{"source", "upstream", "outcome"}, // outcome: ok, error, breaker_open
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "neighborfit_upstream_duration_seconds",
			Help:    "Upstream call duration including retries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"upstream"},
	)

	Fallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neighborfit_fallbacks_total",
			Help: "Adapter results served from a static fallback or error marker",
		},
		[]string{"source"},
	)

	RateLimitWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "neighborfit_ratelimit_wait_seconds",
			Help:    "Time spent queued for a source slot",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 3, 6, 12, 30, 60},
		},
		[]string{"source"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "neighborfit_breaker_state",
			Help: "Circuit breaker state per upstream (0=closed, 1=half-open, 2=open)",
		},
		[]string{"upstream"},
	)

	// Matching
	MatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "neighborfit_match_duration_seconds",
			Help:    "End-to-end match duration",
			Buckets: []float64{0.001, 0.01, 0.1, 1, 5, 15, 30, 60, 90},
		},
		[]string{"data_source"},
	)

	EnrichmentWarnings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "neighborfit_enrichment_warnings_total",
			Help: "Realtime matches whose every result fell back to baseline features",
		},
	)

	CatalogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "neighborfit_catalog_candidates",
			Help: "Candidates currently loaded in the catalog",
		},
	)
)

// RecordCacheLookup counts a hit or miss for source.
func RecordCacheLookup(source string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(source).Inc()
		return
	}
	CacheMisses.WithLabelValues(source).Inc()
}

// RecordUpstream counts one upstream call and its duration.
func RecordUpstream(source, upstream, outcome string, duration time.Duration) {
	UpstreamRequests.WithLabelValues(source, upstream, outcome).Inc()
	UpstreamDuration.WithLabelValues(upstream).Observe(duration.Seconds())
}

// RecordFallback counts a degraded adapter result.
func RecordFallback(source string) {
	Fallbacks.WithLabelValues(source).Inc()
}

// RecordRateLimitWait observes how long a caller queued for source.
func RecordRateLimitWait(source string, wait time.Duration) {
	RateLimitWait.WithLabelValues(source).Observe(wait.Seconds())
}

// SetBreakerState publishes a breaker state as 0, 1 or 2.
func SetBreakerState(upstream string, state int) {
	BreakerState.WithLabelValues(upstream).Set(float64(state))
}

// RecordMatch observes a match and counts its enrichment warning.
func RecordMatch(dataSource string, duration time.Duration, warning bool) {
	MatchDuration.WithLabelValues(dataSource).Observe(duration.Seconds())
	if warning {
		EnrichmentWarnings.Inc()
	}
}
