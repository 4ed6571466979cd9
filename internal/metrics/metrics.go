// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline Metrics
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinerank_pipeline_runs_total",
			Help: "Total number of recommendation pipeline runs",
		},
		[]string{"outcome"}, // "ok", "exhausted"
	)

	PipelineTierRecommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinerank_pipeline_tier_recommendations_total",
			Help: "Recommendations contributed by each cascade tier",
		},
		[]string{"tier"},
	)

	PipelineTierFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinerank_pipeline_tier_failures_total",
			Help: "Cascade tier failures recovered by advancing to the next tier",
		},
		[]string{"tier"},
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cinerank_pipeline_duration_seconds",
			Help:    "Duration of one recommendation pipeline run",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Cache Metrics
	CacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinerank_cache_operations_total",
			Help: "Cache operations by type and result",
		},
		[]string{"op", "result"},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinerank_cache_entries",
			Help: "Current number of entries in the memory tier",
		},
	)

	CacheDurableDegraded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinerank_cache_durable_degraded",
			Help: "1 when the durable cache tier has failed and the store runs memory-only",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cinerank_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinerank_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinerank_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Catalog Metrics
	CatalogFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinerank_catalog_fetches_total",
			Help: "Catalog page fetches by endpoint and result",
		},
		[]string{"endpoint", "result"}, // "ok", "cached", "failed"
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinerank_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinerank_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinerank_db_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinerank_db_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// Event Metrics
	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinerank_events_processed_total",
			Help: "Watch events processed by result",
		},
		[]string{"result"}, // "ok", "invalid", "failed"
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordPipelineRun records the outcome and duration of one pipeline run.
func RecordPipelineRun(outcome string, duration time.Duration) {
	PipelineRuns.WithLabelValues(outcome).Inc()
	PipelineDuration.Observe(duration.Seconds())
}

// RecordTier records one tier's contribution and whether it failed.
func RecordTier(tier string, produced int, failed bool) {
	if produced > 0 {
		PipelineTierRecommendations.WithLabelValues(tier).Add(float64(produced))
	}
	if failed {
		PipelineTierFailures.WithLabelValues(tier).Inc()
	}
}
