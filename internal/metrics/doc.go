// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

/*
Package metrics provides Prometheus metrics for CineRank.

All collectors are registered with the default registry through promauto
and exposed by the API at /metrics.

# Available Metrics

Pipeline:
  - cinerank_pipeline_runs_total{outcome}
  - cinerank_pipeline_tier_recommendations_total{tier}
  - cinerank_pipeline_tier_failures_total{tier}
  - cinerank_pipeline_duration_seconds

Cache:
  - cinerank_cache_operations_total{op,result}
  - cinerank_cache_entries
  - cinerank_cache_durable_degraded

Upstream:
  - cinerank_circuit_breaker_state{name}
  - cinerank_circuit_breaker_requests_total{name,result}
  - cinerank_circuit_breaker_state_transitions_total{name,from_state,to_state}
  - cinerank_catalog_fetches_total{endpoint,result}

Storage, HTTP and events:
  - cinerank_db_query_duration_seconds{operation,table}
  - cinerank_db_query_errors_total{operation,table,error_type}
  - cinerank_http_requests_total{method,route,status}
  - cinerank_http_request_duration_seconds{method,route}
  - cinerank_events_processed_total{result}
*/
package metrics
