// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

/*
Package api provides the CineRank HTTP API using the Chi router.

# Routes

	GET  /healthz
	GET  /metrics
	GET  /api/v1/profiles
	GET  /api/v1/profiles/{name}/recommendations?limit=50&shuffle=false
	POST /api/v1/profiles/{name}/refresh
	POST /api/v1/profiles/{name}/incremental?count=10
	POST /api/v1/profiles/{name}/dislike       {"tmdb_id": 603}
	POST /api/v1/profiles/{name}/watch         {"tmdb_id": 603, "title": "The Matrix", "rating": "loved"}
	GET  /api/v1/profiles/{name}/stats
	POST /api/v1/refresh
	GET  /api/v1/cache/stats
	POST /api/v1/cache/cleanup

# Middleware

Every route passes through request ID propagation (also placed in the
logging context), RealIP, Recoverer and go-chi/cors. The /api/v1 group adds
go-chi/httprate limiting and the Prometheus request counter and latency
histogram, labelled by route pattern.

# Responses

Every API response uses the same envelope:

	{
	  "status": "success",
	  "data": {...},
	  "metadata": {"timestamp": "2026-02-01T21:00:00Z", "query_time_ms": 12}
	}

Errors carry a machine-readable code:

	{
	  "status": "error",
	  "error": {"code": "NOT_FOUND", "message": "unknown profile: \"ghost\""}
	}
*/
package api
