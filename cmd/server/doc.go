// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

/*
Package main is the entry point for the CineRank server and CLI.

CineRank generates movie recommendations for a small, fixed set of household
profiles. Each refresh runs a cascade: collaborative filtering when the
shared rating data supports it, then content scoring against the TMDB
catalog, with a popularity fallback so a profile never ends up empty.

# Application Architecture

The server runs under Suture v4 process supervision:

	RootSupervisor ("cinerank")
	├── DataSupervisor ("data-layer")
	│   ├── Refresh Scheduler (periodic refresh of every profile)
	│   └── Cache Maintenance (sweep expired entries, persist)
	├── MessagingSupervisor ("messaging-layer")
	│   └── Event Router (watch events from NATS JetStream or a Go channel)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (chi router, /api/v1)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Database: DuckDB holding ratings, moods and per-profile result tables
 4. Cache: in-memory TTL cache, optionally persisted to BadgerDB
 5. Catalog: TMDB client behind a rate limiter and circuit breaker
 6. Embedding: optional sentence-embedding service for the enhanced tier
 7. Pipeline and Service: the recommendation cascade per profile
 8. Events: embedded or external NATS server, or an in-process channel
 9. Supervisor Tree and HTTP Server

# Configuration

Priority: Environment variables > Config file > Defaults

	TMDB_API_KEY=<key>           # required for catalog access
	DUCKDB_PATH=/data/cinerank.duckdb
	CACHE_DIR=/data/cache
	CACHE_DURABLE=true
	HTTP_PORT=8080
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	EMBEDDING_ENABLED=false
	EMBEDDING_URL=http://127.0.0.1:8081/v1/embeddings

	EVENTS_ENABLED=false         # publish watches through NATS
	NATS_EMBEDDED=true           # run the NATS server in-process
	NATS_URL=nats://127.0.0.1:4222

	SCHEDULER_ENABLED=true
	REFRESH_INTERVAL=6h

Profiles are defined in config.yaml under "profiles"; the defaults cover
the four household members.

# Commands

Running without arguments starts the server. A subcommand runs once and
prints JSON to stdout:

	cinerank refresh anshul
	cinerank refresh-all
	cinerank get shikhar 20
	cinerank add priyanshu 5
	cinerank dislike shaurya 603
	cinerank stats anshul
	cinerank cache-stats
	cinerank cache-cleanup

# Signal Handling

SIGINT and SIGTERM cancel the root context. The tree stops the HTTP server
(10s drain), the event router and the background services, then the bus,
cache and database are closed in that order. The cache flushes dirty
entries on close.

# See Also

  - internal/config: Configuration management
  - internal/recommend: Pipeline and readiness assessment
  - internal/service: Profile operations and watch handling
  - internal/supervisor: Process supervision
  - internal/api: HTTP handlers and routing
*/
package main
