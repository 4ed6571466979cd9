// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

// Package services provides suture.Service wrappers for CineRank's
// long-running components.
//
// Every wrapper implements Serve(ctx) error and String() string. Serve
// blocks until ctx is cancelled and returns ctx.Err() on a clean stop, so
// suture can tell a shutdown from a crash.
//
// Wrappers:
//   - HTTPServerService: net/http server with graceful shutdown
//   - RefreshSchedulerService: periodic RefreshAll
//   - CacheMaintenanceService: periodic sweep and durable flush
//   - EventRouterService: watermill router for watch events
package services
