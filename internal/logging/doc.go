// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

// Package logging provides the process-wide zerolog logger for CineRank.
//
// The package holds one global zerolog.Logger guarded by a RWMutex. Call Init
// once from main; every other package either uses the level helpers directly
// or derives a component logger:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logger := logging.With().Str("component", "pipeline").Logger()
//	logger.Info().Str("profile", name).Msg("Generating recommendations")
//
// # Formats
//
//   - json: one JSON object per line (default)
//   - console: human readable, for local runs
//
// # slog Bridge
//
// The supervisor tree (suture v4 via sutureslog) needs an *slog.Logger.
// NewSlogHandlerWithLogger wraps a zerolog logger as an slog.Handler so all
// output shares the same format and level.
//
// # Context Fields
//
// ContextWithRunID attaches a pipeline run id to a context; Ctx returns a
// logger enriched with the run id and request id if present.
package logging
