// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

// Package database provides the DuckDB data layer of CineRank.
//
// # Tables
//
//   - watched_movies: watch history with ordinal ratings (disliked, good,
//     loved) and the mood at watch time
//   - mood_selections: explicit mood selections; the latest one is the
//     profile's current mood
//   - one table per profile (e.g. anshul_dash) holding its stored
//     recommendations with an is_active flag
//
// # Roles
//
// DB implements recommend.RatingSource (AllRatings) and
// recommend.ResultSink (Replace, Append). LoadProfile assembles the
// recommend.UserProfile of a configured profile.
//
// Profile table names come from configuration and are validated as
// identifiers before they are interpolated into SQL; all values are bound
// as parameters.
//
// # Metrics
//
// Every query records cinerank_db_query_duration_seconds and, on failure,
// cinerank_db_query_errors_total.
package database
