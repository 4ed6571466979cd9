// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

// Package validation provides struct validation using go-playground/validator v10.
//
// It is used at every boundary where external data enters the system:
// profiles loaded from the database, watch events from the message bus and
// API request bodies.
//
// Features:
//   - Singleton validator instance (thread-safe, caches struct info)
//   - identifier tag for lowercase profile and table names
//   - Error translation to short field messages
//   - Uses WithRequiredStructEnabled option
//
// Example usage:
//
//	type DislikeRequest struct {
//	    TMDBID int `json:"tmdb_id" validate:"gt=0"`
//	}
//
//	if err := validation.ValidateStruct(&req); err != nil {
//	    respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
//	    return
//	}
package validation
