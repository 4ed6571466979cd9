// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

// Package service orchestrates profile loading, recommendation generation
// and storage for the CLI, the HTTP API, the scheduler and the event
// router.
//
// A refresh loads the profile snapshot (cached under the user TTL class),
// runs the hybrid pipeline and replaces the stored list. An incremental
// add invalidates the user cache, generates again and appends only items
// not already stored.
package service
