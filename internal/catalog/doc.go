// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

// Package catalog supplies candidate movies to the recommendation pipeline.
//
// Candidates come from two places:
//
//   - A small curated catalog of well-known movies per genre, always merged
//     first so that a profile has candidates even without network access.
//   - A TMDB-compatible HTTP API: the popular, top rated, now playing,
//     upcoming and trending lists plus discover pages for each preferred
//     genre.
//
// The Client rate limits requests with golang.org/x/time/rate, retries 429
// and 5xx responses with exponential backoff (honouring Retry-After), and
// runs every call through a resilience.Breaker. Pages and movie details are
// cached in the CacheStore with the long TTL class.
//
// Provider implements recommend.CandidateSource. It skips watched movies,
// removes duplicates by id and caps the set at catalog.max_candidates.
package catalog
