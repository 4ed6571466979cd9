// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

// Package resilience provides the circuit breaker shared by the outbound
// HTTP clients (catalog and embedding).
//
// A Breaker wraps sony/gobreaker/v2 and publishes its state, request results
// and transitions as Prometheus metrics:
//
//	b := resilience.NewBreaker(resilience.DefaultBreakerSettings("tmdb-api"), logger)
//	page, err := resilience.Do(b, func() (*Page, error) {
//	    return client.fetchPage(ctx, endpoint, n)
//	})
//	if resilience.IsRejected(err) {
//	    // circuit open: skip the remote call
//	}
package resilience
