// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

// Package events carries watch events between the API, external players and
// the recommendation service.
//
// A WatchEvent is published as JSON on the configured topic. The Router
// subscribes with watermill, validates each event and calls
// WatchHandler.HandleWatch, which records the watch and adds incremental
// recommendations.
//
// Transports:
//   - NATS JetStream (watermill-nats) with a durable queue subscription
//   - an optional embedded nats-server for single-host deployments
//   - watermill gochannel when events are disabled, and in tests
//
// Invalid events are acknowledged and counted as "invalid" in
// cinerank_events_processed_total; handler failures are retried by the
// router's Retry middleware before the message is nacked.
package events
