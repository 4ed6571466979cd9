// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

// Package cache provides the two-tier TTL store used across CineRank.
//
// # Tiers
//
// The memory tier serves all reads. The optional durable tier is a badger
// database: entries loaded at Open, dirty entries flushed on Save and Close.
// A crash between Put and Save loses only the unflushed entries.
//
// Any durable-tier failure marks the store degraded and it continues
// memory-only. Callers never see durable errors from Get or Put.
//
// # TTL Classes
//
//   - ClassLong: catalog pages, movie details, text embeddings (default 24h)
//   - ClassUser: profile snapshots and user embeddings (default 1h)
//
// An entry is valid while now - CreatedAt < ttl. Expired entries are
// reported as misses even before SweepExpired removes them.
//
// # Keys
//
// Use the key helpers (MovieKey, PageKey, EmbeddingKey, UserKey,
// UserEmbeddingKey, SimilarityKey) so that invalidation by prefix works:
// InvalidateUser("anshul") removes "user_anshul" and every
// "user_emb_anshul_*" entry, and nothing else.
//
// # Lifecycle
//
//	store, err := cache.Open(cache.Options{Dir: dir, Durable: true})
//	if err != nil {
//	    return err
//	}
//	defer store.Close() // flushes dirty entries
package cache
