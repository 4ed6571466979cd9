// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

// Package embedding provides sentence embeddings for the enhanced content
// tier.
//
// Client posts {"model", "input"} to an OpenAI-compatible endpoint and
// reads {"data": [{"embedding": [...]}]}. Calls run through a
// resilience.Breaker so an unavailable model server is skipped quickly;
// the content scorer then falls back to its neutral semantic score.
//
// Cached wraps any BatchEmbedder and stores each text vector in the
// CacheStore under a hash of model and text.
package embedding
