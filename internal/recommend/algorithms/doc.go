// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

// Package algorithms implements the scorers used by the recommendation
// cascade.
//
// # Collaborative Filtering
//
// RatingMatrix is a sparse user x item matrix built fresh from the rating
// store on every run. SimilarityEngine computes over it:
//
//   - UserSimilarity: Pearson correlation over co-rated items, gated by MinCommonItems
//   - ItemSimilarity: cosine similarity over co-rating users, gated by MinCommonUsers
//   - PredictForUser: mean-centered neighbor average, clamped to [0, 10]
//   - PredictForItem: similarity-weighted average of the user's own ratings
//
// CollaborativeFilter combines both predictions (0.6/0.4 when both fire,
// 0.8 of a single prediction otherwise) and implements
// recommend.CollaborativeScorer.
//
// # Content-Based Scoring
//
// ContentScorer implements recommend.ContentScorer with two modes:
//
//	simple:   0.4 quality + 0.2 popularity + 0.4 genre overlap
//	enhanced: 0.3 quality + 0.2 popularity + 0.2 genre overlap + 0.3 semantic
//
// Both are scaled by the profile's mood weight and clamped to [0, 1].
// Missing fields fall back to defaults rather than failing.
//
// # Degenerate Input
//
// An empty matrix, a user with no ratings, zero variance and NaN all yield
// 0 or empty predictions. Callers treat that as "no signal".
//
// # Thread Safety
//
// All scorers are safe for concurrent use. They hold configuration only;
// per-run state lives in the matrix and in local variables.
package algorithms
