// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

// Package recommend implements the hybrid recommendation cascade.
//
// # Architecture
//
// A Pipeline run moves through four tiers, each entered only while the
// running total of recommendations is below its threshold:
//
//   - collaborative: user and item based CF, gated by ReadinessAssessor
//   - enhanced_content: quality, popularity, genre and semantic similarity (< 20)
//   - simple_content: quality, popularity and genre overlap (< 15)
//   - random_fallback: unscored candidates with a fixed score (< 10)
//
// Tier outputs are merged by item id; the first tier to recommend an item
// keeps it. The final list is sorted by score descending with item id as
// the tie-break, so identical inputs always produce identical ordering.
//
// # Failure Handling
//
// Cold start is a routing decision, not an error. Tier errors and panics
// are recorded in the run's TierOutcome list and the cascade advances. The
// only hard failure is ExhaustedError, returned when no tier ran over any
// input and even the emergency catalog is fully watched. A run that simply
// finds nothing new returns an empty result.
//
// # Collaborators
//
// The scorers and data sources are interfaces declared here and
// implemented elsewhere. The algorithms subpackage provides the
// collaborative filter and content scorer:
//
//	cf := algorithms.NewCollaborativeFilter(algorithms.DefaultSimilarityConfig(), store, logger)
//	content := algorithms.NewContentScorer(algorithms.DefaultContentConfig(), embedder, store, logger)
//
//	p, err := recommend.NewPipeline(cfg, recommend.Deps{
//	    Candidates:    provider,
//	    Ratings:       db,
//	    Collaborative: cf,
//	    Content:       content,
//	}, logger)
//
//	res, err := p.Generate(ctx, profile)
//
// # Thread Safety
//
// Pipeline is safe for concurrent use. Each run builds its own rating
// matrix and merge state; the shared cache serializes its own access.
package recommend
