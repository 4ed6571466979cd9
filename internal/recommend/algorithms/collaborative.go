// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package algorithms

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cinerank/internal/cache"
	"github.com/tomtom215/cinerank/internal/recommend"
)

// CollaborativeFilter is the collaborative tier scorer. It blends
// user-based and item-based predictions and normalizes the combined
// 0-10 rating to a 0-1 score.
//
// For a target user u and candidate item i:
//
//	userBased(u, i) = mean(u) + sum_v sim(u, v) * (r(v, i) - mean(v)) / sum_v |sim(u, v)|
//	itemBased(u, i) = sum_j sim(i, j) * r(u, j) / sum_j |sim(i, j)|
//
// where v ranges over u's nearest neighbors who rated i and j over the
// items u rated that are most similar to i.
type CollaborativeFilter struct {
	engine *SimilarityEngine
	logger zerolog.Logger
}

// NewCollaborativeFilter creates a collaborative filter.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCollaborativeFilter(cfg SimilarityConfig, c cache.Cacher, logger zerolog.Logger) *CollaborativeFilter {
	return &CollaborativeFilter{
		engine: NewSimilarityEngine(cfg, c),
		logger: logger.With().Str("component", "collaborative").Logger(),
	}
}

// Engine returns the underlying similarity engine.
func (f *CollaborativeFilter) Engine() *SimilarityEngine {
	return f.engine
}

// Recommend builds a fresh matrix from ratings and scores the candidates.
// An empty matrix or no predictions returns an empty slice.
func (f *CollaborativeFilter) Recommend(
	ctx context.Context,
	ratings []recommend.RatingRow,
	profile *recommend.UserProfile,
	candidates []recommend.CandidateItem,
) ([]recommend.Recommendation, error) {
	m := BuildMatrix(ratings)
	if m.Empty() {
		f.logger.Warn().Msg("empty rating matrix")
		return []recommend.Recommendation{}, nil
	}

	ids := make([]int, len(candidates))
	for i := range candidates {
		ids[i] = candidates[i].ItemID
	}

	userBased := f.engine.PredictForUser(m, profile.UserID, ids)
	if ContextCancelled(ctx) {
		return nil, ctx.Err()
	}
	itemBased := f.engine.PredictForItem(m, profile.UserID, ids)
	if ContextCancelled(ctx) {
		return nil, ctx.Err()
	}
	combined := f.engine.Combine(userBased, itemBased)

	f.logger.Debug().
		Int("users", len(m.Users())).
		Int("items", len(m.Items())).
		Int("user_based", len(userBased)).
		Int("item_based", len(itemBased)).
		Int("combined", len(combined)).
		Msg("collaborative predictions")

	recs := make([]recommend.Recommendation, 0, len(combined))
	emitted := make(map[int]struct{}, len(combined))
	for i := range candidates {
		c := candidates[i]
		predicted, ok := combined[c.ItemID]
		if !ok || profile.HasWatched(c.ItemID) {
			continue
		}
		if _, dup := emitted[c.ItemID]; dup {
			continue
		}
		emitted[c.ItemID] = struct{}{}

		recs = append(recs, recommend.NewRecommendation(
			c,
			clamp(predicted/10.0, 0, 1),
			fmt.Sprintf("Collaborative filtering (predicted rating: %.1f)", predicted),
			recommend.TierCollaborative,
		))
	}
	return recs, nil
}
