// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package service

import (
	"github.com/rs/zerolog"

	"github.com/tomtom215/cinerank/internal/cache"
	"github.com/tomtom215/cinerank/internal/config"
	"github.com/tomtom215/cinerank/internal/recommend"
	"github.com/tomtom215/cinerank/internal/recommend/algorithms"
)

// PipelineConfig maps the configured thresholds onto the pipeline policy.
// Zero values keep the defaults.
func PipelineConfig(pc *config.PipelineConfig) *recommend.Config {
	cfg := recommend.DefaultConfig()
	setInt(&cfg.Cascade.MaxResults, pc.MaxResults)
	setInt(&cfg.Cascade.EnhancedBelow, pc.EnhancedBelow)
	setInt(&cfg.Cascade.SimpleBelow, pc.SimpleBelow)
	setInt(&cfg.Cascade.RandomBelow, pc.RandomBelow)
	setInt(&cfg.Cascade.RandomLimit, pc.RandomLimit)
	if pc.RandomScore > 0 {
		cfg.Cascade.RandomScore = pc.RandomScore
	}
	setInt(&cfg.Readiness.MinUsers, pc.MinUsersForCF)
	setInt(&cfg.Readiness.MinTotalRatings, pc.MinTotalRatings)
	setInt(&cfg.Readiness.MinRatingsPerUser, pc.MinRatingsUser)
	setInt(&cfg.Readiness.MinActiveUsers, pc.MinActiveUsers)
	return cfg
}

// SimilarityConfig maps the configured neighbourhood settings onto the
// similarity engine.
func SimilarityConfig(pc *config.PipelineConfig) algorithms.SimilarityConfig {
	cfg := algorithms.DefaultSimilarityConfig()
	setInt(&cfg.Neighbors, pc.Neighbors)
	setInt(&cfg.MinCommonItems, pc.MinCommonItems)
	setInt(&cfg.MinCommonUsers, pc.MinCommonUsers)
	if pc.UserWeight > 0 || pc.ItemWeight > 0 {
		cfg.UserWeight = pc.UserWeight
		cfg.ItemWeight = pc.ItemWeight
	}
	if pc.SingleDiscount > 0 {
		cfg.SingleDiscount = pc.SingleDiscount
	}
	return cfg
}

// ContentConfig maps the configured content settings onto the scorer. A
// mode whose weights are all zero keeps the default weights.
func ContentConfig(pc *config.PipelineConfig) algorithms.ContentConfig {
	cfg := algorithms.DefaultContentConfig()
	setInt(&cfg.RecentWatches, pc.RecentWatchTexts)

	cs := &pc.Content
	if cs.Simple != (config.ContentTermWeights{}) {
		cfg.Simple = termWeights(cs.Simple)
	}
	if cs.Enhanced != (config.ContentTermWeights{}) {
		cfg.Enhanced = termWeights(cs.Enhanced)
	}
	setFloat(&cfg.DefaultQuality, cs.DefaultQuality)
	setFloat(&cfg.DefaultPopularity, cs.DefaultPopularity)
	setFloat(&cfg.DefaultSemantic, cs.DefaultSemantic)
	return cfg
}

func termWeights(w config.ContentTermWeights) algorithms.ContentWeights {
	return algorithms.ContentWeights{
		Quality:           w.Quality,
		Popularity:        w.Popularity,
		Genre:             w.Genre,
		Semantic:          w.Semantic,
		NoPreferenceGenre: w.NoPreferenceGenre,
	}
}

// NewPipeline wires the collaborative filter and the content scorer into a
// pipeline. A nil embedder selects the simple-content fallback for the
// enhanced tier.
func NewPipeline(
	pc *config.PipelineConfig,
	candidates recommend.CandidateSource,
	ratings recommend.RatingSource,
	embedder recommend.Embedder,
	c cache.Cacher,
	logger zerolog.Logger,
) (*recommend.Pipeline, error) {
	return recommend.NewPipeline(PipelineConfig(pc), recommend.Deps{
		Candidates:    candidates,
		Ratings:       ratings,
		Collaborative: algorithms.NewCollaborativeFilter(SimilarityConfig(pc), c, logger),
		Content:       algorithms.NewContentScorer(ContentConfig(pc), embedder, c, logger),
	}, logger)
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setFloat(dst *float64, v float64) {
	if v > 0 {
		*dst = v
	}
}
