// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package algorithms

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cinerank/internal/cache"
	"github.com/tomtom215/cinerank/internal/recommend"
)

// errNoHistory is returned when a profile has no watch texts to embed.
var errNoHistory = errors.New("no watch history to embed")

// ContentWeights are the term weights of one content scoring mode.
type ContentWeights struct {
	Quality    float64
	Popularity float64
	Genre      float64
	Semantic   float64

	// NoPreferenceGenre is the genre term used when the profile has no
	// preferred genres.
	NoPreferenceGenre float64
}

// ContentConfig contains configuration for content-based scoring.
type ContentConfig struct {
	Simple   ContentWeights
	Enhanced ContentWeights

	// Defaults for missing candidate fields and failed embeddings.
	DefaultQuality    float64
	DefaultPopularity float64
	DefaultSemantic   float64

	// RecentWatches caps how many watch texts form the user vector.
	RecentWatches int
}

// DefaultContentConfig returns default content scoring configuration.
func DefaultContentConfig() ContentConfig {
	return ContentConfig{
		Simple: ContentWeights{
			Quality:           0.4,
			Popularity:        0.2,
			Genre:             0.4,
			NoPreferenceGenre: 0.2,
		},
		Enhanced: ContentWeights{
			Quality:           0.3,
			Popularity:        0.2,
			Genre:             0.2,
			Semantic:          0.3,
			NoPreferenceGenre: 0.4,
		},
		DefaultQuality:    0.7,
		DefaultPopularity: 0.2,
		DefaultSemantic:   0.5,
		RecentWatches:     20,
	}
}

// ContentScorer implements content-based scoring from candidate metadata
// and the profile's preferences.
//
// The score is a weighted sum of independently normalized terms, scaled by
// the current mood weight and clamped to [0, 1]:
//
//	score = clamp(mood * (w_q * quality + w_p * popularity + w_g * genre + w_s * semantic), 0, 1)
//
// The semantic term is only used in enhanced mode and requires an
// Embedder. Without one, enhanced mode scores with the simple weights.
type ContentScorer struct {
	cfg      ContentConfig
	embedder recommend.Embedder
	cache    cache.Cacher
	logger   zerolog.Logger
}

// NewContentScorer creates a content scorer. embedder may be nil.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewContentScorer(cfg ContentConfig, embedder recommend.Embedder, c cache.Cacher, logger zerolog.Logger) *ContentScorer {
	def := DefaultContentConfig()
	if cfg == (ContentConfig{}) {
		cfg = def
	}
	if cfg.RecentWatches <= 0 {
		cfg.RecentWatches = def.RecentWatches
	}
	if c == nil {
		c = cache.Nop{}
	}
	return &ContentScorer{
		cfg:      cfg,
		embedder: embedder,
		cache:    c,
		logger:   logger.With().Str("component", "content").Logger(),
	}
}

// SemanticEnabled reports whether enhanced mode has an embedder.
func (s *ContentScorer) SemanticEnabled() bool {
	return s.embedder != nil
}

// ScoreSimple returns the simple-mode score of one candidate.
func (s *ContentScorer) ScoreSimple(c *recommend.CandidateItem, profile *recommend.UserProfile) float64 {
	return s.score(c, profile, &s.cfg.Simple, 0)
}

// ScoreEnhanced returns the enhanced-mode score of one candidate given its
// semantic similarity to the profile.
func (s *ContentScorer) ScoreEnhanced(c *recommend.CandidateItem, profile *recommend.UserProfile, semantic float64) float64 {
	return s.score(c, profile, &s.cfg.Enhanced, semantic)
}

func (s *ContentScorer) score(c *recommend.CandidateItem, profile *recommend.UserProfile, w *ContentWeights, semantic float64) float64 {
	quality := s.cfg.DefaultQuality
	if c.VoteAverage > 0 {
		quality = clamp(c.VoteAverage/10.0, 0, 1)
	}

	popularity := s.cfg.DefaultPopularity
	if c.Popularity > 0 {
		popularity = clamp(c.Popularity/100.0, 0, 1)
	}

	genre := w.NoPreferenceGenre
	if matches, total := genreOverlap(c.Genres, profile.PreferredGenres); total > 0 {
		genre = float64(matches) / float64(total)
	}

	raw := w.Quality*quality + w.Popularity*popularity + w.Genre*genre + w.Semantic*clamp(semantic, 0, 1)
	return clamp(raw*profile.MoodMultiplier(), 0, 1)
}

// ScoreAll scores every unwatched candidate and returns recommendations
// sorted by score descending, item id ascending.
func (s *ContentScorer) ScoreAll(
	ctx context.Context,
	profile *recommend.UserProfile,
	candidates []recommend.CandidateItem,
	mode recommend.ContentMode,
) ([]recommend.Recommendation, error) {
	if mode == recommend.ContentEnhanced && s.embedder == nil {
		s.logger.Debug().Msg("no embedding model, enhanced scoring uses simple weights")
		mode = recommend.ContentSimple
	}

	mood := profile.CurrentMood
	if mood == "" {
		mood = recommend.DefaultMood
	}

	var (
		userVec []float64
		itemVec map[int][]float64
	)
	if mode == recommend.ContentEnhanced {
		vec, err := s.UserVector(ctx, profile)
		if err != nil {
			s.logger.Warn().Err(err).Str("profile", profile.Name).Msg("user content vector unavailable, using default semantic score")
		}
		userVec = vec
		if len(userVec) > 0 {
			itemVec = s.candidateVectors(ctx, profile, candidates)
		}
	}

	recs := make([]recommend.Recommendation, 0, len(candidates))
	for i := range candidates {
		if ContextCancelled(ctx) {
			return nil, ctx.Err()
		}

		c := &candidates[i]
		if profile.HasWatched(c.ItemID) {
			continue
		}

		if mode == recommend.ContentSimple {
			recs = append(recs, recommend.NewRecommendation(*c,
				s.ScoreSimple(c, profile),
				fmt.Sprintf("Simple content-based: genre preferences, mood: %s", mood),
				recommend.TierSimpleContent,
			))
			continue
		}

		matches, _ := genreOverlap(c.Genres, profile.PreferredGenres)
		recs = append(recs, recommend.NewRecommendation(*c,
			s.ScoreEnhanced(c, profile, s.semantic(itemVec[c.ItemID], userVec)),
			fmt.Sprintf("Enhanced content-based: %d genre matches, mood: %s", matches, mood),
			recommend.TierEnhancedContent,
		))
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].ItemID < recs[j].ItemID
	})
	return recs, nil
}

// UserVector returns the mean embedding of the profile's most recent watch
// texts. The vector is cached per user until the user is invalidated.
func (s *ContentScorer) UserVector(ctx context.Context, profile *recommend.UserProfile) ([]float64, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("embedding model not configured")
	}

	texts := profile.WatchedTexts
	if len(texts) > s.cfg.RecentWatches {
		texts = texts[:s.cfg.RecentWatches]
	}
	if len(texts) == 0 {
		return nil, errNoHistory
	}

	key := cache.UserEmbeddingKey(profile.Name, s.embedder.Model(), texts)
	var vec []float64
	if s.cache.Get(key, &vec) && len(vec) > 0 {
		return vec, nil
	}

	vec, err := s.embedder.EmbedMean(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed watch history: %w", err)
	}
	s.cache.Put(key, vec, cache.ClassUser)
	return vec, nil
}

// candidateVectors embeds every unwatched candidate in one batch. A failed
// batch yields no vectors, so every candidate takes the default semantic
// score.
func (s *ContentScorer) candidateVectors(
	ctx context.Context,
	profile *recommend.UserProfile,
	candidates []recommend.CandidateItem,
) map[int][]float64 {
	ids := make([]int, 0, len(candidates))
	texts := make([]string, 0, len(candidates))
	for i := range candidates {
		if profile.HasWatched(candidates[i].ItemID) {
			continue
		}
		ids = append(ids, candidates[i].ItemID)
		texts = append(texts, candidates[i].Text())
	}
	if len(texts) == 0 {
		return nil
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil || len(vectors) != len(texts) {
		s.logger.Warn().Err(err).Int("candidates", len(texts)).Msg("candidate embeddings unavailable, using default semantic score")
		return nil
	}

	out := make(map[int][]float64, len(ids))
	for i, id := range ids {
		if len(vectors[i]) > 0 {
			out[id] = vectors[i]
		}
	}
	return out
}

// semantic returns the clamped cosine similarity of a candidate vector to
// the user vector, or the default when either side is unavailable.
func (s *ContentScorer) semantic(vec, userVec []float64) float64 {
	if len(userVec) == 0 || len(vec) == 0 {
		return s.cfg.DefaultSemantic
	}

	sim, ok := cosineSimilarity(vec, userVec)
	if !ok {
		return s.cfg.DefaultSemantic
	}
	return clamp(sim, 0, 1)
}

// genreOverlap counts preferred genres present on the candidate, ignoring
// case. total is the number of distinct preferred genres.
func genreOverlap(candidate, preferred []string) (matches, total int) {
	if len(preferred) == 0 {
		return 0, 0
	}

	have := make(map[string]struct{}, len(candidate))
	for _, g := range candidate {
		have[strings.ToLower(strings.TrimSpace(g))] = struct{}{}
	}

	want := make(map[string]struct{}, len(preferred))
	for _, g := range preferred {
		key := strings.ToLower(strings.TrimSpace(g))
		if key == "" {
			continue
		}
		if _, dup := want[key]; dup {
			continue
		}
		want[key] = struct{}{}
		if _, ok := have[key]; ok {
			matches++
		}
	}
	return matches, len(want)
}
