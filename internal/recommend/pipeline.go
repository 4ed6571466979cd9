// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package recommend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cinerank/internal/metrics"
)

// Deps are the collaborators of a Pipeline. Collaborative and Content may
// be nil, in which case the corresponding tiers are skipped.
type Deps struct {
	Candidates    CandidateSource
	Ratings       RatingSource
	Collaborative CollaborativeScorer
	Content       ContentScorer
}

// Result is the output of one pipeline run.
type Result struct {
	RunID           string           `json:"run_id"`
	Profile         string           `json:"profile"`
	Recommendations []Recommendation `json:"recommendations"`
	Tiers           []TierOutcome    `json:"tiers"`
	Readiness       Readiness        `json:"readiness"`
	CandidateCount  int              `json:"candidate_count"`
	UsedEmergency   bool             `json:"used_emergency"`
	DurationMS      int64            `json:"duration_ms"`
}

// Pipeline runs the recommendation cascade: collaborative filtering when
// the rating data supports it, then enhanced content, simple content and a
// placeholder tier, each entered only while the running total is short.
// It is safe for concurrent use; every run builds its own state.
type Pipeline struct {
	cfg       *Config
	deps      Deps
	readiness *ReadinessAssessor
	logger    zerolog.Logger
}

// NewPipeline creates a pipeline.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPipeline(cfg *Config, deps Deps, logger zerolog.Logger) (*Pipeline, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.Candidates == nil {
		return nil, fmt.Errorf("candidate source is required")
	}
	return &Pipeline{
		cfg:       cfg,
		deps:      deps,
		readiness: NewReadinessAssessor(cfg.Readiness),
		logger:    logger.With().Str("component", "pipeline").Logger(),
	}, nil
}

// runState accumulates recommendations across tiers.
type runState struct {
	recs  []Recommendation
	seen  map[int]struct{}
	limit int
}

func newRunState(limit int) *runState {
	return &runState{
		recs:  make([]Recommendation, 0, limit),
		seen:  make(map[int]struct{}, limit),
		limit: limit,
	}
}

// merge appends recs not already present, first seen wins, until the
// limit is reached. It returns how many were added.
func (s *runState) merge(recs []Recommendation) int {
	added := 0
	for i := range recs {
		if len(s.recs) >= s.limit {
			break
		}
		if _, ok := s.seen[recs[i].ItemID]; ok {
			continue
		}
		s.seen[recs[i].ItemID] = struct{}{}
		s.recs = append(s.recs, recs[i])
		added++
	}
	return added
}

func (s *runState) total() int {
	return len(s.recs)
}

// Generate fetches candidates for the profile and runs the cascade.
func (p *Pipeline) Generate(ctx context.Context, profile *UserProfile) (*Result, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	candidates, err := p.deps.Candidates.FetchCandidates(ctx, profile.PreferredGenres, profile.WatchedItemIDs)
	if err != nil {
		p.logger.Warn().Err(err).Str("profile", profile.Name).Msg("candidate fetch failed")
		candidates = nil
	}
	return p.GenerateFrom(ctx, profile, candidates)
}

// GenerateFrom runs the cascade over the given candidates. An empty
// candidate list is replaced by the emergency catalog.
func (p *Pipeline) GenerateFrom(ctx context.Context, profile *UserProfile, candidates []CandidateItem) (*Result, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	res := &Result{
		RunID:   uuid.New().String(),
		Profile: profile.Name,
	}
	logger := p.logger.With().
		Str("run_id", res.RunID).
		Str("profile", profile.Name).
		Logger()

	if len(candidates) == 0 {
		logger.Warn().Msg("no candidates found, using emergency catalog")
		candidates = EmergencyCatalog()
		res.UsedEmergency = true
	}
	candidates = unwatched(candidates, profile)
	res.CandidateCount = len(candidates)

	logger.Info().Int("candidates", len(candidates)).Msg("starting recommendation generation")

	state := newRunState(p.cfg.Cascade.MaxResults)

	res.Tiers = append(res.Tiers, p.collaborativeTier(ctx, profile, candidates, state, res, logger))
	res.Tiers = append(res.Tiers, p.contentTier(ctx, TierEnhancedContent, ContentEnhanced,
		p.cfg.Cascade.EnhancedBelow, profile, candidates, state, logger))
	res.Tiers = append(res.Tiers, p.contentTier(ctx, TierSimpleContent, ContentSimple,
		p.cfg.Cascade.SimpleBelow, profile, candidates, state, logger))
	res.Tiers = append(res.Tiers, p.randomTier(candidates, state, logger))

	recs := state.recs
	sortRecommendations(recs)
	if len(recs) > p.cfg.Cascade.MaxResults {
		recs = recs[:p.cfg.Cascade.MaxResults]
	}
	res.Recommendations = recs

	elapsed := time.Since(start)
	res.DurationMS = elapsed.Milliseconds()

	if len(recs) == 0 && exhausted(res.Tiers, profile) {
		metrics.RecordPipelineRun("exhausted", elapsed)
		logger.Error().Msg("every tier failed to produce recommendations")
		return res, &ExhaustedError{Profile: profile.Name, Tiers: res.Tiers}
	}
	if len(recs) == 0 {
		logger.Warn().Msg("no unwatched candidates left to recommend")
	}

	outcome := "success"
	if res.UsedEmergency {
		outcome = "emergency"
	}
	metrics.RecordPipelineRun(outcome, elapsed)

	logger.Info().
		Int("recommendations", len(recs)).
		Int64("duration_ms", res.DurationMS).
		Msg("recommendation generation complete")

	return res, nil
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func (p *Pipeline) collaborativeTier(
	ctx context.Context,
	profile *UserProfile,
	candidates []CandidateItem,
	state *runState,
	res *Result,
	logger zerolog.Logger,
) TierOutcome {
	out := TierOutcome{Tier: TierCollaborative, Input: len(candidates)}

	if p.deps.Collaborative == nil || p.deps.Ratings == nil {
		out.Reason = "collaborative filtering not configured"
		res.Readiness = Readiness{Method: "content-based", Reason: out.Reason}
		return out
	}

	ratings, err := p.deps.Ratings.AllRatings(ctx)
	if err != nil {
		out.Reason = "rating store unavailable"
		res.Readiness = Readiness{Method: "content-based", Reason: out.Reason}
		logger.Warn().Err(err).Msg("rating store unavailable, skipping collaborative filtering")
		return out
	}

	stats := ComputeRatingStats(ratings)
	res.Readiness = p.readiness.Assess(stats, len(profile.Ratings))
	logger.Info().
		Bool("use_collaborative", res.Readiness.UseCollaborative).
		Str("reason", res.Readiness.Reason).
		Msg("collaborative filtering assessment")

	if !res.Readiness.UseCollaborative {
		out.Reason = res.Readiness.Reason
		return out
	}

	return p.runTier(out, state, logger, func() ([]Recommendation, error) {
		return p.deps.Collaborative.Recommend(ctx, ratings, profile, candidates)
	})
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func (p *Pipeline) contentTier(
	ctx context.Context,
	tier Tier,
	mode ContentMode,
	below int,
	profile *UserProfile,
	candidates []CandidateItem,
	state *runState,
	logger zerolog.Logger,
) TierOutcome {
	out := TierOutcome{Tier: tier}

	if state.total() >= below {
		out.Reason = fmt.Sprintf("have %d, threshold %d", state.total(), below)
		return out
	}
	if p.deps.Content == nil {
		out.Reason = "content scoring not configured"
		return out
	}

	remaining := excluding(candidates, state.seen)
	out.Input = len(remaining)

	return p.runTier(out, state, logger, func() ([]Recommendation, error) {
		return p.deps.Content.ScoreAll(ctx, profile, remaining, mode)
	})
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func (p *Pipeline) randomTier(candidates []CandidateItem, state *runState, logger zerolog.Logger) TierOutcome {
	cc := &p.cfg.Cascade
	out := TierOutcome{Tier: TierRandom}

	if state.total() >= cc.RandomBelow {
		out.Reason = fmt.Sprintf("have %d, threshold %d", state.total(), cc.RandomBelow)
		return out
	}

	logger.Warn().Int("have", state.total()).Msg("using placeholder selection as last resort")

	remaining := excluding(candidates, state.seen)
	out.Input = len(remaining)

	return p.runTier(out, state, logger, func() ([]Recommendation, error) {
		recs := make([]Recommendation, 0, len(remaining))
		for _, c := range remaining {
			if state.total()+len(recs) >= cc.RandomLimit {
				break
			}
			recs = append(recs, NewRecommendation(c, cc.RandomScore, "Curated high-quality selection", TierRandom))
		}
		return recs, nil
	})
}

// runTier executes one tier, recovering errors and panics so the cascade
// always advances. Tier output is ranked before it is merged.
//
//nolint:gocritic // out and logger passed by value
func (p *Pipeline) runTier(
	out TierOutcome,
	state *runState,
	logger zerolog.Logger,
	fn func() ([]Recommendation, error),
) (result TierOutcome) {
	out.Attempted = true
	result = out

	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("panic: %v", r)
			result.Produced = 0
			metrics.RecordTier(string(result.Tier), 0, true)
			logger.Error().Str("tier", string(result.Tier)).Interface("panic", r).Msg("tier panicked")
		}
	}()

	recs, err := fn()
	if err != nil {
		result.Err = err
		metrics.RecordTier(string(result.Tier), 0, true)
		logger.Warn().Err(err).Str("tier", string(result.Tier)).Msg("tier failed")
		return result
	}

	sortRecommendations(recs)
	result.Produced = state.merge(recs)
	result.Reason = fmt.Sprintf("%d scored, %d merged", len(recs), result.Produced)
	metrics.RecordTier(string(result.Tier), result.Produced, false)

	logger.Info().
		Str("tier", string(result.Tier)).
		Int("input", result.Input).
		Int("scored", len(recs)).
		Int("merged", result.Produced).
		Int("total", state.total()).
		Msg("tier complete")

	return result
}

// exhausted reports whether no tier ran over any input without raising and
// the emergency catalog has nothing unwatched to offer.
func exhausted(tiers []TierOutcome, profile *UserProfile) bool {
	for i := range tiers {
		if tiers[i].Attempted && !tiers[i].Failed() && tiers[i].Input > 0 {
			return false
		}
	}
	return len(unwatched(EmergencyCatalog(), profile)) == 0
}

// sortRecommendations orders by score descending, then item id ascending.
func sortRecommendations(recs []Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].ItemID < recs[j].ItemID
	})
}

func unwatched(candidates []CandidateItem, profile *UserProfile) []CandidateItem {
	out := make([]CandidateItem, 0, len(candidates))
	for i := range candidates {
		if !profile.HasWatched(candidates[i].ItemID) {
			out = append(out, candidates[i])
		}
	}
	return out
}

func excluding(candidates []CandidateItem, seen map[int]struct{}) []CandidateItem {
	out := make([]CandidateItem, 0, len(candidates))
	for i := range candidates {
		if _, ok := seen[candidates[i].ItemID]; !ok {
			out = append(out, candidates[i])
		}
	}
	return out
}
