// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package recommend

import "context"

// CandidateSource fetches the items a profile may be recommended.
// Implementations tolerate partial upstream failure and return whatever
// succeeded; an empty slice with a nil error means "no results".
type CandidateSource interface {
	FetchCandidates(ctx context.Context, genres []string, seen map[int]struct{}) ([]CandidateItem, error)
}

// RatingSource returns every rating in the global store.
type RatingSource interface {
	AllRatings(ctx context.Context) ([]RatingRow, error)
}

// Embedder produces semantic vectors for text.
type Embedder interface {
	// Model identifies the embedding model; it is part of cache keys.
	Model() string
	// EmbedBatch returns one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
	// EmbedMean returns the element-wise mean vector of texts.
	EmbedMean(ctx context.Context, texts []string) ([]float64, error)
}

// ResultSink stores recommendations for a profile.
type ResultSink interface {
	// Replace deactivates every stored recommendation, then upserts recs.
	Replace(ctx context.Context, profile string, recs []Recommendation) error
	// Append upserts recs without touching existing entries.
	Append(ctx context.Context, profile string, recs []Recommendation) error
}

// CollaborativeScorer produces collaborative recommendations from ratings.
// No signal is a normal outcome and returns an empty slice.
type CollaborativeScorer interface {
	Recommend(ctx context.Context, ratings []RatingRow, profile *UserProfile, candidates []CandidateItem) ([]Recommendation, error)
}

// ContentMode selects the content scoring formula.
type ContentMode int

const (
	// ContentSimple scores quality, popularity and genre overlap.
	ContentSimple ContentMode = iota
	// ContentEnhanced adds semantic similarity to the user's watch history.
	ContentEnhanced
)

// String returns the mode label.
func (m ContentMode) String() string {
	if m == ContentEnhanced {
		return "enhanced"
	}
	return "simple"
}

// ContentScorer scores candidates against a profile. The returned
// recommendations are sorted by score descending.
type ContentScorer interface {
	ScoreAll(ctx context.Context, profile *UserProfile, candidates []CandidateItem, mode ContentMode) ([]Recommendation, error)
}
