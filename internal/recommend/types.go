// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package recommend

import (
	"fmt"
	"strings"

	"github.com/tomtom215/cinerank/internal/validation"
)

// Ordinal ratings recorded by profiles and their numeric values.
const (
	OrdinalDisliked = "disliked"
	OrdinalGood     = "good"
	OrdinalLoved    = "loved"

	// DefaultOrdinalRating is used for unknown or empty ordinals.
	DefaultOrdinalRating = 5.0
)

var ordinalRatings = map[string]float64{
	OrdinalDisliked: 3.0,
	OrdinalGood:     7.0,
	OrdinalLoved:    9.0,
}

// OrdinalRating maps an ordinal label to its numeric rating.
func OrdinalRating(ordinal string) float64 {
	if v, ok := ordinalRatings[strings.ToLower(strings.TrimSpace(ordinal))]; ok {
		return v
	}
	return DefaultOrdinalRating
}

// DefaultMood is assumed when a profile has never selected a mood.
const DefaultMood = "neutral"

// UserProfile is the per-run snapshot of one profile.
type UserProfile struct {
	// Name is the profile name (e.g. "anshul").
	Name string `json:"name" validate:"required"`

	// UserID is the profile's identity in the rating store.
	UserID int `json:"user_id" validate:"gt=0"`

	// WatchedItemIDs contains every item the profile has watched.
	WatchedItemIDs map[int]struct{} `json:"watched_item_ids"`

	// Ratings maps a watched item to its numeric rating.
	Ratings map[int]float64 `json:"ratings" validate:"dive,gte=0,lte=10"`

	// PreferredGenres is ordered by preference.
	PreferredGenres []string `json:"preferred_genres"`

	// MoodWeights maps a mood label to a score multiplier.
	MoodWeights map[string]float64 `json:"mood_weights" validate:"dive,gte=0"`

	// CurrentMood is the latest mood selection.
	CurrentMood string `json:"current_mood"`

	// WatchedTexts holds "title. overview" for the most recent watches,
	// newest first. Used for the content-preference vector.
	WatchedTexts []string `json:"watched_texts"`
}

// HasWatched reports whether the profile has watched itemID.
func (p *UserProfile) HasWatched(itemID int) bool {
	_, ok := p.WatchedItemIDs[itemID]
	return ok
}

// MoodMultiplier returns the weight of the current mood, 1.0 if unknown.
func (p *UserProfile) MoodMultiplier() float64 {
	if w, ok := p.MoodWeights[p.CurrentMood]; ok {
		return w
	}
	return 1.0
}

// Validate checks struct constraints and that every rated item is watched.
func (p *UserProfile) Validate() error {
	if verr := validation.ValidateStruct(p); verr != nil {
		return fmt.Errorf("%w: %s", ErrInvalidProfile, verr.Error())
	}
	for itemID := range p.Ratings {
		if !p.HasWatched(itemID) {
			return fmt.Errorf("%w: item %d rated but not watched", ErrInvalidProfile, itemID)
		}
	}
	return nil
}

// CandidateItem is a movie eligible for recommendation.
type CandidateItem struct {
	ItemID int `json:"id" validate:"gt=0"`

	Title string `json:"title"`

	// VoteAverage is the 0-10 quality score; 0 means missing.
	VoteAverage float64 `json:"vote_average" validate:"gte=0,lte=10"`

	// Popularity is unbounded, typically 0-100; 0 means missing.
	Popularity float64 `json:"popularity" validate:"gte=0"`

	Genres []string `json:"genres"`

	Overview string `json:"overview"`
}

// Text returns the text used for semantic scoring.
func (c *CandidateItem) Text() string {
	if c.Overview == "" {
		return c.Title
	}
	return c.Title + ". " + c.Overview
}

// Tier identifies which cascade stage produced a recommendation.
type Tier string

const (
	TierCollaborative   Tier = "collaborative"
	TierEnhancedContent Tier = "enhanced_content"
	TierSimpleContent   Tier = "simple_content"
	TierRandom          Tier = "random_fallback"
)

// Recommendation is one ranked item for a profile.
type Recommendation struct {
	ItemID      int      `json:"tmdb_id"`
	Title       string   `json:"title"`
	Score       float64  `json:"score"`
	Reason      string   `json:"reason"`
	Genres      []string `json:"genres"`
	VoteAverage float64  `json:"vote_average"`
	Popularity  float64  `json:"popularity"`
	Tier        Tier     `json:"tier"`
}

// NewRecommendation builds a recommendation from a candidate.
//
//nolint:gocritic // hugeParam: candidate passed by value for immutability
func NewRecommendation(c CandidateItem, score float64, reason string, tier Tier) Recommendation {
	return Recommendation{
		ItemID:      c.ItemID,
		Title:       c.Title,
		Score:       score,
		Reason:      reason,
		Genres:      c.Genres,
		VoteAverage: c.VoteAverage,
		Popularity:  c.Popularity,
		Tier:        tier,
	}
}

// RatingRow is one rating from the global store.
type RatingRow struct {
	UserID  int
	ItemID  int
	Ordinal string
}

// Value returns the numeric rating of the row.
func (r RatingRow) Value() float64 {
	return OrdinalRating(r.Ordinal)
}
