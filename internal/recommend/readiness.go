// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package recommend

import (
	"fmt"
	"strings"
)

// RatingStats summarizes the global rating store.
type RatingStats struct {
	// TotalUsers is the number of distinct users with at least one rating.
	TotalUsers int `json:"total_users"`
	// TotalRatings is the number of ratings.
	TotalRatings int `json:"total_ratings"`
	// RatingsByUser counts ratings per user.
	RatingsByUser map[int]int `json:"ratings_by_user"`
}

// ComputeRatingStats summarizes rating rows.
func ComputeRatingStats(rows []RatingRow) RatingStats {
	byUser := make(map[int]int)
	for _, r := range rows {
		byUser[r.UserID]++
	}
	return RatingStats{
		TotalUsers:    len(byUser),
		TotalRatings:  len(rows),
		RatingsByUser: byUser,
	}
}

// UsersWithAtLeast returns how many users have at least n ratings.
func (s *RatingStats) UsersWithAtLeast(n int) int {
	count := 0
	for _, c := range s.RatingsByUser {
		if c >= n {
			count++
		}
	}
	return count
}

// Readiness is the collaborative-filtering routing decision for one user.
type Readiness struct {
	UseCollaborative bool   `json:"use_collaborative"`
	Method           string `json:"method"` // "hybrid" or "content-based"
	Reason           string `json:"reason"`
}

// ReadinessAssessor decides whether there is enough rating data to trust
// collaborative filtering for a user.
type ReadinessAssessor struct {
	cfg ReadinessConfig
}

// NewReadinessAssessor creates an assessor with the given thresholds.
func NewReadinessAssessor(cfg ReadinessConfig) *ReadinessAssessor {
	return &ReadinessAssessor{cfg: cfg}
}

// Assess returns the decision and a reason listing every failed threshold.
//
//nolint:gocritic // hugeParam: stats passed by value for immutability
func (a *ReadinessAssessor) Assess(stats RatingStats, userRatings int) Readiness {
	var failed []string

	if stats.TotalUsers < a.cfg.MinUsers {
		failed = append(failed, fmt.Sprintf("Need %d users (have %d)", a.cfg.MinUsers, stats.TotalUsers))
	}
	if stats.TotalRatings < a.cfg.MinTotalRatings {
		failed = append(failed, fmt.Sprintf("Need %d total ratings (have %d)", a.cfg.MinTotalRatings, stats.TotalRatings))
	}
	if userRatings < a.cfg.MinRatingsPerUser {
		failed = append(failed, fmt.Sprintf("User needs %d ratings (has %d)", a.cfg.MinRatingsPerUser, userRatings))
	}
	if active := stats.UsersWithAtLeast(a.cfg.MinRatingsPerUser); active < a.cfg.MinActiveUsers {
		failed = append(failed, fmt.Sprintf("Need more active users with %d+ ratings", a.cfg.MinRatingsPerUser))
	}

	if len(failed) > 0 {
		return Readiness{
			UseCollaborative: false,
			Method:           "content-based",
			Reason:           "Cold start: " + strings.Join(failed, ", "),
		}
	}

	return Readiness{
		UseCollaborative: true,
		Method:           "hybrid",
		Reason: fmt.Sprintf("Sufficient data: %d users, %d ratings, user has %d ratings",
			stats.TotalUsers, stats.TotalRatings, userRatings),
	}
}
