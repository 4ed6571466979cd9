// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package recommend

import "fmt"

// Config contains the tunable policy of the recommendation pipeline.
// The numeric constants are empirically chosen, not invariants.
type Config struct {
	// Cascade controls tier entry thresholds and result caps.
	Cascade CascadeConfig `json:"cascade"`

	// Readiness controls when collaborative filtering is trusted.
	Readiness ReadinessConfig `json:"readiness"`
}

// CascadeConfig contains the tier thresholds.
type CascadeConfig struct {
	// MaxResults caps the final list and every merge.
	MaxResults int `json:"max_results"`

	// EnhancedBelow enters the enhanced content tier while total < EnhancedBelow.
	EnhancedBelow int `json:"enhanced_below"`

	// SimpleBelow enters the simple content tier while total < SimpleBelow.
	SimpleBelow int `json:"simple_below"`

	// RandomBelow enters the placeholder tier while total < RandomBelow.
	RandomBelow int `json:"random_below"`

	// RandomLimit caps the number of placeholder items.
	RandomLimit int `json:"random_limit"`

	// RandomScore is the fixed placeholder score.
	RandomScore float64 `json:"random_score"`
}

// ReadinessConfig contains the cold-start thresholds.
type ReadinessConfig struct {
	MinUsers          int `json:"min_users"`
	MinTotalRatings   int `json:"min_total_ratings"`
	MinRatingsPerUser int `json:"min_ratings_per_user"`
	MinActiveUsers    int `json:"min_active_users"`
}

// DefaultConfig returns the default pipeline policy.
func DefaultConfig() *Config {
	return &Config{
		Cascade: CascadeConfig{
			MaxResults:    50,
			EnhancedBelow: 20,
			SimpleBelow:   15,
			RandomBelow:   10,
			RandomLimit:   30,
			RandomScore:   0.7,
		},
		Readiness: ReadinessConfig{
			MinUsers:          4,
			MinTotalRatings:   15,
			MinRatingsPerUser: 3,
			MinActiveUsers:    2,
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	cc := &c.Cascade
	if cc.MaxResults < 1 {
		return fmt.Errorf("cascade.max_results must be positive, got %d", cc.MaxResults)
	}
	if cc.RandomBelow > cc.SimpleBelow || cc.SimpleBelow > cc.EnhancedBelow {
		return fmt.Errorf("cascade thresholds must satisfy random_below <= simple_below <= enhanced_below, got %d/%d/%d",
			cc.RandomBelow, cc.SimpleBelow, cc.EnhancedBelow)
	}
	if cc.RandomLimit < cc.RandomBelow {
		return fmt.Errorf("cascade.random_limit must be at least random_below, got %d < %d", cc.RandomLimit, cc.RandomBelow)
	}
	if cc.RandomScore < 0 || cc.RandomScore > 1 {
		return fmt.Errorf("cascade.random_score must be in [0, 1], got %f", cc.RandomScore)
	}

	rc := &c.Readiness
	if rc.MinUsers < 1 || rc.MinTotalRatings < 0 || rc.MinRatingsPerUser < 1 || rc.MinActiveUsers < 0 {
		return fmt.Errorf("readiness thresholds must be positive, got users=%d ratings=%d per_user=%d active=%d",
			rc.MinUsers, rc.MinTotalRatings, rc.MinRatingsPerUser, rc.MinActiveUsers)
	}
	return nil
}
