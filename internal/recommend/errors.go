// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package recommend

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrExhausted is wrapped by ExhaustedError.
	ErrExhausted = errors.New("recommendation cascade exhausted")

	// ErrInvalidProfile is returned when a profile fails boundary validation.
	ErrInvalidProfile = errors.New("invalid user profile")
)

// TierOutcome records what one cascade stage did during a run.
type TierOutcome struct {
	Tier      Tier   `json:"tier"`
	Attempted bool   `json:"attempted"`
	Input     int    `json:"input"`
	Produced  int    `json:"produced"`
	Reason    string `json:"reason"`
	Err       error  `json:"-"`
}

// Failed reports whether the tier was attempted and raised an error.
func (o *TierOutcome) Failed() bool {
	return o.Attempted && o.Err != nil
}

// String renders the outcome for logs and error messages.
func (o *TierOutcome) String() string {
	switch {
	case !o.Attempted:
		return fmt.Sprintf("%s: skipped (%s)", o.Tier, o.Reason)
	case o.Err != nil:
		return fmt.Sprintf("%s: failed (%v)", o.Tier, o.Err)
	default:
		return fmt.Sprintf("%s: produced %d of %d (%s)", o.Tier, o.Produced, o.Input, o.Reason)
	}
}

// ExhaustedError is the only hard failure of a pipeline run: no tier
// produced anything and no candidates were available.
type ExhaustedError struct {
	Profile string
	Tiers   []TierOutcome
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, len(e.Tiers))
	for i := range e.Tiers {
		parts[i] = e.Tiers[i].String()
	}
	return fmt.Sprintf("%s for %s: %s", ErrExhausted, e.Profile, strings.Join(parts, "; "))
}

func (e *ExhaustedError) Unwrap() error {
	return ErrExhausted
}
