// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package service

import (
	"context"
	"fmt"

	"github.com/tomtom215/cinerank/internal/database"
	"github.com/tomtom215/cinerank/internal/events"
)

var _ events.WatchHandler = (*Service)(nil)

// HandleWatch records a watch event, drops the profile's cached snapshot
// and appends fresh recommendations. Events for unknown profiles are
// rejected with events.ErrInvalidEvent so they are not redelivered. A
// redelivered event is not recorded again; only the top-up is retried.
func (s *Service) HandleWatch(ctx context.Context, event *events.WatchEvent) error {
	profile, ok := s.profiles[event.Profile]
	if !ok {
		return fmt.Errorf("%w: unknown profile %q", events.ErrInvalidEvent, event.Profile)
	}

	record := &database.WatchRecord{
		EventID:   event.EventID,
		UserID:    profile.UserID,
		TMDBID:    event.TMDBID,
		Title:     event.Title,
		Rating:    event.Rating,
		Mood:      event.Mood,
		Overview:  event.Overview,
		Genres:    event.Genres,
		WatchedAt: event.WatchedAt,
	}
	recorded, err := s.store.RecordWatch(ctx, record)
	if err != nil {
		return fmt.Errorf("record watch %s: %w", event.EventID, err)
	}
	if recorded {
		if event.Mood != "" {
			if err := s.store.RecordMood(ctx, profile.UserID, event.Mood, event.WatchedAt); err != nil {
				return fmt.Errorf("record mood %s: %w", event.EventID, err)
			}
		}
		s.cache.InvalidateUser(event.Profile)

		s.logger.Info().
			Str("event_id", event.EventID).
			Str("profile", event.Profile).
			Int("tmdb_id", event.TMDBID).
			Str("rating", event.Rating).
			Msg("Recorded watch")
	} else {
		s.logger.Debug().Str("event_id", event.EventID).Msg("Watch already recorded")
	}

	if _, err := s.AddIncremental(ctx, event.Profile, DefaultIncrementCount); err != nil {
		return fmt.Errorf("incremental update after %s: %w", event.EventID, err)
	}
	return nil
}
