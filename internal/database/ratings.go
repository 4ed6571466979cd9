// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/cinerank/internal/recommend"
	"github.com/tomtom215/cinerank/internal/validation"
)

const genreSeparator = "|"

func joinGenres(genres []string) string {
	return strings.Join(genres, genreSeparator)
}

func splitGenres(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, genreSeparator)
}

// WatchRecord is one row of watch history.
type WatchRecord struct {
	EventID   string    `validate:"max=128"`
	UserID    int       `validate:"gt=0"`
	TMDBID    int       `validate:"gt=0"`
	Title     string    `validate:"required"`
	Rating    string    `validate:"omitempty,oneof=disliked good loved"`
	Mood      string    `validate:"omitempty,max=32"`
	Overview  string    `validate:"max=4096"`
	Genres    []string  `validate:"dive,required"`
	WatchedAt time.Time `validate:"required"`
}

var _ recommend.RatingSource = (*DB)(nil)

// AllRatings returns every rated watch of every user.
func (db *DB) AllRatings(ctx context.Context) (rows []recommend.RatingRow, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("select", "watched_movies", start, err) }(time.Now())

	result, err := db.conn.QueryContext(ctx, `
		SELECT user_id, tmdb_id, rating
		FROM watched_movies
		WHERE rating IS NOT NULL
		ORDER BY user_id, tmdb_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer closeWithLog(result, "rows")

	for result.Next() {
		var r recommend.RatingRow
		if err := result.Scan(&r.UserID, &r.ItemID, &r.Ordinal); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		rows = append(rows, r)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ratings: %w", err)
	}
	return rows, nil
}

// LoadProfile assembles the UserProfile of a configured profile from its
// watch history and latest mood selection.
func (db *DB) LoadProfile(ctx context.Context, name string) (profile *recommend.UserProfile, err error) {
	cfg, err := db.profile(name)
	if err != nil {
		return nil, err
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("select", "watched_movies", start, err) }(time.Now())

	profile = &recommend.UserProfile{
		Name:            name,
		UserID:          cfg.UserID,
		WatchedItemIDs:  make(map[int]struct{}),
		Ratings:         make(map[int]float64),
		PreferredGenres: append([]string(nil), cfg.Genres...),
		MoodWeights:     make(map[string]float64, len(cfg.MoodWeights)),
		CurrentMood:     recommend.DefaultMood,
	}
	for mood, w := range cfg.MoodWeights {
		profile.MoodWeights[mood] = w
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT tmdb_id, title, rating, overview
		FROM watched_movies
		WHERE user_id = ?
		ORDER BY watched_at DESC`, cfg.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watch history: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var (
			id       int
			title    string
			rating   sql.NullString
			overview sql.NullString
		)
		if err := rows.Scan(&id, &title, &rating, &overview); err != nil {
			return nil, fmt.Errorf("failed to scan watch history: %w", err)
		}

		_, seen := profile.WatchedItemIDs[id]
		profile.WatchedItemIDs[id] = struct{}{}
		// Newest rating wins.
		if rating.Valid && rating.String != "" && !seen {
			profile.Ratings[id] = recommend.OrdinalRating(rating.String)
		}
		if !seen {
			item := recommend.CandidateItem{Title: title, Overview: overview.String}
			profile.WatchedTexts = append(profile.WatchedTexts, item.Text())
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate watch history: %w", err)
	}

	var mood string
	err = db.conn.QueryRowContext(ctx, `
		SELECT mood FROM mood_selections
		WHERE user_id = ?
		ORDER BY selected_at DESC
		LIMIT 1`, cfg.UserID).Scan(&mood)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = nil
	case err != nil:
		return nil, fmt.Errorf("failed to query mood: %w", err)
	default:
		profile.CurrentMood = mood
	}

	return profile, nil
}

// RecordWatch appends a watch to the history. A record whose EventID is
// already stored is skipped and reported with recorded false, so a
// redelivered event adds no second row.
func (db *DB) RecordWatch(ctx context.Context, w *WatchRecord) (recorded bool, err error) {
	if verr := validation.ValidateStruct(w); verr != nil {
		return false, verr
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("insert", "watched_movies", start, err) }(time.Now())

	var eventID, rating, mood interface{}
	if w.EventID != "" {
		eventID = w.EventID
	}
	if w.Rating != "" {
		rating = w.Rating
	}
	if w.Mood != "" {
		mood = w.Mood
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil || !recorded {
			_ = tx.Rollback()
		}
	}()

	if w.EventID != "" {
		var seen int
		if err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM watched_movies WHERE event_id = ?`, w.EventID).Scan(&seen); err != nil {
			return false, fmt.Errorf("failed to check event %s: %w", w.EventID, err)
		}
		if seen > 0 {
			return false, nil
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO watched_movies (event_id, user_id, tmdb_id, title, rating, current_mood, overview, genres, watched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		eventID, w.UserID, w.TMDBID, w.Title, rating, mood, w.Overview, joinGenres(w.Genres), w.WatchedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("failed to record watch: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit watch: %w", err)
	}
	return true, nil
}

// RecordMood stores a mood selection for a user.
func (db *DB) RecordMood(ctx context.Context, userID int, mood string, at time.Time) (err error) {
	if userID <= 0 || mood == "" {
		return fmt.Errorf("invalid mood selection: user=%d mood=%q", userID, mood)
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("insert", "mood_selections", start, err) }(time.Now())

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO mood_selections (user_id, mood, selected_at) VALUES (?, ?, ?)`,
		userID, mood, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to record mood: %w", err)
	}
	return nil
}
