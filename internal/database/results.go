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
	"math/rand/v2"
	"time"

	"github.com/tomtom215/cinerank/internal/logging"
	"github.com/tomtom215/cinerank/internal/recommend"
)

// dislikePenalty scales the score of active items sharing a genre with a
// disliked item.
const (
	dislikePenalty = 0.7
	dislikeSuffix  = " (Reduced due to dislike)"

	// baselineRecommendations is the size of a fresh refresh; growth is
	// measured against it.
	baselineRecommendations = 30
)

// StoredRecommendation is one row of a profile table.
type StoredRecommendation struct {
	recommend.Recommendation
	AddedAt time.Time `json:"added_at"`
}

// ProfileStats summarises a profile table.
type ProfileStats struct {
	Profile      string  `json:"profile"`
	Active       int     `json:"active_recommendations"`
	Total        int     `json:"total_recommendations"`
	AverageScore float64 `json:"average_similarity_score"`
	Growth       int     `json:"growth"`
}

var _ recommend.ResultSink = (*DB)(nil)

// Replace deactivates every stored recommendation of the profile, then
// upserts recs as active.
func (db *DB) Replace(ctx context.Context, profile string, recs []recommend.Recommendation) error {
	return db.upsert(ctx, profile, recs, true)
}

// Append upserts recs without deactivating existing entries.
func (db *DB) Append(ctx context.Context, profile string, recs []recommend.Recommendation) error {
	return db.upsert(ctx, profile, recs, false)
}

func (db *DB) upsert(ctx context.Context, profile string, recs []recommend.Recommendation, replace bool) (err error) {
	cfg, err := db.profile(profile)
	if err != nil {
		return err
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("upsert", cfg.Table, start, err) }(time.Now())

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if replace {
		if _, err = tx.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET is_active = FALSE WHERE is_active`, cfg.Table)); err != nil {
			return fmt.Errorf("failed to deactivate recommendations: %w", err)
		}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (tmdb_id, title, genres, vote_average, popularity, similarity_score, recommendation_reason, tier, added_at, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, TRUE)
		ON CONFLICT (tmdb_id) DO UPDATE SET
			title = EXCLUDED.title,
			genres = EXCLUDED.genres,
			vote_average = EXCLUDED.vote_average,
			popularity = EXCLUDED.popularity,
			similarity_score = EXCLUDED.similarity_score,
			recommendation_reason = EXCLUDED.recommendation_reason,
			tier = EXCLUDED.tier,
			added_at = EXCLUDED.added_at,
			is_active = TRUE`, cfg.Table)

	now := time.Now().UTC()
	for i := range recs {
		r := &recs[i]
		if _, err = tx.ExecContext(ctx, query,
			r.ItemID, r.Title, joinGenres(r.Genres), r.VoteAverage, r.Popularity, r.Score, r.Reason, string(r.Tier), now); err != nil {
			return fmt.Errorf("failed to store recommendation %d: %w", r.ItemID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recommendations: %w", err)
	}

	logging.Debug().Str("profile", profile).Int("count", len(recs)).Bool("replace", replace).Msg("Stored recommendations")
	return nil
}

// Active returns up to limit active recommendations ordered by score, then
// recency. With shuffle the selected rows are returned in random order.
func (db *DB) Active(ctx context.Context, profile string, limit int, shuffle bool) (recs []StoredRecommendation, err error) {
	cfg, err := db.profile(profile)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("select", cfg.Table, start, err) }(time.Now())

	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT tmdb_id, title, genres, vote_average, popularity, similarity_score, recommendation_reason, tier, added_at
		FROM %s
		WHERE is_active
		ORDER BY similarity_score DESC, added_at DESC, tmdb_id ASC
		LIMIT ?`, cfg.Table), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var (
			r      StoredRecommendation
			genres string
			tier   string
		)
		if err := rows.Scan(&r.ItemID, &r.Title, &genres, &r.VoteAverage, &r.Popularity,
			&r.Score, &r.Reason, &tier, &r.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		r.Genres = splitGenres(genres)
		r.Tier = recommend.Tier(tier)
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recommendations: %w", err)
	}

	if shuffle {
		rand.Shuffle(len(recs), func(i, j int) { recs[i], recs[j] = recs[j], recs[i] })
	}
	return recs, nil
}

// Dislike deactivates itemID and reduces the score of active items that
// share a genre with it. It returns the number of items reduced.
func (db *DB) Dislike(ctx context.Context, profile string, itemID int) (reduced int, err error) {
	cfg, err := db.profile(profile)
	if err != nil {
		return 0, err
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("update", cfg.Table, start, err) }(time.Now())

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET is_active = FALSE WHERE tmdb_id = ?`, cfg.Table), itemID); err != nil {
		return 0, fmt.Errorf("failed to deactivate %d: %w", itemID, err)
	}

	var genres string
	err = tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT genres FROM %s WHERE tmdb_id = ?`, cfg.Table), itemID).Scan(&genres)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && genres == "") {
		err = tx.Commit()
		return 0, err
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read genres of %d: %w", itemID, err)
	}

	result, err := tx.ExecContext(ctx, fmt.Sprintf(`
		UPDATE %s
		SET similarity_score = similarity_score * ?,
			recommendation_reason = recommendation_reason || ?
		WHERE tmdb_id <> ?
		  AND is_active
		  AND genres <> ''
		  AND list_has_any(string_split(genres, '|'), string_split(?, '|'))`, cfg.Table),
		dislikePenalty, dislikeSuffix, itemID, genres)
	if err != nil {
		return 0, fmt.Errorf("failed to reduce similar recommendations: %w", err)
	}
	n, _ := result.RowsAffected()

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit dislike: %w", err)
	}
	return int(n), nil
}

// Stats returns the counts and average score of a profile table.
func (db *DB) Stats(ctx context.Context, profile string) (stats ProfileStats, err error) {
	cfg, err := db.profile(profile)
	if err != nil {
		return ProfileStats{}, err
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("select", cfg.Table, start, err) }(time.Now())

	var avg sql.NullFloat64
	err = db.conn.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT
			COUNT(*) FILTER (WHERE is_active),
			COUNT(*),
			AVG(similarity_score) FILTER (WHERE is_active)
		FROM %s`, cfg.Table)).Scan(&stats.Active, &stats.Total, &avg)
	if err != nil {
		return ProfileStats{}, fmt.Errorf("failed to query stats: %w", err)
	}

	stats.Profile = profile
	stats.AverageScore = avg.Float64
	stats.Growth = stats.Active - baselineRecommendations
	return stats, nil
}
