// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package database

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/tomtom215/cinerank/internal/recommend"
)

func rec(id int, score float64, genres ...string) recommend.Recommendation {
	return recommend.Recommendation{
		ItemID:      id,
		Title:       "Movie",
		Score:       score,
		Reason:      "Test reason",
		Genres:      genres,
		VoteAverage: 7,
		Popularity:  50,
		Tier:        recommend.TierSimpleContent,
	}
}

func activeIDs(t *testing.T, db *DB, profile string) []int {
	t.Helper()
	recs, err := db.Active(context.Background(), profile, 100, false)
	if err != nil {
		t.Fatalf("Active() error = %v", err)
	}
	ids := make([]int, len(recs))
	for i, r := range recs {
		ids[i] = r.ItemID
	}
	return ids
}

func equalIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestReplace_DeactivatesPrevious(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.Replace(ctx, "anshul", []recommend.Recommendation{rec(1, 0.9), rec(2, 0.8)}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if err := db.Replace(ctx, "anshul", []recommend.Recommendation{rec(2, 0.5), rec(3, 0.7)}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	if got := activeIDs(t, db, "anshul"); !equalIDs(got, []int{3, 2}) {
		t.Errorf("active = %v, want [3 2]", got)
	}

	stats, err := db.Stats(ctx, "anshul")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Active != 2 || stats.Total != 3 {
		t.Errorf("Stats() = %+v, want 2 active of 3", stats)
	}
	if math.Abs(stats.AverageScore-0.6) > 1e-9 {
		t.Errorf("AverageScore = %v, want 0.6", stats.AverageScore)
	}
	if stats.Growth != 2-30 {
		t.Errorf("Growth = %d, want -28", stats.Growth)
	}
}

func TestAppend_KeepsExisting(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.Replace(ctx, "anshul", []recommend.Recommendation{rec(1, 0.9)}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if err := db.Append(ctx, "anshul", []recommend.Recommendation{rec(2, 0.95)}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if got := activeIDs(t, db, "anshul"); !equalIDs(got, []int{2, 1}) {
		t.Errorf("active = %v, want [2 1]", got)
	}
	// Profiles are isolated.
	if got := activeIDs(t, db, "shikhar"); len(got) != 0 {
		t.Errorf("shikhar active = %v, want empty", got)
	}
}

func TestActive_RoundTripAndShuffle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	var recs []recommend.Recommendation
	for i := 1; i <= 20; i++ {
		recs = append(recs, rec(i, float64(i)/100, "Action", "Science Fiction"))
	}
	if err := db.Replace(ctx, "anshul", recs); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	top, err := db.Active(ctx, "anshul", 5, false)
	if err != nil {
		t.Fatalf("Active() error = %v", err)
	}
	if len(top) != 5 || top[0].ItemID != 20 {
		t.Fatalf("Active(5) = %+v, want highest scores first", top)
	}
	if got := top[0].Genres; len(got) != 2 || got[1] != "Science Fiction" {
		t.Errorf("Genres = %q", got)
	}
	if top[0].Tier != recommend.TierSimpleContent || top[0].AddedAt.IsZero() {
		t.Errorf("row = %+v", top[0])
	}

	shuffled, err := db.Active(ctx, "anshul", 5, true)
	if err != nil {
		t.Fatalf("Active(shuffle) error = %v", err)
	}
	seen := make(map[int]bool)
	for _, r := range shuffled {
		seen[r.ItemID] = true
	}
	for _, r := range top {
		if !seen[r.ItemID] {
			t.Errorf("shuffle changed the selected set: missing %d", r.ItemID)
		}
	}
}

func TestDislike(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	err := db.Replace(ctx, "anshul", []recommend.Recommendation{
		rec(1, 0.9, "Action", "Drama"),
		rec(2, 0.8, "Drama"),
		rec(3, 0.7, "Comedy"),
		rec(4, 0.6),
	})
	if err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	reduced, err := db.Dislike(ctx, "anshul", 1)
	if err != nil {
		t.Fatalf("Dislike() error = %v", err)
	}
	if reduced != 1 {
		t.Errorf("reduced = %d, want 1", reduced)
	}

	recs, err := db.Active(ctx, "anshul", 10, false)
	if err != nil {
		t.Fatalf("Active() error = %v", err)
	}
	byID := make(map[int]StoredRecommendation)
	for _, r := range recs {
		byID[r.ItemID] = r
	}
	if _, ok := byID[1]; ok {
		t.Error("disliked item still active")
	}
	if r := byID[2]; math.Abs(r.Score-0.56) > 1e-9 || !strings.HasSuffix(r.Reason, " (Reduced due to dislike)") {
		t.Errorf("item 2 = %v %q, want reduced score 0.56", r.Score, r.Reason)
	}
	if r := byID[3]; r.Score != 0.7 || strings.Contains(r.Reason, "Reduced") {
		t.Errorf("item 3 = %v %q, want unchanged", r.Score, r.Reason)
	}
	if r := byID[4]; r.Score != 0.6 {
		t.Errorf("item 4 score = %v, want unchanged", r.Score)
	}
}

func TestDislike_UnknownItem(t *testing.T) {
	db := setupTestDB(t)

	reduced, err := db.Dislike(context.Background(), "anshul", 999)
	if err != nil {
		t.Fatalf("Dislike() error = %v", err)
	}
	if reduced != 0 {
		t.Errorf("reduced = %d, want 0", reduced)
	}
}
