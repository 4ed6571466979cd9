// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package recommend_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cinerank/internal/cache"
	"github.com/tomtom215/cinerank/internal/recommend"
	"github.com/tomtom215/cinerank/internal/recommend/algorithms"
)

type staticSource []recommend.CandidateItem

func (s staticSource) FetchCandidates(context.Context, []string, map[int]struct{}) ([]recommend.CandidateItem, error) {
	return s, nil
}

type staticRatings []recommend.RatingRow

func (s staticRatings) AllRatings(context.Context) ([]recommend.RatingRow, error) {
	return s, nil
}

func rate(user, item int, ordinal string) recommend.RatingRow {
	return recommend.RatingRow{UserID: user, ItemID: item, Ordinal: ordinal}
}

// warmRatings: four users agree on items 1-3; users 2-4 also rated 4-6.
func warmRatings() staticRatings {
	l, g, d := recommend.OrdinalLoved, recommend.OrdinalGood, recommend.OrdinalDisliked
	return staticRatings{
		rate(1, 1, l), rate(1, 2, g), rate(1, 3, d),
		rate(2, 1, l), rate(2, 2, g), rate(2, 3, d), rate(2, 4, l), rate(2, 5, d),
		rate(3, 1, l), rate(3, 2, g), rate(3, 3, d), rate(3, 4, l),
		rate(4, 1, l), rate(4, 2, g), rate(4, 3, d), rate(4, 5, d), rate(4, 6, g),
	}
}

func catalog() staticSource {
	items := staticSource{
		{ItemID: 1, Title: "Seen One", VoteAverage: 8, Popularity: 80, Genres: []string{"Drama"}},
		{ItemID: 4, Title: "Four", VoteAverage: 7, Popularity: 40, Genres: []string{"Action"}},
		{ItemID: 5, Title: "Five", VoteAverage: 6, Popularity: 30, Genres: []string{"Comedy"}},
		{ItemID: 6, Title: "Six", VoteAverage: 7.5, Popularity: 60, Genres: []string{"Drama"}},
	}
	for id := 100; id < 130; id++ {
		items = append(items, recommend.CandidateItem{
			ItemID:      id,
			Title:       fmt.Sprintf("Movie %d", id),
			VoteAverage: float64(id%10) + 0.5,
			Popularity:  float64(id % 90),
			Genres:      []string{"Action"},
		})
	}
	return items
}

func anshul() *recommend.UserProfile {
	return &recommend.UserProfile{
		Name:            "anshul",
		UserID:          1,
		WatchedItemIDs:  map[int]struct{}{1: {}, 2: {}, 3: {}},
		Ratings:         map[int]float64{1: 9, 2: 7, 3: 3},
		PreferredGenres: []string{"Action", "Drama"},
		MoodWeights:     map[string]float64{"excited": 1.2},
		CurrentMood:     "excited",
	}
}

func newPipeline(t *testing.T, ratings staticRatings) *recommend.Pipeline {
	t.Helper()
	store, err := cache.Open(cache.Options{Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("cache.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	p, err := recommend.NewPipeline(recommend.DefaultConfig(), recommend.Deps{
		Candidates:    catalog(),
		Ratings:       ratings,
		Collaborative: algorithms.NewCollaborativeFilter(algorithms.DefaultSimilarityConfig(), store, zerolog.Nop()),
		Content:       algorithms.NewContentScorer(algorithms.DefaultContentConfig(), nil, store, zerolog.Nop()),
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	return p
}

func TestPipeline_HybridEndToEnd(t *testing.T) {
	p := newPipeline(t, warmRatings())

	res, err := p.Generate(context.Background(), anshul())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !res.Readiness.UseCollaborative {
		t.Fatalf("UseCollaborative = false: %s", res.Readiness.Reason)
	}

	byID := make(map[int]recommend.Recommendation)
	for _, r := range res.Recommendations {
		if _, dup := byID[r.ItemID]; dup {
			t.Errorf("item %d recommended twice", r.ItemID)
		}
		byID[r.ItemID] = r
		if r.Score < 0 || r.Score > 1 {
			t.Errorf("item %d score %f outside [0, 1]", r.ItemID, r.Score)
		}
	}

	if _, ok := byID[1]; ok {
		t.Error("watched item 1 recommended")
	}
	for _, id := range []int{4, 5, 6} {
		if r, ok := byID[id]; !ok || r.Tier != recommend.TierCollaborative {
			t.Errorf("item %d = %+v, want collaborative", id, r)
		}
	}
	if len(res.Recommendations) < 10 {
		t.Errorf("len(Recommendations) = %d, want at least 10", len(res.Recommendations))
	}
}

func TestPipeline_ThreeUsersIsColdStart(t *testing.T) {
	var ratings staticRatings
	for _, r := range warmRatings() {
		if r.UserID != 4 {
			ratings = append(ratings, r)
		}
	}

	res, err := newPipeline(t, ratings).Generate(context.Background(), anshul())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.Readiness.UseCollaborative {
		t.Error("UseCollaborative = true with three users")
	}
	for _, r := range res.Recommendations {
		if r.Tier == recommend.TierCollaborative {
			t.Errorf("collaborative recommendation %d during cold start", r.ItemID)
		}
	}
}

func TestPipeline_RepeatedRunsMatch(t *testing.T) {
	p := newPipeline(t, warmRatings())

	first, err := p.Generate(context.Background(), anshul())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	// The second run reads memoized similarities from the cache.
	second, err := p.Generate(context.Background(), anshul())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(first.Recommendations) != len(second.Recommendations) {
		t.Fatalf("lengths differ: %d vs %d", len(first.Recommendations), len(second.Recommendations))
	}
	for i := range first.Recommendations {
		a, b := first.Recommendations[i], second.Recommendations[i]
		if a.ItemID != b.ItemID || a.Score != b.Score {
			t.Fatalf("run differs at %d: %+v vs %+v", i, a, b)
		}
	}
}
