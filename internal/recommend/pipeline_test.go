// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package recommend

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
)

type fakeSource struct {
	items []CandidateItem
	err   error
}

func (f *fakeSource) FetchCandidates(context.Context, []string, map[int]struct{}) ([]CandidateItem, error) {
	return f.items, f.err
}

type fakeRatings struct {
	rows []RatingRow
	err  error
}

func (f *fakeRatings) AllRatings(context.Context) ([]RatingRow, error) {
	return f.rows, f.err
}

type fakeCF struct {
	scores map[int]float64
	err    error
	panics bool
	calls  int
}

func (f *fakeCF) Recommend(_ context.Context, _ []RatingRow, _ *UserProfile, candidates []CandidateItem) ([]Recommendation, error) {
	f.calls++
	if f.panics {
		panic("matrix exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	var recs []Recommendation
	for _, c := range candidates {
		if s, ok := f.scores[c.ItemID]; ok {
			recs = append(recs, NewRecommendation(c, s, "cf", TierCollaborative))
		}
	}
	return recs, nil
}

// fakeContent scores every candidate with score(item) or fails by mode.
type fakeContent struct {
	score func(c CandidateItem) float64
	errs  map[ContentMode]error
	limit map[ContentMode]int
	calls map[ContentMode]int
}

func (f *fakeContent) ScoreAll(_ context.Context, _ *UserProfile, candidates []CandidateItem, mode ContentMode) ([]Recommendation, error) {
	if f.calls == nil {
		f.calls = make(map[ContentMode]int)
	}
	f.calls[mode]++
	if err := f.errs[mode]; err != nil {
		return nil, err
	}
	tier := TierSimpleContent
	if mode == ContentEnhanced {
		tier = TierEnhancedContent
	}
	var recs []Recommendation
	for _, c := range candidates {
		if n, ok := f.limit[mode]; ok && len(recs) >= n {
			break
		}
		recs = append(recs, NewRecommendation(c, f.score(c), mode.String(), tier))
	}
	return recs, nil
}

func makeCandidates(n int) []CandidateItem {
	out := make([]CandidateItem, n)
	for i := range out {
		id := i + 1
		out[i] = CandidateItem{ItemID: id, Title: fmt.Sprintf("Movie %d", id), VoteAverage: 7, Popularity: 50}
	}
	return out
}

func testProfile(watched ...int) *UserProfile {
	p := &UserProfile{
		Name:           "anshul",
		UserID:         1,
		WatchedItemIDs: make(map[int]struct{}),
		Ratings:        make(map[int]float64),
	}
	for _, id := range watched {
		p.WatchedItemIDs[id] = struct{}{}
	}
	return p
}

// readyRatings satisfies the default readiness thresholds for user 1.
func readyRatings() []RatingRow {
	var rows []RatingRow
	for user := 1; user <= 4; user++ {
		for item := 100; item < 104; item++ {
			rows = append(rows, RatingRow{UserID: user, ItemID: item, Ordinal: OrdinalGood})
		}
	}
	return rows
}

// readyProfile is user 1 with the ratings from readyRatings.
func readyProfile() *UserProfile {
	p := testProfile(100, 101, 102, 103)
	for item := 100; item < 104; item++ {
		p.Ratings[item] = OrdinalRating(OrdinalGood)
	}
	return p
}

func flatScore(s float64) func(CandidateItem) float64 {
	return func(CandidateItem) float64 { return s }
}

func newTestPipeline(t *testing.T, deps Deps) *Pipeline {
	t.Helper()
	p, err := NewPipeline(DefaultConfig(), deps, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	return p
}

func tierOutcome(t *testing.T, res *Result, tier Tier) TierOutcome {
	t.Helper()
	for _, o := range res.Tiers {
		if o.Tier == tier {
			return o
		}
	}
	t.Fatalf("tier %s not recorded", tier)
	return TierOutcome{}
}

func TestNewPipeline_Validation(t *testing.T) {
	if _, err := NewPipeline(nil, Deps{}, zerolog.Nop()); err == nil {
		t.Error("NewPipeline() without candidate source succeeded")
	}

	cfg := DefaultConfig()
	cfg.Cascade.SimpleBelow = 50
	if _, err := NewPipeline(cfg, Deps{Candidates: &fakeSource{}}, zerolog.Nop()); err == nil {
		t.Error("NewPipeline() with inverted thresholds succeeded")
	}
}

func TestPipeline_ColdStartUsesEnhancedContent(t *testing.T) {
	content := &fakeContent{score: func(c CandidateItem) float64 { return float64(c.ItemID) / 100 }}
	cf := &fakeCF{}
	p := newTestPipeline(t, Deps{
		Candidates:    &fakeSource{items: makeCandidates(40)},
		Ratings:       &fakeRatings{rows: ratingRows(map[int]int{1: 2, 2: 2})},
		Collaborative: cf,
		Content:       content,
	})

	res, err := p.Generate(context.Background(), testProfile())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if res.Readiness.UseCollaborative {
		t.Error("UseCollaborative = true for cold start")
	}
	if cf.calls != 0 {
		t.Errorf("collaborative scorer called %d times during cold start", cf.calls)
	}
	if got := tierOutcome(t, res, TierCollaborative); got.Attempted {
		t.Error("collaborative tier attempted during cold start")
	}
	if got := tierOutcome(t, res, TierEnhancedContent); !got.Attempted || got.Produced != 40 {
		t.Errorf("enhanced outcome = %+v, want 40 produced", got)
	}
	if got := tierOutcome(t, res, TierSimpleContent); got.Attempted {
		t.Error("simple tier attempted with 40 recommendations")
	}
	if content.calls[ContentSimple] != 0 {
		t.Error("simple scoring ran")
	}
	if len(res.Recommendations) != 40 {
		t.Fatalf("len(Recommendations) = %d, want 40", len(res.Recommendations))
	}
	if res.Recommendations[0].ItemID != 40 {
		t.Errorf("top item = %d, want 40", res.Recommendations[0].ItemID)
	}
}

func TestPipeline_CollaborativeScoreIsNeverOverwritten(t *testing.T) {
	p := newTestPipeline(t, Deps{
		Candidates:    &fakeSource{items: makeCandidates(30)},
		Ratings:       &fakeRatings{rows: readyRatings()},
		Collaborative: &fakeCF{scores: map[int]float64{1: 0.3, 2: 0.2}},
		Content:       &fakeContent{score: flatScore(0.9)},
	})

	res, err := p.Generate(context.Background(), readyProfile())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !res.Readiness.UseCollaborative {
		t.Fatalf("UseCollaborative = false: %s", res.Readiness.Reason)
	}

	for _, r := range res.Recommendations {
		switch r.ItemID {
		case 1, 2:
			if r.Tier != TierCollaborative {
				t.Errorf("item %d tier = %s, want collaborative", r.ItemID, r.Tier)
			}
			if r.Score > 0.31 {
				t.Errorf("item %d score = %f, overwritten by a later tier", r.ItemID, r.Score)
			}
		}
	}
	if got := tierOutcome(t, res, TierEnhancedContent); got.Input != 28 {
		t.Errorf("enhanced input = %d, want 28 (collaborative items excluded)", got.Input)
	}
}

func TestPipeline_EmergencyCatalog(t *testing.T) {
	tests := []struct {
		name   string
		source *fakeSource
	}{
		{"empty result", &fakeSource{}},
		{"fetch error", &fakeSource{err: errors.New("tmdb down")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPipeline(t, Deps{
				Candidates: tt.source,
				Content: &fakeContent{errs: map[ContentMode]error{
					ContentEnhanced: errors.New("model offline"),
					ContentSimple:   errors.New("bad data"),
				}},
			})

			res, err := p.Generate(context.Background(), testProfile(278))
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if !res.UsedEmergency {
				t.Error("UsedEmergency = false")
			}
			// Five emergency movies, one watched.
			if len(res.Recommendations) != 4 {
				t.Fatalf("len(Recommendations) = %d, want 4", len(res.Recommendations))
			}
			for _, r := range res.Recommendations {
				if r.ItemID == 278 {
					t.Error("watched item recommended")
				}
				if r.Tier != TierRandom || r.Score != 0.7 || r.Reason != "Curated high-quality selection" {
					t.Errorf("placeholder rec = %+v", r)
				}
			}
			if got := tierOutcome(t, res, TierEnhancedContent); !got.Failed() {
				t.Errorf("enhanced outcome = %+v, want failed", got)
			}
			if got := tierOutcome(t, res, TierSimpleContent); !got.Failed() {
				t.Errorf("simple outcome = %+v, want failed", got)
			}
		})
	}
}

func TestPipeline_TierFailuresAreContained(t *testing.T) {
	tests := []struct {
		name string
		cf   *fakeCF
	}{
		{"error", &fakeCF{err: errors.New("matrix build failed")}},
		{"panic", &fakeCF{panics: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPipeline(t, Deps{
				Candidates:    &fakeSource{items: makeCandidates(25)},
				Ratings:       &fakeRatings{rows: readyRatings()},
				Collaborative: tt.cf,
				Content:       &fakeContent{score: flatScore(0.5)},
			})

			res, err := p.Generate(context.Background(), readyProfile())
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if got := tierOutcome(t, res, TierCollaborative); !got.Failed() {
				t.Errorf("collaborative outcome = %+v, want failed", got)
			}
			if len(res.Recommendations) != 25 {
				t.Errorf("len(Recommendations) = %d, want 25", len(res.Recommendations))
			}
		})
	}
}

func TestPipeline_RatingStoreFailureSkipsCollaborative(t *testing.T) {
	cf := &fakeCF{}
	p := newTestPipeline(t, Deps{
		Candidates:    &fakeSource{items: makeCandidates(25)},
		Ratings:       &fakeRatings{err: errors.New("db locked")},
		Collaborative: cf,
		Content:       &fakeContent{score: flatScore(0.5)},
	})

	res, err := p.Generate(context.Background(), testProfile())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if cf.calls != 0 {
		t.Error("collaborative scorer called without ratings")
	}
	if len(res.Recommendations) != 25 {
		t.Errorf("len(Recommendations) = %d, want 25", len(res.Recommendations))
	}
}

func TestPipeline_SimpleAndRandomTopUp(t *testing.T) {
	content := &fakeContent{
		score: flatScore(0.6),
		limit: map[ContentMode]int{ContentEnhanced: 3, ContentSimple: 4},
	}
	p := newTestPipeline(t, Deps{
		Candidates: &fakeSource{items: makeCandidates(60)},
		Content:    content,
	})

	res, err := p.Generate(context.Background(), testProfile())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if got := tierOutcome(t, res, TierEnhancedContent).Produced; got != 3 {
		t.Errorf("enhanced produced = %d, want 3", got)
	}
	if got := tierOutcome(t, res, TierSimpleContent).Produced; got != 4 {
		t.Errorf("simple produced = %d, want 4", got)
	}
	// Placeholder tier fills the running total up to its limit of 30.
	if got := tierOutcome(t, res, TierRandom).Produced; got != 23 {
		t.Errorf("random produced = %d, want 23", got)
	}
	if len(res.Recommendations) != 30 {
		t.Errorf("len(Recommendations) = %d, want 30", len(res.Recommendations))
	}
}

func TestPipeline_MinimumGuarantee(t *testing.T) {
	for _, n := range []int{1, 7, 10, 12, 45} {
		t.Run(fmt.Sprintf("%d candidates", n), func(t *testing.T) {
			p := newTestPipeline(t, Deps{
				Candidates: &fakeSource{items: makeCandidates(n)},
				Content:    &fakeContent{score: flatScore(0.5), limit: map[ContentMode]int{ContentEnhanced: 0, ContentSimple: 0}},
			})

			res, err := p.Generate(context.Background(), testProfile())
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			want := n
			if want > 10 {
				want = 10
			}
			if len(res.Recommendations) < want {
				t.Errorf("len(Recommendations) = %d, want at least %d", len(res.Recommendations), want)
			}
		})
	}
}

func TestPipeline_CapsAtMaxResults(t *testing.T) {
	p := newTestPipeline(t, Deps{
		Candidates: &fakeSource{items: makeCandidates(200)},
		Content:    &fakeContent{score: func(c CandidateItem) float64 { return float64(c.ItemID%17) / 17 }},
	})

	res, err := p.Generate(context.Background(), testProfile())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(res.Recommendations) != 50 {
		t.Fatalf("len(Recommendations) = %d, want 50", len(res.Recommendations))
	}
	for i := 1; i < len(res.Recommendations); i++ {
		a, b := res.Recommendations[i-1], res.Recommendations[i]
		if a.Score < b.Score || (a.Score == b.Score && a.ItemID > b.ItemID) {
			t.Fatalf("recommendations out of order at %d: %+v then %+v", i, a, b)
		}
	}
}

func TestPipeline_Deterministic(t *testing.T) {
	deps := Deps{
		Candidates:    &fakeSource{items: makeCandidates(80)},
		Ratings:       &fakeRatings{rows: readyRatings()},
		Collaborative: &fakeCF{scores: map[int]float64{5: 0.5, 6: 0.5, 7: 0.9}},
		Content:       &fakeContent{score: func(c CandidateItem) float64 { return float64(c.ItemID%3) / 3 }},
	}
	p := newTestPipeline(t, deps)

	first, err := p.Generate(context.Background(), readyProfile())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	second, err := p.Generate(context.Background(), readyProfile())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(first.Recommendations) != len(second.Recommendations) {
		t.Fatalf("lengths differ: %d vs %d", len(first.Recommendations), len(second.Recommendations))
	}
	for i := range first.Recommendations {
		if first.Recommendations[i].ItemID != second.Recommendations[i].ItemID {
			t.Fatalf("order differs at %d: %d vs %d", i, first.Recommendations[i].ItemID, second.Recommendations[i].ItemID)
		}
	}
	if first.RunID == second.RunID {
		t.Error("RunID reused across runs")
	}
}

func TestPipeline_AllCandidatesWatched(t *testing.T) {
	p := newTestPipeline(t, Deps{
		Candidates: &fakeSource{items: makeCandidates(3)},
		Content:    &fakeContent{score: flatScore(0.5)},
	})

	res, err := p.Generate(context.Background(), testProfile(1, 2, 3))
	if err != nil {
		t.Fatalf("Generate() error = %v, want empty result", err)
	}
	if len(res.Recommendations) != 0 || res.CandidateCount != 0 {
		t.Errorf("Result = %+v, want no recommendations", res)
	}
	for _, o := range res.Tiers {
		if o.Failed() {
			t.Errorf("tier %s failed: %v", o.Tier, o.Err)
		}
	}
}

func TestPipeline_Exhausted(t *testing.T) {
	p := newTestPipeline(t, Deps{
		Candidates: &fakeSource{},
		Content:    &fakeContent{score: flatScore(0.5)},
	})

	var watched []int
	for _, c := range EmergencyCatalog() {
		watched = append(watched, c.ItemID)
	}

	res, err := p.Generate(context.Background(), testProfile(watched...))
	if err == nil {
		t.Fatal("Generate() error = nil, want exhaustion")
	}
	if !errors.Is(err, ErrExhausted) {
		t.Errorf("errors.Is(err, ErrExhausted) = false: %v", err)
	}
	var exhaustedErr *ExhaustedError
	if !errors.As(err, &exhaustedErr) {
		t.Fatalf("error type = %T, want *ExhaustedError", err)
	}
	if exhaustedErr.Profile != "anshul" || len(exhaustedErr.Tiers) != 4 {
		t.Errorf("ExhaustedError = %+v", exhaustedErr)
	}
	if res == nil || !res.UsedEmergency || len(res.Recommendations) != 0 {
		t.Errorf("Result = %+v, want empty emergency run", res)
	}
}

func TestPipeline_ReadinessCountsDistinctRatings(t *testing.T) {
	// Users 2-4 qualify; user 1 rated item 100 three times.
	var rows []RatingRow
	for user := 2; user <= 4; user++ {
		for item := 100; item < 104; item++ {
			rows = append(rows, RatingRow{UserID: user, ItemID: item, Ordinal: OrdinalGood})
		}
	}
	for i := 0; i < 3; i++ {
		rows = append(rows, RatingRow{UserID: 1, ItemID: 100, Ordinal: OrdinalLoved})
	}

	cf := &fakeCF{scores: map[int]float64{1: 0.9}}
	p := newTestPipeline(t, Deps{
		Candidates:    &fakeSource{items: makeCandidates(40)},
		Ratings:       &fakeRatings{rows: rows},
		Collaborative: cf,
		Content:       &fakeContent{score: flatScore(0.5)},
	})

	profile := testProfile(100)
	profile.Ratings[100] = 9

	res, err := p.Generate(context.Background(), profile)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.Readiness.UseCollaborative {
		t.Errorf("Readiness = %+v, want cold start for one distinct rating", res.Readiness)
	}
	if cf.calls != 0 {
		t.Errorf("collaborative calls = %d, want 0", cf.calls)
	}
}

func TestPipeline_InvalidProfile(t *testing.T) {
	p := newTestPipeline(t, Deps{Candidates: &fakeSource{items: makeCandidates(3)}})

	profile := testProfile()
	profile.Ratings[42] = 7 // rated but not watched

	if _, err := p.Generate(context.Background(), profile); !errors.Is(err, ErrInvalidProfile) {
		t.Errorf("Generate() error = %v, want ErrInvalidProfile", err)
	}

	profile = testProfile()
	profile.UserID = 0
	if _, err := p.Generate(context.Background(), profile); !errors.Is(err, ErrInvalidProfile) {
		t.Errorf("Generate() error = %v, want ErrInvalidProfile", err)
	}
}

func TestEmergencyCatalog_ReturnsCopy(t *testing.T) {
	a := EmergencyCatalog()
	a[0].Title = "changed"
	if EmergencyCatalog()[0].Title == "changed" {
		t.Error("EmergencyCatalog() shares its backing array")
	}
	if len(a) != 5 {
		t.Errorf("len(EmergencyCatalog()) = %d, want 5", len(a))
	}
}
