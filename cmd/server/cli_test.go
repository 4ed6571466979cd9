// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cinerank/internal/database"
	"github.com/tomtom215/cinerank/internal/recommend"
	"github.com/tomtom215/cinerank/internal/service"
)

type fakeBackend struct {
	lastLimit int
	lastCount int
	refreshed []string
	failAll   error
}

func (f *fakeBackend) Profiles() []service.ProfileInfo {
	return []service.ProfileInfo{{Name: "anshul", UserID: 1}}
}

func (f *fakeBackend) RefreshProfile(_ context.Context, name string) (*recommend.Result, error) {
	if name != "anshul" {
		return nil, database.ErrUnknownProfile
	}
	f.refreshed = append(f.refreshed, name)
	return &recommend.Result{Profile: name, Recommendations: make([]recommend.Recommendation, 3)}, nil
}

func (f *fakeBackend) RefreshAll(ctx context.Context) (map[string]*recommend.Result, error) {
	res, _ := f.RefreshProfile(ctx, "anshul")
	return map[string]*recommend.Result{"anshul": res}, f.failAll
}

func (f *fakeBackend) AddIncremental(_ context.Context, _ string, count int) ([]recommend.Recommendation, error) {
	f.lastCount = count
	return []recommend.Recommendation{{ItemID: 7}}, nil
}

func (f *fakeBackend) Recommendations(_ context.Context, _ string, limit int, _ bool) ([]database.StoredRecommendation, error) {
	f.lastLimit = limit
	return []database.StoredRecommendation{{
		Recommendation: recommend.Recommendation{ItemID: 603, Title: "The Matrix"},
		AddedAt:        time.Unix(0, 0).UTC(),
	}}, nil
}

func (f *fakeBackend) Dislike(_ context.Context, _ string, _ int) (int, error) {
	return 2, nil
}

func (f *fakeBackend) Stats(_ context.Context, name string) (database.ProfileStats, error) {
	return database.ProfileStats{Profile: name, Active: 5}, nil
}

func (f *fakeBackend) CacheStats() service.CacheReport {
	return service.CacheReport{HitRatePercent: 50}
}

func (f *fakeBackend) CacheCleanup() (int, error) {
	return 4, nil
}

func TestRunCommand_Usage(t *testing.T) {
	tests := [][]string{
		nil,
		{"bogus"},
		{"refresh"},
		{"get", "anshul", "zero"},
		{"get", "anshul", "-1"},
		{"add", "anshul", "1", "2"},
		{"dislike", "anshul"},
		{"dislike", "anshul", "abc"},
	}

	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			var out bytes.Buffer
			err := runCommand(context.Background(), &fakeBackend{}, args, &out)
			if !errors.Is(err, errUsage) {
				t.Fatalf("runCommand(%v) error = %v, want errUsage", args, err)
			}
			if !strings.Contains(out.String(), "Commands:") {
				t.Error("usage text not written")
			}
		})
	}
}

func TestRunCommand_Defaults(t *testing.T) {
	b := &fakeBackend{}
	ctx := context.Background()

	if err := runCommand(ctx, b, []string{"get", "anshul"}, &bytes.Buffer{}); err != nil {
		t.Fatalf("get error = %v", err)
	}
	if b.lastLimit != 50 {
		t.Errorf("default limit = %d, want 50", b.lastLimit)
	}

	if err := runCommand(ctx, b, []string{"add", "anshul"}, &bytes.Buffer{}); err != nil {
		t.Fatalf("add error = %v", err)
	}
	if b.lastCount != service.DefaultIncrementCount {
		t.Errorf("default count = %d, want %d", b.lastCount, service.DefaultIncrementCount)
	}

	if err := runCommand(ctx, b, []string{"get", "anshul", "5"}, &bytes.Buffer{}); err != nil {
		t.Fatalf("get error = %v", err)
	}
	if b.lastLimit != 5 {
		t.Errorf("limit = %d, want 5", b.lastLimit)
	}
}

func TestRunCommand_Output(t *testing.T) {
	tests := []struct {
		args []string
		key  string
		want float64
	}{
		{[]string{"dislike", "anshul", "603"}, "similar_reduced", 2},
		{[]string{"cache-cleanup"}, "removed", 4},
		{[]string{"cache-stats"}, "hit_rate_percent", 50},
		{[]string{"stats", "anshul"}, "active_recommendations", 5},
		{[]string{"refresh-all"}, "anshul", 3},
	}

	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			var out bytes.Buffer
			if err := runCommand(context.Background(), &fakeBackend{}, tt.args, &out); err != nil {
				t.Fatalf("runCommand(%v) error = %v", tt.args, err)
			}
			var got map[string]any
			if err := json.Unmarshal(out.Bytes(), &got); err != nil {
				t.Fatalf("output is not JSON: %v\n%s", err, out.String())
			}
			if got[tt.key] != tt.want {
				t.Errorf("%s = %v, want %v", tt.key, got[tt.key], tt.want)
			}
		})
	}
}

func TestRunCommand_RefreshAllReportsFailure(t *testing.T) {
	boom := errors.New("pipeline exhausted")
	var out bytes.Buffer

	err := runCommand(context.Background(), &fakeBackend{failAll: boom}, []string{"refresh-all"}, &out)
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
	if !strings.Contains(out.String(), `"anshul": 3`) {
		t.Errorf("partial summary missing: %s", out.String())
	}
}

func TestRunCommand_PropagatesServiceError(t *testing.T) {
	err := runCommand(context.Background(), &fakeBackend{}, []string{"refresh", "nobody"}, &bytes.Buffer{})
	if !errors.Is(err, database.ErrUnknownProfile) {
		t.Fatalf("error = %v, want ErrUnknownProfile", err)
	}
}

func TestWriteTimeout(t *testing.T) {
	if got := writeTimeout(0); got != 5*time.Minute {
		t.Errorf("writeTimeout(0) = %v", got)
	}
	if got := writeTimeout(time.Minute); got != 10*time.Minute {
		t.Errorf("writeTimeout(1m) = %v", got)
	}
}
