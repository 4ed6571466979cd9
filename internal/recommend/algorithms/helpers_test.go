// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package algorithms

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cinerank/internal/cache"
	"github.com/tomtom215/cinerank/internal/recommend"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

// ordinalFor maps a numeric test rating to its ordinal label.
func ordinalFor(v int) string {
	switch v {
	case 3:
		return recommend.OrdinalDisliked
	case 7:
		return recommend.OrdinalGood
	case 9:
		return recommend.OrdinalLoved
	default:
		return ""
	}
}

// rows builds rating rows from user -> item -> rating (3, 5, 7 or 9).
func rows(data map[int]map[int]int) []recommend.RatingRow {
	out := make([]recommend.RatingRow, 0)
	for user, items := range data {
		for item, v := range items {
			out = append(out, recommend.RatingRow{UserID: user, ItemID: item, Ordinal: ordinalFor(v)})
		}
	}
	return out
}

func newTestStore(t *testing.T) *cache.Store {
	t.Helper()
	s, err := cache.Open(cache.Options{Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("cache.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// fakeEmbedder returns fixed vectors per text.
type fakeEmbedder struct {
	mu         sync.Mutex
	vectors    map[string][]float64
	meanErr    error
	meanCalls  int
	batchCalls int
}

func (f *fakeEmbedder) Model() string { return "test-model" }

func (f *fakeEmbedder) vector(text string) ([]float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vectors[text]
	return v, ok
}

// EmbedBatch returns nil for texts without a vector.
func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float64, error) {
	f.mu.Lock()
	f.batchCalls++
	f.mu.Unlock()
	out := make([][]float64, len(texts))
	for i, text := range texts {
		out[i], _ = f.vector(text)
	}
	return out, nil
}

func (f *fakeEmbedder) batches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.batchCalls
}

func (f *fakeEmbedder) EmbedMean(_ context.Context, texts []string) ([]float64, error) {
	f.mu.Lock()
	f.meanCalls++
	err := f.meanErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var mean []float64
	n := 0
	for _, text := range texts {
		v, ok := f.vector(text)
		if !ok {
			continue
		}
		if mean == nil {
			mean = make([]float64, len(v))
		}
		for i := range v {
			mean[i] += v[i]
		}
		n++
	}
	if n == 0 {
		return nil, errors.New("no vectors")
	}
	for i := range mean {
		mean[i] /= float64(n)
	}
	return mean, nil
}

func (f *fakeEmbedder) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.meanCalls
}
