// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package embedding

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cinerank/internal/cache"
	"github.com/tomtom215/cinerank/internal/config"
)

// vectorFor gives each text a deterministic two-dimensional vector.
func vectorFor(text string) []float64 {
	return []float64{float64(len(text)), 1}
}

func newEmbeddingServer(t *testing.T, requests *atomic.Int32, inputs *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("model = %q", req.Model)
		}
		inputs.Add(int32(len(req.Input)))

		type item struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		}
		resp := struct {
			Data []item `json:"data"`
		}{}
		for i, text := range req.Input {
			resp.Data = append(resp.Data, item{Index: i, Embedding: vectorFor(text)})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newTestClient(url string) *Client {
	return NewClient(&config.EmbeddingConfig{
		URL:     url,
		Model:   "test-model",
		APIKey:  "secret",
		Timeout: 5 * time.Second,
	}, zerolog.Nop())
}

func TestClient_EmbedMean(t *testing.T) {
	var requests, inputs atomic.Int32
	server := newEmbeddingServer(t, &requests, &inputs)
	defer server.Close()

	client := newTestClient(server.URL)

	mean, err := client.EmbedMean(context.Background(), []string{"ab", "abcd"})
	if err != nil {
		t.Fatalf("EmbedMean() error = %v", err)
	}
	if len(mean) != 2 || mean[0] != 3 || mean[1] != 1 {
		t.Errorf("EmbedMean() = %v, want [3 1]", mean)
	}
	if requests.Load() != 1 {
		t.Errorf("requests = %d, want one batch", requests.Load())
	}

	vectors, err := client.EmbedBatch(context.Background(), []string{"abc"})
	if err != nil {
		t.Fatalf("EmbedBatch() error = %v", err)
	}
	if len(vectors) != 1 || vectors[0][0] != 3 {
		t.Errorf("EmbedBatch() = %v", vectors)
	}
}

func TestClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).EmbedBatch(context.Background(), []string{"x"})
	if err == nil {
		t.Fatal("EmbedBatch() error = nil, want error")
	}
}

func TestClient_EmbedMeanNoTexts(t *testing.T) {
	_, err := newTestClient("http://127.0.0.1:1").EmbedMean(context.Background(), nil)
	if !errors.Is(err, ErrNoTexts) {
		t.Errorf("EmbedMean(nil) error = %v, want ErrNoTexts", err)
	}
}

func TestMean(t *testing.T) {
	tests := []struct {
		name    string
		vectors [][]float64
		want    []float64
		wantErr error
	}{
		{"single", [][]float64{{1, 2}}, []float64{1, 2}, nil},
		{"average", [][]float64{{0, 2}, {2, 4}}, []float64{1, 3}, nil},
		{"empty", nil, nil, ErrNoTexts},
		{"mismatch", [][]float64{{1, 2}, {1}}, nil, ErrDimensionMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Mean(tt.vectors)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Mean() error = %v, want %v", err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Mean() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Mean()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCached_OnlyFetchesMissing(t *testing.T) {
	var requests, inputs atomic.Int32
	server := newEmbeddingServer(t, &requests, &inputs)
	defer server.Close()

	store, err := cache.Open(cache.Options{Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("cache.Open() error = %v", err)
	}
	defer func() { _ = store.Close() }()

	e := NewCached(newTestClient(server.URL), store)
	if e.Model() != "test-model" {
		t.Errorf("Model() = %q", e.Model())
	}

	if _, err := e.EmbedBatch(context.Background(), []string{"ab"}); err != nil {
		t.Fatalf("EmbedBatch() error = %v", err)
	}
	mean, err := e.EmbedMean(context.Background(), []string{"ab", "abcd"})
	if err != nil {
		t.Fatalf("EmbedMean() error = %v", err)
	}
	if mean[0] != 3 {
		t.Errorf("EmbedMean() = %v, want [3 1]", mean)
	}
	if got := inputs.Load(); got != 2 {
		t.Errorf("texts sent = %d, want 2 (ab once, abcd once)", got)
	}

	if _, err := e.EmbedMean(context.Background(), []string{"abcd", "ab"}); err != nil {
		t.Fatalf("EmbedMean() error = %v", err)
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("requests = %d, want 2 (third call fully cached)", got)
	}
}
