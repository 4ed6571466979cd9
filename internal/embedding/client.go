// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package embedding

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cinerank/internal/config"
	"github.com/tomtom215/cinerank/internal/recommend"
	"github.com/tomtom215/cinerank/internal/resilience"
)

const maxErrorBodySize = 64 * 1024

var (
	// ErrNoTexts is returned when EmbedMean is called without input.
	ErrNoTexts = errors.New("no texts to embed")

	// ErrDimensionMismatch is returned when vectors of different lengths are averaged.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// BatchEmbedder embeds several texts in one call.
type BatchEmbedder interface {
	Model() string
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Client calls an OpenAI-compatible embeddings endpoint.
type Client struct {
	client  *http.Client
	url     string
	model   string
	apiKey  string
	breaker *resilience.Breaker
	logger  zerolog.Logger
}

var (
	_ BatchEmbedder      = (*Client)(nil)
	_ recommend.Embedder = (*Client)(nil)
)

// NewClient creates an embedding client.
func NewClient(cfg *config.EmbeddingConfig, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	logger = logger.With().Str("component", "embedding").Logger()
	return &Client{
		client:  &http.Client{Timeout: timeout},
		url:     cfg.URL,
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		breaker: resilience.NewBreaker(resilience.DefaultBreakerSettings("embedding-api"), logger),
		logger:  logger,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// EmbedBatch returns one vector per text, in input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return resilience.Do(c.breaker, func() ([][]float64, error) {
		return c.post(ctx, texts)
	})
}

// EmbedMean returns the element-wise mean vector of texts.
func (c *Client) EmbedMean(ctx context.Context, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, ErrNoTexts
	}
	vectors, err := c.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	return Mean(vectors)
}

func (c *Client) post(ctx context.Context, texts []string) ([][]float64, error) {
	body, err := json.Marshal(embedRequest{Model: c.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to encode embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, fmt.Errorf("embedding endpoint returned status %d: %s", resp.StatusCode, excerpt)
	}

	var decoded embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(decoded.Data) != len(texts) {
		return nil, fmt.Errorf("embedding endpoint returned %d vectors for %d texts", len(decoded.Data), len(texts))
	}

	vectors := make([][]float64, len(texts))
	for i, d := range decoded.Data {
		idx := d.Index
		if idx < 0 || idx >= len(texts) || vectors[idx] != nil {
			idx = i
		}
		vectors[idx] = d.Embedding
	}
	return vectors, nil
}

// Mean returns the element-wise mean of vectors.
func Mean(vectors [][]float64) ([]float64, error) {
	if len(vectors) == 0 {
		return nil, ErrNoTexts
	}
	dim := len(vectors[0])
	mean := make([]float64, dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(v), dim)
		}
		for i, x := range v {
			mean[i] += x
		}
	}
	n := float64(len(vectors))
	for i := range mean {
		mean[i] /= n
	}
	return mean, nil
}
