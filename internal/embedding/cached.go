// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package embedding

import (
	"context"

	"github.com/tomtom215/cinerank/internal/cache"
	"github.com/tomtom215/cinerank/internal/recommend"
)

// Cached memoizes text embeddings in the CacheStore with the long TTL
// class. Only texts missing from the cache are sent to the inner embedder.
type Cached struct {
	inner BatchEmbedder
	cache cache.Cacher
}

var _ recommend.Embedder = (*Cached)(nil)

// NewCached wraps inner with c.
func NewCached(inner BatchEmbedder, c cache.Cacher) *Cached {
	if c == nil {
		c = cache.Nop{}
	}
	return &Cached{inner: inner, cache: c}
}

func (e *Cached) Model() string {
	return e.inner.Model()
}

func (e *Cached) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return e.embedAll(ctx, texts)
}

func (e *Cached) EmbedMean(ctx context.Context, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, ErrNoTexts
	}
	vectors, err := e.embedAll(ctx, texts)
	if err != nil {
		return nil, err
	}
	return Mean(vectors)
}

func (e *Cached) embedAll(ctx context.Context, texts []string) ([][]float64, error) {
	model := e.inner.Model()
	vectors := make([][]float64, len(texts))

	var missing []string
	var missingIdx []int
	for i, text := range texts {
		var v []float64
		if e.cache.Get(cache.EmbeddingKey(model, text), &v) && len(v) > 0 {
			vectors[i] = v
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return vectors, nil
	}

	fetched, err := e.inner.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, v := range fetched {
		vectors[missingIdx[j]] = v
		e.cache.Put(cache.EmbeddingKey(model, missing[j]), v, cache.ClassLong)
	}
	return vectors, nil
}
