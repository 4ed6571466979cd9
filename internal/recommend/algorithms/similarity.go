// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package algorithms

import (
	"math"
	"sort"

	"github.com/tomtom215/cinerank/internal/cache"
)

// SimilarityConfig contains configuration for the similarity engine.
type SimilarityConfig struct {
	// Neighbors is the number of neighbors (users or items) considered
	// for one prediction.
	Neighbors int

	// MinCommonItems is the minimum number of co-rated items for a
	// user-user similarity. Fewer yields 0.
	MinCommonItems int

	// MinCommonUsers is the minimum number of co-rating users for an
	// item-item similarity. Fewer yields 0.
	MinCommonUsers int

	// UserWeight and ItemWeight blend the two predictions when both fire.
	UserWeight float64
	ItemWeight float64

	// SingleDiscount scales a prediction produced by only one method.
	SingleDiscount float64
}

// DefaultSimilarityConfig returns default similarity configuration.
func DefaultSimilarityConfig() SimilarityConfig {
	return SimilarityConfig{
		Neighbors:      15,
		MinCommonItems: 3,
		MinCommonUsers: 3,
		UserWeight:     0.6,
		ItemWeight:     0.4,
		SingleDiscount: 0.8,
	}
}

// neighbor represents a similar user or item with its similarity score.
type neighbor struct {
	ID         int
	Similarity float64
}

// sortNeighbors orders by similarity descending, then id ascending.
func sortNeighbors(ns []neighbor) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].Similarity != ns[j].Similarity {
			return ns[i].Similarity > ns[j].Similarity
		}
		return ns[i].ID < ns[j].ID
	})
}

// SimilarityEngine computes similarities and rating predictions over a
// RatingMatrix. User-user similarities are memoized in the cache, scoped
// by the matrix fingerprint. It holds no per-matrix state and is safe for
// concurrent use.
type SimilarityEngine struct {
	cfg   SimilarityConfig
	cache cache.Cacher
}

// NewSimilarityEngine creates an engine. A nil cacher disables memoization.
func NewSimilarityEngine(cfg SimilarityConfig, c cache.Cacher) *SimilarityEngine {
	def := DefaultSimilarityConfig()
	if cfg.Neighbors <= 0 {
		cfg.Neighbors = def.Neighbors
	}
	if cfg.MinCommonItems <= 0 {
		cfg.MinCommonItems = def.MinCommonItems
	}
	if cfg.MinCommonUsers <= 0 {
		cfg.MinCommonUsers = def.MinCommonUsers
	}
	if cfg.UserWeight == 0 && cfg.ItemWeight == 0 {
		cfg.UserWeight, cfg.ItemWeight = def.UserWeight, def.ItemWeight
	}
	if cfg.SingleDiscount <= 0 {
		cfg.SingleDiscount = def.SingleDiscount
	}
	if c == nil {
		c = cache.Nop{}
	}
	return &SimilarityEngine{cfg: cfg, cache: c}
}

// Config returns the engine configuration.
func (e *SimilarityEngine) Config() SimilarityConfig {
	return e.cfg
}

// UserSimilarity returns the Pearson correlation of two users over their
// co-rated items, in [-1, 1]. Identity is 1. Fewer than MinCommonItems
// co-rated items, zero variance or NaN yield 0.
func (e *SimilarityEngine) UserSimilarity(m *RatingMatrix, a, b int) float64 {
	if a == b {
		return 1.0
	}
	if m.Empty() || !m.HasUser(a) || !m.HasUser(b) {
		return 0
	}

	key := cache.SimilarityKey("user_"+m.Fingerprint(), a, b)
	var cached float64
	if e.cache.Get(key, &cached) {
		return cached
	}

	sim := e.pearson(m.UserRatings(a), m.UserRatings(b))
	e.cache.Put(key, sim, cache.ClassUser)
	return sim
}

func (e *SimilarityEngine) pearson(a, b map[int]float64) float64 {
	common := commonKeys(a, b)
	if len(common) < e.cfg.MinCommonItems {
		return 0
	}

	var sumA, sumB float64
	for _, item := range common {
		sumA += a[item]
		sumB += b[item]
	}
	meanA := sumA / float64(len(common))
	meanB := sumB / float64(len(common))

	var num, denA, denB float64
	for _, item := range common {
		diffA := a[item] - meanA
		diffB := b[item] - meanB
		num += diffA * diffB
		denA += diffA * diffA
		denB += diffB * diffB
	}

	if denA == 0 || denB == 0 {
		return 0
	}

	r := num / (math.Sqrt(denA) * math.Sqrt(denB))
	if math.IsNaN(r) {
		return 0
	}
	return clamp(r, -1, 1)
}

// ItemSimilarity returns the cosine similarity of two items over users who
// rated both, in [0, 1]. Identity is 1. Fewer than MinCommonUsers
// co-rating users yield 0.
func (e *SimilarityEngine) ItemSimilarity(m *RatingMatrix, a, b int) float64 {
	if a == b {
		return 1.0
	}
	if m.Empty() || !m.HasItem(a) || !m.HasItem(b) {
		return 0
	}

	ra, rb := m.byItem[a], m.byItem[b]
	common := commonKeys(ra, rb)
	if len(common) < e.cfg.MinCommonUsers {
		return 0
	}

	var dot, normA, normB float64
	for _, user := range common {
		dot += ra[user] * rb[user]
		normA += ra[user] * ra[user]
		normB += rb[user] * rb[user]
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(sim) {
		return 0
	}
	return clamp(sim, 0, 1)
}

// userNeighbors returns up to Neighbors users with positive similarity.
func (e *SimilarityEngine) userNeighbors(m *RatingMatrix, userID int) []neighbor {
	ns := make([]neighbor, 0, len(m.Users()))
	for _, other := range m.Users() {
		if other == userID {
			continue
		}
		if sim := e.UserSimilarity(m, userID, other); sim > 0 {
			ns = append(ns, neighbor{ID: other, Similarity: sim})
		}
	}
	sortNeighbors(ns)
	if len(ns) > e.cfg.Neighbors {
		ns = ns[:e.cfg.Neighbors]
	}
	return ns
}

// PredictForUser predicts ratings for candidates from similar users:
// the user's mean plus the similarity-weighted mean-centered neighbor
// ratings. Candidates the user rated, unknown to the matrix, or rated by
// no neighbor are omitted. Predictions are clamped to [0, 10].
func (e *SimilarityEngine) PredictForUser(m *RatingMatrix, userID int, candidates []int) map[int]float64 {
	predictions := make(map[int]float64)
	if m.Empty() || !m.HasUser(userID) {
		return predictions
	}

	neighbors := e.userNeighbors(m, userID)
	if len(neighbors) == 0 {
		return predictions
	}

	userMean := m.UserMean(userID)
	for _, itemID := range candidates {
		if !m.HasItem(itemID) || m.Rating(userID, itemID) > 0 {
			continue
		}

		var num, den float64
		for _, n := range neighbors {
			r := m.Rating(n.ID, itemID)
			if r <= 0 {
				continue
			}
			num += n.Similarity * (r - m.UserMean(n.ID))
			den += math.Abs(n.Similarity)
		}

		if den > 0 {
			predictions[itemID] = clamp(userMean+num/den, 0, 10)
		}
	}
	return predictions
}

// PredictForItem predicts ratings for candidates from the user's own
// ratings of similar items: the similarity-weighted mean of the top
// Neighbors rated items. Omission and clamping follow PredictForUser.
func (e *SimilarityEngine) PredictForItem(m *RatingMatrix, userID int, candidates []int) map[int]float64 {
	predictions := make(map[int]float64)
	if m.Empty() || !m.HasUser(userID) {
		return predictions
	}

	userRatings := m.UserRatings(userID)
	rated := sortedKeys(userRatings)

	for _, itemID := range candidates {
		if !m.HasItem(itemID) || userRatings[itemID] > 0 {
			continue
		}

		ns := make([]neighbor, 0, len(rated))
		for _, ratedID := range rated {
			if sim := e.ItemSimilarity(m, itemID, ratedID); sim > 0 {
				ns = append(ns, neighbor{ID: ratedID, Similarity: sim})
			}
		}
		if len(ns) == 0 {
			continue
		}
		sortNeighbors(ns)
		if len(ns) > e.cfg.Neighbors {
			ns = ns[:e.cfg.Neighbors]
		}

		var num, den float64
		for _, n := range ns {
			num += n.Similarity * userRatings[n.ID]
			den += math.Abs(n.Similarity)
		}
		if den > 0 {
			predictions[itemID] = clamp(num/den, 0, 10)
		}
	}
	return predictions
}

// Combine blends user-based and item-based predictions. Items predicted by
// both get UserWeight*u + ItemWeight*i; items predicted by one get that
// score times SingleDiscount. Items with no positive prediction are absent.
func (e *SimilarityEngine) Combine(userBased, itemBased map[int]float64) map[int]float64 {
	combined := make(map[int]float64, len(userBased)+len(itemBased))
	for itemID, u := range userBased {
		i := itemBased[itemID]
		switch {
		case u > 0 && i > 0:
			combined[itemID] = e.cfg.UserWeight*u + e.cfg.ItemWeight*i
		case u > 0:
			combined[itemID] = u * e.cfg.SingleDiscount
		case i > 0:
			combined[itemID] = i * e.cfg.SingleDiscount
		}
	}
	for itemID, i := range itemBased {
		if _, done := userBased[itemID]; done {
			continue
		}
		if i > 0 {
			combined[itemID] = i * e.cfg.SingleDiscount
		}
	}
	return combined
}

// commonKeys returns keys present with a positive value in both maps,
// in ascending order.
func commonKeys(a, b map[int]float64) []int {
	if len(b) < len(a) {
		a, b = b, a
	}
	common := make([]int, 0, len(a))
	for k, va := range a {
		if va <= 0 {
			continue
		}
		if vb, ok := b[k]; ok && vb > 0 {
			common = append(common, k)
		}
	}
	sort.Ints(common)
	return common
}
