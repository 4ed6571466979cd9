// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package algorithms

import (
	"crypto/sha256"
	"fmt"
	"sort"

	"github.com/tomtom215/cinerank/internal/recommend"
)

// RatingMatrix is a sparse user x item rating matrix. A missing entry
// means unrated. It is built per run and never mutated afterwards.
type RatingMatrix struct {
	// byUser maps userID -> itemID -> rating
	byUser map[int]map[int]float64

	// byItem maps itemID -> userID -> rating
	byItem map[int]map[int]float64

	// users and items are sorted for deterministic iteration
	users []int
	items []int

	userMeans   map[int]float64
	fingerprint string
}

// BuildMatrix pivots rating rows into a matrix. Duplicate (user, item)
// rows are averaged; non-positive ratings are treated as unrated.
func BuildMatrix(rows []recommend.RatingRow) *RatingMatrix {
	type cell struct {
		sum   float64
		count int
	}
	cells := make(map[[2]int]*cell, len(rows))
	for _, r := range rows {
		v := r.Value()
		if v <= 0 {
			continue
		}
		k := [2]int{r.UserID, r.ItemID}
		c, ok := cells[k]
		if !ok {
			c = &cell{}
			cells[k] = c
		}
		c.sum += v
		c.count++
	}

	m := &RatingMatrix{
		byUser:    make(map[int]map[int]float64),
		byItem:    make(map[int]map[int]float64),
		userMeans: make(map[int]float64),
	}
	for k, c := range cells {
		user, item := k[0], k[1]
		v := c.sum / float64(c.count)

		if m.byUser[user] == nil {
			m.byUser[user] = make(map[int]float64)
		}
		m.byUser[user][item] = v

		if m.byItem[item] == nil {
			m.byItem[item] = make(map[int]float64)
		}
		m.byItem[item][user] = v
	}

	m.users = sortedKeys(m.byUser)
	m.items = sortedKeys(m.byItem)

	for user, ratings := range m.byUser {
		var sum float64
		for _, v := range ratings {
			sum += v
		}
		m.userMeans[user] = sum / float64(len(ratings))
	}

	m.fingerprint = m.computeFingerprint()
	return m
}

// Empty reports whether the matrix has no ratings.
func (m *RatingMatrix) Empty() bool {
	return m == nil || len(m.byUser) == 0
}

// Users returns the user ids in ascending order.
func (m *RatingMatrix) Users() []int {
	return m.users
}

// Items returns the item ids in ascending order.
func (m *RatingMatrix) Items() []int {
	return m.items
}

// HasUser reports whether the user has at least one rating.
func (m *RatingMatrix) HasUser(userID int) bool {
	_, ok := m.byUser[userID]
	return ok
}

// HasItem reports whether the item has at least one rating.
func (m *RatingMatrix) HasItem(itemID int) bool {
	_, ok := m.byItem[itemID]
	return ok
}

// Rating returns the user's rating of the item, 0 if unrated.
func (m *RatingMatrix) Rating(userID, itemID int) float64 {
	return m.byUser[userID][itemID]
}

// UserRatings returns the user's ratings. The map must not be modified.
func (m *RatingMatrix) UserRatings(userID int) map[int]float64 {
	return m.byUser[userID]
}

// UserMean returns the mean of the user's ratings, 0 if none.
func (m *RatingMatrix) UserMean(userID int) float64 {
	return m.userMeans[userID]
}

// Fingerprint identifies the matrix contents. Equal matrices have equal
// fingerprints, so it can scope cached similarities.
func (m *RatingMatrix) Fingerprint() string {
	return m.fingerprint
}

func (m *RatingMatrix) computeFingerprint() string {
	h := sha256.New()
	for _, user := range m.users {
		ratings := m.byUser[user]
		for _, item := range sortedKeys(ratings) {
			fmt.Fprintf(h, "%d:%d:%g;", user, item, ratings[item])
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil)[:8])
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
