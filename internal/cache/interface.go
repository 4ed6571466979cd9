// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package cache

// Cacher is the subset of Store used by scoring and fetch components.
//
// Usage:
//
//	var c cache.Cacher = store
//	c.Put(cache.MovieKey(id), movie, cache.ClassLong)
//	if c.Get(cache.MovieKey(id), &movie) {
//	    // use cached movie
//	}
type Cacher interface {
	// Get decodes the value for key into dst; false on miss or expiry.
	Get(key string, dst interface{}) bool
	// Put stores value with the TTL of class.
	Put(key string, value interface{}, class TTLClass)
	// Invalidate removes every key with the given prefix.
	Invalidate(prefix string) int
	// InvalidateUser removes a user's snapshot and derived embeddings.
	InvalidateUser(name string) int
}

// Ensure Store implements Cacher.
var _ Cacher = (*Store)(nil)

// Nop is a Cacher that stores nothing. Every Get is a miss.
type Nop struct{}

// Get always misses.
func (Nop) Get(string, interface{}) bool { return false }

// Put discards the value.
func (Nop) Put(string, interface{}, TTLClass) {}

// Invalidate removes nothing.
func (Nop) Invalidate(string) int { return 0 }

// InvalidateUser removes nothing.
func (Nop) InvalidateUser(string) int { return 0 }

var _ Cacher = Nop{}
