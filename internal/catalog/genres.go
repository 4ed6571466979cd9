// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package catalog

// genreIDs maps TMDB movie genre names to their ids.
var genreIDs = map[string]int{
	"Action":          28,
	"Adventure":       12,
	"Animation":       16,
	"Comedy":          35,
	"Crime":           80,
	"Documentary":     99,
	"Drama":           18,
	"Family":          10751,
	"Fantasy":         14,
	"History":         36,
	"Horror":          27,
	"Music":           10402,
	"Mystery":         9648,
	"Romance":         10749,
	"Science Fiction": 878,
	"Thriller":        53,
	"War":             10752,
	"Western":         37,
}

var genreNames = func() map[int]string {
	m := make(map[int]string, len(genreIDs))
	for name, id := range genreIDs {
		m[id] = name
	}
	return m
}()

// GenreID returns the TMDB id of a genre name.
func GenreID(name string) (int, bool) {
	id, ok := genreIDs[name]
	return id, ok
}

// GenreNamesFor maps genre ids to names, dropping unknown ids.
func GenreNamesFor(ids []int) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := genreNames[id]; ok {
			names = append(names, name)
		}
	}
	return names
}
