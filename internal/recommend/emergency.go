// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package recommend

// emergencyCatalog is substituted when the candidate source returns nothing.
var emergencyCatalog = []CandidateItem{
	{ItemID: 278, Title: "The Shawshank Redemption", VoteAverage: 9.3, Popularity: 96.7, Genres: []string{"Drama"}},
	{ItemID: 238, Title: "The Godfather", VoteAverage: 9.2, Popularity: 91.7, Genres: []string{"Crime", "Drama"}},
	{ItemID: 155, Title: "The Dark Knight", VoteAverage: 9.0, Popularity: 98.5, Genres: []string{"Action", "Crime", "Drama"}},
	{ItemID: 603, Title: "The Matrix", VoteAverage: 8.7, Popularity: 93.8, Genres: []string{"Action", "Science Fiction"}},
	{ItemID: 13, Title: "Forrest Gump", VoteAverage: 8.5, Popularity: 89.3, Genres: []string{"Comedy", "Drama"}},
}

// EmergencyCatalog returns a copy of the fixed emergency catalog.
func EmergencyCatalog() []CandidateItem {
	out := make([]CandidateItem, len(emergencyCatalog))
	copy(out, emergencyCatalog)
	return out
}
