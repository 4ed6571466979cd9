// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package catalog

import "github.com/tomtom215/cinerank/internal/recommend"

// curatedByGenre is the local fallback catalog. It guarantees candidates
// when the remote catalog is not configured or unreachable.
var curatedByGenre = map[string][]recommend.CandidateItem{
	"Action": {
		{ItemID: 550, Title: "Fight Club", Genres: []string{"Action", "Drama"}, VoteAverage: 8.4, Popularity: 95.2,
			Overview: "An insomniac office worker and a soap salesman form an underground fight club."},
		{ItemID: 155, Title: "The Dark Knight", Genres: []string{"Action", "Crime", "Drama"}, VoteAverage: 9.0, Popularity: 98.5,
			Overview: "When the menace known as the Joker wreaks havoc on Gotham, Batman must accept one of the greatest psychological and physical tests."},
		{ItemID: 603, Title: "The Matrix", Genres: []string{"Action", "Science Fiction"}, VoteAverage: 8.7, Popularity: 93.8,
			Overview: "A computer hacker learns from mysterious rebels about the true nature of his reality."},
		{ItemID: 680, Title: "Pulp Fiction", Genres: []string{"Crime", "Drama"}, VoteAverage: 8.5, Popularity: 92.1,
			Overview: "The lives of two mob hitmen, a boxer, a gangster and his wife intertwine in four tales of violence and redemption."},
		{ItemID: 27205, Title: "Inception", Genres: []string{"Action", "Science Fiction", "Thriller"}, VoteAverage: 8.4, Popularity: 87.9,
			Overview: "Dom Cobb is a skilled thief, the absolute best in the dangerous art of extraction."},
	},
	"Comedy": {
		{ItemID: 13, Title: "Forrest Gump", Genres: []string{"Comedy", "Drama"}, VoteAverage: 8.5, Popularity: 89.3,
			Overview: "The presidencies of Kennedy and Johnson, Vietnam, Watergate, and other history unfold through the perspective of an Alabama man."},
		{ItemID: 19995, Title: "Avatar", Genres: []string{"Action", "Adventure", "Fantasy"}, VoteAverage: 7.6, Popularity: 87.4,
			Overview: "In the 22nd century, a paraplegic Marine is dispatched to the moon Pandora on a unique mission."},
	},
	"Horror": {
		{ItemID: 694, Title: "The Shining", Genres: []string{"Horror", "Thriller"}, VoteAverage: 8.2, Popularity: 78.9,
			Overview: "A family heads to an isolated hotel for the winter where an evil presence influences the father."},
		{ItemID: 539, Title: "Psycho", Genres: []string{"Horror", "Mystery", "Thriller"}, VoteAverage: 8.4, Popularity: 75.2,
			Overview: "A Phoenix secretary embezzles money and goes on the run."},
	},
	"Science Fiction": {
		{ItemID: 11, Title: "Star Wars", Genres: []string{"Adventure", "Action", "Science Fiction"}, VoteAverage: 8.6, Popularity: 89.1,
			Overview: "Luke Skywalker joins forces with a Jedi Knight to rescue Princess Leia from the evil Galactic Empire."},
	},
	"Drama": {
		{ItemID: 278, Title: "The Shawshank Redemption", Genres: []string{"Drama"}, VoteAverage: 9.3, Popularity: 96.7,
			Overview: "Two imprisoned men bond over years, finding solace and eventual redemption through acts of common decency."},
		{ItemID: 238, Title: "The Godfather", Genres: []string{"Crime", "Drama"}, VoteAverage: 9.2, Popularity: 91.7,
			Overview: "The aging patriarch of an organized crime dynasty transfers control to his reluctant son."},
		{ItemID: 240, Title: "The Godfather: Part II", Genres: []string{"Crime", "Drama"}, VoteAverage: 9.0, Popularity: 88.9,
			Overview: "The early life and career of Vito Corleone in 1920s New York City is portrayed."},
	},
}

// Curated returns up to limit curated movies of genre that are not in seen.
func Curated(genre string, seen map[int]struct{}, limit int) []recommend.CandidateItem {
	var out []recommend.CandidateItem
	for _, item := range curatedByGenre[genre] {
		if len(out) >= limit {
			break
		}
		if _, ok := seen[item.ItemID]; ok {
			continue
		}
		item.Genres = append([]string(nil), item.Genres...)
		out = append(out, item)
	}
	return out
}
