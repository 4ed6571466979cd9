// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package catalog

import (
	"context"
	"errors"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cinerank/internal/config"
	"github.com/tomtom215/cinerank/internal/recommend"
	"github.com/tomtom215/cinerank/internal/validation"
)

// ErrUnavailable is returned when every remote fetch failed and no curated
// movie was left to return.
var ErrUnavailable = errors.New("catalog unavailable")

// Limits of the curated fallback merged ahead of the remote catalog.
const (
	curatedPerGenre = 15
	curatedGeneral  = 10
	generalGenre    = "Drama"
)

// listEndpoints are fetched on every refresh for variety.
var listEndpoints = []string{
	"movie/popular",
	"movie/top_rated",
	"movie/now_playing",
	"movie/upcoming",
	"trending/movie/week",
	"trending/movie/day",
}

// Provider assembles the candidate set for a profile from the curated
// fallback catalog and, when configured, the remote catalog.
type Provider struct {
	client        *Client
	listPages     int
	discoverPages int
	maxCandidates int
	logger        zerolog.Logger
}

var _ recommend.CandidateSource = (*Provider)(nil)

// NewProvider creates a provider. A nil client, or one without an API key,
// limits candidates to the curated catalog.
func NewProvider(cfg *config.CatalogConfig, client *Client, logger zerolog.Logger) *Provider {
	p := &Provider{
		client:        client,
		listPages:     cfg.ListPages,
		discoverPages: cfg.DiscoverPages,
		maxCandidates: cfg.MaxCandidates,
		logger:        logger.With().Str("component", "catalog_provider").Logger(),
	}
	if p.maxCandidates <= 0 {
		p.maxCandidates = 1000
	}
	return p
}

// candidateSet deduplicates by id and caps the result.
type candidateSet struct {
	items []recommend.CandidateItem
	ids   map[int]struct{}
	seen  map[int]struct{}
	limit int
}

func (s *candidateSet) full() bool {
	return len(s.items) >= s.limit
}

func (s *candidateSet) add(item recommend.CandidateItem) bool {
	if s.full() {
		return false
	}
	if _, ok := s.seen[item.ItemID]; ok {
		return false
	}
	if _, ok := s.ids[item.ItemID]; ok {
		return false
	}
	s.ids[item.ItemID] = struct{}{}
	s.items = append(s.items, item)
	return true
}

// FetchCandidates returns unseen candidate movies for the preferred genres.
// Remote failures are tolerated; ErrUnavailable is returned only when every
// remote request failed and the result is empty.
func (p *Provider) FetchCandidates(ctx context.Context, genres []string, seen map[int]struct{}) ([]recommend.CandidateItem, error) {
	set := &candidateSet{ids: make(map[int]struct{}), seen: seen, limit: p.maxCandidates}

	for _, genre := range genres {
		for _, item := range Curated(genre, seen, curatedPerGenre) {
			set.add(item)
		}
	}
	for _, item := range Curated(generalGenre, seen, curatedGeneral) {
		set.add(item)
	}
	curated := len(set.items)

	if p.client == nil || !p.client.Enabled() {
		p.logger.Debug().Int("candidates", curated).Msg("Remote catalog not configured, using curated catalog")
		return set.items, nil
	}

	attempts, failures := 0, 0
	fetch := func(endpoint string, page int, params map[string]string) error {
		if set.full() {
			return nil
		}
		attempts++
		result, err := p.client.Page(ctx, endpoint, page, params)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures++
			p.logger.Warn().Err(err).Str("endpoint", endpoint).Int("page", page).Msg("Catalog page fetch failed")
			return nil
		}
		for i := range result.Results {
			p.addSummary(ctx, set, &result.Results[i])
		}
		return nil
	}

	for _, endpoint := range listEndpoints {
		for page := 1; page <= p.listPages; page++ {
			if err := fetch(endpoint, page, nil); err != nil {
				return nil, err
			}
		}
	}

	for _, genre := range genres {
		id, ok := GenreID(genre)
		if !ok {
			continue
		}
		params := map[string]string{
			"with_genres":    strconv.Itoa(id),
			"sort_by":        "popularity.desc",
			"vote_count.gte": "50",
		}
		// Discover starts at page 2; page 1 overlaps the popular list.
		for page := 2; page <= p.discoverPages+1; page++ {
			if err := fetch("discover/movie", page, params); err != nil {
				return nil, err
			}
		}
	}

	p.logger.Info().
		Int("curated", curated).
		Int("remote", len(set.items)-curated).
		Int("requests", attempts).
		Int("failed", failures).
		Msg("Fetched candidates")

	if len(set.items) == 0 && attempts > 0 && failures == attempts {
		return nil, ErrUnavailable
	}
	return set.items, nil
}

// addSummary converts a list entry into a candidate. Entries without genre
// ids are completed from the movie details endpoint.
func (p *Provider) addSummary(ctx context.Context, set *candidateSet, m *MovieSummary) {
	if _, ok := set.seen[m.ID]; ok {
		return
	}
	if _, ok := set.ids[m.ID]; ok {
		return
	}

	item := recommend.CandidateItem{
		ItemID:      m.ID,
		Title:       m.Title,
		Overview:    m.Overview,
		VoteAverage: m.VoteAverage,
		Popularity:  m.Popularity,
		Genres:      GenreNamesFor(m.GenreIDs),
	}
	if len(m.GenreIDs) == 0 {
		details, err := p.client.Movie(ctx, m.ID)
		if err != nil {
			p.logger.Debug().Err(err).Int("tmdb_id", m.ID).Msg("Movie details unavailable")
		} else {
			item.Genres = details.GenreNames()
			if item.Overview == "" {
				item.Overview = details.Overview
			}
		}
	}

	if verr := validation.ValidateStruct(&item); verr != nil {
		p.logger.Debug().Int("tmdb_id", m.ID).Str("error", verr.Error()).Msg("Skipping invalid catalog entry")
		return
	}
	set.add(item)
}
