// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

/*
service.go - Recommendation Service Orchestration

This file contains the Service struct that ties the profile store, the
recommendation pipeline and the cache together. Every outer surface (CLI
subcommands, HTTP handlers, the refresh scheduler and the watch-event
router) goes through it.

Operations:
  - RefreshProfile(): full regeneration, replacing the stored list
  - RefreshAll(): RefreshProfile for every configured profile
  - AddIncremental(): append new items without touching existing ones
  - Recommendations(), Dislike(), Stats(): stored list access
  - CacheStats(), CacheCleanup(): cache administration
  - HandleWatch(): record a watch and top up recommendations

Thread Safety:
  - Each profile has its own mutex; refreshes of one profile are serialized
  - Different profiles refresh independently
*/

//nolint:staticcheck // File documentation, not package doc
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cinerank/internal/cache"
	"github.com/tomtom215/cinerank/internal/config"
	"github.com/tomtom215/cinerank/internal/database"
	"github.com/tomtom215/cinerank/internal/recommend"
)

const (
	// DefaultIncrementCount is the number of items AddIncremental appends.
	DefaultIncrementCount = 10

	// existingLimit bounds the active items read before an incremental add.
	existingLimit = 1000
)

// ProfileStore is the persistence used by the service.
type ProfileStore interface {
	recommend.ResultSink
	LoadProfile(ctx context.Context, name string) (*recommend.UserProfile, error)
	RecordWatch(ctx context.Context, w *database.WatchRecord) (bool, error)
	RecordMood(ctx context.Context, userID int, mood string, at time.Time) error
	Active(ctx context.Context, profile string, limit int, shuffle bool) ([]database.StoredRecommendation, error)
	Dislike(ctx context.Context, profile string, itemID int) (int, error)
	Stats(ctx context.Context, profile string) (database.ProfileStats, error)
}

// Generator produces recommendations for a profile.
type Generator interface {
	Generate(ctx context.Context, profile *recommend.UserProfile) (*recommend.Result, error)
}

// CacheAdmin is the cache surface the service needs beyond cache.Cacher.
type CacheAdmin interface {
	cache.Cacher
	SweepExpired() int
	Save() error
	Stats() cache.Stats
	HitRate() float64
}

// ProfileInfo describes a configured profile.
type ProfileInfo struct {
	Name   string   `json:"name"`
	UserID int      `json:"user_id"`
	Genres []string `json:"preferred_genres"`
}

// CacheReport combines cache counters with derived values.
type CacheReport struct {
	cache.Stats
	HitRatePercent float64 `json:"hit_rate_percent"`
}

// Service orchestrates recommendation generation and storage.
type Service struct {
	store    ProfileStore
	pipeline Generator
	cache    CacheAdmin
	profiles map[string]config.ProfileConfig
	names    []string
	locks    map[string]*sync.Mutex
	now      func() time.Time
	logger   zerolog.Logger
}

// New creates a service over the configured profiles.
func New(cfg *config.Config, store ProfileStore, pipeline Generator, c CacheAdmin, logger zerolog.Logger) (*Service, error) {
	if store == nil || pipeline == nil || c == nil {
		return nil, errors.New("service requires a store, a pipeline and a cache")
	}
	if len(cfg.Profiles) == 0 {
		return nil, errors.New("no profiles configured")
	}

	s := &Service{
		store:    store,
		pipeline: pipeline,
		cache:    c,
		profiles: cfg.Profiles,
		names:    cfg.ProfileNames(),
		locks:    make(map[string]*sync.Mutex, len(cfg.Profiles)),
		now:      time.Now,
		logger:   logger.With().Str("component", "service").Logger(),
	}
	for _, name := range s.names {
		s.locks[name] = &sync.Mutex{}
	}
	return s, nil
}

// Profiles lists the configured profiles in name order.
func (s *Service) Profiles() []ProfileInfo {
	out := make([]ProfileInfo, 0, len(s.names))
	for _, name := range s.names {
		p := s.profiles[name]
		out = append(out, ProfileInfo{Name: name, UserID: p.UserID, Genres: append([]string(nil), p.Genres...)})
	}
	return out
}

func (s *Service) lock(name string) (func(), error) {
	mu, ok := s.locks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", database.ErrUnknownProfile, name)
	}
	mu.Lock()
	return mu.Unlock, nil
}

// loadProfile returns the profile snapshot, reading the user cache first.
func (s *Service) loadProfile(ctx context.Context, name string) (*recommend.UserProfile, error) {
	key := cache.UserKey(name)
	var cached recommend.UserProfile
	if s.cache.Get(key, &cached) {
		return &cached, nil
	}

	profile, err := s.store.LoadProfile(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", name, err)
	}
	s.cache.Put(key, profile, cache.ClassUser)
	return profile, nil
}

// RefreshProfile regenerates a profile's recommendations and replaces the
// stored list.
func (s *Service) RefreshProfile(ctx context.Context, name string) (*recommend.Result, error) {
	unlock, err := s.lock(name)
	if err != nil {
		return nil, err
	}
	defer unlock()

	profile, err := s.loadProfile(ctx, name)
	if err != nil {
		return nil, err
	}

	result, err := s.pipeline.Generate(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("generate recommendations for %s: %w", name, err)
	}

	if err := s.store.Replace(ctx, name, result.Recommendations); err != nil {
		return nil, fmt.Errorf("store recommendations for %s: %w", name, err)
	}

	s.logger.Info().
		Str("profile", name).
		Str("run_id", result.RunID).
		Int("recommendations", len(result.Recommendations)).
		Bool("collaborative", result.Readiness.UseCollaborative).
		Int64("duration_ms", result.DurationMS).
		Msg("Refreshed recommendations")
	return result, nil
}

// RefreshAll refreshes every profile. A failing profile does not stop the
// others; the failures are joined into the returned error.
func (s *Service) RefreshAll(ctx context.Context) (map[string]*recommend.Result, error) {
	results := make(map[string]*recommend.Result, len(s.names))
	var errs []error
	for _, name := range s.names {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		result, err := s.RefreshProfile(ctx, name)
		if err != nil {
			s.logger.Error().Err(err).Str("profile", name).Msg("Profile refresh failed")
			errs = append(errs, err)
			continue
		}
		results[name] = result
	}
	return results, errors.Join(errs...)
}

// AddIncremental appends up to count new recommendations to a profile
// without deactivating the existing ones. It returns the added items.
func (s *Service) AddIncremental(ctx context.Context, name string, count int) ([]recommend.Recommendation, error) {
	if count <= 0 {
		count = DefaultIncrementCount
	}

	unlock, err := s.lock(name)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s.cache.InvalidateUser(name)

	existing, err := s.store.Active(ctx, name, existingLimit, false)
	if err != nil {
		return nil, fmt.Errorf("read existing recommendations for %s: %w", name, err)
	}
	present := make(map[int]struct{}, len(existing))
	for _, r := range existing {
		present[r.ItemID] = struct{}{}
	}

	profile, err := s.loadProfile(ctx, name)
	if err != nil {
		return nil, err
	}
	result, err := s.pipeline.Generate(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("generate recommendations for %s: %w", name, err)
	}

	added := make([]recommend.Recommendation, 0, count)
	for _, r := range result.Recommendations {
		if len(added) == count {
			break
		}
		if _, ok := present[r.ItemID]; ok {
			continue
		}
		added = append(added, r)
	}

	if len(added) > 0 {
		if err := s.store.Append(ctx, name, added); err != nil {
			return nil, fmt.Errorf("append recommendations for %s: %w", name, err)
		}
	}

	s.logger.Info().
		Str("profile", name).
		Str("run_id", result.RunID).
		Int("added", len(added)).
		Int("existing", len(existing)).
		Msg("Added incremental recommendations")
	return added, nil
}

// Recommendations returns the active stored recommendations of a profile.
func (s *Service) Recommendations(ctx context.Context, name string, limit int, shuffle bool) ([]database.StoredRecommendation, error) {
	if _, ok := s.profiles[name]; !ok {
		return nil, fmt.Errorf("%w: %q", database.ErrUnknownProfile, name)
	}
	return s.store.Active(ctx, name, limit, shuffle)
}

// Dislike deactivates an item and penalises active items sharing a genre.
// It returns the number of penalised items.
func (s *Service) Dislike(ctx context.Context, name string, itemID int) (int, error) {
	unlock, err := s.lock(name)
	if err != nil {
		return 0, err
	}
	defer unlock()

	reduced, err := s.store.Dislike(ctx, name, itemID)
	if err != nil {
		return 0, err
	}
	s.logger.Info().Str("profile", name).Int("tmdb_id", itemID).Int("reduced", reduced).Msg("Recorded dislike")
	return reduced, nil
}

// Stats summarises a profile's stored recommendations.
func (s *Service) Stats(ctx context.Context, name string) (database.ProfileStats, error) {
	if _, ok := s.profiles[name]; !ok {
		return database.ProfileStats{}, fmt.Errorf("%w: %q", database.ErrUnknownProfile, name)
	}
	return s.store.Stats(ctx, name)
}

// CacheStats reports cache counters.
func (s *Service) CacheStats() CacheReport {
	return CacheReport{Stats: s.cache.Stats(), HitRatePercent: s.cache.HitRate()}
}

// CacheCleanup removes expired entries and flushes the durable tier. It
// returns the number of removed entries.
func (s *Service) CacheCleanup() (int, error) {
	removed := s.cache.SweepExpired()
	if err := s.cache.Save(); err != nil {
		return removed, fmt.Errorf("save cache: %w", err)
	}
	s.logger.Debug().Int("removed", removed).Msg("Cache cleanup complete")
	return removed, nil
}
