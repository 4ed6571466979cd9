// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cinerank/internal/recommend"
)

// Refresher regenerates recommendations for every profile.
// Satisfied by *service.Service.
type Refresher interface {
	RefreshAll(ctx context.Context) (map[string]*recommend.Result, error)
}

// RefreshSchedulerConfig holds the scheduler settings.
type RefreshSchedulerConfig struct {
	// RefreshOnStartup runs one refresh before the first tick.
	RefreshOnStartup bool

	// Interval between refreshes. Default: 6h
	Interval time.Duration

	// RunTimeout bounds a single RefreshAll. Default: 30m
	RunTimeout time.Duration
}

// RefreshSchedulerService periodically refreshes every profile.
// A failed refresh is logged and retried on the next tick; it never stops
// the service.
type RefreshSchedulerService struct {
	refresher Refresher
	config    RefreshSchedulerConfig
	logger    zerolog.Logger
	name      string
}

// NewRefreshSchedulerService creates a refresh scheduler.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRefreshSchedulerService(refresher Refresher, cfg RefreshSchedulerConfig, logger zerolog.Logger) *RefreshSchedulerService {
	if cfg.Interval <= 0 {
		cfg.Interval = 6 * time.Hour
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 30 * time.Minute
	}
	return &RefreshSchedulerService{
		refresher: refresher,
		config:    cfg,
		logger:    logger.With().Str("service", "refresh-scheduler").Logger(),
		name:      "refresh-scheduler",
	}
}

// Serve implements suture.Service.
func (s *RefreshSchedulerService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("refresh_on_startup", s.config.RefreshOnStartup).
		Dur("interval", s.config.Interval).
		Msg("refresh scheduler starting")

	if s.config.RefreshOnStartup {
		s.refresh(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("refresh scheduler shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *RefreshSchedulerService) refresh(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	start := time.Now()
	results, err := s.refresher.RefreshAll(runCtx)
	if err != nil {
		s.logger.Warn().Err(err).Int("refreshed", len(results)).Msg("scheduled refresh incomplete")
		return
	}
	s.logger.Info().
		Int("refreshed", len(results)).
		Dur("duration", time.Since(start)).
		Msg("scheduled refresh complete")
}

// String returns the service name for logging.
func (s *RefreshSchedulerService) String() string {
	return s.name
}
