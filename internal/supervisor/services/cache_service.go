// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// CacheCleaner sweeps expired entries and flushes the durable tier.
// Satisfied by *service.Service.
type CacheCleaner interface {
	CacheCleanup() (int, error)
}

// CacheMaintenanceService runs CacheCleanup on an interval and once more
// on shutdown so buffered writes reach the durable tier.
type CacheMaintenanceService struct {
	cleaner  CacheCleaner
	interval time.Duration
	logger   zerolog.Logger
	name     string
}

// NewCacheMaintenanceService creates the maintenance loop. Default
// interval: 10m
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCacheMaintenanceService(cleaner CacheCleaner, interval time.Duration, logger zerolog.Logger) *CacheMaintenanceService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &CacheMaintenanceService{
		cleaner:  cleaner,
		interval: interval,
		logger:   logger.With().Str("service", "cache-maintenance").Logger(),
		name:     "cache-maintenance",
	}
}

// Serve implements suture.Service.
func (s *CacheMaintenanceService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.cleanup()
			return ctx.Err()
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *CacheMaintenanceService) cleanup() {
	removed, err := s.cleaner.CacheCleanup()
	if err != nil {
		s.logger.Warn().Err(err).Msg("cache cleanup failed")
		return
	}
	if removed > 0 {
		s.logger.Debug().Int("removed", removed).Msg("expired cache entries removed")
	}
}

// String returns the service name for logging.
func (s *CacheMaintenanceService) String() string {
	return s.name
}
