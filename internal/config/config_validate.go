// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// tableNamePattern restricts per-profile result tables to safe SQL identifiers.
var tableNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// Validate checks the loaded configuration for consistency.
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateEmbedding(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateProfiles(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.LongTTL <= 0 {
		return fmt.Errorf("cache.long_ttl must be positive, got %v", c.Cache.LongTTL)
	}
	if c.Cache.UserTTL <= 0 {
		return fmt.Errorf("cache.user_ttl must be positive, got %v", c.Cache.UserTTL)
	}
	if c.Cache.Durable && c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir is required when cache.durable is enabled")
	}
	return nil
}

//nolint:gocyclo // flat list of range checks
func (c *Config) validatePipeline() error {
	p := &c.Pipeline
	if p.MaxResults < 1 {
		return fmt.Errorf("pipeline.max_results must be at least 1, got %d", p.MaxResults)
	}
	if p.RandomBelow > p.SimpleBelow || p.SimpleBelow > p.EnhancedBelow {
		return fmt.Errorf("pipeline thresholds must satisfy random_below <= simple_below <= enhanced_below, got %d/%d/%d",
			p.RandomBelow, p.SimpleBelow, p.EnhancedBelow)
	}
	if p.Neighbors < 1 {
		return fmt.Errorf("pipeline.neighbors must be at least 1, got %d", p.Neighbors)
	}
	if p.MinCommonItems < 1 || p.MinCommonUsers < 1 {
		return fmt.Errorf("pipeline.min_common_items and min_common_users must be at least 1")
	}
	if p.UserWeight < 0 || p.ItemWeight < 0 || p.SingleDiscount < 0 || p.SingleDiscount > 1 {
		return fmt.Errorf("pipeline combination weights must be non-negative and single_discount <= 1")
	}
	if p.RandomScore < 0 || p.RandomScore > 1 {
		return fmt.Errorf("pipeline.random_score must be between 0 and 1, got %f", p.RandomScore)
	}
	if p.MinRatingsUser < 1 {
		return fmt.Errorf("pipeline.min_ratings_per_user must be at least 1, got %d", p.MinRatingsUser)
	}
	cs := &p.Content
	if !cs.Simple.valid() || !cs.Enhanced.valid() {
		return fmt.Errorf("pipeline.content weights must be non-negative and no_preference_genre <= 1")
	}
	for name, v := range map[string]float64{
		"default_quality":    cs.DefaultQuality,
		"default_popularity": cs.DefaultPopularity,
		"default_semantic":   cs.DefaultSemantic,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("pipeline.content.%s must be between 0 and 1, got %f", name, v)
		}
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if c.Catalog.BaseURL != "" {
		if _, err := url.ParseRequestURI(c.Catalog.BaseURL); err != nil {
			return fmt.Errorf("catalog.base_url is invalid: %w", err)
		}
	}
	if c.Catalog.MaxCandidates < 1 {
		return fmt.Errorf("catalog.max_candidates must be at least 1, got %d", c.Catalog.MaxCandidates)
	}
	if c.Catalog.RequestsPerSecond <= 0 {
		return fmt.Errorf("catalog.requests_per_second must be positive, got %f", c.Catalog.RequestsPerSecond)
	}
	return nil
}

func (c *Config) validateEmbedding() error {
	if !c.Embedding.Enabled {
		return nil
	}
	if _, err := url.ParseRequestURI(c.Embedding.URL); err != nil {
		return fmt.Errorf("embedding.url is invalid: %w", err)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required when embedding is enabled")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}

func (c *Config) validateProfiles() error {
	if len(c.Profiles) == 0 {
		return fmt.Errorf("at least one profile must be configured")
	}
	seenIDs := make(map[int]string, len(c.Profiles))
	for name, p := range c.Profiles {
		if p.UserID < 1 {
			return fmt.Errorf("profile %s: user_id must be positive", name)
		}
		if other, ok := seenIDs[p.UserID]; ok {
			return fmt.Errorf("profile %s: user_id %d already used by %s", name, p.UserID, other)
		}
		seenIDs[p.UserID] = name
		if !tableNamePattern.MatchString(p.Table) {
			return fmt.Errorf("profile %s: table %q is not a valid identifier", name, p.Table)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}
