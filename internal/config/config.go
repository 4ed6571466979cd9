// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package config

import (
	"sort"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Database  DatabaseConfig           `koanf:"database"`
	Cache     CacheConfig              `koanf:"cache"`
	Pipeline  PipelineConfig           `koanf:"pipeline"`
	Catalog   CatalogConfig            `koanf:"catalog"`
	Embedding EmbeddingConfig          `koanf:"embedding"`
	Events    EventsConfig             `koanf:"events"`
	Server    ServerConfig             `koanf:"server"`
	Scheduler SchedulerConfig          `koanf:"scheduler"`
	Logging   LoggingConfig            `koanf:"logging"`
	Profiles  map[string]ProfileConfig `koanf:"profiles"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = use NumCPU
}

// CacheConfig holds CacheStore settings.
type CacheConfig struct {
	Dir           string        `koanf:"dir"`
	Durable       bool          `koanf:"durable"`
	LongTTL       time.Duration `koanf:"long_ttl"`
	UserTTL       time.Duration `koanf:"user_ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// PipelineConfig holds the tunable cascade thresholds and scoring weights.
type PipelineConfig struct {
	MaxResults       int     `koanf:"max_results"`
	EnhancedBelow    int     `koanf:"enhanced_below"`
	SimpleBelow      int     `koanf:"simple_below"`
	RandomBelow      int     `koanf:"random_below"`
	RandomLimit      int     `koanf:"random_limit"`
	RandomScore      float64 `koanf:"random_score"`
	Neighbors        int     `koanf:"neighbors"`
	MinCommonItems   int     `koanf:"min_common_items"`
	MinCommonUsers   int     `koanf:"min_common_users"`
	UserWeight       float64 `koanf:"user_weight"`
	ItemWeight       float64 `koanf:"item_weight"`
	SingleDiscount   float64 `koanf:"single_discount"`
	MinUsersForCF    int     `koanf:"min_users_for_cf"`
	MinTotalRatings  int     `koanf:"min_total_ratings"`
	MinRatingsUser   int     `koanf:"min_ratings_per_user"`
	MinActiveUsers   int     `koanf:"min_active_users"`
	RecentWatchTexts int     `koanf:"recent_watch_texts"`

	Content ContentScoringConfig `koanf:"content"`
}

// ContentScoringConfig holds content-based term weights and the values
// used for missing candidate fields and failed embeddings.
type ContentScoringConfig struct {
	Simple            ContentTermWeights `koanf:"simple"`
	Enhanced          ContentTermWeights `koanf:"enhanced"`
	DefaultQuality    float64            `koanf:"default_quality"`
	DefaultPopularity float64            `koanf:"default_popularity"`
	DefaultSemantic   float64            `koanf:"default_semantic"`
}

// ContentTermWeights weights the terms of one content scoring mode.
type ContentTermWeights struct {
	Quality           float64 `koanf:"quality"`
	Popularity        float64 `koanf:"popularity"`
	Genre             float64 `koanf:"genre"`
	Semantic          float64 `koanf:"semantic"`
	NoPreferenceGenre float64 `koanf:"no_preference_genre"`
}

func (w ContentTermWeights) valid() bool {
	return w.Quality >= 0 && w.Popularity >= 0 && w.Genre >= 0 && w.Semantic >= 0 &&
		w.NoPreferenceGenre >= 0 && w.NoPreferenceGenre <= 1
}

// CatalogConfig holds TMDB-compatible catalog client settings.
type CatalogConfig struct {
	BaseURL           string        `koanf:"base_url"`
	APIKey            string        `koanf:"api_key"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	MaxRetries        int           `koanf:"max_retries"`
	ListPages         int           `koanf:"list_pages"`
	DiscoverPages     int           `koanf:"discover_pages"`
	MaxCandidates     int           `koanf:"max_candidates"`
}

// EmbeddingConfig holds the optional embedding provider settings.
type EmbeddingConfig struct {
	Enabled bool          `koanf:"enabled"`
	URL     string        `koanf:"url"`
	Model   string        `koanf:"model"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

// EventsConfig holds watch-event messaging settings.
type EventsConfig struct {
	Enabled        bool   `koanf:"enabled"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	URL            string `koanf:"url"`
	Topic          string `koanf:"topic"`
	DurableName    string `koanf:"durable_name"`
	QueueGroup     string `koanf:"queue_group"`
	StoreDir       string `koanf:"store_dir"`
	ServerPort     int    `koanf:"server_port"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	RateLimitReqs   int           `koanf:"rate_limit_requests"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// SchedulerConfig controls periodic recommendation refresh.
type SchedulerConfig struct {
	Enabled          bool          `koanf:"enabled"`
	RefreshInterval  time.Duration `koanf:"refresh_interval"`
	RefreshOnStartup bool          `koanf:"refresh_on_startup"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ProfileConfig describes one household profile.
type ProfileConfig struct {
	UserID      int                `koanf:"user_id"`
	Table       string             `koanf:"table"`
	Genres      []string           `koanf:"genres"`
	MoodWeights map[string]float64 `koanf:"mood_weights"`
}

// ProfileNames returns the configured profile names in sorted order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
