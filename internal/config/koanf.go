// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is not set.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/cinerank/config.yaml",
	"/etc/cinerank/config.yml",
}

// ConfigPathEnvVar names the environment variable holding an explicit config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults, including the four household profiles.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:      "/data/cinerank.duckdb",
			MaxMemory: "512MB",
			Threads:   0,
		},
		Cache: CacheConfig{
			Dir:           "/data/cache",
			Durable:       true,
			LongTTL:       24 * time.Hour,
			UserTTL:       time.Hour,
			SweepInterval: 10 * time.Minute,
		},
		Pipeline: PipelineConfig{
			MaxResults:       50,
			EnhancedBelow:    20,
			SimpleBelow:      15,
			RandomBelow:      10,
			RandomLimit:      30,
			RandomScore:      0.7,
			Neighbors:        15,
			MinCommonItems:   3,
			MinCommonUsers:   3,
			UserWeight:       0.6,
			ItemWeight:       0.4,
			SingleDiscount:   0.8,
			MinUsersForCF:    4,
			MinTotalRatings:  15,
			MinRatingsUser:   3,
			MinActiveUsers:   2,
			RecentWatchTexts: 20,
			Content: ContentScoringConfig{
				Simple:            ContentTermWeights{Quality: 0.4, Popularity: 0.2, Genre: 0.4, NoPreferenceGenre: 0.2},
				Enhanced:          ContentTermWeights{Quality: 0.3, Popularity: 0.2, Genre: 0.2, Semantic: 0.3, NoPreferenceGenre: 0.4},
				DefaultQuality:    0.7,
				DefaultPopularity: 0.2,
				DefaultSemantic:   0.5,
			},
		},
		Catalog: CatalogConfig{
			BaseURL:           "https://api.themoviedb.org/3",
			APIKey:            "",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 4,
			MaxRetries:        3,
			ListPages:         2,
			DiscoverPages:     3,
			MaxCandidates:     1000,
		},
		Embedding: EmbeddingConfig{
			Enabled: false,
			URL:     "http://127.0.0.1:8081/v1/embeddings",
			Model:   "all-MiniLM-L6-v2",
			Timeout: 15 * time.Second,
		},
		Events: EventsConfig{
			Enabled:        false,
			EmbeddedServer: true,
			URL:            "nats://127.0.0.1:4222",
			Topic:          "watch.events",
			DurableName:    "cinerank-watch",
			QueueGroup:     "cinerank",
			StoreDir:       "/data/nats",
			ServerPort:     4222,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Scheduler: SchedulerConfig{
			Enabled:          true,
			RefreshInterval:  6 * time.Hour,
			RefreshOnStartup: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Profiles: defaultProfiles(),
	}
}

func defaultProfiles() map[string]ProfileConfig {
	return map[string]ProfileConfig{
		"anshul": {
			UserID: 1,
			Table:  "anshul_dash",
			Genres: []string{"Action", "Thriller", "Science Fiction", "Adventure"},
			MoodWeights: map[string]float64{
				"happy": 1.2, "sad": 0.8, "excited": 1.3, "calm": 1.0,
				"angry": 1.1, "romantic": 0.9, "adventurous": 1.4, "nostalgic": 1.0,
			},
		},
		"shikhar": {
			UserID: 2,
			Table:  "shikhar_dash",
			Genres: []string{"Comedy", "Drama", "Romance", "Family"},
			MoodWeights: map[string]float64{
				"happy": 1.3, "sad": 1.1, "excited": 1.0, "calm": 1.2,
				"angry": 0.7, "romantic": 1.4, "adventurous": 0.9, "nostalgic": 1.2,
			},
		},
		"priyanshu": {
			UserID: 3,
			Table:  "priyanshu_dash",
			Genres: []string{"Horror", "Mystery", "Adventure", "Thriller"},
			MoodWeights: map[string]float64{
				"happy": 1.0, "sad": 1.0, "excited": 1.3, "calm": 0.8,
				"angry": 1.2, "romantic": 0.8, "adventurous": 1.4, "nostalgic": 0.9,
			},
		},
		"shaurya": {
			UserID: 4,
			Table:  "shaurya_dash",
			Genres: []string{"Animation", "Family", "Fantasy", "Adventure"},
			MoodWeights: map[string]float64{
				"happy": 1.4, "sad": 0.9, "excited": 1.2, "calm": 1.1,
				"angry": 0.8, "romantic": 1.0, "adventurous": 1.3, "nostalgic": 1.1,
			},
		},
	}
}

// LoadWithKoanf loads configuration in three layers:
//  1. Struct defaults
//  2. Config file (optional, CONFIG_PATH or DefaultConfigPaths)
//  3. Environment variables (highest priority, explicit mapping only)
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists keys that arrive from the environment as comma-separated strings.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
var envMappings = map[string]string{
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	"cache_dir":            "cache.dir",
	"cache_durable":        "cache.durable",
	"cache_long_ttl":       "cache.long_ttl",
	"cache_user_ttl":       "cache.user_ttl",
	"cache_sweep_interval": "cache.sweep_interval",

	"pipeline_max_results":       "pipeline.max_results",
	"pipeline_neighbors":         "pipeline.neighbors",
	"pipeline_min_common_items":  "pipeline.min_common_items",
	"pipeline_min_common_users":  "pipeline.min_common_users",
	"pipeline_min_users_for_cf":  "pipeline.min_users_for_cf",
	"pipeline_min_total_ratings": "pipeline.min_total_ratings",

	"tmdb_api_key":                "catalog.api_key",
	"tmdb_base_url":               "catalog.base_url",
	"catalog_timeout":             "catalog.timeout",
	"catalog_requests_per_second": "catalog.requests_per_second",
	"catalog_max_retries":         "catalog.max_retries",
	"catalog_max_candidates":      "catalog.max_candidates",

	"embedding_enabled": "embedding.enabled",
	"embedding_url":     "embedding.url",
	"embedding_model":   "embedding.model",
	"embedding_api_key": "embedding.api_key",
	"embedding_timeout": "embedding.timeout",

	"events_enabled":      "events.enabled",
	"nats_embedded":       "events.embedded_server",
	"nats_url":            "events.url",
	"nats_store_dir":      "events.store_dir",
	"nats_port":           "events.server_port",
	"events_topic":        "events.topic",
	"events_durable_name": "events.durable_name",

	"http_host":           "server.host",
	"http_port":           "server.port",
	"http_timeout":        "server.timeout",
	"rate_limit_requests": "server.rate_limit_requests",
	"rate_limit_window":   "server.rate_limit_window",
	"cors_origins":        "server.cors_origins",

	"scheduler_enabled":  "scheduler.enabled",
	"refresh_interval":   "scheduler.refresh_interval",
	"refresh_on_startup": "scheduler.refresh_on_startup",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - TMDB_API_KEY -> catalog.api_key
//   - DUCKDB_PATH -> database.path
//   - HTTP_PORT -> server.port
//
// Unmapped variables return "" and are skipped.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
