// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/cinerank/internal/config"
	"github.com/tomtom215/cinerank/internal/logging"
	"github.com/tomtom215/cinerank/internal/metrics"
	"github.com/tomtom215/cinerank/internal/validation"
)

// DB wraps the DuckDB connection. It is the rating store and the result
// sink of the recommendation pipeline.
type DB struct {
	conn     *sql.DB
	cfg      *config.DatabaseConfig
	profiles map[string]config.ProfileConfig
}

// New opens the database, creates the schema and one recommendation table
// per configured profile.
func New(cfg *config.DatabaseConfig, profiles map[string]config.ProfileConfig) (*DB, error) {
	for name, p := range profiles {
		if !validation.IsIdentifier(p.Table) {
			return nil, fmt.Errorf("profile %s: invalid table name %q", name, p.Table)
		}
		if p.UserID <= 0 {
			return nil, fmt.Errorf("profile %s: user_id must be positive", name)
		}
	}

	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Ensure parent directory exists for database file
	if cfg.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "1GB"
	}
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s", cfg.Path, numThreads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps in-memory databases shared and serializes
	// writers.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, cfg: cfg, profiles: profiles}
	if err := db.createTables(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Int("profiles", len(profiles)).Msg("Database initialized")
	return db, nil
}

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS watched_movies (
			event_id VARCHAR UNIQUE,
			user_id INTEGER NOT NULL,
			tmdb_id INTEGER NOT NULL,
			title VARCHAR NOT NULL,
			rating VARCHAR,
			current_mood VARCHAR,
			overview VARCHAR DEFAULT '',
			genres VARCHAR DEFAULT '',
			watched_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_watched_user ON watched_movies(user_id, watched_at)`,
		`CREATE TABLE IF NOT EXISTS mood_selections (
			user_id INTEGER NOT NULL,
			mood VARCHAR NOT NULL,
			selected_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	names := make([]string, 0, len(db.profiles))
	for name := range db.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		// Table names are validated identifiers.
		queries = append(queries, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			tmdb_id INTEGER PRIMARY KEY,
			title VARCHAR NOT NULL,
			genres VARCHAR DEFAULT '',
			vote_average DOUBLE DEFAULT 0,
			popularity DOUBLE DEFAULT 0,
			similarity_score DOUBLE DEFAULT 0,
			recommendation_reason VARCHAR DEFAULT '',
			tier VARCHAR DEFAULT '',
			added_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`, db.profiles[name].Table))
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// ensureContext creates a context with 30-second timeout if none provided
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 30*time.Second)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, 30*time.Second)
	}
	return ctx, func() {}
}

// observe records the duration and outcome of one query.
func observe(operation, table string, start time.Time, err error) {
	metrics.RecordDBQuery(operation, table, time.Since(start), err)
}

// profile returns the configuration of a named profile.
func (db *DB) profile(name string) (config.ProfileConfig, error) {
	p, ok := db.profiles[name]
	if !ok {
		return config.ProfileConfig{}, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
	}
	return p, nil
}

// Ping checks the connection.
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return db.conn.PingContext(ctx)
}

// Checkpoint forces a WAL checkpoint
func (db *DB) Checkpoint(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}
