// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tomtom215/cinerank/internal/cache"
	"github.com/tomtom215/cinerank/internal/catalog"
	"github.com/tomtom215/cinerank/internal/config"
	"github.com/tomtom215/cinerank/internal/database"
	"github.com/tomtom215/cinerank/internal/embedding"
	"github.com/tomtom215/cinerank/internal/events"
	"github.com/tomtom215/cinerank/internal/logging"
	"github.com/tomtom215/cinerank/internal/recommend"
	"github.com/tomtom215/cinerank/internal/service"
)

// app holds every long-lived component for lifecycle management.
type app struct {
	cfg      *config.Config
	db       *database.DB
	store    *cache.Store
	svc      *service.Service
	bus      *events.Bus
	embedded *events.EmbeddedServer
	wmLogger watermill.LoggerAdapter

	// publisher is nil when events are disabled; the API then handles
	// watches inline.
	publisher *events.Bus
}

// newApp initializes components in dependency order. On failure,
// everything opened so far is closed.
func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	logger := logging.Logger()

	a.db, err = database.New(&cfg.Database, cfg.Profiles)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	if err = a.db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logging.Info().Str("path", cfg.Database.Path).Msg("Database initialized successfully")

	a.store, err = cache.Open(cache.Options{
		Dir:     cfg.Cache.Dir,
		Durable: cfg.Cache.Durable,
		LongTTL: cfg.Cache.LongTTL,
		UserTTL: cfg.Cache.UserTTL,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	logging.Info().
		Bool("durable", cfg.Cache.Durable).
		Int("entries", a.store.Stats().Entries).
		Msg("Cache opened")

	client := catalog.NewClient(&cfg.Catalog, a.store, logger)
	provider := catalog.NewProvider(&cfg.Catalog, client, logger)

	// Stays a nil interface unless enabled so the pipeline selects the
	// simple-content fallback.
	var embedder recommend.Embedder
	if cfg.Embedding.Enabled {
		embedder = embedding.NewCached(embedding.NewClient(&cfg.Embedding, logger), a.store)
		logging.Info().Str("model", cfg.Embedding.Model).Msg("Embedding service enabled")
	} else {
		logging.Info().Msg("Embedding service disabled - enhanced tier uses simple content scoring")
	}

	pipeline, err := service.NewPipeline(&cfg.Pipeline, provider, a.db, embedder, a.store, logger)
	if err != nil {
		return nil, fmt.Errorf("create pipeline: %w", err)
	}

	a.svc, err = service.New(cfg, a.db, pipeline, a.store, logger)
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}

	a.wmLogger = events.NewWatermillLogger(logging.Component("events"))
	if err = a.initEvents(); err != nil {
		return nil, err
	}

	return a, nil
}

// initEvents selects the bus. With events disabled an in-process channel
// still feeds the router so the supervised layout stays the same.
func (a *app) initEvents() error {
	ec := &a.cfg.Events
	if !ec.Enabled {
		a.bus = events.NewGoChannelBus(ec.Topic, a.wmLogger)
		logging.Info().Msg("Event bus disabled - watches are processed inline")
		return nil
	}

	url := ec.URL
	if ec.EmbeddedServer {
		srv, err := events.NewEmbeddedServer(ec)
		if err != nil {
			return fmt.Errorf("start embedded NATS server: %w", err)
		}
		a.embedded = srv
		url = srv.ClientURL()
		logging.Info().Str("url", url).Msg("Embedded NATS server started")
	}

	bus, err := events.NewNATSBus(ec, url, a.wmLogger)
	if err != nil {
		return fmt.Errorf("connect event bus: %w", err)
	}
	a.bus = bus
	a.publisher = bus
	logging.Info().Str("url", url).Str("topic", ec.Topic).Msg("NATS event bus connected")
	return nil
}

// close releases components in reverse order of creation.
func (a *app) close() {
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close event bus")
		}
	}
	if a.embedded != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := a.embedded.Shutdown(ctx); err != nil {
			logging.Warn().Err(err).Msg("Failed to shut down embedded NATS server")
		}
		cancel()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close cache")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close database")
		}
	}
}
