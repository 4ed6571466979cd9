// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/cinerank/internal/api"
	"github.com/tomtom215/cinerank/internal/events"
	"github.com/tomtom215/cinerank/internal/logging"
	"github.com/tomtom215/cinerank/internal/supervisor"
	"github.com/tomtom215/cinerank/internal/supervisor/services"
)

// runServer builds the supervisor tree and blocks until ctx is cancelled
// or the tree stops.
func runServer(ctx context.Context, a *app) error {
	cfg := a.cfg
	logger := logging.Logger()

	tree, err := supervisor.NewSupervisorTree(logger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	// Data layer
	if cfg.Scheduler.Enabled {
		tree.AddDataService(services.NewRefreshSchedulerService(a.svc, services.RefreshSchedulerConfig{
			RefreshOnStartup: cfg.Scheduler.RefreshOnStartup,
			Interval:         cfg.Scheduler.RefreshInterval,
		}, logger))
		logging.Info().Dur("interval", cfg.Scheduler.RefreshInterval).Msg("Refresh scheduler added to supervisor tree")
	}
	tree.AddDataService(services.NewCacheMaintenanceService(a.svc, cfg.Cache.SweepInterval, logger))

	// Messaging layer
	tree.AddMessagingService(services.NewEventRouterService(func() (services.EventRouter, error) {
		return events.NewRouter(events.DefaultRouterConfig(), a.bus, a.svc, a.wmLogger)
	}))

	// API layer
	var publisher api.WatchPublisher
	if a.publisher != nil {
		publisher = a.publisher
	}
	handler := api.NewHandler(a.svc, publisher, a.db)
	mw := api.NewMiddleware(api.MiddlewareConfigFrom(&cfg.Server))

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           api.NewRouter(handler, mw),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      writeTimeout(cfg.Server.Timeout),
		IdleTimeout:       120 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second).WithLogger(logger))

	logging.Info().
		Str("addr", server.Addr).
		Int("profiles", len(cfg.Profiles)).
		Bool("events", cfg.Events.Enabled).
		Interface("services", tree.Services()).
		Msg("Starting CineRank with supervisor tree")

	err = tree.Serve(ctx)

	if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within the shutdown timeout")
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// writeTimeout leaves room for a full pipeline run behind a refresh
// request.
func writeTimeout(read time.Duration) time.Duration {
	if read <= 0 {
		return 5 * time.Minute
	}
	if w := 10 * read; w > 5*time.Minute {
		return w
	}
	return 5 * time.Minute
}
