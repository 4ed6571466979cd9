// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/cinerank/internal/config"
	"github.com/tomtom215/cinerank/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize application")
	}

	// Subcommands run once against the same components the server uses.
	if len(os.Args) > 1 {
		err = runCommand(ctx, a.svc, os.Args[1:], os.Stdout)
		a.close()
		if err != nil {
			logging.Error().Err(err).Str("command", os.Args[1]).Msg("Command failed")
			os.Exit(1)
		}
		return
	}

	err = runServer(ctx, a)
	a.close()
	if err != nil {
		logging.Fatal().Err(err).Msg("Server terminated with error")
	}
	logging.Info().Msg("Server shutdown complete")
}
