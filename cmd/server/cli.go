// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cinerank/internal/database"
	"github.com/tomtom215/cinerank/internal/recommend"
	"github.com/tomtom215/cinerank/internal/service"
)

// errUsage is returned for unknown commands or bad arguments.
var errUsage = errors.New("usage")

const usageText = `usage: cinerank [command]

Without a command the HTTP server starts under supervision.

Commands:
  refresh <profile>            regenerate recommendations for one profile
  refresh-all                  regenerate recommendations for every profile
  get <profile> [limit]        print active recommendations (default 50)
  add <profile> [count]        append new recommendations (default 10)
  dislike <profile> <tmdb_id>  mark a recommendation disliked
  stats <profile>              print recommendation statistics
  profiles                     list configured profiles
  cache-stats                  print cache counters
  cache-cleanup                evict expired cache entries and persist
`

// commandBackend is the subset of the service the CLI drives.
type commandBackend interface {
	Profiles() []service.ProfileInfo
	RefreshProfile(ctx context.Context, name string) (*recommend.Result, error)
	RefreshAll(ctx context.Context) (map[string]*recommend.Result, error)
	AddIncremental(ctx context.Context, name string, count int) ([]recommend.Recommendation, error)
	Recommendations(ctx context.Context, name string, limit int, shuffle bool) ([]database.StoredRecommendation, error)
	Dislike(ctx context.Context, name string, itemID int) (int, error)
	Stats(ctx context.Context, name string) (database.ProfileStats, error)
	CacheStats() service.CacheReport
	CacheCleanup() (int, error)
}

// runCommand executes one subcommand and writes its JSON result to out.
func runCommand(ctx context.Context, b commandBackend, args []string, out io.Writer) error {
	if len(args) == 0 {
		return usageError(out, "missing command")
	}

	cmd, rest := args[0], args[1:]
	var (
		result any
		err    error
	)

	switch cmd {
	case "help", "-h", "--help":
		_, err = io.WriteString(out, usageText)
		return err

	case "refresh":
		if len(rest) != 1 {
			return usageError(out, "refresh takes one profile")
		}
		result, err = b.RefreshProfile(ctx, rest[0])

	case "refresh-all":
		results, refreshErr := b.RefreshAll(ctx)
		summary := make(map[string]int, len(results))
		for name, res := range results {
			if res != nil {
				summary[name] = len(res.Recommendations)
			}
		}
		if writeErr := writeJSON(out, summary); writeErr != nil {
			return writeErr
		}
		return refreshErr

	case "get":
		if len(rest) < 1 || len(rest) > 2 {
			return usageError(out, "get takes a profile and an optional limit")
		}
		limit, parseErr := optionalInt(rest, 1, 50)
		if parseErr != nil {
			return usageError(out, parseErr.Error())
		}
		result, err = b.Recommendations(ctx, rest[0], limit, false)

	case "add":
		if len(rest) < 1 || len(rest) > 2 {
			return usageError(out, "add takes a profile and an optional count")
		}
		count, parseErr := optionalInt(rest, 1, service.DefaultIncrementCount)
		if parseErr != nil {
			return usageError(out, parseErr.Error())
		}
		result, err = b.AddIncremental(ctx, rest[0], count)

	case "dislike":
		if len(rest) != 2 {
			return usageError(out, "dislike takes a profile and a tmdb_id")
		}
		id, parseErr := strconv.Atoi(rest[1])
		if parseErr != nil || id <= 0 {
			return usageError(out, "tmdb_id must be a positive integer")
		}
		reduced, dislikeErr := b.Dislike(ctx, rest[0], id)
		result, err = map[string]int{"tmdb_id": id, "similar_reduced": reduced}, dislikeErr

	case "stats":
		if len(rest) != 1 {
			return usageError(out, "stats takes one profile")
		}
		result, err = b.Stats(ctx, rest[0])

	case "profiles":
		result = b.Profiles()

	case "cache-stats":
		result = b.CacheStats()

	case "cache-cleanup":
		removed, cleanupErr := b.CacheCleanup()
		result, err = map[string]int{"removed": removed}, cleanupErr

	default:
		return usageError(out, fmt.Sprintf("unknown command %q", cmd))
	}

	if err != nil {
		return err
	}
	return writeJSON(out, result)
}

func optionalInt(args []string, idx, def int) (int, error) {
	if len(args) <= idx {
		return def, nil
	}
	n, err := strconv.Atoi(args[idx])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%q is not a positive integer", args[idx])
	}
	return n, nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usageError(out io.Writer, msg string) error {
	_, _ = io.WriteString(out, usageText)
	return fmt.Errorf("%w: %s", errUsage, msg)
}
