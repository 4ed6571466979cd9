// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

// Package config loads CineRank configuration with koanf.
//
// Values are layered in increasing order of precedence:
//
//  1. Built-in defaults (defaultConfig), including the household profiles
//  2. A YAML file at CONFIG_PATH or one of DefaultConfigPaths
//  3. Environment variables, through an explicit name mapping
//
// Only mapped environment variables are read, so unrelated variables never
// leak into the configuration. Profiles are a map keyed by profile name, so a
// YAML file can override a single profile's fields or add a new profile
// without restating the others.
//
// # Example config.yaml
//
//	catalog:
//	  api_key: "..."
//	pipeline:
//	  neighbors: 20
//	profiles:
//	  anshul:
//	    genres: [Action, Thriller]
package config
