// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package cache

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// Key prefixes shared by every component that writes to the store.
const (
	prefixMovie     = "movie_"
	prefixPage      = "page_"
	prefixEmbedding = "emb_"
	prefixUser      = "user_"
	prefixUserEmb   = "user_emb_"
	prefixSim       = "sim_"
)

// GenerateKey creates a cache key from a method name and parameters.
// Map parameters are encoded with sorted keys, so argument order never
// changes the key.
func GenerateKey(method string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%v", method, params)
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", method, hash[:16])
}

// hashSorted hashes values independent of their order.
func hashSorted(values []string) string {
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	hash := sha256.Sum256([]byte(strings.Join(sorted, "\x1f")))
	return fmt.Sprintf("%x", hash[:12])
}

// MovieKey is the key of a movie detail record.
func MovieKey(id int) string {
	return fmt.Sprintf("%s%d", prefixMovie, id)
}

// PageKey is the key of one catalog list page. Query parameters are part of
// the key; their order is irrelevant.
func PageKey(endpoint string, page int, params map[string]string) string {
	if params == nil {
		params = map[string]string{}
	}
	method := fmt.Sprintf("%s_%d", strings.ReplaceAll(endpoint, "/", "_"), page)
	return prefixPage + GenerateKey(method, params)
}

// EmbeddingKey is the key of one text embedding produced by model.
func EmbeddingKey(model, text string) string {
	hash := sha256.Sum256([]byte(model + "\x00" + text))
	return fmt.Sprintf("%s%x", prefixEmbedding, hash[:16])
}

// UserKey is the key of a user's profile snapshot.
func UserKey(name string) string {
	return prefixUser + name
}

func userEmbeddingPrefix(name string) string {
	return prefixUserEmb + name + "_"
}

// UserEmbeddingKey is the key of a user's content-preference vector. The
// vector is a mean, so the texts are hashed order-independently.
func UserEmbeddingKey(name, model string, texts []string) string {
	return userEmbeddingPrefix(name) + hashSorted(append([]string{"model=" + model}, texts...))
}

// SimilarityKey is the key of a pairwise similarity. It is symmetric:
// SimilarityKey(k, a, b) == SimilarityKey(k, b, a).
func SimilarityKey(kind string, a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%s%s_%d_%d", prefixSim, kind, a, b)
}
