// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/cinerank/internal/cache"
	"github.com/tomtom215/cinerank/internal/config"
	"github.com/tomtom215/cinerank/internal/metrics"
	"github.com/tomtom215/cinerank/internal/resilience"
)

// maxErrorBodySize limits how much of an error response body is read.
const maxErrorBodySize = 64 * 1024

// readBodyForError reads a bounded prefix of an error response body.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("[error reading body]")
	}
	return body
}

// StatusError is returned for a non-200 catalog response.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog %s returned status %d: %s", e.Endpoint, e.Code, e.Body)
}

// retryable reports whether the status warrants another attempt.
func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// Client is a TMDB-compatible catalog client. Requests are rate limited,
// retried on 429 and 5xx, and guarded by a circuit breaker. Successful pages
// and movie details are cached with the long TTL class.
type Client struct {
	client         *http.Client
	baseURL        string
	apiKey         string
	limiter        *rate.Limiter
	breaker        *resilience.Breaker
	cache          cache.Cacher
	maxRetries     int
	retryBaseDelay time.Duration
	logger         zerolog.Logger
}

// NewClient creates a catalog client. A nil cache disables caching.
func NewClient(cfg *config.CatalogConfig, c cache.Cacher, logger zerolog.Logger) *Client {
	if c == nil {
		c = cache.Nop{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	logger = logger.With().Str("component", "catalog").Logger()

	return &Client{
		client:         &http.Client{Timeout: timeout},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		limiter:        rate.NewLimiter(limit, 1),
		breaker:        resilience.NewBreaker(resilience.DefaultBreakerSettings("tmdb-api"), logger),
		cache:          c,
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: time.Second,
		logger:         logger,
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Page fetches one page of a list endpoint such as "movie/popular".
func (c *Client) Page(ctx context.Context, endpoint string, page int, params map[string]string) (*Page, error) {
	key := cache.PageKey(endpoint, page, params)
	var cached Page
	if c.cache.Get(key, &cached) {
		metrics.CatalogFetches.WithLabelValues(endpoint, "cached").Inc()
		return &cached, nil
	}

	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	query.Set("page", strconv.Itoa(page))

	var result Page
	if err := c.getJSON(ctx, endpoint, query, &result); err != nil {
		metrics.CatalogFetches.WithLabelValues(endpoint, "failed").Inc()
		return nil, err
	}
	metrics.CatalogFetches.WithLabelValues(endpoint, "ok").Inc()
	c.cache.Put(key, &result, cache.ClassLong)
	return &result, nil
}

// Movie fetches the details of one movie.
func (c *Client) Movie(ctx context.Context, id int) (*MovieDetails, error) {
	key := cache.MovieKey(id)
	var cached MovieDetails
	if c.cache.Get(key, &cached) {
		metrics.CatalogFetches.WithLabelValues("movie", "cached").Inc()
		return &cached, nil
	}

	var result MovieDetails
	if err := c.getJSON(ctx, "movie/"+strconv.Itoa(id), url.Values{}, &result); err != nil {
		metrics.CatalogFetches.WithLabelValues("movie", "failed").Inc()
		return nil, err
	}
	metrics.CatalogFetches.WithLabelValues("movie", "ok").Inc()
	c.cache.Put(key, &result, cache.ClassLong)
	return &result, nil
}

// getJSON performs a GET under the circuit breaker and decodes the body.
func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, result interface{}) error {
	query.Set("api_key", c.apiKey)
	reqURL := c.baseURL + "/" + strings.TrimLeft(endpoint, "/") + "?" + query.Encode()

	_, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.doRequestWithRetry(ctx, endpoint, reqURL)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return nil, &StatusError{Endpoint: endpoint, Code: resp.StatusCode, Body: string(readBodyForError(resp.Body))}
		}
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return nil, fmt.Errorf("failed to decode %s response: %w", endpoint, err)
		}
		return nil, nil
	})
	return err
}

// doRequestWithRetry waits on the rate limiter and retries 429 and 5xx
// responses with exponential backoff, honouring Retry-After.
func (c *Client) doRequestWithRetry(ctx context.Context, endpoint, reqURL string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}
		if !retryable(resp.StatusCode) {
			return resp, nil
		}

		lastErr = &StatusError{Endpoint: endpoint, Code: resp.StatusCode, Body: string(readBodyForError(resp.Body))}
		_ = resp.Body.Close()

		if attempt == c.maxRetries {
			break
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
				delay = seconds
			}
		}

		c.logger.Debug().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("Retrying catalog request")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("catalog %s failed after %d retries: %w", endpoint, c.maxRetries, lastErr)
}

// IsStatus reports whether err carries the given catalog HTTP status.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
