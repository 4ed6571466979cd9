// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/cinerank/internal/database"
	"github.com/tomtom215/cinerank/internal/events"
	"github.com/tomtom215/cinerank/internal/logging"
	"github.com/tomtom215/cinerank/internal/recommend"
	"github.com/tomtom215/cinerank/internal/service"
	"github.com/tomtom215/cinerank/internal/validation"
)

// Backend is the service surface used by the handlers.
// Satisfied by *service.Service.
type Backend interface {
	Profiles() []service.ProfileInfo
	Recommendations(ctx context.Context, name string, limit int, shuffle bool) ([]database.StoredRecommendation, error)
	RefreshProfile(ctx context.Context, name string) (*recommend.Result, error)
	RefreshAll(ctx context.Context) (map[string]*recommend.Result, error)
	AddIncremental(ctx context.Context, name string, count int) ([]recommend.Recommendation, error)
	Dislike(ctx context.Context, name string, itemID int) (int, error)
	Stats(ctx context.Context, name string) (database.ProfileStats, error)
	CacheStats() service.CacheReport
	CacheCleanup() (int, error)
	events.WatchHandler
}

// WatchPublisher publishes watch events to the bus.
type WatchPublisher interface {
	PublishWatch(ctx context.Context, event *events.WatchEvent) error
}

// Pinger checks a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the HTTP API.
type Handler struct {
	backend   Backend
	publisher WatchPublisher
	db        Pinger
	startTime time.Time
}

// NewHandler creates the handler. publisher may be nil, in which case
// watch events are handled synchronously.
func NewHandler(backend Backend, publisher WatchPublisher, db Pinger) *Handler {
	return &Handler{backend: backend, publisher: publisher, db: db, startTime: time.Now()}
}

// HealthStatus is the body of GET /healthz.
type HealthStatus struct {
	Status       string  `json:"status"`
	Database     bool    `json:"database_connected"`
	EventsBus    bool    `json:"events_bus"`
	Uptime       float64 `json:"uptime_seconds"`
	ProfileCount int     `json:"profiles"`
}

// Health reports liveness and database connectivity.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	dbConnected := h.db == nil || h.db.Ping(r.Context()) == nil

	status := HealthStatus{
		Status:       "healthy",
		Database:     dbConnected,
		EventsBus:    h.publisher != nil,
		Uptime:       time.Since(h.startTime).Seconds(),
		ProfileCount: len(h.backend.Profiles()),
	}
	code := http.StatusOK
	if !dbConnected {
		status.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	respondSuccess(w, code, status, start)
}

// ListProfiles returns the configured profiles.
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, h.backend.Profiles(), time.Now())
}

// RecommendationsRequest holds the query parameters of the list endpoint.
type RecommendationsRequest struct {
	Limit   int `validate:"min=1,max=1000"`
	Shuffle bool
}

// Recommendations returns a profile's active recommendations.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	limit, err := getIntParam(r, "limit", 50)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	shuffle, err := getBoolParam(r, "shuffle", false)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	req := RecommendationsRequest{Limit: limit, Shuffle: shuffle}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, verr)
		return
	}

	recs, err := h.backend.Recommendations(r.Context(), chi.URLParam(r, "name"), req.Limit, req.Shuffle)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if recs == nil {
		recs = []database.StoredRecommendation{}
	}
	respondSuccess(w, http.StatusOK, recs, start)
}

// RefreshSummary is the body of a refresh response.
type RefreshSummary struct {
	Profile       string                  `json:"profile"`
	RunID         string                  `json:"run_id"`
	Count         int                     `json:"count"`
	Readiness     recommend.Readiness     `json:"readiness"`
	Tiers         []recommend.TierOutcome `json:"tiers"`
	UsedEmergency bool                    `json:"used_emergency"`
}

func summarize(res *recommend.Result) RefreshSummary {
	return RefreshSummary{
		Profile:       res.Profile,
		RunID:         res.RunID,
		Count:         len(res.Recommendations),
		Readiness:     res.Readiness,
		Tiers:         res.Tiers,
		UsedEmergency: res.UsedEmergency,
	}
}

// RefreshProfile regenerates one profile.
func (h *Handler) RefreshProfile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	res, err := h.backend.RefreshProfile(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, summarize(res), start)
}

// RefreshAll regenerates every profile. Partial failure returns 207 with
// the successful profiles and the error text.
func (h *Handler) RefreshAll(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	results, err := h.backend.RefreshAll(r.Context())

	summaries := make(map[string]RefreshSummary, len(results))
	for name, res := range results {
		summaries[name] = summarize(res)
	}
	if err != nil {
		if len(results) == 0 {
			respondServiceError(w, err)
			return
		}
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Partial refresh")
		respondSuccess(w, http.StatusMultiStatus, map[string]interface{}{
			"profiles": summaries,
			"error":    err.Error(),
		}, start)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"profiles": summaries}, start)
}

// IncrementalRequest holds the query parameters of an incremental add.
type IncrementalRequest struct {
	Count int `validate:"min=1,max=100"`
}

// AddIncremental appends new recommendations to a profile.
func (h *Handler) AddIncremental(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	count, err := getIntParam(r, "count", service.DefaultIncrementCount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	req := IncrementalRequest{Count: count}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, verr)
		return
	}

	added, err := h.backend.AddIncremental(r.Context(), chi.URLParam(r, "name"), req.Count)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"added":           len(added),
		"recommendations": added,
	}, start)
}

// DislikeRequest is the body of a dislike.
type DislikeRequest struct {
	TMDBID int `json:"tmdb_id" validate:"gt=0"`
}

// Dislike removes an item and penalises similar ones.
func (h *Handler) Dislike(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req DislikeRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, verr)
		return
	}

	reduced, err := h.backend.Dislike(r.Context(), chi.URLParam(r, "name"), req.TMDBID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]int{"tmdb_id": req.TMDBID, "reduced": reduced}, start)
}

// WatchRequest is the body of a watch report. The profile comes from the
// path.
type WatchRequest struct {
	EventID   string    `json:"event_id,omitempty"`
	TMDBID    int       `json:"tmdb_id"`
	Title     string    `json:"title"`
	Rating    string    `json:"rating,omitempty"`
	Mood      string    `json:"mood,omitempty"`
	Overview  string    `json:"overview,omitempty"`
	Genres    []string  `json:"genres,omitempty"`
	WatchedAt time.Time `json:"watched_at,omitempty"`
}

// Watch records a watch. With a bus the event is published and the
// response is 202; otherwise it is handled inline.
func (h *Handler) Watch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req WatchRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	event := &events.WatchEvent{
		EventID:   req.EventID,
		Profile:   chi.URLParam(r, "name"),
		TMDBID:    req.TMDBID,
		Title:     req.Title,
		Rating:    req.Rating,
		Mood:      req.Mood,
		Overview:  req.Overview,
		Genres:    req.Genres,
		WatchedAt: req.WatchedAt,
	}
	event.Normalize(time.Now())
	if verr := validation.ValidateStruct(event); verr != nil {
		respondValidationError(w, verr)
		return
	}

	if h.publisher != nil {
		if err := h.publisher.PublishWatch(r.Context(), event); err != nil {
			respondError(w, http.StatusServiceUnavailable, "EVENTS_UNAVAILABLE", "Failed to publish watch event", err)
			return
		}
		respondSuccess(w, http.StatusAccepted, map[string]string{"event_id": event.EventID}, start)
		return
	}

	if err := h.backend.HandleWatch(r.Context(), event); err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"event_id": event.EventID}, start)
}

// Stats returns a profile's table summary.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	stats, err := h.backend.Stats(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, stats, start)
}

// CacheStats returns cache counters.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, h.backend.CacheStats(), time.Now())
}

// CacheCleanup sweeps expired entries and flushes the durable tier.
func (h *Handler) CacheCleanup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	removed, err := h.backend.CacheCleanup()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]int{"removed": removed}, start)
}
