// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/cinerank/internal/validation"
)

// ErrInvalidEvent is returned for events that cannot be decoded or fail
// validation. Such messages are acknowledged and dropped.
var ErrInvalidEvent = errors.New("invalid watch event")

// WatchEvent reports that a profile finished watching a movie.
type WatchEvent struct {
	EventID   string    `json:"event_id" validate:"required"`
	Profile   string    `json:"profile" validate:"required,identifier"`
	TMDBID    int       `json:"tmdb_id" validate:"gt=0"`
	Title     string    `json:"title" validate:"required,max=512"`
	Rating    string    `json:"rating,omitempty" validate:"omitempty,ordinal"`
	Mood      string    `json:"mood,omitempty" validate:"omitempty,mood"`
	Overview  string    `json:"overview,omitempty" validate:"max=4096"`
	Genres    []string  `json:"genres,omitempty" validate:"dive,required"`
	WatchedAt time.Time `json:"watched_at" validate:"required"`
}

// WatchHandler processes decoded watch events.
type WatchHandler interface {
	HandleWatch(ctx context.Context, event *WatchEvent) error
}

// Normalize fills a missing event id and timestamp and lowercases the
// rating and mood labels.
func (e *WatchEvent) Normalize(now time.Time) {
	if e.EventID == "" {
		e.EventID = uuid.New().String()
	}
	if e.WatchedAt.IsZero() {
		e.WatchedAt = now.UTC()
	}
	e.Rating = strings.ToLower(strings.TrimSpace(e.Rating))
	e.Mood = strings.ToLower(strings.TrimSpace(e.Mood))
}

// Validate checks the event at the boundary.
func (e *WatchEvent) Validate() error {
	if verr := validation.ValidateStruct(e); verr != nil {
		return fmt.Errorf("%w: %s", ErrInvalidEvent, verr.Error())
	}
	return nil
}

// Encode returns the JSON payload of the event.
func (e *WatchEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeWatchEvent parses and validates a JSON payload.
func DecodeWatchEvent(payload []byte) (*WatchEvent, error) {
	var e WatchEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
