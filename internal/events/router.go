// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/cinerank/internal/metrics"
)

const watchHandlerName = "watch_events"

// RouterConfig holds router retry and shutdown settings.
type RouterConfig struct {
	CloseTimeout         time.Duration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64
}

// DefaultRouterConfig returns production defaults.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: time.Second,
		RetryMaxInterval:     30 * time.Second,
		RetryMultiplier:      2.0,
	}
}

// Router consumes watch events from a bus and hands them to a
// WatchHandler.
type Router struct {
	router  *message.Router
	handler WatchHandler
	logger  watermill.LoggerAdapter
}

// NewRouter creates a router for bus.Topic.
func NewRouter(cfg RouterConfig, bus *Bus, handler WatchHandler, logger watermill.LoggerAdapter) (*Router, error) {
	if handler == nil {
		return nil, errors.New("watch handler is required")
	}
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	wmRouter, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	r := &Router{router: wmRouter, handler: handler, logger: logger}

	wmRouter.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      cfg.RetryMultiplier,
		Logger:          logger,
	}
	wmRouter.AddMiddleware(retry.Middleware)

	wmRouter.AddConsumerHandler(watchHandlerName, bus.Topic, bus.Subscriber, r.handle)
	return r, nil
}

// handle decodes one message. Invalid payloads, and events the handler
// rejects with ErrInvalidEvent, are acknowledged and dropped. Other handler
// errors are returned so the retry middleware and the broker redeliver.
func (r *Router) handle(msg *message.Message) error {
	event, err := DecodeWatchEvent(msg.Payload)
	if err != nil {
		metrics.EventsProcessed.WithLabelValues("invalid").Inc()
		r.logger.Error("Dropping invalid watch event", err, watermill.LogFields{"message_uuid": msg.UUID})
		return nil
	}

	if err := r.handler.HandleWatch(msg.Context(), event); err != nil {
		if errors.Is(err, ErrInvalidEvent) {
			metrics.EventsProcessed.WithLabelValues("invalid").Inc()
			r.logger.Error("Dropping rejected watch event", err, watermill.LogFields{"event_id": event.EventID})
			return nil
		}
		metrics.EventsProcessed.WithLabelValues("failed").Inc()
		return fmt.Errorf("handle watch event %s: %w", event.EventID, err)
	}

	metrics.EventsProcessed.WithLabelValues("ok").Inc()
	r.logger.Debug("Watch event handled", watermill.LogFields{
		"event_id": event.EventID,
		"profile":  event.Profile,
		"tmdb_id":  event.TMDBID,
	})
	return nil
}

// Run blocks until ctx is cancelled or the router is closed.
func (r *Router) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Running is closed once every handler is subscribed.
func (r *Router) Running() chan struct{} {
	return r.router.Running()
}

// Close stops the router.
func (r *Router) Close() error {
	return r.router.Close()
}
