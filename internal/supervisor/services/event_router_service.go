// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package services

import (
	"context"
	"errors"
	"fmt"
)

// EventRouter matches the *events.Router lifecycle.
type EventRouter interface {
	Run(ctx context.Context) error
	Close() error
}

// RouterFactory builds a fresh router. Watermill routers cannot be run
// twice, so every restart asks for a new one.
type RouterFactory func() (EventRouter, error)

// EventRouterService runs the watch-event router under supervision.
//
// Example usage:
//
//	factory := func() (services.EventRouter, error) {
//	    return events.NewRouter(events.DefaultRouterConfig(), bus, svc, wmLogger)
//	}
//	tree.AddMessagingService(services.NewEventRouterService(factory))
type EventRouterService struct {
	factory RouterFactory
	name    string
}

// NewEventRouterService creates the router service.
func NewEventRouterService(factory RouterFactory) *EventRouterService {
	return &EventRouterService{factory: factory, name: "event-router"}
}

// Serve implements suture.Service. Run returns when ctx is cancelled; any
// earlier return is reported as a failure so suture restarts the router.
func (s *EventRouterService) Serve(ctx context.Context) error {
	router, err := s.factory()
	if err != nil {
		return fmt.Errorf("create event router: %w", err)
	}

	runErr := router.Run(ctx)
	closeErr := router.Close()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if runErr == nil {
		runErr = errors.New("event router stopped unexpectedly")
	}
	return errors.Join(fmt.Errorf("event router: %w", runErr), closeErr)
}

// String returns the service name for logging.
func (s *EventRouterService) String() string {
	return s.name
}
