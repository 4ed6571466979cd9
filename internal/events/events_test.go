// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package events

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cinerank/internal/metrics"
)

func validEvent() *WatchEvent {
	e := &WatchEvent{
		Profile: "anshul",
		TMDBID:  603,
		Title:   "The Matrix",
		Rating:  "loved",
		Mood:    "excited",
		Genres:  []string{"Action", "Science Fiction"},
	}
	e.Normalize(time.Date(2026, 2, 1, 21, 0, 0, 0, time.UTC))
	return e
}

func TestWatchEvent_Normalize(t *testing.T) {
	e := &WatchEvent{}
	now := time.Date(2026, 2, 1, 21, 0, 0, 0, time.UTC)
	e.Normalize(now)

	if e.EventID == "" {
		t.Error("EventID not generated")
	}
	if !e.WatchedAt.Equal(now) {
		t.Errorf("WatchedAt = %v, want %v", e.WatchedAt, now)
	}

	id := e.EventID
	e.Normalize(now.Add(time.Hour))
	if e.EventID != id || !e.WatchedAt.Equal(now) {
		t.Error("Normalize() overwrote existing fields")
	}
}

func TestDecodeWatchEvent(t *testing.T) {
	payload, err := validEvent().Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	got, err := DecodeWatchEvent(payload)
	if err != nil {
		t.Fatalf("DecodeWatchEvent() error = %v", err)
	}
	if got.TMDBID != 603 || got.Profile != "anshul" || len(got.Genres) != 2 {
		t.Errorf("DecodeWatchEvent() = %+v", got)
	}

	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "{"},
		{"missing profile", `{"event_id":"e1","tmdb_id":1,"title":"x","watched_at":"2026-02-01T21:00:00Z"}`},
		{"bad rating", `{"event_id":"e1","profile":"anshul","tmdb_id":1,"title":"x","rating":"meh","watched_at":"2026-02-01T21:00:00Z"}`},
		{"zero id", `{"event_id":"e1","profile":"anshul","tmdb_id":0,"title":"x","watched_at":"2026-02-01T21:00:00Z"}`},
		{"bad mood", `{"event_id":"e1","profile":"anshul","tmdb_id":1,"title":"x","mood":"very happy","watched_at":"2026-02-01T21:00:00Z"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeWatchEvent([]byte(tt.payload)); !errors.Is(err, ErrInvalidEvent) {
				t.Errorf("DecodeWatchEvent() error = %v, want ErrInvalidEvent", err)
			}
		})
	}
}

type recordingHandler struct {
	mu     sync.Mutex
	events []*WatchEvent
	fail   int
	got    chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{got: make(chan struct{}, 16)}
}

func (h *recordingHandler) HandleWatch(_ context.Context, e *WatchEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fail > 0 {
		h.fail--
		return errors.New("transient failure")
	}
	h.events = append(h.events, e)
	h.got <- struct{}{}
	return nil
}

func startRouter(t *testing.T, handler WatchHandler) *Bus {
	t.Helper()
	logger := NewWatermillLogger(zerolog.Nop())
	bus := NewGoChannelBus("watch.events", logger)

	cfg := DefaultRouterConfig()
	cfg.RetryInitialInterval = time.Millisecond
	cfg.RetryMaxInterval = 5 * time.Millisecond
	cfg.CloseTimeout = time.Second

	r, err := NewRouter(cfg, bus, handler, logger)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = r.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = bus.Close()
	})

	select {
	case <-r.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}
	return bus
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for handler")
	}
}

func TestRouter_DeliversEvents(t *testing.T) {
	handler := newRecordingHandler()
	bus := startRouter(t, handler)
	before := testutil.ToFloat64(metrics.EventsProcessed.WithLabelValues("ok"))

	event := validEvent()
	if err := bus.PublishWatch(context.Background(), event); err != nil {
		t.Fatalf("PublishWatch() error = %v", err)
	}
	waitFor(t, handler.got)

	handler.mu.Lock()
	defer handler.mu.Unlock()
	if len(handler.events) != 1 || handler.events[0].EventID != event.EventID {
		t.Errorf("events = %+v", handler.events)
	}
	if got := testutil.ToFloat64(metrics.EventsProcessed.WithLabelValues("ok")) - before; got != 1 {
		t.Errorf("ok counter delta = %v, want 1", got)
	}
}

func TestRouter_RetriesHandlerFailure(t *testing.T) {
	handler := newRecordingHandler()
	handler.fail = 2
	bus := startRouter(t, handler)

	if err := bus.PublishWatch(context.Background(), validEvent()); err != nil {
		t.Fatalf("PublishWatch() error = %v", err)
	}
	waitFor(t, handler.got)
}

func TestRouter_DropsInvalidPayload(t *testing.T) {
	handler := newRecordingHandler()
	bus := startRouter(t, handler)
	before := testutil.ToFloat64(metrics.EventsProcessed.WithLabelValues("invalid"))

	if err := bus.Publisher.Publish(bus.Topic, message.NewMessage("bad-1", []byte("not json"))); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	// A valid event after the invalid one proves the router kept going.
	if err := bus.PublishWatch(context.Background(), validEvent()); err != nil {
		t.Fatalf("PublishWatch() error = %v", err)
	}
	waitFor(t, handler.got)

	if got := testutil.ToFloat64(metrics.EventsProcessed.WithLabelValues("invalid")) - before; got != 1 {
		t.Errorf("invalid counter delta = %v, want 1", got)
	}
}

func TestBus_PublishWatchValidates(t *testing.T) {
	bus := NewGoChannelBus("watch.events", NewWatermillLogger(zerolog.Nop()))
	defer func() { _ = bus.Close() }()

	err := bus.PublishWatch(context.Background(), &WatchEvent{Profile: "Bad Name"})
	if !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("PublishWatch() error = %v, want ErrInvalidEvent", err)
	}
}

func TestWatermillLogger(t *testing.T) {
	var sb strings.Builder
	logger := NewWatermillLogger(zerolog.New(&sb))

	logger.With(map[string]interface{}{"topic": "watch.events"}).Info("subscribed", nil)
	logger.Error("failed", errors.New("boom"), map[string]interface{}{"attempt": 2})

	out := sb.String()
	for _, want := range []string{`"topic":"watch.events"`, `"message":"subscribed"`, `"error":"boom"`, `"attempt":2`, `"component":"events"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}
