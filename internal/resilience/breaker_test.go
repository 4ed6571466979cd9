// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/cinerank/internal/metrics"
)

var errSimulated = errors.New("simulated API failure")

func TestBreaker_OpensAfterFailureRatio(t *testing.T) {
	b := NewBreaker(BreakerSettings{Name: "test-opens"}, zerolog.Nop())

	for i := 0; i < 10; i++ {
		_, _ = b.Execute(func() (any, error) { return nil, errSimulated })
	}

	if b.State() != gobreaker.StateOpen {
		t.Fatalf("State() = %v, want open", b.State())
	}

	_, err := b.Execute(func() (any, error) { return "ok", nil })
	if !IsRejected(err) {
		t.Errorf("Execute() error = %v, want rejection while open", err)
	}

	if got := testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("test-opens")); got != 2 {
		t.Errorf("state gauge = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerRequests.WithLabelValues("test-opens", "rejected")); got != 1 {
		t.Errorf("rejected counter = %v, want 1", got)
	}
}

func TestBreaker_StaysClosedBelowMinRequests(t *testing.T) {
	b := NewBreaker(BreakerSettings{Name: "test-min"}, zerolog.Nop())

	for i := 0; i < 9; i++ {
		_, _ = b.Execute(func() (any, error) { return nil, errSimulated })
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed below 10 requests", b.State())
	}
}

func TestBreaker_ClosesAfterSuccessInHalfOpen(t *testing.T) {
	b := NewBreaker(BreakerSettings{
		Name:        "test-recovery",
		MaxRequests: 1,
		Interval:    time.Second,
		Timeout:     100 * time.Millisecond,
	}, zerolog.Nop())

	for i := 0; i < 10; i++ {
		_, _ = b.Execute(func() (any, error) { return nil, errSimulated })
	}

	time.Sleep(150 * time.Millisecond)

	if _, err := b.Execute(func() (any, error) { return "success", nil }); err != nil {
		t.Fatalf("Execute() in half-open error = %v", err)
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed", b.State())
	}
}

func TestDo_TypedResult(t *testing.T) {
	b := NewBreaker(BreakerSettings{Name: "test-do"}, zerolog.Nop())

	got, err := Do(b, func() ([]int, error) { return []int{1, 2}, nil })
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Do() = %v, want [1 2]", got)
	}

	_, err = Do(b, func() (string, error) { return "", errSimulated })
	if !errors.Is(err, errSimulated) {
		t.Errorf("Do() error = %v, want %v", err, errSimulated)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state gobreaker.State
		want  string
	}{
		{gobreaker.StateClosed, "closed"},
		{gobreaker.StateHalfOpen, "half-open"},
		{gobreaker.StateOpen, "open"},
	}
	for _, tt := range tests {
		if got := StateString(tt.state); got != tt.want {
			t.Errorf("StateString(%v) = %q, want %q", tt.state, got, tt.want)
		}
	}
}
