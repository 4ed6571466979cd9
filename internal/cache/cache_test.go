// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package cache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeClock is a manually advanced clock shared by a store under test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newMemoryStore(t *testing.T, clock *fakeClock) *Store {
	t.Helper()
	s, err := Open(Options{
		LongTTL: 24 * time.Hour,
		UserTTL: time.Hour,
		Logger:  zerolog.Nop(),
		Now:     clock.Now,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s
}

// setupTestDir creates a temporary badger directory for testing.
func setupTestDir(t *testing.T) (string, func()) {
	t.Helper()
	dir, err := os.MkdirTemp("", "cache-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	return dir, func() { os.RemoveAll(dir) }
}

func TestStore_PutGet(t *testing.T) {
	t.Parallel()

	s := newMemoryStore(t, newFakeClock())
	s.Put(MovieKey(603), map[string]interface{}{"title": "The Matrix"}, ClassLong)

	var got map[string]interface{}
	if !s.Get(MovieKey(603), &got) {
		t.Fatal("expected hit after put")
	}
	if got["title"] != "The Matrix" {
		t.Errorf("title = %v, want The Matrix", got["title"])
	}

	var missing string
	if s.Get("movie_1", &missing) {
		t.Error("expected miss for unknown key")
	}
}

func TestStore_TTLByClass(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		class   TTLClass
		advance time.Duration
		wantHit bool
	}{
		{"long within ttl", ClassLong, 23 * time.Hour, true},
		{"long expired", ClassLong, 24 * time.Hour, false},
		{"user within ttl", ClassUser, 59 * time.Minute, true},
		{"user expired", ClassUser, time.Hour + time.Second, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			clock := newFakeClock()
			s := newMemoryStore(t, clock)
			s.Put("k", 42, tt.class)
			clock.Advance(tt.advance)

			var v int
			if got := s.Get("k", &v); got != tt.wantHit {
				t.Errorf("Get() hit = %v, want %v", got, tt.wantHit)
			}
		})
	}
}

func TestStore_ExpiredIsMissBeforeSweep(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	s := newMemoryStore(t, clock)
	s.Put("a", "x", ClassUser)
	s.Put("b", "y", ClassLong)
	clock.Advance(2 * time.Hour)

	// Entry is still physically present until swept or read.
	s.mu.RLock()
	_, present := s.entries["a"]
	s.mu.RUnlock()
	if !present {
		t.Fatal("expected entry to remain physically stored before sweep")
	}

	var v string
	if s.Get("a", &v) {
		t.Error("expired entry must be a miss")
	}

	s.Put("c", "z", ClassUser)
	clock.Advance(2 * time.Hour)
	if removed := s.SweepExpired(); removed != 1 {
		t.Errorf("SweepExpired() = %d, want 1", removed)
	}
	if !s.Get("b", &v) || v != "y" {
		t.Error("long entry should survive sweep")
	}
}

func TestStore_InvalidateUser(t *testing.T) {
	t.Parallel()

	s := newMemoryStore(t, newFakeClock())
	s.Put(UserKey("anshul"), "snapshot", ClassUser)
	s.Put(UserEmbeddingKey("anshul", "m", []string{"a"}), []float64{1}, ClassUser)
	s.Put(UserEmbeddingKey("anshul", "m", []string{"b"}), []float64{2}, ClassUser)
	s.Put(UserKey("an"), "other", ClassUser)
	s.Put(UserKey("shikhar"), "snapshot", ClassUser)
	s.Put(UserEmbeddingKey("shikhar", "m", []string{"a"}), []float64{3}, ClassUser)
	s.Put(MovieKey(1), "movie", ClassLong)

	if removed := s.InvalidateUser("anshul"); removed != 3 {
		t.Errorf("InvalidateUser() removed = %d, want 3", removed)
	}

	var v interface{}
	if s.Get(UserKey("anshul"), &v) {
		t.Error("anshul snapshot should be removed")
	}
	for _, key := range []string{UserKey("an"), UserKey("shikhar"), UserEmbeddingKey("shikhar", "m", []string{"a"}), MovieKey(1)} {
		if !s.Get(key, &v) {
			t.Errorf("%s should be untouched", key)
		}
	}
}

func TestStore_InvalidatePrefix(t *testing.T) {
	t.Parallel()

	s := newMemoryStore(t, newFakeClock())
	s.Put(PageKey("movie/popular", 1, nil), []int{1}, ClassLong)
	s.Put(PageKey("movie/popular", 2, nil), []int{2}, ClassLong)
	s.Put(MovieKey(5), "m", ClassLong)

	if removed := s.Invalidate("page_"); removed != 2 {
		t.Errorf("Invalidate(page_) = %d, want 2", removed)
	}
	if st := s.Stats(); st.Entries != 1 {
		t.Errorf("Entries = %d, want 1", st.Entries)
	}
}

func TestStore_DurableRoundTrip(t *testing.T) {
	dir, cleanup := setupTestDir(t)
	defer cleanup()

	s, err := Open(Options{Dir: dir, Durable: true, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	s.Put(MovieKey(278), "Shawshank", ClassLong)
	s.Put(UserKey("anshul"), "snapshot", ClassUser)
	if st := s.Stats(); st.Dirty != 2 || !st.Durable {
		t.Errorf("Stats() = %+v, want 2 dirty durable", st)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Save(); err != ErrClosed {
		t.Errorf("Save() after Close = %v, want ErrClosed", err)
	}

	reopened, err := Open(Options{Dir: dir, Durable: true, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	var title string
	if !reopened.Get(MovieKey(278), &title) || title != "Shawshank" {
		t.Errorf("durable entry not restored, got %q", title)
	}

	reopened.InvalidateUser("anshul")
	if err := reopened.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	third, err := Open(Options{Dir: dir, Durable: true, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("third open error = %v", err)
	}
	defer third.Close()
	var snap string
	if third.Get(UserKey("anshul"), &snap) {
		t.Error("invalidated user entry resurrected from durable tier")
	}
}

func TestStore_SaveDoesNotResurrectInvalidatedUser(t *testing.T) {
	dir, cleanup := setupTestDir(t)
	defer cleanup()

	s, err := Open(Options{Dir: dir, Durable: true, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	for i := 0; i < 50; i++ {
		s.Put(UserKey("anshul"), i, ClassUser)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Save()
		}()
		go func() {
			defer wg.Done()
			s.InvalidateUser("anshul")
		}()
		wg.Wait()
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(Options{Dir: dir, Durable: true, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	var snap int
	if reopened.Get(UserKey("anshul"), &snap) {
		t.Errorf("invalidated snapshot %d restored from durable tier", snap)
	}
}

func TestStore_DurableFailureDegrades(t *testing.T) {
	dir, cleanup := setupTestDir(t)
	defer cleanup()

	// A regular file where the badger directory should be makes Open fail.
	blocker := filepath.Join(dir, "blocked")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	s, err := Open(Options{Dir: blocker, Durable: true, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("Open() must not fail on durable error, got %v", err)
	}
	defer s.Close()

	if !s.Stats().Degraded {
		t.Error("expected degraded store")
	}
	s.Put("k", "v", ClassLong)
	var v string
	if !s.Get("k", &v) || v != "v" {
		t.Error("degraded store must keep serving from memory")
	}
	if err := s.Save(); err != nil {
		t.Errorf("Save() on degraded store = %v, want nil", err)
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	s := newMemoryStore(t, newFakeClock())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.Put(MovieKey(j), n, ClassLong)
				var v int
				s.Get(MovieKey(j), &v)
				if j%50 == 0 {
					s.Invalidate("movie_1")
				}
			}
		}(i)
	}
	wg.Wait()

	if hr := s.HitRate(); hr < 0 || hr > 100 {
		t.Errorf("HitRate() = %v, want in [0,100]", hr)
	}
}

func TestKeys(t *testing.T) {
	t.Parallel()

	if SimilarityKey("user", 7, 3) != SimilarityKey("user", 3, 7) {
		t.Error("SimilarityKey must be symmetric")
	}
	a := PageKey("discover/movie", 2, map[string]string{"with_genres": "28", "sort_by": "popularity.desc"})
	b := PageKey("discover/movie", 2, map[string]string{"sort_by": "popularity.desc", "with_genres": "28"})
	if a != b {
		t.Errorf("PageKey depends on param order: %s vs %s", a, b)
	}
	if PageKey("discover/movie", 3, nil) == PageKey("discover/movie", 2, nil) {
		t.Error("PageKey must include page")
	}
	if UserEmbeddingKey("u", "m", []string{"x", "y"}) != UserEmbeddingKey("u", "m", []string{"y", "x"}) {
		t.Error("UserEmbeddingKey must be order independent")
	}
	if EmbeddingKey("m1", "text") == EmbeddingKey("m2", "text") {
		t.Error("EmbeddingKey must include the model identity")
	}
	if GenerateKey("fetch", map[string]int{"b": 1, "a": 2}) != GenerateKey("fetch", map[string]int{"a": 2, "b": 1}) {
		t.Error("GenerateKey must be deterministic for maps")
	}
}
