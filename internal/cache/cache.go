// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package cache

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cinerank/internal/metrics"
)

// ErrClosed is returned by Save after Close.
var ErrClosed = errors.New("cache: store closed")

// TTLClass selects the expiry policy for an entry.
type TTLClass uint8

const (
	// ClassLong is for catalog pages, movie details and text embeddings.
	ClassLong TTLClass = iota
	// ClassUser is for per-user derived data that must follow recent watches.
	ClassUser
)

// String returns the class label used in logs and metrics.
func (c TTLClass) String() string {
	if c == ClassUser {
		return "user"
	}
	return "long"
}

// Entry is a single cached value. Value holds the JSON encoding so entries
// can move between tiers unchanged and readers never see a partial write.
type Entry struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	CreatedAt time.Time       `json:"created_at"`
	Class     TTLClass        `json:"class"`
}

// Options configures a Store.
type Options struct {
	// Dir is the badger directory for the durable tier.
	Dir string
	// Durable enables the badger tier. When false the store is memory-only.
	Durable bool
	// LongTTL applies to ClassLong entries. Default: 24h
	LongTTL time.Duration
	// UserTTL applies to ClassUser entries. Default: 1h
	UserTTL time.Duration
	// Logger receives durable-tier failures.
	Logger zerolog.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Stats tracks cache performance metrics.
type Stats struct {
	Hits      int64     `json:"hits"`
	Misses    int64     `json:"misses"`
	Evictions int64     `json:"evictions"`
	Entries   int       `json:"entries"`
	Dirty     int       `json:"dirty"`
	Durable   bool      `json:"durable"`
	Degraded  bool      `json:"degraded"`
	LastSave  time.Time `json:"last_save"`
	LastSweep time.Time `json:"last_sweep"`
}

// Store is a two-tier TTL cache. The memory tier serves every read; writes
// are buffered as dirty keys and flushed to the durable tier on Save.
type Store struct {
	mu sync.RWMutex
	// flushMu orders Save against invalidation so a flush never writes
	// back an entry removed after its snapshot was taken.
	flushMu sync.Mutex
	entries map[string]Entry
	dirty   map[string]struct{}
	durable *durableTier
	closed  bool

	longTTL time.Duration
	userTTL time.Duration
	now     func() time.Time
	logger  zerolog.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
	degraded  atomic.Bool
	lastSave  atomic.Int64
	lastSweep atomic.Int64
}

// Open creates a Store and, when enabled, opens the durable tier and loads
// its unexpired entries into memory. A durable-tier failure is logged and
// the store continues memory-only; only invalid options return an error.
//
//nolint:gocritic // hugeParam: opts passed by value for immutability
func Open(opts Options) (*Store, error) {
	if opts.LongTTL == 0 {
		opts.LongTTL = 24 * time.Hour
	}
	if opts.UserTTL == 0 {
		opts.UserTTL = time.Hour
	}
	if opts.LongTTL < 0 || opts.UserTTL < 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got long=%v user=%v", opts.LongTTL, opts.UserTTL)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Store{
		entries: make(map[string]Entry),
		dirty:   make(map[string]struct{}),
		longTTL: opts.LongTTL,
		userTTL: opts.UserTTL,
		now:     opts.Now,
		logger:  opts.Logger.With().Str("component", "cache").Logger(),
	}

	if opts.Durable {
		dt, err := openDurable(opts.Dir)
		if err != nil {
			s.markDegraded("open", err)
			return s, nil
		}
		s.durable = dt
		loaded, err := dt.loadAll(func(e *Entry) bool { return s.valid(e, s.now()) })
		if err != nil {
			s.markDegraded("load", err)
		}
		for _, e := range loaded {
			s.entries[e.Key] = e
		}
		s.logger.Info().Int("entries", len(loaded)).Str("dir", opts.Dir).Msg("Cache durable tier opened")
	}

	metrics.CacheEntries.Set(float64(len(s.entries)))
	return s, nil
}

// ttlFor returns the TTL for a class.
func (s *Store) ttlFor(class TTLClass) time.Duration {
	if class == ClassUser {
		return s.userTTL
	}
	return s.longTTL
}

// valid reports whether an entry is still inside its TTL at now.
func (s *Store) valid(e *Entry, now time.Time) bool {
	return now.Sub(e.CreatedAt) < s.ttlFor(e.Class)
}

// Get decodes the cached value for key into dst.
//
// Returns false on a miss, an expired entry, or a value that no longer
// decodes into dst. Expired entries are removed lazily.
//
// Example:
//
//	var movie catalog.MovieDetails
//	if store.Get(cache.MovieKey(603), &movie) {
//	    return movie
//	}
func (s *Store) Get(key string, dst interface{}) bool {
	now := s.now()

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		s.misses.Add(1)
		metrics.CacheOperations.WithLabelValues("get", "miss").Inc()
		return false
	}

	if !s.valid(&e, now) {
		s.mu.Lock()
		if cur, still := s.entries[key]; still && !s.valid(&cur, now) {
			delete(s.entries, key)
			delete(s.dirty, key)
			s.evictions.Add(1)
		}
		s.mu.Unlock()
		s.misses.Add(1)
		metrics.CacheOperations.WithLabelValues("get", "expired").Inc()
		return false
	}

	if err := json.Unmarshal(e.Value, dst); err != nil {
		s.misses.Add(1)
		metrics.CacheOperations.WithLabelValues("get", "decode_error").Inc()
		return false
	}

	s.hits.Add(1)
	metrics.CacheOperations.WithLabelValues("get", "hit").Inc()
	return true
}

// Put stores value under key with the TTL of class. Last writer wins.
// Values that cannot be encoded are dropped and logged.
func (s *Store) Put(key string, value interface{}, class TTLClass) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Cache value not encodable, skipping")
		metrics.CacheOperations.WithLabelValues("put", "encode_error").Inc()
		return
	}

	e := Entry{Key: key, Value: data, CreatedAt: s.now(), Class: class}

	s.mu.Lock()
	s.entries[key] = e
	s.dirty[key] = struct{}{}
	n := len(s.entries)
	s.mu.Unlock()

	metrics.CacheOperations.WithLabelValues("put", "ok").Inc()
	metrics.CacheEntries.Set(float64(n))
}

// Invalidate removes every entry whose key equals or starts with prefix,
// from both tiers. It returns the number of memory entries removed.
func (s *Store) Invalidate(prefix string) int {
	return s.invalidate(func(k string) bool { return strings.HasPrefix(k, prefix) }, func(d *durableTier) error {
		return d.deletePrefix(prefix)
	})
}

// InvalidateUser removes the profile snapshot of name and every derived
// embedding keyed by name. Other users' entries are untouched, including
// users whose name shares a prefix with name.
func (s *Store) InvalidateUser(name string) int {
	snapshot := UserKey(name)
	embPrefix := userEmbeddingPrefix(name)
	removed := s.invalidate(func(k string) bool {
		return k == snapshot || strings.HasPrefix(k, embPrefix)
	}, func(d *durableTier) error {
		if err := d.deletePrefix(embPrefix); err != nil {
			return err
		}
		return d.deleteKeys([]string{snapshot})
	})
	s.logger.Debug().Str("user", name).Int("removed", removed).Msg("User cache invalidated")
	return removed
}

func (s *Store) invalidate(match func(string) bool, durable func(d *durableTier) error) int {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	removed := 0
	for k := range s.entries {
		if match(k) {
			delete(s.entries, k)
			delete(s.dirty, k)
			removed++
		}
	}
	n := len(s.entries)
	s.mu.Unlock()

	s.deleteDurable(durable)

	metrics.CacheOperations.WithLabelValues("invalidate", "ok").Add(float64(removed))
	metrics.CacheEntries.Set(float64(n))
	return removed
}

// deleteDurable applies fn to the durable tier, degrading on failure.
func (s *Store) deleteDurable(fn func(d *durableTier) error) {
	s.mu.RLock()
	d := s.durable
	s.mu.RUnlock()
	if d == nil || s.degraded.Load() {
		return
	}
	if err := fn(d); err != nil {
		s.markDegraded("delete", err)
	}
}

// SweepExpired removes expired entries from memory and returns how many
// were removed. The durable tier drops them through its own per-key TTL.
func (s *Store) SweepExpired() int {
	now := s.now()

	s.mu.Lock()
	removed := 0
	for k, e := range s.entries {
		if !s.valid(&e, now) {
			delete(s.entries, k)
			delete(s.dirty, k)
			removed++
		}
	}
	n := len(s.entries)
	s.mu.Unlock()

	s.evictions.Add(int64(removed))
	s.lastSweep.Store(now.UnixNano())
	metrics.CacheEntries.Set(float64(n))
	return removed
}

// Save flushes dirty entries to the durable tier. It is a no-op for a
// memory-only or degraded store. A write failure degrades the store and
// is logged; Save only returns ErrClosed.
func (s *Store) Save() error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.durable == nil || s.degraded.Load() || len(s.dirty) == 0 {
		s.mu.Unlock()
		return nil
	}
	batch := make([]Entry, 0, len(s.dirty))
	for k := range s.dirty {
		if e, ok := s.entries[k]; ok {
			batch = append(batch, e)
		}
	}
	s.dirty = make(map[string]struct{})
	d := s.durable
	s.mu.Unlock()

	if err := d.writeEntries(batch, s.ttlFor, s.now()); err != nil {
		s.markDegraded("save", err)
		return nil
	}

	s.lastSave.Store(s.now().UnixNano())
	s.logger.Debug().Int("entries", len(batch)).Msg("Cache flushed to durable tier")
	return nil
}

// Close flushes pending writes and closes the durable tier. Further calls
// to Save return ErrClosed; Get and Put keep working on memory.
func (s *Store) Close() error {
	if err := s.Save(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.durable == nil {
		return nil
	}
	err := s.durable.close()
	s.durable = nil
	if err != nil {
		return fmt.Errorf("close durable tier: %w", err)
	}
	return nil
}

// markDegraded switches the store to memory-only operation.
func (s *Store) markDegraded(op string, err error) {
	if !s.degraded.Swap(true) {
		s.logger.Error().Err(err).Str("op", op).Msg("Cache durable tier failed, continuing memory-only")
	}
	metrics.CacheDurableDegraded.Set(1)
}

// Stats returns a snapshot of cache statistics.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	st := Stats{
		Entries: len(s.entries),
		Dirty:   len(s.dirty),
		Durable: s.durable != nil,
	}
	s.mu.RUnlock()

	st.Hits = s.hits.Load()
	st.Misses = s.misses.Load()
	st.Evictions = s.evictions.Load()
	st.Degraded = s.degraded.Load()
	if ns := s.lastSave.Load(); ns != 0 {
		st.LastSave = time.Unix(0, ns)
	}
	if ns := s.lastSweep.Load(); ns != 0 {
		st.LastSweep = time.Unix(0, ns)
	}
	return st
}

// HitRate returns the hit rate as a percentage.
func (s *Store) HitRate() float64 {
	hits := s.hits.Load()
	total := hits + s.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}
