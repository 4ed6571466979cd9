// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

package cache

import (
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// durableTier persists cache entries in badger. Each entry is written with
// a badger TTL matching its class so stale keys are dropped by compaction.
type durableTier struct {
	db *badger.DB
}

func openDurable(dir string) (*durableTier, error) {
	if dir == "" {
		return nil, fmt.Errorf("durable cache directory is empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create cache directory %s: %w", dir, err)
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	opts.SyncWrites = false

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &durableTier{db: db}, nil
}

// loadAll returns every stored entry accepted by keep.
func (d *durableTier) loadAll(keep func(*Entry) bool) ([]Entry, error) {
	var out []Entry
	err := d.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var e Entry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				// Skip undecodable records rather than failing the whole load.
				continue
			}
			if keep(&e) {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}

// writeEntries stores entries in one write batch.
func (d *durableTier) writeEntries(entries []Entry, ttlFor func(TTLClass) time.Duration, now time.Time) error {
	wb := d.db.NewWriteBatch()
	defer wb.Cancel()

	for i := range entries {
		e := &entries[i]
		remaining := ttlFor(e.Class) - now.Sub(e.CreatedAt)
		if remaining <= 0 {
			continue
		}
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode entry %s: %w", e.Key, err)
		}
		if err := wb.SetEntry(badger.NewEntry([]byte(e.Key), data).WithTTL(remaining)); err != nil {
			return fmt.Errorf("write entry %s: %w", e.Key, err)
		}
	}
	return wb.Flush()
}

// deletePrefix removes every key starting with prefix.
func (d *durableTier) deletePrefix(prefix string) error {
	var keys []string
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan prefix %s: %w", prefix, err)
	}
	return d.deleteKeys(keys)
}

// deleteKeys removes the given keys; missing keys are ignored.
func (d *durableTier) deleteKeys(keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	wb := d.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete([]byte(k)); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return wb.Flush()
}

func (d *durableTier) close() error {
	return d.db.Close()
}
