// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

// Package database stores posts and users in BadgerDB.
//
// # Key layout
//
//	post:{id}                           encoded post
//	post_time:{created_ns}:{id}         encoded post (global time index)
//	post_user:{user}:{created_ns}:{id}  encoded post (per-author time index)
//	user:{id}                           encoded user
//
// Posts are immutable, so the index entries carry the full encoded post and a
// page can be served from a single iterator without touching the primary
// key. Timestamps are zero padded to 19 digits so lexicographic order is
// chronological; iterating an index in reverse yields newest first with ties
// broken by id descending.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/feedcast/internal/config"
	"github.com/tomtom215/feedcast/internal/logging"
	"github.com/tomtom215/feedcast/internal/models"
)

// ErrNotFound is returned (wrapped) when a key does not exist.
var ErrNotFound = models.ErrNotFound

// DB owns the badger handle and the repositories built on it.
type DB struct {
	db         *badger.DB
	gcInterval time.Duration
	inMemory   bool

	Posts *PostRepository
	Users *UserRepository
}

// Open opens (or creates) the store described by cfg.
func Open(cfg *config.DatabaseConfig) (*DB, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(badgerLogger{})

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", cfg.Path, err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Msg("Content store opened")

	return newDB(bdb, cfg.GCInterval, cfg.InMemory), nil
}

// OpenInMemory is a convenience for tests.
func OpenInMemory() (*DB, error) {
	return Open(&config.DatabaseConfig{InMemory: true})
}

func newDB(bdb *badger.DB, gcInterval time.Duration, inMemory bool) *DB {
	return &DB{
		db:         bdb,
		gcInterval: gcInterval,
		inMemory:   inMemory,
		Posts:      &PostRepository{db: bdb},
		Users:      &UserRepository{db: bdb},
	}
}

// Close flushes and closes the store.
func (d *DB) Close() error {
	if d.db.IsClosed() {
		return nil
	}
	return d.db.Close()
}

// Ping reports whether the store is usable.
func (d *DB) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.db.IsClosed() {
		return errors.New("content store is closed")
	}
	return nil
}

// RunWithContext runs value log garbage collection on an interval until ctx
// is done. In-memory stores and a zero interval just wait for ctx.
func (d *DB) RunWithContext(ctx context.Context) error {
	if d.inMemory || d.gcInterval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(d.gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.collectGarbage()
		}
	}
}

// collectGarbage rewrites value log files until badger reports nothing left
// to reclaim.
func (d *DB) collectGarbage() {
	rewritten := 0
	for {
		err := d.db.RunValueLogGC(0.5)
		if err == nil {
			rewritten++
			continue
		}
		if !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) {
			logging.Warn().Err(err).Msg("Value log GC failed")
		}
		break
	}
	if rewritten > 0 {
		logging.Debug().Int("files", rewritten).Msg("Value log GC reclaimed space")
	}
}

// String implements fmt.Stringer for supervisor logs.
func (d *DB) String() string {
	return "badger-gc"
}

// badgerLogger routes badger's internal logging through zerolog.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logging.Error().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logging.Warn().Str("component", "badger").Msgf(format, args...)
}

// Infof is demoted: badger is chatty at info level during open and compaction.
func (badgerLogger) Infof(format string, args ...interface{}) {
	logging.Debug().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logging.Debug().Str("component", "badger").Msgf(format, args...)
}
