// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package audit persists a trail of analysis verdicts in BadgerDB.
//
// Records are keyed by content hash and written with a TTL, so the
// trail is bounded in both time and space. Only verdict metadata is
// stored, never the analyzed source itself.
//
// License: BadgerDB is Apache 2.0 licensed (github.com/dgraph-io/badger).
package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat"
)

// DefaultTTL is how long audit records are retained.
const DefaultTTL = 30 * 24 * time.Hour

// keyPrefix namespaces audit records within the database.
const keyPrefix = "audit:"

// Record is one persisted analysis verdict.
type Record struct {
	// ContentHash identifies the analyzed snippet.
	ContentHash string `json:"content_hash"`

	// Language is the snippet language.
	Language string `json:"language"`

	// SecurityLevel is the level the scan ran at.
	SecurityLevel string `json:"security_level"`

	// RiskScore and RiskLevel are the final verdict.
	RiskScore float64 `json:"risk_score"`
	RiskLevel string  `json:"risk_level"`

	// FindingCount is the number of surviving findings.
	FindingCount int `json:"finding_count"`

	// Cached reports whether the verdict came from the result cache.
	Cached bool `json:"cached"`

	// ProcessingTimeMs is the scan duration.
	ProcessingTimeMs int64 `json:"processing_time_ms"`

	// RecordedAt is the write time, UTC.
	RecordedAt time.Time `json:"recorded_at"`
}

// Config holds configuration for the audit store.
type Config struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory
	// is true.
	Path string

	// InMemory enables in-memory mode. Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// TTL is the record retention period. Zero uses DefaultTTL.
	TTL time.Duration

	// Logger receives BadgerDB internal logging. Nil disables it.
	Logger *slog.Logger

	// GCInterval is how often value log garbage collection runs.
	// Zero disables GC.
	GCInterval time.Duration
}

// DefaultConfig returns production defaults for the given path.
func DefaultConfig(path string) Config {
	return Config{
		Path:       path,
		SyncWrites: true,
		TTL:        DefaultTTL,
		GCInterval: 5 * time.Minute,
	}
}

// InMemoryConfig returns a configuration for tests.
func InMemoryConfig() Config {
	return Config{
		InMemory: true,
		TTL:      DefaultTTL,
	}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Store is the audit trail.
//
// Thread Safety:
//
//	Store is safe for concurrent use; BadgerDB transactions provide
//	isolation.
type Store struct {
	db     *badger.DB
	ttl    time.Duration
	stopGC chan struct{}
}

// Open creates the audit store.
//
// Outputs:
//
//	*Store - The opened store. Caller must Close it.
//	error - Non-nil if the path is missing or the database cannot
//	open.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("audit: path is required for persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("audit: create directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts = opts.WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("audit: open database: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s := &Store{db: db, ttl: ttl, stopGC: make(chan struct{})}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		go s.gcLoop(cfg.GCInterval)
	}
	return s, nil
}

// Close stops GC and closes the database.
func (s *Store) Close() error {
	close(s.stopGC)
	return s.db.Close()
}

// Write persists one verdict derived from an analysis.
//
// Inputs:
//
//	contentHash - The cache key of the scan.
//	language, level - Request parameters.
//	analysis - The finished analysis.
func (s *Store) Write(contentHash, language string, level threat.SecurityLevel, analysis *threat.ThreatAnalysis) error {
	if analysis == nil {
		return errors.New("audit: nil analysis")
	}

	rec := Record{
		ContentHash:      contentHash,
		Language:         language,
		SecurityLevel:    string(level),
		RiskScore:        analysis.RiskScore,
		RiskLevel:        string(analysis.RiskLevel),
		FindingCount:     len(analysis.Findings),
		Cached:           analysis.Cached,
		ProcessingTimeMs: analysis.ProcessingTimeMs,
		RecordedAt:       time.Now().UTC(),
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("audit: marshal record: %w", err)
	}

	key := []byte(keyPrefix + contentHash)
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key, data).WithTTL(s.ttl)
		return txn.SetEntry(entry)
	})
}

// Get returns the record for a content hash, or false.
func (s *Store) Get(contentHash string) (Record, bool, error) {
	var rec Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + contentHash))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("audit: read record: %w", err)
	}
	return rec, true, nil
}

// Count returns the number of live audit records.
func (s *Store) Count() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("audit: count records: %w", err)
	}
	return count, nil
}

// gcLoop runs value log garbage collection until Close.
func (s *Store) gcLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			// ErrNoRewrite just means there was nothing to collect.
			for {
				if err := s.db.RunValueLogGC(0.5); err != nil {
					break
				}
			}
		case <-s.stopGC:
			return
		}
	}
}
