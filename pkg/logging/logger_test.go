// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestLevelString(t *testing.T) {
	if LevelWarn.String() != "WARN" {
		t.Errorf("LevelWarn.String() = %s", LevelWarn)
	}
	if Level(42).String() != "UNKNOWN" {
		t.Errorf("Level(42).String() = %s", Level(42))
	}
}

// readLogFile returns the single log file New created in dir, parsed
// as one JSON object per line.
func readLogFile(t *testing.T, dir string) []map[string]any {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.log"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("log files in %s = %v (err %v), want exactly one", dir, matches, err)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("log line %q is not JSON: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestFileOutputIsJSONWithServiceAttr(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{Level: LevelInfo, LogDir: dir, Service: "guardian", Quiet: true})

	logger.Info("scan recorded", "content_hash", "abc123", "risk_level", "high")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	entries := readLogFile(t, dir)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	entry := entries[0]
	if entry["msg"] != "scan recorded" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["service"] != "guardian" {
		t.Errorf("service = %v", entry["service"])
	}
	if entry["content_hash"] != "abc123" {
		t.Errorf("content_hash = %v", entry["content_hash"])
	}
}

func TestFileNameCarriesServiceAndDate(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{LogDir: dir, Service: "auditor", Quiet: true})
	logger.Info("x")
	defer logger.Close()

	want := "auditor_" + time.Now().Format("2006-01-02") + ".log"
	if _, err := os.Stat(filepath.Join(dir, want)); err != nil {
		t.Errorf("expected log file %s: %v", want, err)
	}
}

func TestLevelFiltersBelowMinimum(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{Level: LevelWarn, LogDir: dir, Quiet: true})

	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")
	logger.Error("kept too")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	entries := readLogFile(t, dir)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0]["msg"] != "kept" || entries[1]["msg"] != "kept too" {
		t.Errorf("unexpected entries: %v", entries)
	}
}

func TestWithCarriesAttrsToFile(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{LogDir: dir, Quiet: true})

	child := logger.With("request_id", "req-9")
	child.Info("handled")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	entries := readLogFile(t, dir)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0]["request_id"] != "req-9" {
		t.Errorf("request_id = %v", entries[0]["request_id"])
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{LogDir: dir, Quiet: true})
	logger.Info("x")

	if err := logger.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	// Closing through a child must not double-close the shared file.
	if err := logger.With("k", "v").Close(); err != nil {
		t.Fatalf("child Close failed: %v", err)
	}
}

func TestQuietWithoutFileDiscards(t *testing.T) {
	logger := New(Config{Quiet: true})
	logger.Info("goes nowhere")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestSlogExposesUnderlyingLogger(t *testing.T) {
	logger := New(Config{Quiet: true})
	defer logger.Close()
	if logger.Slog() == nil {
		t.Fatal("Slog() = nil")
	}
	logger.Slog().Info("direct slog call")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandPath("~/logs"); got != filepath.Join(home, "logs") {
		t.Errorf("expandPath(~/logs) = %s", got)
	}
	if got := expandPath("/var/log/guardian"); got != "/var/log/guardian" {
		t.Errorf("expandPath(absolute) = %s", got)
	}
}
