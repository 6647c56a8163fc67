// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for Guardian components.
//
// The package wraps the standard library slog with the two things the
// server and CLI need beyond it: a config-string level, and optional
// JSON file output next to the stderr stream.
//
//	logger := logging.New(logging.Config{
//	    Level:   logging.ParseLevel("info"),
//	    LogDir:  "~/.guardian/logs",
//	    Service: "guardian",
//	})
//	defer logger.Close()
//
// File logs are named `{service}_{date}.log` and always use JSON.
//
// # Security Considerations
//
// This package does NOT redact anything. Analyzed snippets can hold
// credentials; log content hashes and verdicts, never snippet text:
//
//	// BAD: logs the analyzed snippet
//	logger.Info("scan", "code", req.Code)
//
//	// GOOD: log metadata only
//	logger.Info("scan", "content_hash", hash, "code_bytes", len(req.Code))
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level is the minimum severity a logger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns "DEBUG", "INFO", "WARN", "ERROR", or "UNKNOWN".
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string to a Level. Unrecognized values
// fall back to Info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config configures a Logger. The zero value writes Info+ text to
// stderr with no file output.
type Config struct {
	// Level is the minimum emitted level.
	Level Level

	// LogDir enables JSON file logging in the given directory, named
	// "{Service}_{YYYY-MM-DD}.log". A leading ~ expands to the home
	// directory. Empty disables file output.
	LogDir string

	// Service is attached to every entry as the "service" attribute
	// and names the log file. Empty means "guardian".
	Service string

	// JSON switches the stderr stream to JSON. File output is JSON
	// regardless.
	JSON bool

	// Quiet suppresses the stderr stream. File output still happens.
	Quiet bool
}

// Logger is a leveled structured logger with an optional file
// destination. Close releases the file; With derives a child sharing
// it.
//
// Thread Safety:
//
//	Logger is safe for concurrent use.
type Logger struct {
	slog      *slog.Logger
	file      *os.File
	closeOnce *sync.Once
}

// New builds a Logger from the config. File-open failures degrade to
// stderr-only output rather than failing startup.
func New(cfg Config) *Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level.slogLevel()}
	service := cfg.Service
	if service == "" {
		service = "guardian"
	}

	var handlers []slog.Handler
	if !cfg.Quiet {
		if cfg.JSON {
			handlers = append(handlers, slog.NewJSONHandler(os.Stderr, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(os.Stderr, opts))
		}
	}

	l := &Logger{closeOnce: new(sync.Once)}
	if cfg.LogDir != "" {
		if file, err := openLogFile(cfg.LogDir, service); err == nil {
			l.file = file
			handlers = append(handlers, slog.NewJSONHandler(file, opts))
		}
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		// Quiet with no file configured discards everything.
		handler = slog.DiscardHandler
	case 1:
		handler = handlers[0]
	default:
		handler = fanoutHandler(handlers)
	}

	l.slog = slog.New(handler.WithAttrs([]slog.Attr{slog.String("service", service)}))
	return l
}

// Default returns a stderr-only text logger at Info level.
func Default() *Logger {
	return New(Config{Level: LevelInfo})
}

// Debug logs at Debug level.
func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }

// Info logs at Info level.
func (l *Logger) Info(msg string, args ...any) { l.slog.Info(msg, args...) }

// Warn logs at Warn level.
func (l *Logger) Warn(msg string, args ...any) { l.slog.Warn(msg, args...) }

// Error logs at Error level.
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// With returns a child logger carrying additional attributes. The
// child shares the parent's file; only close the parent.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:      l.slog.With(args...),
		file:      l.file,
		closeOnce: l.closeOnce,
	}
}

// Slog returns the underlying slog.Logger for packages that take one.
func (l *Logger) Slog() *slog.Logger { return l.slog }

// Close syncs and closes the log file when one is open. Safe to call
// more than once; later calls are no-ops.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file == nil {
			return
		}
		if syncErr := l.file.Sync(); syncErr != nil {
			err = fmt.Errorf("sync log file: %w", syncErr)
		}
		if closeErr := l.file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close log file: %w", closeErr)
		}
	})
	return err
}

// openLogFile creates the log directory and opens today's dated file
// for append.
func openLogFile(dir, service string) (*os.File, error) {
	dir = expandPath(dir)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, err
	}
	name := fmt.Sprintf("%s_%s.log", service, time.Now().Format("2006-01-02"))
	return os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// fanoutHandler duplicates each record to every handler, letting the
// stderr stream and the JSON file receive the same entries.
type fanoutHandler []slog.Handler

func (h fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, hh := range h {
		if hh.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	for _, hh := range h {
		if !hh.Enabled(ctx, r.Level) {
			continue
		}
		if handleErr := hh.Handle(ctx, r.Clone()); handleErr != nil && err == nil {
			err = handleErr
		}
	}
	return err
}

func (h fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(fanoutHandler, len(h))
	for i, hh := range h {
		next[i] = hh.WithAttrs(attrs)
	}
	return next
}

func (h fanoutHandler) WithGroup(name string) slog.Handler {
	next := make(fanoutHandler, len(h))
	for i, hh := range h {
		next[i] = hh.WithGroup(name)
	}
	return next
}
