// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analyzer

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat"
)

// Config holds the service configuration.
type Config struct {
	// ListenAddr is the HTTP listen address.
	ListenAddr string `yaml:"listen_addr"`

	// DefaultSecurityLevel applies when a request omits the level.
	DefaultSecurityLevel string `yaml:"default_security_level"`

	// CacheCapacity bounds the result cache entry count.
	CacheCapacity int `yaml:"cache_capacity"`

	// RateLimitRPS is the sustained request rate. Zero disables limiting.
	RateLimitRPS float64 `yaml:"rate_limit_rps"`

	// RateLimitBurst is the burst allowance above the sustained rate.
	RateLimitBurst int `yaml:"rate_limit_burst"`

	// AuditPath is the badger directory for the audit trail. Empty
	// disables audit persistence unless AuditInMemory is set.
	AuditPath string `yaml:"audit_path"`

	// AuditInMemory keeps the audit trail in memory, for development.
	AuditInMemory bool `yaml:"audit_in_memory"`

	// MetricsEnabled exposes Prometheus metrics on /metrics.
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// LogLevel is debug, info, warn, or error.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		ListenAddr:           ":8098",
		DefaultSecurityLevel: string(threat.LevelModerate),
		CacheCapacity:        1000,
		RateLimitRPS:         50,
		RateLimitBurst:       100,
		MetricsEnabled:       true,
		LogLevel:             "info",
	}
}

// LoadConfig reads the configuration file and applies environment
// overrides.
//
// Inputs:
//
//	path - YAML config file path. Empty uses defaults.
//
// Outputs:
//
//	Config - The merged configuration.
//	error - Non-nil on read, parse, or validation failure.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides file values with GUARDIAN_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("GUARDIAN_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("GUARDIAN_SECURITY_LEVEL"); v != "" {
		c.DefaultSecurityLevel = v
	}
	if v := os.Getenv("GUARDIAN_CACHE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.CacheCapacity = n
		}
	}
	if v := os.Getenv("GUARDIAN_AUDIT_PATH"); v != "" {
		c.AuditPath = v
	}
	if v := os.Getenv("GUARDIAN_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if !threat.SecurityLevel(c.DefaultSecurityLevel).Valid() {
		return fmt.Errorf("default_security_level %q is not strict, moderate, or relaxed", c.DefaultSecurityLevel)
	}
	if c.CacheCapacity <= 0 {
		return fmt.Errorf("cache_capacity must be positive, got %d", c.CacheCapacity)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("rate_limit_rps must not be negative, got %v", c.RateLimitRPS)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q is not debug, info, warn, or error", c.LogLevel)
	}
	return nil
}
