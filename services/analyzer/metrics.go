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
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat"
)

// Metrics contains pre-defined metrics for the Aleutian Guardian service.
//
// Description:
//
//	Provides counters and histograms for scans, findings, rejected
//	inputs, and cache behavior. All metrics use the "guardian_"
//	prefix for consistent naming.
//
// Thread Safety: Safe for concurrent use after creation.
type Metrics struct {
	// ScansTotal counts total scans by security level, risk level, and cache outcome.
	ScansTotal metric.Int64Counter

	// ScanDuration records scan duration in seconds.
	ScanDuration metric.Float64Histogram

	// FindingsTotal counts findings surfaced by layer.
	FindingsTotal metric.Int64Counter

	// RejectionsTotal counts rejected requests by reason.
	RejectionsTotal metric.Int64Counter

	// RiskScore records the final risk score distribution.
	RiskScore metric.Float64Histogram

	// CacheEntries tracks the current result cache occupancy.
	CacheEntries metric.Int64ObservableGauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
//
// Inputs:
//
//	meter - The OTel meter to use for metric registration.
//
// Outputs:
//
//	*Metrics - The metrics instance with all instruments initialized.
//	error - Non-nil if metric registration fails.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.ScansTotal, err = meter.Int64Counter(
		"guardian_scans_total",
		metric.WithDescription("Total snippet scans"),
		metric.WithUnit("{scan}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create scans_total: %w", err)
	}

	m.ScanDuration, err = meter.Float64Histogram(
		"guardian_scan_duration_seconds",
		metric.WithDescription("Scan duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1),
	)
	if err != nil {
		return nil, fmt.Errorf("create scan_duration: %w", err)
	}

	m.FindingsTotal, err = meter.Int64Counter(
		"guardian_findings_total",
		metric.WithDescription("Total findings surfaced"),
		metric.WithUnit("{finding}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create findings_total: %w", err)
	}

	m.RejectionsTotal, err = meter.Int64Counter(
		"guardian_rejections_total",
		metric.WithDescription("Rejected scan requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create rejections_total: %w", err)
	}

	m.RiskScore, err = meter.Float64Histogram(
		"guardian_risk_score",
		metric.WithDescription("Final risk score distribution"),
		metric.WithUnit("1"),
		metric.WithExplicitBucketBoundaries(0, 1, 2.5, 5, 7.5, 10, 15, 20, 30),
	)
	if err != nil {
		return nil, fmt.Errorf("create risk_score: %w", err)
	}

	return m, nil
}

// RegisterCacheEntries registers a callback for the cache occupancy gauge.
//
// Inputs:
//
//	meter - The OTel meter to use for registration.
//	lenFunc - A function that returns the current cache entry count.
//
// Outputs:
//
//	metric.Registration - Registration handle for cleanup.
//	error - Non-nil if registration fails.
func (m *Metrics) RegisterCacheEntries(meter metric.Meter, lenFunc func() int64) (metric.Registration, error) {
	var err error
	m.CacheEntries, err = meter.Int64ObservableGauge(
		"guardian_cache_entries",
		metric.WithDescription("Current result cache occupancy"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create cache_entries: %w", err)
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(m.CacheEntries, lenFunc())
		return nil
	}, m.CacheEntries)
}

// RecordScan records instruments for one completed scan.
func (m *Metrics) RecordScan(ctx context.Context, result *threat.ThreatAnalysis, level threat.SecurityLevel, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("security_level", string(level)),
		attribute.String("risk_level", string(result.RiskLevel)),
		attribute.Bool("cached", result.Cached),
	)
	m.ScansTotal.Add(ctx, 1, attrs)
	m.ScanDuration.Record(ctx, elapsed.Seconds(), attrs)
	m.RiskScore.Record(ctx, result.RiskScore,
		metric.WithAttributes(attribute.String("security_level", string(level))))
	for _, finding := range result.Findings {
		m.FindingsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("layer", finding.Layer)))
	}
}

// RecordRejection records a rejected request by failure reason.
func (m *Metrics) RecordRejection(ctx context.Context, err error) {
	reason := "internal"
	switch {
	case errors.Is(err, threat.ErrInputTooLarge):
		reason = "input_too_large"
	case errors.Is(err, threat.ErrInvalidSecurityLevel):
		reason = "invalid_security_level"
	case errors.Is(err, threat.ErrUnsupportedLanguage):
		reason = "unsupported_language"
	}
	m.RejectionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
