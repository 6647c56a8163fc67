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
	"log/slog"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianGuardian/services/analyzer/audit"
	"github.com/AleutianAI/AleutianGuardian/services/analyzer/secrets"
	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat"
	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat/scan"
	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat/signature"
)

// Service wires the scan pipeline to audit persistence and metrics.
//
// Description:
//
//	Analyze normalizes the request, runs the pipeline, records the
//	verdict in the audit trail, and updates metrics. Audit failures
//	are logged, never surfaced; the verdict stands on its own.
//
// Thread Safety:
//
//	Service is safe for concurrent use.
type Service struct {
	pipeline     *scan.Pipeline
	audit        *audit.Store
	classifier   *secrets.Engine
	logger       *slog.Logger
	metrics      *Metrics
	defaultLevel threat.SecurityLevel
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithAuditStore enables audit persistence.
func WithAuditStore(s *audit.Store) ServiceOption {
	return func(svc *Service) { svc.audit = s }
}

// WithServiceLogger sets the logger.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(svc *Service) { svc.logger = l }
}

// WithMetrics sets the metrics instruments.
func WithMetrics(m *Metrics) ServiceOption {
	return func(svc *Service) { svc.metrics = m }
}

// WithPipeline sets a custom pipeline.
func WithPipeline(p *scan.Pipeline) ServiceOption {
	return func(svc *Service) { svc.pipeline = p }
}

// WithDefaultLevel sets the security level applied to requests that
// omit one.
func WithDefaultLevel(level threat.SecurityLevel) ServiceOption {
	return func(svc *Service) { svc.defaultLevel = level }
}

// NewService creates a service with default components.
func NewService(opts ...ServiceOption) *Service {
	svc := &Service{
		logger:       slog.Default(),
		defaultLevel: threat.LevelModerate,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.pipeline == nil {
		svc.pipeline = scan.NewPipeline(scan.WithLogger(svc.logger))
	}
	if svc.classifier == nil {
		engine, err := secrets.NewEngine()
		if err != nil {
			svc.logger.Error("secrets engine unavailable", slog.String("error", err.Error()))
		} else {
			svc.classifier = engine
		}
	}
	return svc
}

// Analyze runs one scan.
//
// Inputs:
//
//	ctx - Context for cancellation.
//	req - The request. Language and SecurityLevel take defaults when
//	empty.
//
// Outputs:
//
//	*threat.ThreatAnalysis - The verdict.
//	string - The content hash identifying the scan in the audit
//	trail.
//	error - threat.ErrInvalidSecurityLevel,
//	threat.ErrUnsupportedLanguage, or threat.ErrInputTooLarge.
func (svc *Service) Analyze(ctx context.Context, req AnalyzeRequest) (*threat.ThreatAnalysis, string, error) {
	language := strings.ToLower(req.Language)
	if language == "" {
		language = "python"
	}
	level := threat.SecurityLevel(req.SecurityLevel)
	if req.SecurityLevel == "" {
		level = svc.defaultLevel
	}

	start := time.Now()
	result, err := svc.pipeline.Analyze(ctx, req.Code, language, level)
	if err != nil {
		if svc.metrics != nil {
			svc.metrics.RecordRejection(ctx, err)
		}
		return nil, "", err
	}

	hash := svc.pipeline.Cache().Key(req.Code, language, level)

	if svc.audit != nil {
		if err := svc.audit.Write(hash, language, level, result); err != nil {
			svc.logger.Error("audit write failed",
				slog.String("content_hash", hash),
				slog.String("error", err.Error()))
		}
	}

	if svc.metrics != nil {
		svc.metrics.RecordScan(ctx, result, level, time.Since(start))
	}

	return result, hash, nil
}

// Patterns returns the signature table summary.
func (svc *Service) Patterns() PatternsResponse {
	sigs := svc.pipeline.Registry().All()
	out := PatternsResponse{
		TableVersion: signature.TableVersion,
		Count:        len(sigs),
		Patterns:     make([]PatternInfo, 0, len(sigs)),
	}
	for _, sig := range sigs {
		out.Patterns = append(out.Patterns, PatternInfo{
			ID:          sig.ID,
			Name:        sig.Name,
			Category:    sig.Category,
			Severity:    sig.Severity,
			Description: sig.Description,
		})
	}
	return out
}

// Stats returns cache and audit statistics.
func (svc *Service) Stats() StatsResponse {
	hits, misses, evictions := svc.pipeline.Cache().Stats()
	resp := StatsResponse{
		CacheEntries:   svc.pipeline.Cache().Len(),
		CacheHits:      hits,
		CacheMisses:    misses,
		CacheEvictions: evictions,
		Signatures:     svc.pipeline.Registry().Len(),
		Languages:      svc.pipeline.Languages(),
	}
	if svc.audit != nil {
		if n, err := svc.audit.Count(); err == nil {
			resp.AuditRecords = n
		} else {
			svc.logger.Warn("audit count failed", slog.String("error", err.Error()))
		}
	}
	return resp
}

// ErrClassifierUnavailable indicates the sensitive-data classifier
// failed to initialize.
var ErrClassifierUnavailable = errors.New("sensitive data classifier unavailable")

// Classify reports the snippet's sensitive-data class and the
// individual matches.
//
// Outputs:
//
//	string - secret, pii, internal, or public.
//	[]secrets.Finding - Per-line matches, truncated.
//	error - ErrClassifierUnavailable when the engine did not load.
func (svc *Service) Classify(code string) (string, []secrets.Finding, error) {
	if svc.classifier == nil {
		return "", nil, ErrClassifierUnavailable
	}
	return svc.classifier.Classify([]byte(code)), svc.classifier.Scan(code), nil
}

// AuditEnabled reports whether audit persistence is configured.
func (svc *Service) AuditEnabled() bool { return svc.audit != nil }

// SignatureCount returns the size of the signature table.
func (svc *Service) SignatureCount() int { return svc.pipeline.Registry().Len() }
