// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package analyzer exposes the threat analysis pipeline as an HTTP
// service: request validation, the scan itself, audit persistence,
// and operational endpoints for patterns and statistics.
package analyzer

import (
	"github.com/AleutianAI/AleutianGuardian/services/analyzer/secrets"
	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat"
)

// ServiceVersion is the analyzer service version.
const ServiceVersion = "0.3.0"

// AnalyzeRequest is the body of POST /v1/guardian/analyze.
type AnalyzeRequest struct {
	// Code is the snippet to analyze. May be empty; empty code is a
	// safe verdict.
	Code string `json:"code"`

	// Language is the snippet language. Defaults to "python".
	Language string `json:"language"`

	// SecurityLevel is strict, moderate, or relaxed. Defaults to
	// moderate.
	SecurityLevel string `json:"security_level"`
}

// AnalyzeResponse is the verdict returned to the caller.
type AnalyzeResponse struct {
	// RequestID echoes the request correlation ID.
	RequestID string `json:"request_id"`

	// ContentHash identifies the snippet in the audit trail.
	ContentHash string `json:"content_hash"`

	// RiskScore is the aggregated score.
	RiskScore float64 `json:"risk_score"`

	// RiskLevel is the banded verdict.
	RiskLevel threat.RiskLevel `json:"risk_level"`

	// Findings lists every surviving finding across layers.
	Findings []threat.Finding `json:"findings"`

	// Confidence is the mean finding confidence, 1.0 when clean.
	Confidence float64 `json:"confidence"`

	// ProcessingTimeMs is the scan duration.
	ProcessingTimeMs int64 `json:"processing_time_ms"`

	// Cached reports a result served from the cache.
	Cached bool `json:"cached"`

	// ASTAnalysis is present when the structural layer ran.
	ASTAnalysis *threat.ASTReport `json:"ast_analysis,omitempty"`

	// DataFlowAnalysis is present when the data-flow layer ran.
	DataFlowAnalysis *threat.FlowReport `json:"data_flow_analysis,omitempty"`
}

// ClassifyRequest is the body of POST /v1/guardian/classify.
type ClassifyRequest struct {
	// Code is the snippet to classify for sensitive data.
	Code string `json:"code"`
}

// ClassifyResponse reports the snippet's data classification.
type ClassifyResponse struct {
	// RequestID echoes the request correlation ID.
	RequestID string `json:"request_id"`

	// Classification is the highest priority matching data class:
	// secret, pii, internal, or public.
	Classification string `json:"classification"`

	// Findings lists every sensitive-data match, line by line.
	Findings []secrets.Finding `json:"findings"`
}

// PatternInfo describes one signature for GET /v1/guardian/patterns.
type PatternInfo struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Severity    float64 `json:"severity"`
	Description string  `json:"description"`
}

// PatternsResponse is the body of GET /v1/guardian/patterns.
type PatternsResponse struct {
	TableVersion string        `json:"table_version"`
	Count        int           `json:"count"`
	Patterns     []PatternInfo `json:"patterns"`
}

// StatsResponse is the body of GET /v1/guardian/stats.
type StatsResponse struct {
	CacheEntries   int      `json:"cache_entries"`
	CacheHits      int64    `json:"cache_hits"`
	CacheMisses    int64    `json:"cache_misses"`
	CacheEvictions int64    `json:"cache_evictions"`
	AuditRecords   int      `json:"audit_records"`
	Signatures     int      `json:"signatures"`
	Languages      []string `json:"languages"`
}

// HealthResponse is the body of GET /v1/guardian/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ReadyResponse is the body of GET /v1/guardian/ready.
type ReadyResponse struct {
	Ready      bool `json:"ready"`
	Signatures int  `json:"signatures"`
	AuditOK    bool `json:"audit_ok"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is the error code (optional).
	Code string `json:"code,omitempty"`
}
