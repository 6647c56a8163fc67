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
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat"
)

// Handlers contains the HTTP handlers for Guardian.
type Handlers struct {
	svc *Service
}

// NewHandlers creates handlers for the given service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// HandleAnalyze handles POST /v1/guardian/analyze.
//
// Description:
//
//	Runs the full analysis pipeline on a code snippet and returns
//	the verdict.
//
// Request Body:
//
//	AnalyzeRequest
//
// Response:
//
//	200 OK: AnalyzeResponse
//	400 Bad Request: Validation error or unknown security level
//	413 Request Entity Too Large: Snippet exceeds the input ceiling
//	500 Internal Server Error: Processing error
func (h *Handlers) HandleAnalyze(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleAnalyze")

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	result, hash, err := h.svc.Analyze(c.Request.Context(), req)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errCode := "ANALYZE_FAILED"

		if errors.Is(err, threat.ErrInputTooLarge) {
			statusCode = http.StatusRequestEntityTooLarge
			errCode = "INPUT_TOO_LARGE"
		} else if errors.Is(err, threat.ErrInvalidSecurityLevel) {
			statusCode = http.StatusBadRequest
			errCode = "INVALID_SECURITY_LEVEL"
		} else if errors.Is(err, threat.ErrUnsupportedLanguage) {
			statusCode = http.StatusBadRequest
			errCode = "UNSUPPORTED_LANGUAGE"
		}

		logger.Error("Analyze failed", "error", err)
		c.JSON(statusCode, ErrorResponse{
			Error: err.Error(),
			Code:  errCode,
		})
		return
	}

	logger.Info("Snippet analyzed",
		"content_hash", hash,
		"risk_level", result.RiskLevel,
		"risk_score", result.RiskScore,
		"findings", len(result.Findings),
		"cached", result.Cached,
		"processing_time_ms", result.ProcessingTimeMs)

	c.JSON(http.StatusOK, AnalyzeResponse{
		RequestID:        requestID,
		ContentHash:      hash,
		RiskScore:        result.RiskScore,
		RiskLevel:        result.RiskLevel,
		Findings:         result.Findings,
		Confidence:       result.Confidence,
		ProcessingTimeMs: result.ProcessingTimeMs,
		Cached:           result.Cached,
		ASTAnalysis:      result.ASTAnalysis,
		DataFlowAnalysis: result.DataFlowAnalysis,
	})
}

// HandleClassify handles POST /v1/guardian/classify.
//
// Description:
//
//	Classifies a snippet for sensitive data (credentials, PII,
//	internal references) without running the threat pipeline.
//
// Request Body:
//
//	ClassifyRequest
//
// Response:
//
//	200 OK: ClassifyResponse
//	400 Bad Request: Validation error
//	503 Service Unavailable: Classifier failed to initialize
func (h *Handlers) HandleClassify(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleClassify")

	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	class, findings, err := h.svc.Classify(req.Code)
	if err != nil {
		logger.Error("Classify failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: err.Error(),
			Code:  "CLASSIFIER_UNAVAILABLE",
		})
		return
	}

	logger.Info("Snippet classified",
		"classification", class,
		"findings", len(findings))

	c.JSON(http.StatusOK, ClassifyResponse{
		RequestID:      requestID,
		Classification: class,
		Findings:       findings,
	})
}

// HandlePatterns handles GET /v1/guardian/patterns.
//
// Description:
//
//	Returns the active signature table without the detection regexes.
//
// Response:
//
//	200 OK: PatternsResponse
func (h *Handlers) HandlePatterns(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Patterns())
}

// HandleStats handles GET /v1/guardian/stats.
//
// Description:
//
//	Returns cache occupancy, hit counters, and audit trail size.
//
// Response:
//
//	200 OK: StatsResponse
func (h *Handlers) HandleStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Stats())
}

// HandleHealth handles GET /v1/guardian/health.
//
// Description:
//
//	Returns the health status of the service. Always returns 200 if running.
//
// Response:
//
//	200 OK: HealthResponse
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: ServiceVersion,
	})
}

// HandleReady handles GET /v1/guardian/ready.
//
// Description:
//
//	Returns the readiness status of the service. The service is ready
//	once the signature table is loaded; an unconfigured audit store is
//	reported but does not block readiness.
//
// Response:
//
//	200 OK: ReadyResponse (Ready=true)
//	503 Service Unavailable: ReadyResponse (Ready=false)
func (h *Handlers) HandleReady(c *gin.Context) {
	signatures := h.svc.SignatureCount()

	resp := ReadyResponse{
		Ready:      signatures > 0,
		Signatures: signatures,
		AuditOK:    h.svc.AuditEnabled(),
	}

	if !resp.Ready {
		c.Header("Retry-After", "30")
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// getOrCreateRequestID extracts or generates a request correlation ID.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
