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
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all Guardian routes with the router.
//
// Description:
//
//	Registers all /v1/guardian/* endpoints with the given Gin router
//	group. The router group should already have any required
//	middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Endpoints:
//
//	POST /v1/guardian/analyze - Analyze a code snippet
//	POST /v1/guardian/classify - Classify a snippet for sensitive data
//	GET  /v1/guardian/patterns - List the active signature table
//	GET  /v1/guardian/stats - Cache and audit statistics
//	GET  /v1/guardian/health - Health check
//	GET  /v1/guardian/ready - Readiness check
//
// Example:
//
//	service := analyzer.NewService()
//	handlers := analyzer.NewHandlers(service)
//
//	v1 := router.Group("/v1")
//	analyzer.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	guardian := rg.Group("/guardian")
	{
		// Analysis
		guardian.POST("/analyze", handlers.HandleAnalyze)

		// Sensitive data classification
		guardian.POST("/classify", handlers.HandleClassify)

		// Signature table
		guardian.GET("/patterns", handlers.HandlePatterns)

		// Operational statistics
		guardian.GET("/stats", handlers.HandleStats)

		// Health checks
		guardian.GET("/health", handlers.HandleHealth)
		guardian.GET("/ready", handlers.HandleReady)
	}
}
