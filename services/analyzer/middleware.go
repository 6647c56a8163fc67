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
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/AleutianGuardian/services/analyzer/threat/scan"
)

// BodyLimitMiddleware rejects request bodies above the input ceiling.
//
// Description:
//
//	Caps the request body before JSON binding so an oversized snippet
//	never reaches the decoder. The limit leaves headroom over the
//	scan input ceiling for the JSON envelope around the code field.
func BodyLimitMiddleware() gin.HandlerFunc {
	// JSON escaping can double the payload size; allow 2x plus slack.
	const limit = 2*scan.MaxInputBytes + 64*1024
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// RateLimitMiddleware applies a global token bucket to all requests.
//
// Description:
//
//	Uses a single shared limiter rather than per-client buckets. The
//	service sits behind a local gateway, so a process-wide cap on
//	scan throughput is the useful control.
//
// Inputs:
//
//	rps - Sustained requests per second. Zero or negative disables
//	limiting.
//	burst - Maximum burst size.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error: "Request rate limit exceeded",
				Code:  "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}
