// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides HTTP middleware for the feed service.
//
// # Request Flow
//
//	Request
//	   │
//	   ▼
//	RequestID ──► X-Request-ID header read or generated, stored in context
//	   │
//	   ▼
//	RequestLogger ──► one log line per request with status and latency
//	   │
//	   ▼
//	RateLimit ──► POST, PUT, PATCH and DELETE draw from a token bucket
//	   │
//	   ▼
//	Handler
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/AleutianAI/AleutianFeed/services/feed/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// =============================================================================
// Context Keys
// =============================================================================

// requestIDKey is the gin context key holding the request id.
const requestIDKey = "feed_request_id"

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// =============================================================================
// Request ID
// =============================================================================

// RequestID reuses the caller's X-Request-ID or generates a UUID, echoes it
// on the response and stores it for GetRequestID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)
		c.Set(requestIDKey, requestID)
		c.Next()
	}
}

// GetRequestID returns the request id stored by RequestID, or "" when the
// middleware did not run.
func GetRequestID(c *gin.Context) string {
	if v, ok := c.Get(requestIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// Logger returns a request-scoped logger carrying the request id and, when
// a span is active, the trace id.
func Logger(c *gin.Context, base *slog.Logger) *slog.Logger {
	logger := telemetry.LoggerWithTrace(c.Request.Context(), base)
	if id := GetRequestID(c); id != "" {
		logger = logger.With("request_id", id)
	}
	return logger
}

// =============================================================================
// Request Logging
// =============================================================================

// RequestLogger logs every request after the handler returns.
//
// # Description
//
// Server errors log at Error, client errors at Warn and everything else at
// Debug, so a healthy service stays quiet at the default Info level.
//
// # Thread Safety
//
// Thread-safe. The returned middleware can be used concurrently.
func RequestLogger(base *slog.Logger) gin.HandlerFunc {
	if base == nil {
		base = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		args := []any{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
		}

		logger := Logger(c, base)
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request failed", args...)
		case status >= http.StatusBadRequest:
			logger.Warn("request rejected", args...)
		default:
			logger.Debug("request handled", args...)
		}
	}
}

// =============================================================================
// Rate Limiting
// =============================================================================

// RateLimit bounds mutating requests with one token bucket shared by all
// clients. Reads are never limited.
//
// # Inputs
//
//   - rps: Sustained requests per second. Zero or less disables limiting.
//   - burst: Bucket size.
//
// # Outputs
//
//   - gin.HandlerFunc: Aborts with 429 and code RATE_LIMITED when the
//     bucket is empty.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(c *gin.Context) {
		if !isMutating(c.Request.Method) {
			c.Next()
			return
		}
		if !limiter.Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests",
				"code":  "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
