// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the JSON HTTP endpoints of the feed.
//
// Handlers decode and validate requests, check that referenced users
// exist, call the store for mutations and the projector for responses.
// Every failure is written as ErrorResponse.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/AleutianAI/AleutianFeed/services/feed/audit"
	"github.com/AleutianAI/AleutianFeed/services/feed/datatypes"
	"github.com/AleutianAI/AleutianFeed/services/feed/middleware"
	"github.com/AleutianAI/AleutianFeed/services/feed/projector"
	"github.com/AleutianAI/AleutianFeed/services/feed/store"
	"github.com/AleutianAI/AleutianFeed/services/feed/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Error Codes
// =============================================================================

const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeInvalidID        = "INVALID_ID"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeUnknownKind      = "UNKNOWN_KIND"
	CodeNotFound         = "NOT_FOUND"
	CodeUnavailable      = "UNAVAILABLE"
	CodeInternal         = "INTERNAL"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// =============================================================================
// Handlers
// =============================================================================

// Options carries the request defaults applied by handlers.
type Options struct {
	// DefaultReaction replaces an empty reaction type. Default: "like".
	DefaultReaction string

	// StoryLifetime sets expiresAt for stories created without one.
	// Default: 24h.
	StoryLifetime time.Duration

	// Audit receives user creations, post deletions and admin edits.
	// Default: audit.Nop.
	Audit audit.Logger
}

// Handlers holds the dependencies shared by all endpoints.
//
// # Thread Safety
//
// Thread-safe. Handlers only holds references to thread-safe components.
type Handlers struct {
	store     *store.Store
	projector *projector.Projector
	metrics   *telemetry.Metrics
	logger    *slog.Logger
	opts      Options
}

// New creates Handlers. metrics may be nil.
func New(st *store.Store, proj *projector.Projector, metrics *telemetry.Metrics, logger *slog.Logger, opts Options) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DefaultReaction == "" {
		opts.DefaultReaction = datatypes.DefaultReactionKind
	}
	if opts.StoryLifetime <= 0 {
		opts.StoryLifetime = 24 * time.Hour
	}
	if opts.Audit == nil {
		opts.Audit = audit.Nop{}
	}
	return &Handlers{
		store:     st,
		projector: proj,
		metrics:   metrics,
		logger:    logger,
		opts:      opts,
	}
}

// HandleHealth handles GET /health.
//
// Response:
//
//	200 OK: {"status": "ok", "rows": {kind: count}}
//	503 Service Unavailable: the store is closed
func (h *Handlers) HandleHealth(c *gin.Context) {
	counts, err := h.store.Counts()
	if err != nil {
		h.writeError(c, h.requestLogger(c, "HandleHealth"), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "rows": counts})
}

// =============================================================================
// Helper Functions
// =============================================================================

func (h *Handlers) requestLogger(c *gin.Context, handler string) *slog.Logger {
	return middleware.Logger(c, h.logger).With("handler", handler)
}

// pathID parses a positive integer path parameter. On failure it writes a
// 400 response and returns false.
func pathID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid " + name + ": " + strconv.Quote(raw),
			Code:  CodeInvalidID,
		})
		return 0, false
	}
	return id, true
}

// bindJSON decodes the request body into dst. On failure it writes a 400
// response and returns false.
func bindJSON(c *gin.Context, logger *slog.Logger, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
			Code:  CodeInvalidRequest,
		})
		return false
	}
	return true
}

// record writes an audit event tagged with the request id. Audit failures
// are logged and never fail the request.
func (h *Handlers) record(c *gin.Context, logger *slog.Logger, event audit.Event) {
	event.RequestID = middleware.GetRequestID(c)
	if err := h.opts.Audit.Log(c.Request.Context(), event); err != nil {
		logger.Warn("Failed to record audit event", "type", event.Type, "error", err)
	}
}

// requireUser reports a NotFound error when id does not name a user.
func (h *Handlers) requireUser(id int64) (datatypes.User, error) {
	return h.store.GetUser(id)
}

// writeError maps err to a status code and writes ErrorResponse.
//
//   - store.ErrNotFound: 404
//   - store.ErrValidation, validator errors, unknown edit kinds: 400
//   - store.ErrClosed: 503
//   - anything else: 500 with a generic message
func (h *Handlers) writeError(c *gin.Context, logger *slog.Logger, err error) {
	status, code, msg := classify(err)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("Request failed", "error", err)
	default:
		logger.Info("Request rejected", "error", err, "status", status)
	}
	_ = c.Error(err)
	c.JSON(status, ErrorResponse{Error: msg, Code: code})
}

func classify(err error) (int, string, string) {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, CodeNotFound, err.Error()
	case errors.Is(err, store.ErrValidation):
		return http.StatusBadRequest, CodeValidationFailed, err.Error()
	case errors.As(err, &verrs):
		return http.StatusBadRequest, CodeValidationFailed, err.Error()
	case errors.Is(err, datatypes.ErrUnknownEditKind):
		return http.StatusBadRequest, CodeUnknownKind, err.Error()
	case errors.Is(err, store.ErrClosed):
		return http.StatusServiceUnavailable, CodeUnavailable, "feed store is unavailable"
	default:
		return http.StatusInternalServerError, CodeInternal, "internal error"
	}
}
