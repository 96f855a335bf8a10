// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/AleutianAI/AleutianFeed/services/feed/audit"
	"github.com/AleutianAI/AleutianFeed/services/feed/datatypes"
	"github.com/AleutianAI/AleutianFeed/services/feed/store"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// HandleAdminEdit handles PATCH /api/admin/:kind/:id.
//
// Description:
//
//	Decodes the body into the edit variant named by kind ("post", "user"
//	or "comment") and applies it. Only posts are editable; user and
//	comment edits resolve their target and are then rejected.
//
// Response:
//
//	200 OK: datatypes.PostView of the edited post
//	400 Bad Request: Unknown kind, invalid body or immutable target
//	404 Not Found: Unknown target
func (h *Handlers) HandleAdminEdit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	logger := h.requestLogger(c, "HandleAdminEdit")
	kind := datatypes.EntityKind(c.Param("kind"))

	body, err := c.GetRawData()
	if err != nil {
		logger.Warn("Failed to read request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: CodeInvalidRequest})
		return
	}
	if len(body) == 0 {
		body = []byte("{}")
	}

	edit, err := datatypes.DecodeEdit(kind, id, body)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.Is(err, datatypes.ErrUnknownEditKind) || errors.As(err, &verrs) {
			h.writeError(c, logger, err)
			return
		}
		logger.Warn("Invalid edit payload", "kind", kind, "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: CodeInvalidRequest})
		return
	}

	outcome, err := h.store.ApplyEdit(edit)
	if err != nil {
		if errors.Is(err, store.ErrValidation) {
			h.record(c, logger, audit.Event{
				Type:         audit.EventAdminEdit,
				ResourceType: string(kind),
				ResourceID:   id,
				Outcome:      audit.OutcomeRejected,
				Metadata:     map[string]any{"error": err.Error()},
			})
		}
		h.writeError(c, logger, err)
		return
	}
	h.record(c, logger, audit.Event{
		Type:         audit.EventAdminEdit,
		ResourceType: string(outcome.Kind),
		ResourceID:   id,
		Outcome:      audit.OutcomeSuccess,
	})

	view, err := h.projector.ViewOf(c.Request.Context(), *outcome.Post)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}

	logger.Info("Admin edit applied", "kind", outcome.Kind, "target_id", id)
	c.JSON(http.StatusOK, view)
}

// HandleAuditLog handles GET /api/admin/audit.
//
// Description:
//
//	Lists recorded audit events, newest first. Optional query parameters:
//	type, resource, since (RFC 3339) and limit.
//
// Response:
//
//	200 OK: []audit.Event
//	400 Bad Request: Malformed since or limit
func (h *Handlers) HandleAuditLog(c *gin.Context) {
	logger := h.requestLogger(c, "HandleAuditLog")

	filter := audit.Filter{
		Type:         c.Query("type"),
		ResourceType: c.Query("resource"),
	}
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid since: " + strconv.Quote(raw), Code: CodeInvalidRequest})
			return
		}
		filter.Since = since
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit: " + strconv.Quote(raw), Code: CodeInvalidRequest})
			return
		}
		filter.Limit = limit
	}

	events, err := h.opts.Audit.Query(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, events)
}
