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
	"net/http"

	"github.com/AleutianAI/AleutianFeed/services/feed/datatypes"
	"github.com/gin-gonic/gin"
)

// RemoveResponse is the body of DELETE /api/posts/:id/likes/:userId.
type RemoveResponse struct {
	Removed bool `json:"removed"`
	datatypes.ReactionSummary
}

// HandleToggleReaction handles POST /api/posts/:id/likes.
//
// Description:
//
//	Sending the reaction a user already holds removes it. Sending a
//	different type switches it in place. Otherwise a reaction is added.
//	The response carries the post's summary after the toggle.
//
// Request Body:
//
//	datatypes.ReactionRequest; an empty type means the configured default
//
// Response:
//
//	200 OK: datatypes.ToggleView ({liked, likeType?, count, types})
//	400 Bad Request: Invalid body
//	404 Not Found: Unknown post or user
func (h *Handlers) HandleToggleReaction(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	logger := h.requestLogger(c, "HandleToggleReaction")

	var req datatypes.ReactionRequest
	if !bindJSON(c, logger, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(c, logger, err)
		return
	}
	if _, err := h.requireUser(req.UserID); err != nil {
		h.writeError(c, logger, err)
		return
	}

	kind := req.Type
	if kind == "" {
		kind = h.opts.DefaultReaction
	}

	result, err := h.store.ToggleReaction(postID, req.UserID, kind)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	h.metrics.RecordToggle(c.Request.Context(), string(result.Outcome))

	summary, err := h.projector.ReactionSummary(c.Request.Context(), postID)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}

	logger.Debug("Reaction toggled",
		"post_id", postID,
		"user_id", req.UserID,
		"outcome", result.Outcome)

	c.JSON(http.StatusOK, datatypes.ToggleView{
		ToggleResult:    result,
		ReactionSummary: summary,
	})
}

// HandleReactionSummary handles GET /api/posts/:id/likes.
func (h *Handlers) HandleReactionSummary(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	summary, err := h.projector.ReactionSummary(c.Request.Context(), postID)
	if err != nil {
		h.writeError(c, h.requestLogger(c, "HandleReactionSummary"), err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// HandleGetReaction handles GET /api/posts/:id/likes/:userId.
//
// Response:
//
//	200 OK: datatypes.Like
//	404 Not Found: The user holds no reaction on the post
func (h *Handlers) HandleGetReaction(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	like, err := h.store.GetReaction(postID, userID)
	if err != nil {
		h.writeError(c, h.requestLogger(c, "HandleGetReaction"), err)
		return
	}
	c.JSON(http.StatusOK, like)
}

// HandleRemoveReaction handles DELETE /api/posts/:id/likes/:userId.
//
// Response:
//
//	200 OK: RemoveResponse; removed is false when there was nothing to remove
//	404 Not Found: Unknown post
func (h *Handlers) HandleRemoveReaction(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	logger := h.requestLogger(c, "HandleRemoveReaction")

	removed, err := h.store.RemoveReaction(postID, userID)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	if removed {
		h.metrics.RecordToggle(c.Request.Context(), string(datatypes.ToggleRemoved))
	}

	summary, err := h.projector.ReactionSummary(c.Request.Context(), postID)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, RemoveResponse{Removed: removed, ReactionSummary: summary})
}
