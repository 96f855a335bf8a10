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

	"github.com/AleutianAI/AleutianFeed/services/feed/audit"
	"github.com/AleutianAI/AleutianFeed/services/feed/datatypes"
	"github.com/gin-gonic/gin"
)

// DeleteResponse is the body of a successful post delete.
type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	datatypes.DeleteResult
}

// HandleFeed handles GET /api/posts.
//
// Response:
//
//	200 OK: []datatypes.PostView, newest first, each with a bounded
//	        comment preview
func (h *Handlers) HandleFeed(c *gin.Context) {
	views, err := h.projector.Feed(c.Request.Context())
	if err != nil {
		h.writeError(c, h.requestLogger(c, "HandleFeed"), err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// HandleCreatePost handles POST /api/posts.
//
// Request Body:
//
//	datatypes.NewPost
//
// Response:
//
//	201 Created: datatypes.PostView of the new post
//	400 Bad Request: Invalid body
//	404 Not Found: Unknown author
func (h *Handlers) HandleCreatePost(c *gin.Context) {
	logger := h.requestLogger(c, "HandleCreatePost")

	var req datatypes.NewPost
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

	post, err := h.store.CreatePost(req)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	h.metrics.RecordPostCreated(c.Request.Context())

	view, err := h.projector.ViewOf(c.Request.Context(), post)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}

	logger.Info("Post created", "post_id", post.ID, "user_id", post.UserID)
	c.JSON(http.StatusCreated, view)
}

// HandleGetPost handles GET /api/posts/:id.
//
// Response:
//
//	200 OK: datatypes.PostDetail with every comment
//	404 Not Found: Unknown post
func (h *Handlers) HandleGetPost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.projector.PostDetail(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, h.requestLogger(c, "HandleGetPost"), err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// HandleUpdatePost handles PATCH /api/posts/:id.
//
// Description:
//
//	The response projects the post returned by the update, so a delete
//	racing behind it does not turn a successful update into a 404.
//
// Request Body:
//
//	datatypes.PostPatch; absent fields are left unchanged
//
// Response:
//
//	200 OK: datatypes.PostView of the updated post
//	400 Bad Request: Invalid body
//	404 Not Found: Unknown post
func (h *Handlers) HandleUpdatePost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	logger := h.requestLogger(c, "HandleUpdatePost")

	var patch datatypes.PostPatch
	if !bindJSON(c, logger, &patch) {
		return
	}
	if err := patch.Validate(); err != nil {
		h.writeError(c, logger, err)
		return
	}

	post, err := h.store.UpdatePost(id, patch)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	view, err := h.projector.ViewOf(c.Request.Context(), post)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// HandleDeletePost handles DELETE /api/posts/:id.
//
// Description:
//
//	Removes the post together with its comments and reactions.
//
// Response:
//
//	200 OK: DeleteResponse
//	404 Not Found: Unknown post; nothing is removed
func (h *Handlers) HandleDeletePost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	logger := h.requestLogger(c, "HandleDeletePost")

	result, err := h.store.DeletePost(id)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	h.metrics.RecordCascade(c.Request.Context(), result.CommentsRemoved, result.ReactionsRemoved)
	h.record(c, logger, audit.Event{
		Type:         audit.EventPostDeleted,
		ResourceType: string(datatypes.KindPost),
		ResourceID:   id,
		Outcome:      audit.OutcomeSuccess,
		Metadata: map[string]any{
			"commentsRemoved":  result.CommentsRemoved,
			"reactionsRemoved": result.ReactionsRemoved,
		},
	})

	logger.Info("Post deleted",
		"post_id", id,
		"comments_removed", result.CommentsRemoved,
		"reactions_removed", result.ReactionsRemoved)

	c.JSON(http.StatusOK, DeleteResponse{
		Success:      true,
		Message:      "Post deleted successfully",
		DeleteResult: result,
	})
}
