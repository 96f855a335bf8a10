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

// CommentRequest is the body of POST /api/posts/:id/comments. The post id
// comes from the path.
type CommentRequest struct {
	UserID  int64  `json:"userId"`
	Content string `json:"content"`
}

// HandleListAllComments handles GET /api/comments.
func (h *Handlers) HandleListAllComments(c *gin.Context) {
	views, err := h.projector.AllComments(c.Request.Context())
	if err != nil {
		h.writeError(c, h.requestLogger(c, "HandleListAllComments"), err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// HandleGetComment handles GET /api/comments/:id.
func (h *Handlers) HandleGetComment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.projector.Comment(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, h.requestLogger(c, "HandleGetComment"), err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// HandlePostComments handles GET /api/posts/:id/comments.
//
// Response:
//
//	200 OK: []datatypes.CommentView, oldest first
//	404 Not Found: Unknown post
func (h *Handlers) HandlePostComments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	logger := h.requestLogger(c, "HandlePostComments")

	if _, err := h.store.GetPost(id); err != nil {
		h.writeError(c, logger, err)
		return
	}
	views, err := h.projector.Comments(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// HandleCreateComment handles POST /api/posts/:id/comments.
//
// Request Body:
//
//	CommentRequest
//
// Response:
//
//	201 Created: datatypes.CommentView
//	400 Bad Request: Invalid body
//	404 Not Found: Unknown post or author
func (h *Handlers) HandleCreateComment(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	logger := h.requestLogger(c, "HandleCreateComment")

	var req CommentRequest
	if !bindJSON(c, logger, &req) {
		return
	}
	in := datatypes.NewComment{PostID: postID, UserID: req.UserID, Content: req.Content}
	if err := in.Validate(); err != nil {
		h.writeError(c, logger, err)
		return
	}
	if _, err := h.requireUser(in.UserID); err != nil {
		h.writeError(c, logger, err)
		return
	}

	comment, err := h.store.CreateComment(in)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	h.metrics.RecordCommentCreated(c.Request.Context())

	view, err := h.projector.Comment(c.Request.Context(), comment.ID)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}

	logger.Info("Comment created", "comment_id", comment.ID, "post_id", postID)
	c.JSON(http.StatusCreated, view)
}
