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
	"github.com/AleutianAI/AleutianFeed/services/feed/timeago"
	"github.com/gin-gonic/gin"
)

// StoryResponse is the body of a created story.
type StoryResponse struct {
	datatypes.StoryView
	User *datatypes.User `json:"user,omitempty"`
}

// HandleActiveStories handles GET /api/stories.
//
// Response:
//
//	200 OK: []datatypes.UserStories, owners with the newest story first
func (h *Handlers) HandleActiveStories(c *gin.Context) {
	groups, err := h.projector.ActiveStories(c.Request.Context())
	if err != nil {
		h.writeError(c, h.requestLogger(c, "HandleActiveStories"), err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// HandleCreateStory handles POST /api/stories.
//
// Request Body:
//
//	datatypes.NewStory; a missing expiresAt becomes now plus the
//	configured story lifetime
//
// Response:
//
//	201 Created: StoryResponse
//	400 Bad Request: Invalid body or expiresAt not in the future
//	404 Not Found: Unknown user
func (h *Handlers) HandleCreateStory(c *gin.Context) {
	logger := h.requestLogger(c, "HandleCreateStory")

	var req datatypes.NewStory
	if !bindJSON(c, logger, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(c, logger, err)
		return
	}
	user, err := h.requireUser(req.UserID)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	if req.ExpiresAt.IsZero() {
		req.ExpiresAt = h.store.Now().Add(h.opts.StoryLifetime)
	}

	story, err := h.store.CreateStory(req)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	h.metrics.RecordStoryCreated(c.Request.Context())

	logger.Info("Story created", "story_id", story.ID, "user_id", story.UserID)
	c.JSON(http.StatusCreated, StoryResponse{
		StoryView: datatypes.StoryView{
			Story:   story,
			TimeAgo: timeago.Label(story.CreatedAt, h.store.Now()),
		},
		User: &user,
	})
}
