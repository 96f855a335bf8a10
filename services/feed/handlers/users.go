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

// HandleListUsers handles GET /api/users.
func (h *Handlers) HandleListUsers(c *gin.Context) {
	users, err := h.store.ListUsers()
	if err != nil {
		h.writeError(c, h.requestLogger(c, "HandleListUsers"), err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// HandleCreateUser handles POST /api/users.
//
// Request Body:
//
//	datatypes.NewUser
//
// Response:
//
//	201 Created: datatypes.User (the password hash is never serialized)
//	400 Bad Request: Invalid body or username already taken
func (h *Handlers) HandleCreateUser(c *gin.Context) {
	logger := h.requestLogger(c, "HandleCreateUser")

	var req datatypes.NewUser
	if !bindJSON(c, logger, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(c, logger, err)
		return
	}

	user, err := h.store.CreateUser(req)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}

	h.record(c, logger, audit.Event{
		Type:         audit.EventUserCreated,
		ResourceType: string(datatypes.KindUser),
		ResourceID:   user.ID,
		Outcome:      audit.OutcomeSuccess,
		Metadata:     map[string]any{"username": user.Username},
	})
	logger.Info("User created", "user_id", user.ID)
	c.JSON(http.StatusCreated, user)
}

// HandleGetUser handles GET /api/users/:id.
func (h *Handlers) HandleGetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.store.GetUser(id)
	if err != nil {
		h.writeError(c, h.requestLogger(c, "HandleGetUser"), err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// HandleUserPosts handles GET /api/users/:id/posts.
//
// Response:
//
//	200 OK: []datatypes.PostView, newest first
//	404 Not Found: Unknown user
func (h *Handlers) HandleUserPosts(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	logger := h.requestLogger(c, "HandleUserPosts")

	if _, err := h.requireUser(id); err != nil {
		h.writeError(c, logger, err)
		return
	}
	views, err := h.projector.PostsByUser(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// HandleUserStories handles GET /api/users/:id/stories.
//
// Response:
//
//	200 OK: []datatypes.StoryView, newest first, expired stories excluded
//	404 Not Found: Unknown user
func (h *Handlers) HandleUserStories(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	logger := h.requestLogger(c, "HandleUserStories")

	if _, err := h.requireUser(id); err != nil {
		h.writeError(c, logger, err)
		return
	}
	views, err := h.projector.StoriesByUser(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, views)
}
