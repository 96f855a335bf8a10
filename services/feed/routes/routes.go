// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"log/slog"
	"net/http"

	"github.com/AleutianAI/AleutianFeed/services/feed/handlers"
	"github.com/AleutianAI/AleutianFeed/services/feed/middleware"
	"github.com/AleutianAI/AleutianFeed/services/feed/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Options configures NewRouter.
type Options struct {
	// ServiceName names the server spans. Default: "aleutian-feed".
	ServiceName string

	Logger  *slog.Logger
	Metrics *telemetry.Metrics

	// MetricsHandler serves GET /metrics. Nil leaves the route unregistered.
	MetricsHandler http.Handler

	// RequestsPerSecond and Burst bound mutating API calls. Zero disables.
	RequestsPerSecond float64
	Burst             int
}

// NewRouter builds a gin engine with the feed middleware chain and routes.
//
// Middleware order: recovery, tracing, request id, request log, HTTP
// metrics. Rate limiting applies to the /api group only.
func NewRouter(h *handlers.Handlers, opts Options) *gin.Engine {
	if opts.ServiceName == "" {
		opts.ServiceName = "aleutian-feed"
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		otelgin.Middleware(opts.ServiceName),
		middleware.RequestID(),
		middleware.RequestLogger(opts.Logger),
		telemetry.GinMetrics(opts.Metrics),
	)

	SetupRoutes(router, h, opts.MetricsHandler, middleware.RateLimit(opts.RequestsPerSecond, opts.Burst))
	return router
}

// SetupRoutes registers every feed endpoint on router.
func SetupRoutes(router *gin.Engine, h *handlers.Handlers, metricsHandler http.Handler, limiter gin.HandlerFunc) {
	router.GET("/health", h.HandleHealth)
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	api := router.Group("/api")
	if limiter != nil {
		api.Use(limiter)
	}
	{
		users := api.Group("/users")
		{
			users.GET("", h.HandleListUsers)
			users.POST("", h.HandleCreateUser)
			users.GET("/:id", h.HandleGetUser)
			users.GET("/:id/posts", h.HandleUserPosts)
			users.GET("/:id/stories", h.HandleUserStories)
		}

		posts := api.Group("/posts")
		{
			posts.GET("", h.HandleFeed)
			posts.POST("", h.HandleCreatePost)
			posts.GET("/:id", h.HandleGetPost)
			posts.PATCH("/:id", h.HandleUpdatePost)
			posts.DELETE("/:id", h.HandleDeletePost)

			posts.GET("/:id/comments", h.HandlePostComments)
			posts.POST("/:id/comments", h.HandleCreateComment)

			posts.POST("/:id/likes", h.HandleToggleReaction)
			posts.GET("/:id/likes", h.HandleReactionSummary)
			posts.GET("/:id/likes/:userId", h.HandleGetReaction)
			posts.DELETE("/:id/likes/:userId", h.HandleRemoveReaction)
		}

		comments := api.Group("/comments")
		{
			comments.GET("", h.HandleListAllComments)
			comments.GET("/:id", h.HandleGetComment)
		}

		stories := api.Group("/stories")
		{
			stories.GET("", h.HandleActiveStories)
			stories.POST("", h.HandleCreateStory)
		}

		admin := api.Group("/admin")
		{
			admin.GET("/audit", h.HandleAuditLog)
			admin.PATCH("/:kind/:id", h.HandleAdminEdit)
		}
	}
}
