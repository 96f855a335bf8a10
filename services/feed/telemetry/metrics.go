// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics contains the instruments of the feed service.
//
// Description:
//
//	HTTP request instruments plus one counter per feed mutation. All names
//	use the "feed_" prefix. The Record* helpers accept a nil *Metrics so
//	that components built without telemetry need no guards.
//
// Thread Safety: Safe for concurrent use after creation.
type Metrics struct {
	// --- HTTP Metrics ---

	// HTTPRequestsTotal counts HTTP requests by method, route and status.
	HTTPRequestsTotal metric.Int64Counter

	// HTTPRequestDuration records HTTP request duration in seconds.
	HTTPRequestDuration metric.Float64Histogram

	// HTTPActiveRequests tracks in-flight HTTP requests.
	HTTPActiveRequests metric.Int64UpDownCounter

	// --- Feed Metrics ---

	// PostsCreated counts created posts.
	PostsCreated metric.Int64Counter

	// CommentsCreated counts created comments.
	CommentsCreated metric.Int64Counter

	// ReactionToggles counts reaction toggles by outcome (added, removed, switched).
	ReactionToggles metric.Int64Counter

	// CascadeDeletions counts rows removed by post deletes, by kind.
	CascadeDeletions metric.Int64Counter

	// StoriesCreated counts created stories.
	StoriesCreated metric.Int64Counter

	// StoriesPurged counts expired stories removed by the retention purge.
	StoriesPurged metric.Int64Counter
}

// NewMetrics registers every feed instrument with meter.
//
// Description:
//
//	Returns an error naming the first instrument that failed to register.
//
// Example:
//
//	metrics, err := telemetry.NewMetrics(otel.Meter("feed"))
//	if err != nil {
//	    return fmt.Errorf("create metrics: %w", err)
//	}
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	// --- HTTP Metrics ---
	m.HTTPRequestsTotal, err = meter.Int64Counter(
		"feed_http_requests_total",
		metric.WithDescription("Total HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_requests_total: %w", err)
	}

	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"feed_http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_request_duration: %w", err)
	}

	m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"feed_http_active_requests",
		metric.WithDescription("Currently active HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_active_requests: %w", err)
	}

	// --- Feed Metrics ---
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&m.PostsCreated, "feed_posts_created_total", "Total posts created", "{post}"},
		{&m.CommentsCreated, "feed_comments_created_total", "Total comments created", "{comment}"},
		{&m.ReactionToggles, "feed_reaction_toggles_total", "Total reaction toggles by outcome", "{toggle}"},
		{&m.CascadeDeletions, "feed_cascade_deletions_total", "Rows removed by post deletes by kind", "{row}"},
		{&m.StoriesCreated, "feed_stories_created_total", "Total stories created", "{story}"},
		{&m.StoriesPurged, "feed_stories_purged_total", "Expired stories removed by retention", "{story}"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name,
			metric.WithDescription(c.desc),
			metric.WithUnit(c.unit),
		)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", c.name, err)
		}
	}

	return m, nil
}

// RecordPostCreated counts one created post.
func (m *Metrics) RecordPostCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.PostsCreated.Add(ctx, 1)
}

// RecordCommentCreated counts one created comment.
func (m *Metrics) RecordCommentCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.CommentsCreated.Add(ctx, 1)
}

// RecordToggle counts one reaction toggle with its outcome.
func (m *Metrics) RecordToggle(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.ReactionToggles.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordCascade counts the rows a post delete removed.
func (m *Metrics) RecordCascade(ctx context.Context, comments, reactions int) {
	if m == nil {
		return
	}
	m.CascadeDeletions.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "post")))
	m.CascadeDeletions.Add(ctx, int64(comments), metric.WithAttributes(attribute.String("kind", "comment")))
	m.CascadeDeletions.Add(ctx, int64(reactions), metric.WithAttributes(attribute.String("kind", "like")))
}

// RecordStoryCreated counts one created story.
func (m *Metrics) RecordStoryCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.StoriesCreated.Add(ctx, 1)
}

// RecordStoriesPurged counts stories removed by a retention purge.
func (m *Metrics) RecordStoriesPurged(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.StoriesPurged.Add(ctx, int64(n))
}
