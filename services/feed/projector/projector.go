// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package projector reshapes stored feed rows into the views the client
// renders.
//
// # Description
//
// A projection joins posts with their authors, reaction summaries and
// comment previews, and stamps every instant with a relative label. Each
// projection runs inside a single store.View call, so the counts, previews
// and posts of one response always come from the same store state.
//
// Authors that do not resolve never fail a projection; the view simply
// carries no user.
//
// # Thread Safety
//
// A Projector holds no mutable state and is safe for concurrent use.
package projector

import (
	"context"
	"log/slog"
	"time"

	"github.com/AleutianAI/AleutianFeed/services/feed/datatypes"
	"github.com/AleutianAI/AleutianFeed/services/feed/store"
	"github.com/AleutianAI/AleutianFeed/services/feed/telemetry"
	"github.com/AleutianAI/AleutianFeed/services/feed/timeago"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "feed.projector"

// DefaultPreviewSize is the number of comments shown under a feed entry.
const DefaultPreviewSize = 2

// Projector builds feed views from a store.
type Projector struct {
	store       *store.Store
	previewSize int
	logger      *slog.Logger
}

// Option configures a Projector.
type Option func(*Projector)

// WithPreviewSize sets how many comments a feed entry previews. Negative
// values are treated as zero.
func WithPreviewSize(n int) Option {
	return func(p *Projector) {
		if n < 0 {
			n = 0
		}
		p.previewSize = n
	}
}

// WithLogger sets the projector logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Projector) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a Projector over st.
func New(st *store.Store, opts ...Option) *Projector {
	p := &Projector{
		store:       st,
		previewSize: DefaultPreviewSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PreviewSize returns the configured comment preview bound.
func (p *Projector) PreviewSize() int {
	return p.previewSize
}

// =============================================================================
// Post Projections
// =============================================================================

// Feed returns every post as a feed entry, newest first.
//
// # Description
//
// Each entry carries its author, its reaction summary, the comment count
// and the oldest PreviewSize comments with their authors. Labels are
// computed against a single now sampled at the start of the projection.
//
// # Outputs
//
//   - []datatypes.PostView: Never nil.
//   - error: store.ErrClosed.
func (p *Projector) Feed(ctx context.Context) ([]datatypes.PostView, error) {
	var views []datatypes.PostView
	err := p.project(ctx, "Feed", func(r *store.Reader) error {
		views = p.postViews(r, r.Posts(), r.Now())
		return nil
	})
	return views, err
}

// PostsByUser returns the feed entries of one user's posts, newest first.
func (p *Projector) PostsByUser(ctx context.Context, userID int64) ([]datatypes.PostView, error) {
	var views []datatypes.PostView
	err := p.project(ctx, "PostsByUser", func(r *store.Reader) error {
		views = p.postViews(r, r.PostsByUser(userID), r.Now())
		return nil
	}, attribute.Int64("user_id", userID))
	return views, err
}

// PostView returns the feed entry of a single post, or a store.NotFoundError.
func (p *Projector) PostView(ctx context.Context, postID int64) (datatypes.PostView, error) {
	var view datatypes.PostView
	err := p.project(ctx, "PostView", func(r *store.Reader) error {
		post, ok := r.Post(postID)
		if !ok {
			return &store.NotFoundError{Kind: datatypes.KindPost, ID: postID}
		}
		view = p.postView(r, post, r.Now())
		return nil
	}, attribute.Int64("post_id", postID))
	return view, err
}

// ViewOf projects a post value the caller already holds, such as the one a
// store write just returned.
//
// # Description
//
// The post itself is not looked up, so the view is built even if the post
// was removed after the write. In that case the author, reactions and
// comments resolve to whatever the snapshot still holds, typically none.
//
// # Outputs
//
//   - datatypes.PostView: The projected entry.
//   - error: store.ErrClosed.
func (p *Projector) ViewOf(ctx context.Context, post datatypes.Post) (datatypes.PostView, error) {
	var view datatypes.PostView
	err := p.project(ctx, "ViewOf", func(r *store.Reader) error {
		view = p.postView(r, post, r.Now())
		return nil
	}, attribute.Int64("post_id", post.ID))
	return view, err
}

// PostDetail returns a post with every comment expanded, oldest first.
func (p *Projector) PostDetail(ctx context.Context, postID int64) (datatypes.PostDetail, error) {
	var detail datatypes.PostDetail
	err := p.project(ctx, "PostDetail", func(r *store.Reader) error {
		post, ok := r.Post(postID)
		if !ok {
			return &store.NotFoundError{Kind: datatypes.KindPost, ID: postID}
		}
		now := r.Now()
		detail = datatypes.PostDetail{
			Post:     post,
			User:     resolveUser(r, post.UserID),
			Comments: commentViews(r, r.CommentsByPost(postID), now),
			Likes:    summarize(r.LikesByPost(postID)),
			TimeAgo:  timeago.Label(post.CreatedAt, now),
		}
		return nil
	}, attribute.Int64("post_id", postID))
	return detail, err
}

// =============================================================================
// Comment Projections
// =============================================================================

// Comments returns every comment of a post with authors and labels,
// oldest first. A missing post yields an empty slice.
func (p *Projector) Comments(ctx context.Context, postID int64) ([]datatypes.CommentView, error) {
	var views []datatypes.CommentView
	err := p.project(ctx, "Comments", func(r *store.Reader) error {
		views = commentViews(r, r.CommentsByPost(postID), r.Now())
		return nil
	}, attribute.Int64("post_id", postID))
	return views, err
}

// Comment returns one comment with its author and label.
func (p *Projector) Comment(ctx context.Context, commentID int64) (datatypes.CommentView, error) {
	var view datatypes.CommentView
	err := p.project(ctx, "Comment", func(r *store.Reader) error {
		c, ok := r.Comment(commentID)
		if !ok {
			return &store.NotFoundError{Kind: datatypes.KindComment, ID: commentID}
		}
		view = commentView(r, c, r.Now())
		return nil
	}, attribute.Int64("comment_id", commentID))
	return view, err
}

// AllComments returns every stored comment, oldest first.
func (p *Projector) AllComments(ctx context.Context) ([]datatypes.CommentView, error) {
	var views []datatypes.CommentView
	err := p.project(ctx, "AllComments", func(r *store.Reader) error {
		views = commentViews(r, r.Comments(), r.Now())
		return nil
	})
	return views, err
}

// =============================================================================
// Reaction Projections
// =============================================================================

// ReactionSummary returns the reaction counts of a post, or a
// store.NotFoundError when the post does not exist.
func (p *Projector) ReactionSummary(ctx context.Context, postID int64) (datatypes.ReactionSummary, error) {
	var summary datatypes.ReactionSummary
	err := p.project(ctx, "ReactionSummary", func(r *store.Reader) error {
		if _, ok := r.Post(postID); !ok {
			return &store.NotFoundError{Kind: datatypes.KindPost, ID: postID}
		}
		summary = summarize(r.LikesByPost(postID))
		return nil
	}, attribute.Int64("post_id", postID))
	return summary, err
}

// =============================================================================
// Story Projections
// =============================================================================

// ActiveStories groups the stories visible now by owner.
//
// # Description
//
// Stories inside a group are newest first. Groups are ordered by their
// newest story, so the owner who posted most recently comes first. Owners
// without an active story do not appear. An owner id that does not
// resolve still gets a group, with User left nil.
//
// # Outputs
//
//   - []datatypes.UserStories: Never nil.
//   - error: store.ErrClosed.
func (p *Projector) ActiveStories(ctx context.Context) ([]datatypes.UserStories, error) {
	var groups []datatypes.UserStories
	err := p.project(ctx, "ActiveStories", func(r *store.Reader) error {
		now := r.Now()
		groups = groupStories(r, r.ActiveStories(now), now)
		return nil
	})
	return groups, err
}

// StoriesByUser returns one user's visible stories, newest first.
func (p *Projector) StoriesByUser(ctx context.Context, userID int64) ([]datatypes.StoryView, error) {
	var views []datatypes.StoryView
	err := p.project(ctx, "StoriesByUser", func(r *store.Reader) error {
		now := r.Now()
		views = storyViews(r.ActiveStoriesByUser(userID, now), now)
		return nil
	}, attribute.Int64("user_id", userID))
	return views, err
}

// =============================================================================
// Internals
// =============================================================================

// project runs fn inside one store snapshot and one span.
func (p *Projector) project(ctx context.Context, op string, fn func(r *store.Reader) error, attrs ...attribute.KeyValue) error {
	_, span := telemetry.StartSpan(ctx, tracerName, tracerName+"."+op, trace.WithAttributes(attrs...))
	defer span.End()

	if err := p.store.View(fn); err != nil {
		telemetry.RecordError(span, err)
		p.logger.Debug("projection failed", "op", op, "error", err)
		return err
	}
	telemetry.SetSpanOK(span)
	return nil
}

func (p *Projector) postViews(r *store.Reader, posts []datatypes.Post, now time.Time) []datatypes.PostView {
	views := make([]datatypes.PostView, 0, len(posts))
	for _, post := range posts {
		views = append(views, p.postView(r, post, now))
	}
	return views
}

func (p *Projector) postView(r *store.Reader, post datatypes.Post, now time.Time) datatypes.PostView {
	comments := r.CommentsByPost(post.ID)
	preview := comments
	if len(preview) > p.previewSize {
		preview = preview[:p.previewSize]
	}

	return datatypes.PostView{
		Post:  post,
		User:  resolveUser(r, post.UserID),
		Likes: summarize(r.LikesByPost(post.ID)),
		Comments: datatypes.CommentSummary{
			Count:   len(comments),
			Preview: commentViews(r, preview, now),
		},
		TimeAgo: timeago.Label(post.CreatedAt, now),
	}
}
