// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides the data structures shared by the feed store,
// the feed projector and the HTTP handlers.
//
// This file contains the stored entity rows. Request shapes live in
// inputs.go, projected response shapes in views.go and the admin edit
// variant in edit.go.
package datatypes

import "time"

// =============================================================================
// Entity Kinds
// =============================================================================

// EntityKind names one keyed collection of the feed store.
type EntityKind string

const (
	KindUser    EntityKind = "user"
	KindPost    EntityKind = "post"
	KindComment EntityKind = "comment"
	KindLike    EntityKind = "like"
	KindStory   EntityKind = "story"
)

// DefaultReactionKind is used when a reaction request carries no kind.
const DefaultReactionKind = "like"

// =============================================================================
// Stored Rows
// =============================================================================

// User is a feed member. Users are immutable once created.
//
// PasswordHash is a bcrypt hash and never leaves the process.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Name         string `json:"name"`
	Avatar       string `json:"avatar"`
	CoverImage   string `json:"coverImage"`
	PasswordHash string `json:"-"`
}

// Post is a feed entry owned by a user.
//
// Only Content and Image change after creation; see PostPatch.
type Post struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Content   string    `json:"content"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment belongs to exactly one post.
type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"postId"`
	UserID    int64     `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Like is one user's current reaction to one post. The store keeps at most
// one Like per (PostID, UserID).
type Like struct {
	ID     int64  `json:"id"`
	PostID int64  `json:"postId"`
	UserID int64  `json:"userId"`
	Type   string `json:"type"`
}

// Story is a time-bounded image. ExpiresAt is strictly after CreatedAt.
type Story struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ActiveAt reports whether the story is still visible at now.
func (s Story) ActiveAt(now time.Time) bool {
	return s.ExpiresAt.After(now)
}

// =============================================================================
// Operation Results
// =============================================================================

// ToggleOutcome names the transition a reaction toggle performed.
type ToggleOutcome string

const (
	ToggleAdded    ToggleOutcome = "added"
	ToggleRemoved  ToggleOutcome = "removed"
	ToggleSwitched ToggleOutcome = "switched"
)

// ToggleResult describes the state a reaction toggle left behind.
//
// Reacted is false when the toggle removed the caller's reaction. Like is
// the surviving row when Reacted is true.
type ToggleResult struct {
	Reacted bool          `json:"liked"`
	Kind    string        `json:"likeType,omitempty"`
	Like    *Like         `json:"-"`
	Outcome ToggleOutcome `json:"-"`
}

// DeleteResult reports what a cascading post delete removed.
type DeleteResult struct {
	PostID           int64 `json:"postId"`
	CommentsRemoved  int   `json:"commentsRemoved"`
	ReactionsRemoved int   `json:"reactionsRemoved"`
}
