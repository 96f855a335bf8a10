// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

// =============================================================================
// Projected Views
// =============================================================================
//
// Views are read-only shapes built by the feed projector. They are never
// stored. Embedded rows flatten into the JSON object so that a PostView
// serializes as the post fields plus user, likes, comments and timeAgo.

// ReactionSummary aggregates the Like rows of one post.
//
// Types only holds kinds with a non-zero count, and the sum of its values
// always equals Count.
type ReactionSummary struct {
	Count int            `json:"count"`
	Types map[string]int `json:"types"`
}

// CommentView is a comment with its author and relative label.
// User is nil when the author id does not resolve.
type CommentView struct {
	Comment
	User    *User  `json:"user,omitempty"`
	TimeAgo string `json:"timeAgo"`
}

// CommentSummary is the bounded comment block of a feed entry.
type CommentSummary struct {
	Count   int           `json:"count"`
	Preview []CommentView `json:"preview"`
}

// PostView is one entry of the feed.
type PostView struct {
	Post
	User     *User           `json:"user,omitempty"`
	Likes    ReactionSummary `json:"likes"`
	Comments CommentSummary  `json:"comments"`
	TimeAgo  string          `json:"timeAgo"`
}

// PostDetail is a single post with every comment expanded.
type PostDetail struct {
	Post
	User     *User           `json:"user,omitempty"`
	Comments []CommentView   `json:"comments"`
	Likes    ReactionSummary `json:"likes"`
	TimeAgo  string          `json:"timeAgo"`
}

// StoryView is a story with its relative creation label.
type StoryView struct {
	Story
	TimeAgo string `json:"timeAgo"`
}

// UserStories groups the active stories of one owner, newest first.
// User is nil when the owner id does not resolve.
type UserStories struct {
	UserID  int64       `json:"userId"`
	User    *User       `json:"user,omitempty"`
	Stories []StoryView `json:"stories"`
}

// ToggleView is the response of a reaction toggle: the transition outcome
// plus the post's reaction summary after the transition.
type ToggleView struct {
	ToggleResult
	ReactionSummary
}
