// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"sort"
	"time"

	"github.com/AleutianAI/AleutianFeed/services/feed/datatypes"
)

// Reader reads the store inside a critical section held by the caller.
//
// A Reader is only valid inside the function passed to Store.View, or
// inside a Store method that already holds the lock. Every slice it returns
// is freshly allocated and ordered as documented on the method.
type Reader struct {
	s *Store
}

// Now returns the store clock's current instant.
func (r *Reader) Now() time.Time {
	return r.s.clock.Now()
}

// User returns the user with id.
func (r *Reader) User(id int64) (datatypes.User, bool) {
	return r.s.users.get(id)
}

// UserByUsername resolves a username.
func (r *Reader) UserByUsername(username string) (datatypes.User, bool) {
	id, ok := r.s.usernames[username]
	if !ok {
		return datatypes.User{}, false
	}
	return r.s.users.get(id)
}

// Users returns every user in ascending id order.
func (r *Reader) Users() []datatypes.User {
	users := r.s.users.values()
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

// Post returns the post with id.
func (r *Reader) Post(id int64) (datatypes.Post, bool) {
	return r.s.posts.get(id)
}

// Posts returns every post, newest first.
func (r *Reader) Posts() []datatypes.Post {
	return newestPostsFirst(r.s.posts.values())
}

// PostsByUser returns the posts of one user, newest first.
func (r *Reader) PostsByUser(userID int64) []datatypes.Post {
	return newestPostsFirst(r.s.posts.filter(func(p datatypes.Post) bool {
		return p.UserID == userID
	}))
}

// Comment returns the comment with id.
func (r *Reader) Comment(id int64) (datatypes.Comment, bool) {
	return r.s.comments.get(id)
}

// Comments returns every comment, oldest first.
func (r *Reader) Comments() []datatypes.Comment {
	return oldestCommentsFirst(r.s.comments.values())
}

// CommentsByPost returns the comments of one post, oldest first.
func (r *Reader) CommentsByPost(postID int64) []datatypes.Comment {
	return oldestCommentsFirst(r.s.comments.filter(func(c datatypes.Comment) bool {
		return c.PostID == postID
	}))
}

// LikesByPost returns the reactions on one post in ascending id order.
func (r *Reader) LikesByPost(postID int64) []datatypes.Like {
	likes := r.s.likes.filter(func(l datatypes.Like) bool {
		return l.PostID == postID
	})
	sort.Slice(likes, func(i, j int) bool { return likes[i].ID < likes[j].ID })
	return likes
}

// Like returns the reaction of userID on postID.
func (r *Reader) Like(postID, userID int64) (datatypes.Like, bool) {
	id, ok := r.s.likePairs[pairKey{postID: postID, userID: userID}]
	if !ok {
		return datatypes.Like{}, false
	}
	return r.s.likes.get(id)
}

// ActiveStories returns the stories still visible at now, newest first.
func (r *Reader) ActiveStories(now time.Time) []datatypes.Story {
	return newestStoriesFirst(r.s.stories.filter(func(st datatypes.Story) bool {
		return st.ActiveAt(now)
	}))
}

// ActiveStoriesByUser returns one user's stories still visible at now,
// newest first.
func (r *Reader) ActiveStoriesByUser(userID int64, now time.Time) []datatypes.Story {
	return newestStoriesFirst(r.s.stories.filter(func(st datatypes.Story) bool {
		return st.UserID == userID && st.ActiveAt(now)
	}))
}

// =============================================================================
// Ordering
// =============================================================================

// Equal instants are ordered by id so that listings are deterministic.

func newestPostsFirst(posts []datatypes.Post) []datatypes.Post {
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
	return posts
}

func oldestCommentsFirst(comments []datatypes.Comment) []datatypes.Comment {
	sort.Slice(comments, func(i, j int) bool {
		if !comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].CreatedAt.Before(comments[j].CreatedAt)
		}
		return comments[i].ID < comments[j].ID
	})
	return comments
}

func newestStoriesFirst(stories []datatypes.Story) []datatypes.Story {
	sort.Slice(stories, func(i, j int) bool {
		if !stories[i].CreatedAt.Equal(stories[j].CreatedAt) {
			return stories[i].CreatedAt.After(stories[j].CreatedAt)
		}
		return stories[i].ID > stories[j].ID
	})
	return stories
}
