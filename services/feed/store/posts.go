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
	"github.com/AleutianAI/AleutianFeed/services/feed/datatypes"
)

// =============================================================================
// Posts
// =============================================================================

// CreatePost stores a post stamped with the store clock's current instant.
//
// The owner id is stored as given. Checking that it names an existing
// user is the caller's job.
func (s *Store) CreatePost(in datatypes.NewPost) (datatypes.Post, error) {
	if err := s.lockWrite(); err != nil {
		return datatypes.Post{}, err
	}
	defer s.mu.Unlock()

	post := datatypes.Post{
		ID:        s.posts.nextID(),
		UserID:    in.UserID,
		Content:   in.Content,
		Image:     in.Image,
		CreatedAt: s.clock.Now(),
	}
	s.posts.put(post.ID, post)

	s.logger.Info("post created", "post_id", post.ID, "user_id", post.UserID)
	return post, nil
}

// GetPost returns the post with id, or a NotFoundError.
func (s *Store) GetPost(id int64) (datatypes.Post, error) {
	var post datatypes.Post
	err := s.View(func(r *Reader) error {
		p, ok := r.Post(id)
		if !ok {
			return notFound(datatypes.KindPost, id)
		}
		post = p
		return nil
	})
	return post, err
}

// UpdatePost merges the present fields of patch into the post with id.
//
// # Description
//
// Only Content and Image can change. Nil patch fields keep their current
// value; an empty patch returns the post unchanged. Identity, owner and
// creation instant are never touched.
//
// # Outputs
//
//   - datatypes.Post: The post after the merge.
//   - error: NotFoundError when no post has id, or ErrClosed.
func (s *Store) UpdatePost(id int64, patch datatypes.PostPatch) (datatypes.Post, error) {
	if err := s.lockWrite(); err != nil {
		return datatypes.Post{}, err
	}
	defer s.mu.Unlock()

	return s.updatePostLocked(id, patch)
}

func (s *Store) updatePostLocked(id int64, patch datatypes.PostPatch) (datatypes.Post, error) {
	post, ok := s.posts.get(id)
	if !ok {
		return datatypes.Post{}, notFound(datatypes.KindPost, id)
	}
	if patch.Content != nil {
		post.Content = *patch.Content
	}
	if patch.Image != nil {
		post.Image = *patch.Image
	}
	s.posts.put(id, post)

	s.logger.Info("post updated", "post_id", id)
	return post, nil
}

// DeletePost removes a post together with its comments and reactions.
//
// # Description
//
// The whole cascade runs under one write lock: comments of the post are
// removed, then its likes, then the post itself. Readers see either the
// full post with every dependent row or none of them.
//
// # Outputs
//
//   - datatypes.DeleteResult: How many dependent rows were removed.
//   - error: NotFoundError when no post has id (nothing is removed), or
//     ErrClosed.
//
// # Examples
//
//	res, err := st.DeletePost(7)
//	if errors.Is(err, store.ErrNotFound) { ... }
//	log.Info("deleted", "comments", res.CommentsRemoved)
func (s *Store) DeletePost(id int64) (datatypes.DeleteResult, error) {
	if err := s.lockWrite(); err != nil {
		return datatypes.DeleteResult{}, err
	}
	defer s.mu.Unlock()

	if _, ok := s.posts.get(id); !ok {
		return datatypes.DeleteResult{}, notFound(datatypes.KindPost, id)
	}

	result := datatypes.DeleteResult{PostID: id}

	for _, c := range s.comments.filter(func(c datatypes.Comment) bool { return c.PostID == id }) {
		if s.comments.remove(c.ID) {
			result.CommentsRemoved++
		}
	}
	for _, l := range s.likes.filter(func(l datatypes.Like) bool { return l.PostID == id }) {
		if s.likes.remove(l.ID) {
			delete(s.likePairs, pairKey{postID: l.PostID, userID: l.UserID})
			result.ReactionsRemoved++
		}
	}
	s.posts.remove(id)

	s.logger.Info("post deleted",
		"post_id", id,
		"comments_removed", result.CommentsRemoved,
		"reactions_removed", result.ReactionsRemoved)
	return result, nil
}

// ListPosts returns every post, newest first.
func (s *Store) ListPosts() ([]datatypes.Post, error) {
	var posts []datatypes.Post
	err := s.View(func(r *Reader) error {
		posts = r.Posts()
		return nil
	})
	return posts, err
}

// ListPostsByUser returns the posts of one user, newest first. An unknown
// user yields an empty slice.
func (s *Store) ListPostsByUser(userID int64) ([]datatypes.Post, error) {
	var posts []datatypes.Post
	err := s.View(func(r *Reader) error {
		posts = r.PostsByUser(userID)
		return nil
	})
	return posts, err
}
