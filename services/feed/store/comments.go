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

// CreateComment stores a comment on an existing post.
//
// The post lookup and the insert share one critical section, so a comment
// can never be attached to a post that a concurrent DeletePost removed.
// Returns a NotFoundError for the post when it does not exist.
func (s *Store) CreateComment(in datatypes.NewComment) (datatypes.Comment, error) {
	if err := s.lockWrite(); err != nil {
		return datatypes.Comment{}, err
	}
	defer s.mu.Unlock()

	if _, ok := s.posts.get(in.PostID); !ok {
		return datatypes.Comment{}, notFound(datatypes.KindPost, in.PostID)
	}

	comment := datatypes.Comment{
		ID:        s.comments.nextID(),
		PostID:    in.PostID,
		UserID:    in.UserID,
		Content:   in.Content,
		CreatedAt: s.clock.Now(),
	}
	s.comments.put(comment.ID, comment)

	s.logger.Info("comment created",
		"comment_id", comment.ID,
		"post_id", comment.PostID,
		"user_id", comment.UserID)
	return comment, nil
}

// GetComment returns the comment with id, or a NotFoundError.
func (s *Store) GetComment(id int64) (datatypes.Comment, error) {
	var comment datatypes.Comment
	err := s.View(func(r *Reader) error {
		c, ok := r.Comment(id)
		if !ok {
			return notFound(datatypes.KindComment, id)
		}
		comment = c
		return nil
	})
	return comment, err
}

// ListCommentsByPost returns the comments of a post, oldest first. A
// missing post yields an empty slice, not an error.
func (s *Store) ListCommentsByPost(postID int64) ([]datatypes.Comment, error) {
	var comments []datatypes.Comment
	err := s.View(func(r *Reader) error {
		comments = r.CommentsByPost(postID)
		return nil
	})
	return comments, err
}

// ListComments returns every comment, oldest first.
func (s *Store) ListComments() ([]datatypes.Comment, error) {
	var comments []datatypes.Comment
	err := s.View(func(r *Reader) error {
		comments = r.Comments()
		return nil
	})
	return comments, err
}
