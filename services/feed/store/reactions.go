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
	"fmt"

	"github.com/AleutianAI/AleutianFeed/services/feed/datatypes"
)

// =============================================================================
// Reactions
// =============================================================================

// ToggleReaction applies one reaction toggle for userID on postID.
//
// # Description
//
// Each (post, user) pair is either without a reaction or holds exactly one
// reaction of some kind. The toggle moves the pair as follows:
//
//	none            ── kind ──▶ reacted(kind)   new row          (added)
//	reacted(kind)   ── kind ──▶ none            row deleted      (removed)
//	reacted(other)  ── kind ──▶ reacted(kind)   same row, kind   (switched)
//
// An empty kind means datatypes.DefaultReactionKind. Applying the same
// toggle twice returns the pair to where it started.
//
// # Outputs
//
//   - datatypes.ToggleResult: Reacted and Kind describe the new state.
//     Like holds a copy of the surviving row when Reacted is true.
//   - error: NotFoundError when the post does not exist, or ErrClosed.
//
// # Thread Safety
//
// The lookup, the decision and the write happen under one write lock, so
// concurrent toggles on the same pair are serialized and never leave two
// rows behind.
func (s *Store) ToggleReaction(postID, userID int64, kind string) (datatypes.ToggleResult, error) {
	if kind == "" {
		kind = datatypes.DefaultReactionKind
	}

	if err := s.lockWrite(); err != nil {
		return datatypes.ToggleResult{}, err
	}
	defer s.mu.Unlock()

	if _, ok := s.posts.get(postID); !ok {
		return datatypes.ToggleResult{}, notFound(datatypes.KindPost, postID)
	}

	key := pairKey{postID: postID, userID: userID}
	if id, ok := s.likePairs[key]; ok {
		existing, _ := s.likes.get(id)
		if existing.Type == kind {
			s.likes.remove(id)
			delete(s.likePairs, key)
			s.logger.Info("reaction removed", "post_id", postID, "user_id", userID, "kind", kind)
			return datatypes.ToggleResult{Reacted: false, Outcome: datatypes.ToggleRemoved}, nil
		}

		previous := existing.Type
		existing.Type = kind
		s.likes.put(id, existing)
		s.logger.Info("reaction switched",
			"post_id", postID, "user_id", userID, "from", previous, "to", kind)
		return datatypes.ToggleResult{
			Reacted: true,
			Kind:    kind,
			Like:    &existing,
			Outcome: datatypes.ToggleSwitched,
		}, nil
	}

	like := datatypes.Like{
		ID:     s.likes.nextID(),
		PostID: postID,
		UserID: userID,
		Type:   kind,
	}
	s.likes.put(like.ID, like)
	s.likePairs[key] = like.ID

	s.logger.Info("reaction added", "post_id", postID, "user_id", userID, "kind", kind)
	return datatypes.ToggleResult{
		Reacted: true,
		Kind:    kind,
		Like:    &like,
		Outcome: datatypes.ToggleAdded,
	}, nil
}

// RemoveReaction deletes the reaction of userID on postID if there is one.
// It reports whether a row was removed; a missing reaction or post is not
// an error.
func (s *Store) RemoveReaction(postID, userID int64) (bool, error) {
	if err := s.lockWrite(); err != nil {
		return false, err
	}
	defer s.mu.Unlock()

	key := pairKey{postID: postID, userID: userID}
	id, ok := s.likePairs[key]
	if !ok {
		return false, nil
	}
	s.likes.remove(id)
	delete(s.likePairs, key)

	s.logger.Info("reaction removed", "post_id", postID, "user_id", userID)
	return true, nil
}

// ListReactionsByPost returns the reaction rows of a post in ascending id
// order. A missing post yields an empty slice.
func (s *Store) ListReactionsByPost(postID int64) ([]datatypes.Like, error) {
	var likes []datatypes.Like
	err := s.View(func(r *Reader) error {
		likes = r.LikesByPost(postID)
		return nil
	})
	return likes, err
}

// GetReaction returns the reaction of userID on postID. A missing reaction
// yields an error naming both ids that wraps a NotFoundError of kind like.
func (s *Store) GetReaction(postID, userID int64) (datatypes.Like, error) {
	var like datatypes.Like
	err := s.View(func(r *Reader) error {
		l, ok := r.Like(postID, userID)
		if !ok {
			return fmt.Errorf("reaction of user %d on post %d: %w",
				userID, postID, notFound(datatypes.KindLike, postID))
		}
		like = l
		return nil
	})
	return like, err
}
