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
	"time"

	"github.com/AleutianAI/AleutianFeed/services/feed/datatypes"
)

// =============================================================================
// Stories
// =============================================================================

// CreateStory stores a story that stays visible until in.ExpiresAt.
//
// The creation instant is sampled once inside the critical section. A
// story whose ExpiresAt is not strictly after that instant fails with a
// ValidationError on field "expiresAt" and allocates no identity.
func (s *Store) CreateStory(in datatypes.NewStory) (datatypes.Story, error) {
	if err := s.lockWrite(); err != nil {
		return datatypes.Story{}, err
	}
	defer s.mu.Unlock()

	now := s.clock.Now()
	if !in.ExpiresAt.After(now) {
		return datatypes.Story{}, invalid("expiresAt", "must be after creation time")
	}

	story := datatypes.Story{
		ID:        s.stories.nextID(),
		UserID:    in.UserID,
		Image:     in.Image,
		CreatedAt: now,
		ExpiresAt: in.ExpiresAt,
	}
	s.stories.put(story.ID, story)

	s.logger.Info("story created",
		"story_id", story.ID,
		"user_id", story.UserID,
		"expires_at", story.ExpiresAt)
	return story, nil
}

// ListActiveStories returns the stories visible now, newest first. Now is
// sampled once for the whole listing.
func (s *Store) ListActiveStories() ([]datatypes.Story, error) {
	var stories []datatypes.Story
	err := s.View(func(r *Reader) error {
		stories = r.ActiveStories(r.Now())
		return nil
	})
	return stories, err
}

// ListActiveStoriesByUser returns one user's visible stories, newest first.
func (s *Store) ListActiveStoriesByUser(userID int64) ([]datatypes.Story, error) {
	var stories []datatypes.Story
	err := s.View(func(r *Reader) error {
		stories = r.ActiveStoriesByUser(userID, r.Now())
		return nil
	})
	return stories, err
}

// PurgeExpiredStories deletes stories whose expiry is at or before cutoff
// and returns how many were removed.
//
// # Description
//
// Expired stories are already hidden from every listing; purging only
// reclaims their memory. Pass a cutoff in the past (now minus a retention
// window) to keep recently expired rows around.
func (s *Store) PurgeExpiredStories(cutoff time.Time) (int, error) {
	if err := s.lockWrite(); err != nil {
		return 0, err
	}
	defer s.mu.Unlock()

	removed := 0
	for _, st := range s.stories.filter(func(st datatypes.Story) bool {
		return !st.ExpiresAt.After(cutoff)
	}) {
		if s.stories.remove(st.ID) {
			removed++
		}
	}

	if removed > 0 {
		s.logger.Info("expired stories purged", "removed", removed, "cutoff", cutoff)
	}
	return removed, nil
}
