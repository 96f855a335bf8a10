// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package projector

import (
	"time"

	"github.com/AleutianAI/AleutianFeed/services/feed/datatypes"
	"github.com/AleutianAI/AleutianFeed/services/feed/store"
	"github.com/AleutianAI/AleutianFeed/services/feed/timeago"
)

// summarize counts likes per kind. Types holds only kinds that occur, and
// its values sum to Count.
func summarize(likes []datatypes.Like) datatypes.ReactionSummary {
	summary := datatypes.ReactionSummary{
		Count: len(likes),
		Types: make(map[string]int),
	}
	for _, l := range likes {
		summary.Types[l.Type]++
	}
	return summary
}

// resolveUser returns a copy of the user, or nil when id does not resolve.
func resolveUser(r *store.Reader, id int64) *datatypes.User {
	u, ok := r.User(id)
	if !ok {
		return nil
	}
	return &u
}

func commentView(r *store.Reader, c datatypes.Comment, now time.Time) datatypes.CommentView {
	return datatypes.CommentView{
		Comment: c,
		User:    resolveUser(r, c.UserID),
		TimeAgo: timeago.Label(c.CreatedAt, now),
	}
}

func commentViews(r *store.Reader, comments []datatypes.Comment, now time.Time) []datatypes.CommentView {
	views := make([]datatypes.CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, commentView(r, c, now))
	}
	return views
}

func storyViews(stories []datatypes.Story, now time.Time) []datatypes.StoryView {
	views := make([]datatypes.StoryView, 0, len(stories))
	for _, s := range stories {
		views = append(views, datatypes.StoryView{
			Story:   s,
			TimeAgo: timeago.Label(s.CreatedAt, now),
		})
	}
	return views
}

// groupStories groups stories that are already newest first. A group is
// opened at its owner's first (newest) story, so groups come out ordered
// by their newest story.
func groupStories(r *store.Reader, stories []datatypes.Story, now time.Time) []datatypes.UserStories {
	groups := make([]datatypes.UserStories, 0)
	index := make(map[int64]int)

	for _, s := range stories {
		i, ok := index[s.UserID]
		if !ok {
			i = len(groups)
			index[s.UserID] = i
			groups = append(groups, datatypes.UserStories{
				UserID:  s.UserID,
				User:    resolveUser(r, s.UserID),
				Stories: make([]datatypes.StoryView, 0, 1),
			})
		}
		groups[i].Stories = append(groups[i].Stories, datatypes.StoryView{
			Story:   s,
			TimeAgo: timeago.Label(s.CreatedAt, now),
		})
	}
	return groups
}
