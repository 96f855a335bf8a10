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

// EditOutcome is the result of ApplyEdit. Post is set for post edits.
type EditOutcome struct {
	Kind datatypes.EntityKind
	Post *datatypes.Post
}

// ApplyEdit applies one administrative edit.
//
// # Description
//
// Post edits merge their patch like UpdatePost. Users and comments are
// immutable: their edits resolve the target first (NotFoundError when it
// is missing) and then fail with a ValidationError naming the kind.
//
// # Outputs
//
//   - EditOutcome: The edited kind and, for posts, the updated row.
//   - error: NotFoundError, ValidationError, or ErrClosed.
func (s *Store) ApplyEdit(edit datatypes.Edit) (EditOutcome, error) {
	if edit == nil {
		return EditOutcome{}, invalid("edit", "must not be nil")
	}

	if err := s.lockWrite(); err != nil {
		return EditOutcome{}, err
	}
	defer s.mu.Unlock()

	switch e := edit.(type) {
	case datatypes.PostEdit:
		post, err := s.updatePostLocked(e.ID, e.Patch)
		if err != nil {
			return EditOutcome{}, err
		}
		return EditOutcome{Kind: datatypes.KindPost, Post: &post}, nil
	case datatypes.UserEdit:
		if _, ok := s.users.get(e.ID); !ok {
			return EditOutcome{}, notFound(datatypes.KindUser, e.ID)
		}
		return EditOutcome{}, invalid(string(datatypes.KindUser), "users are immutable")
	case datatypes.CommentEdit:
		if _, ok := s.comments.get(e.ID); !ok {
			return EditOutcome{}, notFound(datatypes.KindComment, e.ID)
		}
		return EditOutcome{}, invalid(string(datatypes.KindComment), "comments are immutable")
	default:
		return EditOutcome{}, fmt.Errorf("%w: %T", datatypes.ErrUnknownEditKind, edit)
	}
}
