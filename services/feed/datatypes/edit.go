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

import (
	"encoding/json"
	"errors"
	"fmt"
)

// =============================================================================
// Admin Edit Variant
// =============================================================================

// ErrUnknownEditKind is returned by DecodeEdit for kinds that have no edit
// variant.
var ErrUnknownEditKind = errors.New("unknown edit kind")

// Edit is a sealed variant naming one administrative edit target.
//
// # Description
//
// Each implementation carries the entity kind, the target identity and a
// kind-specific payload. Consumers dispatch with a type switch over
// PostEdit, UserEdit and CommentEdit; no other implementations exist
// because isEdit is unexported.
type Edit interface {
	Kind() EntityKind
	TargetID() int64
	isEdit()
}

// PostEdit changes the content and/or image of a post.
type PostEdit struct {
	ID    int64
	Patch PostPatch
}

func (e PostEdit) Kind() EntityKind { return KindPost }
func (e PostEdit) TargetID() int64  { return e.ID }
func (PostEdit) isEdit()            {}

// UserEdit targets a user profile. Users are immutable in the current
// feed, so the store rejects this variant after resolving the target.
type UserEdit struct {
	ID       int64   `json:"-"`
	Name     *string `json:"name" validate:"omitempty,max=100"`
	Username *string `json:"username" validate:"omitempty,min=2,max=32,alphanum"`
}

func (e UserEdit) Kind() EntityKind { return KindUser }
func (e UserEdit) TargetID() int64  { return e.ID }
func (UserEdit) isEdit()            {}

// CommentEdit targets a comment body. Comments are immutable in the
// current feed, so the store rejects this variant after resolving the
// target.
type CommentEdit struct {
	ID      int64   `json:"-"`
	Content *string `json:"content" validate:"omitempty,max=8192"`
}

func (e CommentEdit) Kind() EntityKind { return KindComment }
func (e CommentEdit) TargetID() int64  { return e.ID }
func (CommentEdit) isEdit()            {}

// DecodeEdit builds the Edit variant for kind from a JSON payload.
//
// # Inputs
//
//   - kind: Entity kind from the request path ("post", "user", "comment").
//   - id: Target identity.
//   - payload: JSON object with the kind-specific fields.
//
// # Outputs
//
//   - Edit: The decoded and validated variant.
//   - error: ErrUnknownEditKind, a JSON decoding error or a validation error.
func DecodeEdit(kind EntityKind, id int64, payload []byte) (Edit, error) {
	switch kind {
	case KindPost:
		var patch PostPatch
		if err := json.Unmarshal(payload, &patch); err != nil {
			return nil, fmt.Errorf("decode post edit: %w", err)
		}
		if err := patch.Validate(); err != nil {
			return nil, err
		}
		return PostEdit{ID: id, Patch: patch}, nil
	case KindUser:
		edit := UserEdit{ID: id}
		if err := json.Unmarshal(payload, &edit); err != nil {
			return nil, fmt.Errorf("decode user edit: %w", err)
		}
		if err := feedValidate.Struct(edit); err != nil {
			return nil, err
		}
		return edit, nil
	case KindComment:
		edit := CommentEdit{ID: id}
		if err := json.Unmarshal(payload, &edit); err != nil {
			return nil, fmt.Errorf("decode comment edit: %w", err)
		}
		if err := feedValidate.Struct(edit); err != nil {
			return nil, err
		}
		return edit, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEditKind, kind)
	}
}
