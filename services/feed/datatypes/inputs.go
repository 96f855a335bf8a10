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
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Input Limits
// =============================================================================

const (
	// MaxContentBytes bounds post and comment bodies.
	MaxContentBytes = 8 * 1024

	// MaxReferenceLength bounds image, avatar and cover references.
	MaxReferenceLength = 2048

	// MaxPasswordBytes is the bcrypt input limit.
	MaxPasswordBytes = 72
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// feedValidate is the validator instance for feed inputs.
// Initialized in init() with custom validators.
var feedValidate *validator.Validate

var reactionKindPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,31}$`)

func init() {
	feedValidate = validator.New()

	_ = feedValidate.RegisterValidation("reactionkind", validateReactionKind)
}

// validateReactionKind accepts short lowercase labels such as "like",
// "love" or "thumbs_up".
func validateReactionKind(fl validator.FieldLevel) bool {
	return reactionKindPattern.MatchString(fl.Field().String())
}

// =============================================================================
// Create Inputs
// =============================================================================

// NewUser carries the fields needed to register a user.
//
// # Description
//
// Password is plain text on the way in. The store hashes it with bcrypt
// before the row is written; the plain value is never retained.
//
// # Validation
//
//   - Username: required, 2-32 alphanumeric characters
//   - Password: required, 6-72 bytes (bcrypt limit)
//   - Name: required, at most 100 characters
//   - Avatar, CoverImage: optional references
type NewUser struct {
	Username   string `json:"username" validate:"required,min=2,max=32,alphanum"`
	Password   string `json:"password" validate:"required,min=6,max=72"`
	Name       string `json:"name" validate:"required,max=100"`
	Avatar     string `json:"avatar" validate:"omitempty,max=2048"`
	CoverImage string `json:"coverImage" validate:"omitempty,max=2048"`
}

// Validate checks the NewUser fields.
func (u *NewUser) Validate() error {
	return feedValidate.Struct(u)
}

// NewPost carries the fields of a post to create. CreatedAt is assigned
// by the store.
type NewPost struct {
	UserID  int64  `json:"userId" validate:"required,gt=0"`
	Content string `json:"content" validate:"required,max=8192"`
	Image   string `json:"image" validate:"omitempty,max=2048"`
}

// Validate checks the NewPost fields.
func (p *NewPost) Validate() error {
	return feedValidate.Struct(p)
}

// PostPatch is a partial post update. Nil fields are left untouched.
//
// The patch has no identity, owner or timestamp fields, so an update can
// never overwrite them.
type PostPatch struct {
	Content *string `json:"content" validate:"omitempty,max=8192"`
	Image   *string `json:"image" validate:"omitempty,max=2048"`
}

// Validate checks the PostPatch fields.
func (p *PostPatch) Validate() error {
	return feedValidate.Struct(p)
}

// Empty reports whether the patch changes nothing.
func (p PostPatch) Empty() bool {
	return p.Content == nil && p.Image == nil
}

// NewComment carries the fields of a comment to create.
type NewComment struct {
	PostID  int64  `json:"postId" validate:"required,gt=0"`
	UserID  int64  `json:"userId" validate:"required,gt=0"`
	Content string `json:"content" validate:"required,max=8192"`
}

// Validate checks the NewComment fields.
func (c *NewComment) Validate() error {
	return feedValidate.Struct(c)
}

// ReactionRequest is the body of a reaction toggle. An empty Type means
// DefaultReactionKind.
type ReactionRequest struct {
	UserID int64  `json:"userId" validate:"required,gt=0"`
	Type   string `json:"type" validate:"omitempty,reactionkind"`
}

// Validate checks the ReactionRequest fields.
func (r *ReactionRequest) Validate() error {
	return feedValidate.Struct(r)
}

// KindOrDefault returns Type, or DefaultReactionKind when Type is empty.
func (r ReactionRequest) KindOrDefault() string {
	if r.Type == "" {
		return DefaultReactionKind
	}
	return r.Type
}

// NewStory carries the fields of a story to create.
//
// ExpiresAt must be strictly after the creation instant the store assigns.
// HTTP callers may omit it; the handler then fills in the configured
// default lifetime.
type NewStory struct {
	UserID    int64     `json:"userId" validate:"required,gt=0"`
	Image     string    `json:"image" validate:"required,max=2048"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Validate checks the NewStory fields.
func (s *NewStory) Validate() error {
	return feedValidate.Struct(s)
}
