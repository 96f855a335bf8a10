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
	"errors"
	"fmt"

	"github.com/AleutianAI/AleutianFeed/services/feed/datatypes"
)

// =============================================================================
// Error Taxonomy
// =============================================================================

var (
	// ErrNotFound matches every NotFoundError via errors.Is.
	ErrNotFound = errors.New("not found")

	// ErrValidation matches every ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("store is closed")
)

// NotFoundError reports an identity absent from its collection.
type NotFoundError struct {
	Kind datatypes.EntityKind
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError reports input that violates a store constraint.
//
// Field names the offending input and Constraint the rule it broke, e.g.
// Field "expiresAt", Constraint "must be after creation time".
type ValidationError struct {
	Field      string
	Constraint string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Constraint)
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func notFound(kind datatypes.EntityKind, id int64) error {
	return &NotFoundError{Kind: kind, ID: id}
}

func invalid(field, constraint string) error {
	return &ValidationError{Field: field, Constraint: constraint}
}
