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
	"strings"

	"github.com/AleutianAI/AleutianFeed/services/feed/datatypes"
	"golang.org/x/crypto/bcrypt"
)

// =============================================================================
// Users
// =============================================================================

// CreateUser registers a user and returns the stored row.
//
// # Description
//
// The password is hashed with bcrypt before the write lock is taken; only
// the hash is kept. Usernames are unique: a second user with the same
// username fails with a ValidationError and allocates no identity.
//
// # Inputs
//
//   - in: Shape-validated fields. Username must be non-empty.
//
// # Outputs
//
//   - datatypes.User: The stored row with its assigned id.
//   - error: *ValidationError (empty or duplicate username, password too
//     long), ErrClosed, or a wrapped hashing failure.
//
// # Thread Safety
//
// Safe for concurrent use. The uniqueness check and the insert happen in
// the same critical section.
func (s *Store) CreateUser(in datatypes.NewUser) (datatypes.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return datatypes.User{}, invalid("username", "must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return datatypes.User{}, invalid("password", "must be at most 72 bytes")
		}
		return datatypes.User{}, fmt.Errorf("hash password: %w", err)
	}

	if err := s.lockWrite(); err != nil {
		return datatypes.User{}, err
	}
	defer s.mu.Unlock()

	if _, taken := s.usernames[username]; taken {
		return datatypes.User{}, invalid("username", "already taken")
	}

	user := datatypes.User{
		ID:           s.users.nextID(),
		Username:     username,
		Name:         in.Name,
		Avatar:       in.Avatar,
		CoverImage:   in.CoverImage,
		PasswordHash: string(hash),
	}
	s.users.put(user.ID, user)
	s.usernames[username] = user.ID

	s.logger.Info("user created", "user_id", user.ID, "username", username)
	return user, nil
}

// GetUser returns the user with id, or a NotFoundError.
func (s *Store) GetUser(id int64) (datatypes.User, error) {
	var user datatypes.User
	err := s.View(func(r *Reader) error {
		u, ok := r.User(id)
		if !ok {
			return notFound(datatypes.KindUser, id)
		}
		user = u
		return nil
	})
	return user, err
}

// GetUserByUsername resolves a username, or returns a NotFoundError with
// a zero ID.
func (s *Store) GetUserByUsername(username string) (datatypes.User, error) {
	var user datatypes.User
	err := s.View(func(r *Reader) error {
		u, ok := r.UserByUsername(username)
		if !ok {
			return fmt.Errorf("username %q: %w", username, notFound(datatypes.KindUser, 0))
		}
		user = u
		return nil
	})
	return user, err
}

// ListUsers returns every user in ascending id order.
func (s *Store) ListUsers() ([]datatypes.User, error) {
	var users []datatypes.User
	err := s.View(func(r *Reader) error {
		users = r.Users()
		return nil
	})
	return users, err
}

// CheckPassword reports whether password matches the stored hash of the
// user with username. Unknown usernames report false.
func (s *Store) CheckPassword(username, password string) (bool, error) {
	user, err := s.GetUserByUsername(username)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil, nil
}
