// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store provides the in-memory entity store behind the feed.
//
// The store keeps one keyed collection per entity kind (users, posts,
// comments, likes, stories) and enforces the cross-entity rules of the
// feed:
//
//   - Identities are assigned per kind, start at 1 and are never reused.
//   - Comments and likes can only be created for an existing post.
//   - Deleting a post removes its comments and likes in the same step.
//   - A user holds at most one reaction per post; re-sending the same
//     reaction removes it, sending a different one switches it in place.
//   - Stories are hidden from every listing once they expire.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────┐
//	│                          Store                           │
//	│  RWMutex ── users │ posts │ comments │ likes │ stories   │
//	│             usernames index        like (post,user) index│
//	└──────────────────────────────────────────────────────────┘
//	        ▲ locked operations           ▲ View(func(*Reader))
//	   handlers / ttl scheduler       projector (one snapshot)
//
// # Thread Safety
//
// A single RWMutex guards every collection. Mutations take the write lock
// for their whole read-decide-write sequence, so a cascading delete or a
// reaction toggle is never observed half-applied. Reads and projections
// take the read lock.
//
// # Limitations
//
//   - Nothing survives a restart.
//   - Post and comment inserts are not checked against the users
//     collection. Callers validate user ids before inserting.
package store

import (
	"log/slog"
	"sync"
	"time"

	"github.com/AleutianAI/AleutianFeed/services/feed/clock"
	"github.com/AleutianAI/AleutianFeed/services/feed/datatypes"
	"golang.org/x/crypto/bcrypt"
)

// =============================================================================
// Store
// =============================================================================

// pairKey identifies the single reaction slot of a user on a post.
type pairKey struct {
	postID int64
	userID int64
}

// Store is the process-wide feed store. Create it with New and release it
// with Close; pass the handle to collaborators instead of keeping a global.
type Store struct {
	mu     sync.RWMutex
	closed bool

	clock      clock.Clock
	logger     *slog.Logger
	bcryptCost int

	users    *table[datatypes.User]
	posts    *table[datatypes.Post]
	comments *table[datatypes.Comment]
	likes    *table[datatypes.Like]
	stories  *table[datatypes.Story]

	usernames map[string]int64
	likePairs map[pairKey]int64
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for creation instants and expiry checks.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger for mutation events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBcryptCost sets the cost used to hash user passwords. Values outside
// bcrypt's range fall back to bcrypt.DefaultCost.
func WithBcryptCost(cost int) Option {
	return func(s *Store) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

// New creates an empty Store.
//
// # Description
//
// The store starts with no rows and every identity counter at zero, so the
// first row of each kind gets identity 1. Seeding is left to the caller.
//
// # Examples
//
//	st := store.New(store.WithLogger(logger))
//	defer st.Close()
//	u, err := st.CreateUser(datatypes.NewUser{Username: "alex", ...})
func New(opts ...Option) *Store {
	s := &Store{
		clock:      clock.System{},
		logger:     slog.Default(),
		bcryptCost: bcrypt.DefaultCost,
		users:      newTable[datatypes.User](datatypes.KindUser),
		posts:      newTable[datatypes.Post](datatypes.KindPost),
		comments:   newTable[datatypes.Comment](datatypes.KindComment),
		likes:      newTable[datatypes.Like](datatypes.KindLike),
		stories:    newTable[datatypes.Story](datatypes.KindStory),
		usernames:  make(map[string]int64),
		likePairs:  make(map[pairKey]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the stored rows. Every later call fails with ErrClosed.
// Safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.users, s.posts, s.comments, s.likes, s.stories = nil, nil, nil, nil, nil
	s.usernames, s.likePairs = nil, nil
	s.logger.Info("feed store closed")
	return nil
}

// View runs fn with a Reader over one consistent snapshot of the store.
//
// # Description
//
// fn runs while the read lock is held, so everything it reads belongs to
// the same state: a post seen through the Reader still has all of its
// comments and likes. fn must not call other Store methods (the lock is
// not reentrant) and must not retain the Reader after returning.
//
// # Outputs
//
//   - error: ErrClosed after Close, otherwise whatever fn returns.
func (s *Store) View(fn func(r *Reader) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrClosed
	}
	return fn(&Reader{s: s})
}

// Now returns the current time of the store clock.
func (s *Store) Now() time.Time {
	return s.clock.Now()
}

// Counts returns the number of stored rows per kind, expired stories
// included.
func (s *Store) Counts() (map[datatypes.EntityKind]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	return map[datatypes.EntityKind]int{
		datatypes.KindUser:    s.users.len(),
		datatypes.KindPost:    s.posts.len(),
		datatypes.KindComment: s.comments.len(),
		datatypes.KindLike:    s.likes.len(),
		datatypes.KindStory:   s.stories.len(),
	}, nil
}

// lockWrite takes the write lock and reports ErrClosed after Close. On
// success the caller must call s.mu.Unlock.
func (s *Store) lockWrite() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	return nil
}
