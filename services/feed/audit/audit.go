// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package audit records administrative and destructive feed operations.
//
// The service wires a Memory log bounded by audit.capacity; a zero
// capacity selects Nop. Events are kept in process only and vanish on
// restart, like the rest of the feed.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types recorded by the handlers.
const (
	EventUserCreated  = "user.create"
	EventPostDeleted  = "post.delete"
	EventAdminEdit    = "admin.edit"
	OutcomeSuccess    = "success"
	OutcomeRejected   = "rejected"
	defaultQueryLimit = 100
)

// Event is one audited operation.
type Event struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Timestamp    time.Time      `json:"timestamp"`
	RequestID    string         `json:"requestId,omitempty"`
	ResourceType string         `json:"resourceType"`
	ResourceID   int64          `json:"resourceId"`
	Outcome      string         `json:"outcome"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Filter selects events for Query. Zero fields match everything.
type Filter struct {
	Type         string
	ResourceType string
	Since        time.Time

	// Limit caps the result. Zero means 100.
	Limit int
}

func (f Filter) matches(e Event) bool {
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.ResourceType != "" && e.ResourceType != f.ResourceType {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	return true
}

// Logger records and retrieves audit events.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type Logger interface {
	// Log records the event. ID and Timestamp are filled in when empty.
	Log(ctx context.Context, event Event) error

	// Query returns matching events, newest first.
	Query(ctx context.Context, filter Filter) ([]Event, error)
}

// =============================================================================
// Nop
// =============================================================================

// Nop discards every event.
type Nop struct{}

func (Nop) Log(context.Context, Event) error { return nil }

func (Nop) Query(context.Context, Filter) ([]Event, error) { return []Event{}, nil }

var _ Logger = Nop{}

// =============================================================================
// Memory
// =============================================================================

// Memory keeps the most recent events in a fixed-size ring.
//
// # Thread Safety
//
// Thread-safe. All access is guarded by a mutex.
type Memory struct {
	mu     sync.Mutex
	events []Event
	next   int
	full   bool
	now    func() time.Time
}

// NewMemory creates a ring holding up to capacity events. now stamps events
// logged without a timestamp; nil uses time.Now.
//
// # Inputs
//
//   - capacity: Ring size. Must be positive.
//   - now: Clock for missing timestamps.
func NewMemory(capacity int, now func() time.Time) *Memory {
	if capacity < 1 {
		capacity = 1
	}
	if now == nil {
		now = time.Now
	}
	return &Memory{events: make([]Event, capacity), now: now}
}

// Log stores the event, overwriting the oldest once the ring is full.
func (m *Memory) Log(_ context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = m.now()
	}
	m.events[m.next] = event
	m.next = (m.next + 1) % len(m.events)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

// Query walks the ring from newest to oldest.
func (m *Memory) Query(_ context.Context, filter Filter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	size := m.next
	if m.full {
		size = len(m.events)
	}
	out := make([]Event, 0, min(size, limit))
	for i := 0; i < size && len(out) < limit; i++ {
		idx := (m.next - 1 - i + len(m.events)) % len(m.events)
		if e := m.events[idx]; filter.matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Len reports how many events are held.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.full {
		return len(m.events)
	}
	return m.next
}

var _ Logger = (*Memory)(nil)
