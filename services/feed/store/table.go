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

import "github.com/AleutianAI/AleutianFeed/services/feed/datatypes"

// table is the keyed collection of one entity kind.
//
// Rows are stored by value, so get and values hand out copies. lastID only
// ever grows: identities start at 1 and are never reused, even after a
// row is removed.
//
// table is not synchronized; the owning Store serializes access.
type table[T any] struct {
	kind   datatypes.EntityKind
	rows   map[int64]T
	lastID int64
}

func newTable[T any](kind datatypes.EntityKind) *table[T] {
	return &table[T]{
		kind: kind,
		rows: make(map[int64]T),
	}
}

// nextID allocates the next identity of this kind.
func (t *table[T]) nextID() int64 {
	t.lastID++
	return t.lastID
}

func (t *table[T]) put(id int64, row T) {
	t.rows[id] = row
}

func (t *table[T]) get(id int64) (T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

// remove deletes the row and reports whether it existed.
func (t *table[T]) remove(id int64) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	return true
}

// values returns every row in map order. Callers sort.
func (t *table[T]) values() []T {
	out := make([]T, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, row)
	}
	return out
}

// filter returns the rows for which keep is true, in map order. The
// result is never nil.
func (t *table[T]) filter(keep func(T) bool) []T {
	out := make([]T, 0)
	for _, row := range t.rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}

func (t *table[T]) len() int {
	return len(t.rows)
}
