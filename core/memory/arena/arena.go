// Copyright (C) 2024 The Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package arena implements a generic bump-allocating arena: a single
// growable slice that owns every value of one type for the lifetime of a
// parse. The config engine allocates every class body from one Arena[Class]
// per parse and refers to children by Ref (a slice index) rather than by
// pointer, which keeps the tree cache-local and makes the nested-class
// offset fixups of the rapifier (§4.1.3) a simple second pass over a flat
// slice instead of a pointer-chasing tree walk.
package arena

// Ref is an index into an Arena. The zero Ref is never issued by New, so it
// doubles as a "no value" sentinel for optional parent/child links.
type Ref int

// Arena owns every T allocated from it. It is not safe for concurrent use;
// each parse owns exactly one Arena, matching §5's "all writable
// per-pipeline state … is owned by one task."
type Arena[T any] struct {
	items []T
}

// New allocates a new T, appends it to the arena, and returns a Ref to it.
// The returned Ref stays valid for the lifetime of the Arena; appending
// more items never invalidates previously issued Refs (Go slice growth
// copies values, but Refs are indices, not pointers).
func (a *Arena[T]) New(v T) Ref {
	a.items = append(a.items, v)
	return Ref(len(a.items))
}

// At dereferences ref. Passing the zero Ref panics; callers should check
// ref != 0 (or use Valid) first.
func (a *Arena[T]) At(ref Ref) *T {
	return &a.items[ref-1]
}

// Valid reports whether ref was actually issued by this arena.
func (a *Arena[T]) Valid(ref Ref) bool {
	return ref > 0 && int(ref) <= len(a.items)
}

// Len returns the number of items allocated so far.
func (a *Arena[T]) Len() int { return len(a.items) }

// All returns the backing slice in allocation order. Index i holds the
// value for Ref(i+1).
func (a *Arena[T]) All() []T { return a.items }
