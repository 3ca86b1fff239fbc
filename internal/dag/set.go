// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

package dag

// Set is a set of vertices.
type Set map[Vertex]struct{}

// Add adds an item to the set.
func (s Set) Add(v Vertex) {
	s[v] = struct{}{}
}

// Delete removes an item from the set.
func (s Set) Delete(v Vertex) {
	delete(s, v)
}

// Include returns true if the set includes the given item.
func (s Set) Include(v Vertex) bool {
	_, ok := s[v]
	return ok
}

// List returns the contents of the set in unspecified order.
func (s Set) List() []Vertex {
	if s == nil {
		return nil
	}
	r := make([]Vertex, 0, len(s))
	for v := range s {
		r = append(r, v)
	}
	return r
}

// Len returns the number of items in the set.
func (s Set) Len() int {
	return len(s)
}
