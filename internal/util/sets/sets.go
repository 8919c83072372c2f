// Package sets provides a small generic set type.
package sets

import (
	"cmp"
	"slices"
)

// Set is a collection of unique comparable items.
type Set[T comparable] map[T]struct{}

// New creates a Set containing the given items.
func New[T comparable](items ...T) Set[T] {
	s := make(Set[T], len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

// Add inserts item into the set.
func (s Set[T]) Add(item T) {
	s[item] = struct{}{}
}

// Contains reports whether item is in the set.
func (s Set[T]) Contains(item T) bool {
	_, ok := s[item]
	return ok
}

// Remove deletes item from the set.
func (s Set[T]) Remove(item T) {
	delete(s, item)
}

// Len returns the number of items.
func (s Set[T]) Len() int {
	return len(s)
}

// Items returns the set contents in unspecified order.
func (s Set[T]) Items() []T {
	items := make([]T, 0, len(s))
	for item := range s {
		items = append(items, item)
	}
	return items
}

// Sorted returns the contents of s in ascending order. Artifact emission
// uses it wherever set iteration order would otherwise leak into output.
func Sorted[T cmp.Ordered](s Set[T]) []T {
	items := s.Items()
	slices.Sort(items)
	return items
}
