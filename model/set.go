package model

import "sort"

// StringSet is an unordered set of strings. The zero value is an empty set.
// It encodes as a map, so deterministic encoders produce identical bytes for
// equal sets.
type StringSet map[string]struct{}

// NewStringSet creates a set holding values.
func NewStringSet(values ...string) StringSet {
	s := make(StringSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts v, allocating the set if needed.
func (s *StringSet) Add(v string) {
	if *s == nil {
		*s = make(StringSet)
	}
	(*s)[v] = struct{}{}
}

// Has reports whether v is in the set.
func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Len returns the number of elements.
func (s StringSet) Len() int {
	return len(s)
}

// Sorted returns the elements in ascending order.
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Union returns a new set with the elements of both sets, or nil when both
// are empty.
func (s StringSet) Union(other StringSet) StringSet {
	if len(s) == 0 && len(other) == 0 {
		return nil
	}
	out := make(StringSet, len(s)+len(other))
	for v := range s {
		out[v] = struct{}{}
	}
	for v := range other {
		out[v] = struct{}{}
	}
	return out
}
