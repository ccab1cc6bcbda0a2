package catalog

import (
	"encoding/json"
	"sort"
)

// StringSet is a set of strings. Iteration order over the underlying map is
// unspecified; Sorted provides a deterministic view. In JSON it serializes
// as a sorted array.
type StringSet map[string]struct{}

// NewStringSet builds a set from the given values, collapsing duplicates.
func NewStringSet(values ...string) StringSet {
	s := make(StringSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts a value into the set.
func (s StringSet) Add(v string) {
	s[v] = struct{}{}
}

// Contains reports whether v is a member.
func (s StringSet) Contains(v string) bool {
	_, ok := s[v]
	return ok
}

// Len returns the number of members.
func (s StringSet) Len() int {
	return len(s)
}

// Sorted returns the members in ascending order.
func (s StringSet) Sorted() []string {
	values := make([]string, 0, len(s))
	for v := range s {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// Equal reports whether two sets have the same members.
func (s StringSet) Equal(other StringSet) bool {
	if len(s) != len(other) {
		return false
	}
	for v := range s {
		if _, ok := other[v]; !ok {
			return false
		}
	}
	return true
}

// MarshalJSON serializes the set as a sorted array. A nil set marshals as
// an empty array, not null.
func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON reads an array of strings, collapsing duplicates.
func (s *StringSet) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*s = NewStringSet(values...)
	return nil
}

// EdgeSet is a set of edges. Duplicate edge records collapse on insertion.
// In JSON it serializes as a sorted array.
type EdgeSet map[Edge]struct{}

// NewEdgeSet builds a set from the given edges.
func NewEdgeSet(edges ...Edge) EdgeSet {
	s := make(EdgeSet, len(edges))
	for _, e := range edges {
		s[e] = struct{}{}
	}
	return s
}

// Add inserts an edge into the set.
func (s EdgeSet) Add(e Edge) {
	s[e] = struct{}{}
}

// Contains reports whether e is a member.
func (s EdgeSet) Contains(e Edge) bool {
	_, ok := s[e]
	return ok
}

// Len returns the number of members.
func (s EdgeSet) Len() int {
	return len(s)
}

// Sorted returns the edges ordered by source, target, then relationship.
func (s EdgeSet) Sorted() []Edge {
	edges := make([]Edge, 0, len(s))
	for e := range s {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.Source != b.Source {
			return lessRef(a.Source, b.Source)
		}
		if a.Target != b.Target {
			return lessRef(a.Target, b.Target)
		}
		return a.Relationship < b.Relationship
	})
	return edges
}

// Equal reports whether two sets have the same members.
func (s EdgeSet) Equal(other EdgeSet) bool {
	if len(s) != len(other) {
		return false
	}
	for e := range s {
		if _, ok := other[e]; !ok {
			return false
		}
	}
	return true
}

// MarshalJSON serializes the set as a sorted array. A nil set marshals as
// an empty array, not null.
func (s EdgeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON reads an array of edges, collapsing duplicates.
func (s *EdgeSet) UnmarshalJSON(data []byte) error {
	var edges []Edge
	if err := json.Unmarshal(data, &edges); err != nil {
		return err
	}
	*s = NewEdgeSet(edges...)
	return nil
}
