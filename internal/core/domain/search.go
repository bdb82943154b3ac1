package domain

import "sort"

// PageIDSet is an ordered, duplicate-rejecting set of page identifiers.
// Insertion order does not matter: iteration is always ascending, so the
// merged result is independent of how pages were discovered (sequentially
// or concurrently). Duplicates arise because result offsets can shift
// between paginated requests.
type PageIDSet struct {
	ids []int64
}

// NewPageIDSet creates an empty set.
func NewPageIDSet() *PageIDSet {
	return &PageIDSet{}
}

// Add inserts id, keeping the set sorted. Returns true if the id was new.
func (s *PageIDSet) Add(id int64) bool {
	i := sort.Search(len(s.ids), func(i int) bool { return s.ids[i] >= id })
	if i < len(s.ids) && s.ids[i] == id {
		return false
	}
	s.ids = append(s.ids, 0)
	copy(s.ids[i+1:], s.ids[i:])
	s.ids[i] = id
	return true
}

// Contains reports whether id is in the set.
func (s *PageIDSet) Contains(id int64) bool {
	i := sort.Search(len(s.ids), func(i int) bool { return s.ids[i] >= id })
	return i < len(s.ids) && s.ids[i] == id
}

// Len returns the number of unique identifiers.
func (s *PageIDSet) Len() int {
	return len(s.ids)
}

// IDs returns the identifiers in ascending order.
// The returned slice is a copy; mutating it does not affect the set.
func (s *PageIDSet) IDs() []int64 {
	out := make([]int64, len(s.ids))
	copy(out, s.ids)
	return out
}

// SearchResult is the outcome of a paginated search for a query.
//
// Invariants: IDs is strictly increasing with no duplicates,
// TotalRetrieved == len(IDs), and TotalRetrieved <= Query.Limit.
type SearchResult struct {
	// Query is the query that produced this result.
	Query Query

	// IDs is the deduplicated, ascending set of page identifiers.
	IDs []int64

	// TotalMatched is the server-reported total of matching content,
	// which may exceed both Limit and the number of page-kind entries.
	TotalMatched int

	// TotalRetrieved is the number of unique page identifiers retrieved.
	TotalRetrieved int
}
