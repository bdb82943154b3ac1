package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestPageIDSet_Add tests insertion and deduplication
func TestPageIDSet_Add(t *testing.T) {
	s := NewPageIDSet()

	assert.True(t, s.Add(42))
	assert.True(t, s.Add(7))
	assert.True(t, s.Add(100))
	assert.False(t, s.Add(42), "duplicate must be rejected")

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []int64{7, 42, 100}, s.IDs())
}

// TestPageIDSet_OrderIndependence tests that iteration order does not
// depend on insertion order
func TestPageIDSet_OrderIndependence(t *testing.T) {
	a := NewPageIDSet()
	b := NewPageIDSet()

	for _, id := range []int64{5, 3, 9, 1, 3, 5} {
		a.Add(id)
	}
	for _, id := range []int64{1, 9, 5, 3, 9, 1} {
		b.Add(id)
	}

	assert.Equal(t, a.IDs(), b.IDs())
	assert.Equal(t, []int64{1, 3, 5, 9}, a.IDs())
}

// TestPageIDSet_StrictlyIncreasing tests the SearchResult invariant
func TestPageIDSet_StrictlyIncreasing(t *testing.T) {
	s := NewPageIDSet()
	for _, id := range []int64{10, 2, 2, 8, 10, 4, 6} {
		s.Add(id)
	}

	ids := s.IDs()
	for i := 1; i < len(ids); i++ {
		assert.Greater(t, ids[i], ids[i-1])
	}
	assert.Equal(t, s.Len(), len(ids))
}

// TestPageIDSet_Contains tests membership checks
func TestPageIDSet_Contains(t *testing.T) {
	s := NewPageIDSet()
	s.Add(11)
	s.Add(13)

	assert.True(t, s.Contains(11))
	assert.False(t, s.Contains(12))
}

// TestPageIDSet_IDsCopy tests that the returned slice is detached
func TestPageIDSet_IDsCopy(t *testing.T) {
	s := NewPageIDSet()
	s.Add(1)
	s.Add(2)

	ids := s.IDs()
	ids[0] = 99

	assert.Equal(t, []int64{1, 2}, s.IDs())
}
