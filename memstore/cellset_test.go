package memstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cellRow(row string, ts int64) *Cell {
	return NewCell([]byte(row), []byte("f"), []byte("q"), ts, TypePut, []byte("v"))
}

func TestOrderedCellSetAddIsSetNotMap(t *testing.T) {
	s := NewOrderedCellSet(FullComparator, -1)
	c1 := cellRow("r", 1)
	c2 := cellRow("r", 1) // compares equal to c1 under FullComparator

	assert.True(t, s.Add(c1))
	assert.False(t, s.Add(c2), "second insert at an equal key must be rejected")
	assert.Equal(t, 1, s.Len())
}

func TestOrderedCellSetContains(t *testing.T) {
	s := NewOrderedCellSet(FullComparator, -1)
	c := cellRow("r", 1)
	require.True(t, s.Add(c))
	assert.True(t, s.Contains(cellRow("r", 1)))
	assert.False(t, s.Contains(cellRow("r", 2)))
}

func TestOrderedCellSetHeadAndTailRange(t *testing.T) {
	s := NewOrderedCellSet(FullComparator, -1)
	for _, row := range []string{"a", "b", "c", "d"} {
		s.Add(cellRow(row, 1))
	}

	probe := CreateFirstOnRow([]byte("c"), []byte("f"), []byte("q"))
	head := s.HeadRange(probe, true)
	require.Len(t, head, 2)
	assert.Equal(t, "a", string(head[0].Row))
	assert.Equal(t, "b", string(head[1].Row))

	tail := s.TailRange(probe)
	require.Len(t, tail, 2)
	assert.Equal(t, "c", string(tail[0].Row))
	assert.Equal(t, "d", string(tail[1].Row))
}

func TestOrderedCellSetIteratorIsWeaklyConsistentSnapshot(t *testing.T) {
	s := NewOrderedCellSet(FullComparator, -1)
	s.Add(cellRow("a", 1))
	s.Add(cellRow("b", 1))

	it := s.Iterator()
	s.Add(cellRow("c", 1)) // must not be observed by the already-created iterator

	var seen []string
	for it.HasNext() {
		seen = append(seen, string(it.Next().Row))
	}
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestOrderedCellSetDescendingIterator(t *testing.T) {
	s := NewOrderedCellSet(FullComparator, -1)
	s.Add(cellRow("a", 1))
	s.Add(cellRow("b", 1))
	s.Add(cellRow("c", 1))

	it := s.DescendingIterator()
	var seen []string
	for it.HasNext() {
		seen = append(seen, string(it.Next().Row))
	}
	assert.Equal(t, []string{"c", "b", "a"}, seen)
}

func TestSetIteratorRemoveDeletesLastReturnedCell(t *testing.T) {
	s := NewOrderedCellSet(FullComparator, -1)
	s.Add(cellRow("a", 1))
	s.Add(cellRow("b", 1))

	it := s.Iterator()
	it.Next()
	it.Remove()

	assert.Equal(t, 1, s.Len())
	assert.False(t, s.Contains(cellRow("a", 1)))
}

func TestSetIteratorRemoveWithoutNextIsNoOp(t *testing.T) {
	s := NewOrderedCellSet(FullComparator, -1)
	s.Add(cellRow("a", 1))

	it := s.Iterator()
	it.Remove() // no preceding Next: must be a no-op

	assert.Equal(t, 1, s.Len())
}

func TestOrderedCellSetMayContainRowPrefixWithBloomDisabled(t *testing.T) {
	s := NewOrderedCellSet(FullComparator, -1)
	assert.True(t, s.MayContainRowPrefix(cellRow("anything", 1)))
}

func TestOrderedCellSetMayContainRowPrefixWithBloomEnabled(t *testing.T) {
	s := NewOrderedCellSet(FullComparator, 2)
	s.Add(cellRow("ab12345", 1))

	assert.True(t, s.MayContainRowPrefix(cellRow("ab99999", 1)), "same 2-byte row prefix must be admitted")
}
