package memstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScanner(t *testing.T, live, snapshot *OrderedCellSet, mvcc *MVCC, maxLinearReseeks int) *MemStoreScanner {
	t.Helper()
	if live == nil {
		live = NewOrderedCellSet(FullComparator, -1)
	}
	if snapshot == nil {
		snapshot = NewOrderedCellSet(FullComparator, -1)
	}
	return newMemStoreScanner(
		FullComparator, mvcc,
		live, snapshot,
		nil, nil,
		NewTimeRangeTracker(), NewTimeRangeTracker(),
		0, 0,
		maxLinearReseeks,
	)
}

// TestMemStoreScannerBasicVisibility checks that with MVCC read point 5,
// only writes with writeSeq <= 5 are visible, and peek/next return cells in
// timestamp-descending order within a row.
func TestMemStoreScannerBasicVisibility(t *testing.T) {
	mvcc := NewMVCC()
	live := NewOrderedCellSet(FullComparator, -1)

	c1 := NewCell([]byte("r1"), []byte("f"), []byte("q"), 1, TypePut, []byte("v1"))
	c1.WriteSeq = 3
	c2 := NewCell([]byte("r1"), []byte("f"), []byte("q"), 2, TypePut, []byte("v2"))
	c2.WriteSeq = 4
	c3 := NewCell([]byte("r1"), []byte("f"), []byte("q"), 3, TypePut, []byte("v3"))
	c3.WriteSeq = 7

	live.Add(c1)
	live.Add(c2)
	live.Add(c3)

	for i := 0; i < 5; i++ {
		mvcc.AssignWriteSeq() // bring the write sequence to 5
	}
	require.Equal(t, uint64(5), mvcc.ReadPoint())

	s := newTestScanner(t, live, nil, mvcc, 64)
	defer s.Close()
	require.True(t, s.Seek(firstOnRowAnyColumn([]byte("r1"))))

	first := s.Next()
	require.NotNil(t, first)
	assert.Equal(t, int64(2), first.Timestamp)

	second := s.Next()
	require.NotNil(t, second)
	assert.Equal(t, int64(1), second.Timestamp)

	assert.Nil(t, s.Next(), "writeSeq 7 must not be visible at read point 5")
}

func TestMemStoreScannerPeekDoesNotAdvance(t *testing.T) {
	mvcc := NewMVCC()
	mvcc.AssignWriteSeq()
	live := NewOrderedCellSet(FullComparator, -1)
	c := NewCell([]byte("r"), []byte("f"), []byte("q"), 1, TypePut, []byte("v"))
	c.WriteSeq = 1
	live.Add(c)

	s := newTestScanner(t, live, nil, mvcc, 64)
	defer s.Close()
	require.True(t, s.Seek(&Cell{}))

	peeked := s.Peek()
	require.NotNil(t, peeked)
	assert.Same(t, peeked, s.Peek())
	assert.Same(t, peeked, s.Next())
	assert.Nil(t, s.Next())
}

func TestMemStoreScannerMergesLiveAndSnapshot(t *testing.T) {
	mvcc := NewMVCC()
	mvcc.AssignWriteSeq()

	live := NewOrderedCellSet(FullComparator, -1)
	snap := NewOrderedCellSet(FullComparator, -1)
	liveCell := NewCell([]byte("b"), []byte("f"), []byte("q"), 1, TypePut, []byte("v"))
	liveCell.WriteSeq = 1
	snapCell := NewCell([]byte("a"), []byte("f"), []byte("q"), 1, TypePut, []byte("v"))
	snapCell.WriteSeq = 1
	live.Add(liveCell)
	snap.Add(snapCell)

	s := newTestScanner(t, live, snap, mvcc, 64)
	defer s.Close()
	require.True(t, s.Seek(&Cell{}))

	first := s.Next()
	require.NotNil(t, first)
	assert.Equal(t, "a", string(first.Row))

	second := s.Next()
	require.NotNil(t, second)
	assert.Equal(t, "b", string(second.Row))
}

func TestMemStoreScannerCloseIsIdempotentAndUnpinsArenas(t *testing.T) {
	pool := NewArenaPool(64, 4)
	arena := NewArena(pool, 64)
	arena.PinScanner()
	// Simulate the pin a real scanner holds without going through
	// newMemStoreScanner, so Close below unpins exactly the pin we took.
	s := newMemStoreScanner(
		FullComparator, NewMVCC(),
		NewOrderedCellSet(FullComparator, -1), NewOrderedCellSet(FullComparator, -1),
		nil, nil,
		NewTimeRangeTracker(), NewTimeRangeTracker(),
		0, 0, 64,
	)
	s.liveArenaRef = arena

	s.Close()
	assert.Equal(t, 0, pool.chunks.Len(), "arena not yet closed by its owner: chunk must not return to the pool")
	arena.Close()
	assert.Equal(t, 1, pool.chunks.Len())

	s.Close() // idempotent
}

func TestMemStoreScannerReseekFallsBackAfterLinearBudgetExhausted(t *testing.T) {
	mvcc := NewMVCC()
	mvcc.AssignWriteSeq()
	live := NewOrderedCellSet(FullComparator, -1)
	for i := 0; i < 50; i++ {
		c := NewCell([]byte{byte(i)}, []byte("f"), []byte("q"), 1, TypePut, []byte("v"))
		c.WriteSeq = 1
		live.Add(c)
	}

	s := newTestScanner(t, live, nil, mvcc, 5)
	defer s.Close()
	require.True(t, s.Seek(&Cell{}))

	target := CreateFirstOnRow([]byte{40}, []byte("f"), []byte("q"))
	require.True(t, s.Reseek(target))
	assert.Equal(t, 1, s.FallbackSeeks())

	got := s.Peek()
	require.NotNil(t, got)
	assert.Equal(t, byte(40), got.Row[0])
}

func TestMemStoreScannerSequenceIdIsMaximal(t *testing.T) {
	s := newTestScanner(t, nil, nil, NewMVCC(), 64)
	defer s.Close()
	assert.Equal(t, ^uint64(0), s.SequenceId())
}

func TestMemStoreScannerPassesDeleteColumnCheck(t *testing.T) {
	s := newMemStoreScanner(
		FullComparator, NewMVCC(),
		NewOrderedCellSet(FullComparator, -1), NewOrderedCellSet(FullComparator, -1),
		nil, nil,
		NewTimeRangeTracker(), NewTimeRangeTracker(),
		0, 0, 64,
	)
	defer s.Close()
	assert.False(t, s.PassesDeleteColumnCheck())

	withDeletes := newMemStoreScanner(
		FullComparator, NewMVCC(),
		NewOrderedCellSet(FullComparator, -1), NewOrderedCellSet(FullComparator, -1),
		nil, nil,
		NewTimeRangeTracker(), NewTimeRangeTracker(),
		1, 0, 64,
	)
	defer withDeletes.Close()
	assert.True(t, withDeletes.PassesDeleteColumnCheck())
}

func TestMemStoreScannerShouldUseScanner(t *testing.T) {
	liveTR := NewTimeRangeTracker()
	liveTR.Update(100)
	s := newMemStoreScanner(
		FullComparator, NewMVCC(),
		NewOrderedCellSet(FullComparator, -1), NewOrderedCellSet(FullComparator, -1),
		nil, nil,
		liveTR, NewTimeRangeTracker(),
		0, 0, 64,
	)
	defer s.Close()

	assert.True(t, s.ShouldUseScanner(50, 150, 0))
	assert.False(t, s.ShouldUseScanner(200, 300, 0))
	assert.False(t, s.ShouldUseScanner(50, 150, 101), "oldestUnexpiredTs above the tracked max must exclude the scanner")
}
