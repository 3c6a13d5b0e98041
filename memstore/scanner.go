package memstore

import "sync"

// MemStoreScanner is a snapshot-consistent merging scanner over a
// MemStore's live set and snapshot set. It captures both sets, both Arenas,
// and both delete counters at construction time. Each Seek (including a
// Reseek that falls back to one) copies the cells the captured sets hold at
// that moment; writes that land after that copy are not observed until the
// next Seek. A flush that rotates the live/snapshot sets out from under it
// is never observed, so the enclosing store scanner (an external
// collaborator) has to re-create its memstore scanners.
type MemStoreScanner struct {
	cmp  Comparator
	mvcc *MVCC

	liveRef     *OrderedCellSet
	snapshotRef *OrderedCellSet

	liveArenaRef     *Arena
	snapshotArenaRef *Arena

	liveTimeRange     *TimeRangeTracker
	snapshotTimeRange *TimeRangeTracker

	liveDeletes     uint64
	snapshotDeletes uint64

	maxLinearReseeks int

	mu            sync.Mutex
	liveIt        *SetIterator
	snapshotIt    *SetIterator
	liveNext      *Cell
	snapshotNext  *Cell
	readPoint     uint64
	steps         int
	fallbackSeeks int
	closed        bool
}

// newMemStoreScanner builds a scanner over the given live/snapshot pair,
// pinning both Arenas so their chunks cannot return to the pool while this
// scanner holds references into them.
func newMemStoreScanner(
	cmp Comparator,
	mvcc *MVCC,
	live, snapshot *OrderedCellSet,
	liveArena, snapshotArena *Arena,
	liveTimeRange, snapshotTimeRange *TimeRangeTracker,
	liveDeletes, snapshotDeletes uint64,
	maxLinearReseeks int,
) *MemStoreScanner {
	liveArena.PinScanner()
	snapshotArena.PinScanner()

	return &MemStoreScanner{
		cmp:               cmp,
		mvcc:              mvcc,
		liveRef:           live,
		snapshotRef:       snapshot,
		liveArenaRef:      liveArena,
		snapshotArenaRef:  snapshotArena,
		liveTimeRange:     liveTimeRange,
		snapshotTimeRange: snapshotTimeRange,
		liveDeletes:       liveDeletes,
		snapshotDeletes:   snapshotDeletes,
		maxLinearReseeks:  maxLinearReseeks,
	}
}

func advanceToVisible(it *SetIterator, readPoint uint64) *Cell {
	for it.HasNext() {
		c := it.Next()
		if c.WriteSeq <= readPoint {
			return c
		}
	}
	return nil
}

// Seek positions the scanner at the first cell (in each of the live and
// snapshot sets) at or after key that is visible to the reader's current
// MVCC read point, which is (re-)fetched from MVCC here rather than at
// construction time.
func (s *MemStoreScanner) Seek(key *Cell) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seekLocked(key)
}

func (s *MemStoreScanner) seekLocked(key *Cell) bool {
	s.readPoint = s.mvcc.ReadPoint()
	s.steps = 0
	s.liveIt = &SetIterator{set: s.liveRef, items: s.liveRef.TailRange(key)}
	s.snapshotIt = &SetIterator{set: s.snapshotRef, items: s.snapshotRef.TailRange(key)}
	s.liveNext = advanceToVisible(s.liveIt, s.readPoint)
	s.snapshotNext = advanceToVisible(s.snapshotIt, s.readPoint)
	return s.liveNext != nil || s.snapshotNext != nil
}

// Reseek performs a bounded linear advance toward key: each step that either
// look-ahead still compares less than key costs one unit of the scanner's
// maxLinearReseeks budget, spent greedily on the live iterator first, then
// the snapshot iterator. Exceeding the budget falls through to a full Seek.
func (s *MemStoreScanner) Reseek(key *Cell) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readPoint = s.mvcc.ReadPoint()

	for s.liveNext != nil && s.cmp.Compare(s.liveNext, key) < 0 {
		if s.steps >= s.maxLinearReseeks {
			s.fallbackSeeks++
			return s.seekLocked(key)
		}
		s.steps++
		s.liveNext = advanceToVisible(s.liveIt, s.readPoint)
	}
	for s.snapshotNext != nil && s.cmp.Compare(s.snapshotNext, key) < 0 {
		if s.steps >= s.maxLinearReseeks {
			s.fallbackSeeks++
			return s.seekLocked(key)
		}
		s.steps++
		s.snapshotNext = advanceToVisible(s.snapshotIt, s.readPoint)
	}
	return s.liveNext != nil || s.snapshotNext != nil
}

// FallbackSeeks reports how many times Reseek has fallen through to a full
// Seek because the linear budget was exhausted. Exposed for tests that
// exercise the reseek fallback path.
func (s *MemStoreScanner) FallbackSeeks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fallbackSeeks
}

// Peek returns the smaller of the two look-ahead cells under the scanner's
// comparator, without advancing, or nil if both are exhausted.
func (s *MemStoreScanner) Peek() *Cell {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peekLocked()
}

func (s *MemStoreScanner) peekLocked() *Cell {
	switch {
	case s.liveNext == nil:
		return s.snapshotNext
	case s.snapshotNext == nil:
		return s.liveNext
	case s.cmp.Compare(s.liveNext, s.snapshotNext) <= 0:
		return s.liveNext
	default:
		return s.snapshotNext
	}
}

// Next returns and consumes the lower of the two look-aheads, advancing
// whichever iterator it came from, or nil if both are exhausted.
func (s *MemStoreScanner) Next() *Cell {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.peekLocked()
	if c == nil {
		return nil
	}
	if c == s.liveNext {
		s.liveNext = advanceToVisible(s.liveIt, s.readPoint)
	} else {
		s.snapshotNext = advanceToVisible(s.snapshotIt, s.readPoint)
	}
	return c
}

// Close drops the scanner's iterators and unpins both Arenas. It is
// idempotent: calling Close twice is safe and the second call does nothing.
func (s *MemStoreScanner) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.liveIt, s.snapshotIt = nil, nil
	s.liveNext, s.snapshotNext = nil, nil
	s.liveArenaRef.UnpinScanner()
	s.snapshotArenaRef.UnpinScanner()
}

// SequenceId always reports the maximum possible sequence, because a
// MemStore's contents are always newer than anything already flushed to an
// on-disk file: the memstore must win every tie-break against file scanners
// merging on the same key.
func (s *MemStoreScanner) SequenceId() uint64 {
	return ^uint64(0)
}

// ShouldUseScanner reports whether this scanner (and by extension its
// owning MemStore) needs to participate in a scan covering [lo, hi],
// delegating to the same time-range/oldest-unexpired test as
// MemStore.ShouldSeek.
func (s *MemStoreScanner) ShouldUseScanner(lo, hi, oldestUnexpiredTs int64) bool {
	return shouldSeek(s.liveTimeRange, s.snapshotTimeRange, lo, hi, oldestUnexpiredTs)
}

// PassesDeleteColumnCheck reports whether either captured set held at least
// one delete marker at scanner-creation time.
func (s *MemStoreScanner) PassesDeleteColumnCheck() bool {
	return s.liveDeletes+s.snapshotDeletes > 0
}

// PassesRowKeyPrefixBloomFilter reports whether either captured set's
// row-prefix Bloom filter admits c's row.
func (s *MemStoreScanner) PassesRowKeyPrefixBloomFilter(c *Cell) bool {
	return s.liveRef.MayContainRowPrefix(c) || s.snapshotRef.MayContainRowPrefix(c)
}
