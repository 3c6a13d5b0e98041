package memstore

import (
	"sync"

	"github.com/cespare/xxhash"
	"github.com/google/btree"
	"github.com/greatroar/blobloom"
)

const btreeDegree = 32

// cellItem adapts a *Cell to btree.Item using the set's configured
// comparator, so the same OrderedCellSet implementation serves the live
// set, the snapshot set, or any future set keyed by a different comparator
// variant (full / ignore-timestamp / ignore-type).
type cellItem struct {
	cell *Cell
	cmp  Comparator
}

func (i *cellItem) Less(than btree.Item) bool {
	return i.cmp.Compare(i.cell, than.(*cellItem).cell) < 0
}

// OrderedCellSet is a concurrent ordered set of cells: "set, not map"
// semantics, where inserting a key already present is a no-op rather than a
// replace. It is backed by a google/btree.BTree guarded by a RWMutex, and
// optionally admits a row-prefix Bloom filter used by scanners to skip sets
// that cannot possibly contain a given row.
type OrderedCellSet struct {
	cmp Comparator

	mu   sync.RWMutex
	tree *btree.BTree
	n    int

	bloom     *blobloom.Filter
	prefixLen int
}

// NewOrderedCellSet returns an empty set ordered by cmp. prefixLen is the
// row-prefix Bloom filter length; -1 disables the Bloom filter, in which
// case MayContainRowPrefix always reports true.
func NewOrderedCellSet(cmp Comparator, prefixLen int) *OrderedCellSet {
	s := &OrderedCellSet{
		cmp:       cmp,
		tree:      btree.New(btreeDegree),
		prefixLen: prefixLen,
	}
	if prefixLen >= 0 {
		s.bloom = blobloom.NewOptimized(blobloom.Config{
			Capacity: 1 << 20,
			FPRate:   0.01,
		})
	}
	return s
}

// Add inserts c if no equal-keyed cell is already present. It returns false
// without modifying the set when a cell comparing equal under the set's
// comparator already exists: the first insertion at a given key always
// wins, matching the "set, not map" invariant.
func (s *OrderedCellSet) Add(c *Cell) bool {
	item := &cellItem{cell: c, cmp: s.cmp}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree.Has(item) {
		return false
	}
	s.tree.ReplaceOrInsert(item)
	s.n++
	if s.bloom != nil {
		s.bloom.Add(rowPrefixHash(c.Row, s.prefixLen))
	}
	return true
}

// Contains reports whether a cell comparing equal to c is present.
func (s *OrderedCellSet) Contains(c *Cell) bool {
	item := &cellItem{cell: c, cmp: s.cmp}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Has(item)
}

// remove deletes a cell comparing equal to c, if present.
func (s *OrderedCellSet) remove(c *Cell) {
	item := &cellItem{cell: c, cmp: s.cmp}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree.Delete(item) != nil {
		s.n--
	}
}

// IsEmpty reports whether the set holds no cells.
func (s *OrderedCellSet) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.n == 0
}

// Len returns the number of cells currently in the set.
func (s *OrderedCellSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.n
}

// HeadRange returns every cell ordered strictly before upto (or at-or-before
// it, if exclusiveUpto is false), snapshotted at call time.
//
// Iteration here is "weakly consistent": it takes a single snapshot copy
// under a read lock rather than doing any lock-free traversal of the
// underlying btree (google/btree's BTree is not safe to mutate while
// being walked). A concurrent insert that lands before the copy completes
// may or may not be observed; one that lands after is guaranteed not to
// be.
func (s *OrderedCellSet) HeadRange(upto *Cell, exclusiveUpto bool) []*Cell {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Cell
	s.tree.Ascend(func(i btree.Item) bool {
		c := i.(*cellItem).cell
		cmp := s.cmp.Compare(c, upto)
		if exclusiveUpto {
			if cmp >= 0 {
				return false
			}
		} else if cmp > 0 {
			return false
		}
		out = append(out, c)
		return true
	})
	return out
}

// TailRange returns every cell ordered at-or-after from, snapshotted at call
// time.
func (s *OrderedCellSet) TailRange(from *Cell) []*Cell {
	item := &cellItem{cell: from, cmp: s.cmp}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Cell
	s.tree.AscendGreaterOrEqual(item, func(i btree.Item) bool {
		out = append(out, i.(*cellItem).cell)
		return true
	})
	return out
}

// Iterator returns a forward (ascending) iterator over a snapshot of the
// set taken at call time.
func (s *OrderedCellSet) Iterator() *SetIterator {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*Cell, 0, s.n)
	s.tree.Ascend(func(i btree.Item) bool {
		items = append(items, i.(*cellItem).cell)
		return true
	})
	return &SetIterator{set: s, items: items}
}

// DescendingIterator returns a reverse iterator over a snapshot of the set
// taken at call time.
func (s *OrderedCellSet) DescendingIterator() *SetIterator {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*Cell, 0, s.n)
	s.tree.Descend(func(i btree.Item) bool {
		items = append(items, i.(*cellItem).cell)
		return true
	})
	return &SetIterator{set: s, items: items}
}

// MayContainRowPrefix reports whether the set's row-prefix Bloom filter
// admits cell's row. When the Bloom filter is disabled (prefixLen < 0) it
// always returns true.
func (s *OrderedCellSet) MayContainRowPrefix(c *Cell) bool {
	if s.bloom == nil {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bloom.Has(rowPrefixHash(c.Row, s.prefixLen))
}

func rowPrefixHash(row []byte, prefixLen int) uint64 {
	if prefixLen >= 0 && prefixLen < len(row) {
		row = row[:prefixLen]
	}
	return xxhash.Sum64(row)
}

// SetIterator walks a point-in-time snapshot of an OrderedCellSet. It is
// weakly consistent: the snapshot is taken when the iterator is created, so
// subsequent mutations of the underlying set are never observed by an
// already-created iterator.
type SetIterator struct {
	set          *OrderedCellSet
	items        []*Cell
	idx          int
	lastReturned *Cell
}

// HasNext reports whether Next would return another cell.
func (it *SetIterator) HasNext() bool {
	return it.idx < len(it.items)
}

// Next returns the next cell in iteration order, or nil if exhausted.
func (it *SetIterator) Next() *Cell {
	if it.idx >= len(it.items) {
		return nil
	}
	c := it.items[it.idx]
	it.idx++
	it.lastReturned = c
	return c
}

// Remove removes the cell most recently returned by Next from the
// underlying set. It is a no-op if Next has not been called since the
// iterator was created or since the previous Remove.
func (it *SetIterator) Remove() {
	if it.lastReturned == nil {
		return
	}
	it.set.remove(it.lastReturned)
	it.lastReturned = nil
}

// RemoveVia removes the cell most recently returned by it.Next() from s.
// It is equivalent to it.Remove() when it was obtained from s, provided as
// a set-level entry point for callers that only hold the iterator.
func (s *OrderedCellSet) RemoveVia(it *SetIterator) {
	it.Remove()
}
