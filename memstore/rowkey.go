package memstore

import "bytes"

// TrackerState is the capability set a caller supplies to
// MemStore.GetRowKeyAtOrBefore: a small interface rather than a class
// hierarchy, letting the caller plug in its own notion of "too far",
// "expired", and "better candidate" without MemStore knowing about them.
type TrackerState interface {
	// TargetKey is the row being probed, encoded as a first-possible-key
	// sentinel (see CreateFirstOnRow) so tailRange/headRange can seed off
	// it directly.
	TargetKey() *Cell

	// IsTooFar reports whether cell has walked past the point where a
	// valid "at or before" answer could still be found, relative to
	// firstOnRow (the sentinel for the row the walk is currently
	// considering).
	IsTooFar(cell, firstOnRow *Cell) bool

	// IsExpired reports whether cell should be treated as already deleted
	// (a TTL or delete-marker check) and skipped rather than considered a
	// candidate.
	IsExpired(cell *Cell) bool

	// Handle is given every non-expired, in-table cell the walk visits.
	// It returns false to stop the walk early (the tracker has seen
	// enough to answer authoritatively) or true to keep going.
	Handle(cell *Cell) bool

	// IsTargetTable reports whether cell belongs to the table/column
	// family this probe cares about; cells that fail this check are
	// skipped without consulting IsExpired or Handle.
	IsTargetTable(cell *Cell) bool

	// IsBetterCandidate reports whether cell should replace the walk's
	// current best candidate.
	IsBetterCandidate(cell *Cell) bool
}

// getRowKeyAtOrBefore walks live then snapshot, forward from the target
// row and, failing that, backward row by row, returning the best
// candidate either set produced.
func getRowKeyAtOrBefore(live, snapshot *OrderedCellSet, tracker TrackerState) *Cell {
	target := tracker.TargetKey()
	if target == nil {
		return nil
	}

	var best *Cell
	// accept reports (wasCandidate, keepGoing): wasCandidate is true when
	// c passed the table/expiry checks and was handed to the tracker, so
	// the caller knows this row produced a usable answer even when
	// keepGoing is false.
	accept := func(c *Cell) (wasCandidate, keepGoing bool) {
		if !tracker.IsTargetTable(c) || tracker.IsExpired(c) {
			return false, true
		}
		keepGoing = tracker.Handle(c)
		if best == nil || tracker.IsBetterCandidate(c) {
			best = c
		}
		return true, keepGoing
	}

	for _, set := range [2]*OrderedCellSet{live, snapshot} {
		if rowKeyForwardWalk(set, target, tracker, accept) {
			continue
		}
		rowKeyBackwardWalk(set, target, accept)
	}
	return best
}

// rowKeyForwardWalk scans ascending from target, accumulating candidates
// via accept until the tracker reports the walk has gone too far past the
// target row. It returns whether it produced at least one candidate in
// this set, in which case the backward walk is skipped for that set.
func rowKeyForwardWalk(set *OrderedCellSet, target *Cell, tracker TrackerState, accept func(*Cell) (bool, bool)) bool {
	firstOnRow := target
	found := false
	for _, c := range set.TailRange(target) {
		if tracker.IsTooFar(c, firstOnRow) {
			break
		}
		if !bytes.Equal(c.Row, firstOnRow.Row) {
			firstOnRow = firstOnRowAnyColumn(c.Row)
		}
		wasCandidate, keepGoing := accept(c)
		found = found || wasCandidate
		if !keepGoing {
			break
		}
	}
	return found
}

// rowKeyBackwardWalk scans rows strictly before target.Row, largest first,
// rebuilding the first-possible-key pivot one row at a time, until some
// row yields at least one candidate or the set is exhausted.
func rowKeyBackwardWalk(set *OrderedCellSet, target *Cell, accept func(*Cell) (bool, bool)) {
	pivot := firstOnRowAnyColumn(target.Row)
	for {
		cells := set.HeadRange(pivot, true)
		if len(cells) == 0 {
			return
		}

		lastRow := cells[len(cells)-1].Row
		rowStart := len(cells) - 1
		for rowStart > 0 && bytes.Equal(cells[rowStart-1].Row, lastRow) {
			rowStart--
		}
		rowCells := cells[rowStart:]

		found := false
		for i := len(rowCells) - 1; i >= 0; i-- {
			wasCandidate, keepGoing := accept(rowCells[i])
			found = found || wasCandidate
			if !keepGoing {
				break
			}
		}
		if found {
			return
		}
		pivot = firstOnRowAnyColumn(lastRow)
	}
}

func firstOnRowAnyColumn(row []byte) *Cell {
	return CreateFirstOnRow(row, nil, nil)
}
