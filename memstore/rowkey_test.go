package memstore

import "bytes"

// closestRowTracker is a minimal TrackerState used by tests: it accepts
// every cell in the target table, never treats anything as expired, and
// stops the walk as soon as it sees one candidate per row (the first cell
// encountered for a row is that row's representative).
type closestRowTracker struct {
	target []byte
}

func (tr *closestRowTracker) TargetKey() *Cell {
	return firstOnRowAnyColumn(tr.target)
}

func (tr *closestRowTracker) IsTooFar(cell, firstOnRow *Cell) bool {
	return bytes.Compare(cell.Row, tr.target) > 0
}

func (tr *closestRowTracker) IsExpired(cell *Cell) bool {
	return false
}

func (tr *closestRowTracker) Handle(cell *Cell) bool {
	return false // one cell is enough to identify its row as a candidate
}

func (tr *closestRowTracker) IsTargetTable(cell *Cell) bool {
	return true
}

func (tr *closestRowTracker) IsBetterCandidate(cell *Cell) bool {
	return true // within a single row walk, the only cell offered wins
}
