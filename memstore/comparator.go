package memstore

import "bytes"

// Comparator defines a total order over cells. MemStore is constructed with
// exactly one Comparator, shared by its live and snapshot OrderedCellSets,
// its btree.Item wrappers, and every scanner it hands out.
type Comparator interface {
	// Compare returns <0, 0 or >0 as a sorts before, at, or after b.
	Compare(a, b *Cell) int
}

// comparatorFunc adapts a plain function to the Comparator interface.
type comparatorFunc func(a, b *Cell) int

func (f comparatorFunc) Compare(a, b *Cell) int { return f(a, b) }

// FullComparator orders by (row asc, family asc, qualifier asc, timestamp
// desc, type desc, writeSeq desc). This is the comparator MemStore normally
// uses: it keeps the newest version of a column first within its row, which
// is what point reads and scans expect.
var FullComparator Comparator = comparatorFunc(compareFull)

// IgnoreTimestampComparator drops the timestamp from the comparison, so two
// cells that differ only in timestamp compare equal. Used where a caller
// wants to locate "some version of this column" regardless of version.
var IgnoreTimestampComparator Comparator = comparatorFunc(compareIgnoreTimestamp)

// IgnoreTypeComparator drops the cell type from the comparison, so a Put and
// a Delete at the same (row, family, qualifier, timestamp) compare equal.
var IgnoreTypeComparator Comparator = comparatorFunc(compareIgnoreType)

func compareRowFamilyQualifier(a, b *Cell) int {
	if c := bytes.Compare(a.Row, b.Row); c != 0 {
		return c
	}
	if c := bytes.Compare(a.Family, b.Family); c != 0 {
		return c
	}
	return bytes.Compare(a.Qualifier, b.Qualifier)
}

func compareTimestampDesc(a, b *Cell) int {
	switch {
	case a.Timestamp > b.Timestamp:
		return -1
	case a.Timestamp < b.Timestamp:
		return 1
	default:
		return 0
	}
}

func compareTypeDesc(a, b *Cell) int {
	switch {
	case a.Type > b.Type:
		return -1
	case a.Type < b.Type:
		return 1
	default:
		return 0
	}
}

func compareWriteSeqDesc(a, b *Cell) int {
	switch {
	case a.WriteSeq > b.WriteSeq:
		return -1
	case a.WriteSeq < b.WriteSeq:
		return 1
	default:
		return 0
	}
}

func compareFull(a, b *Cell) int {
	if c := compareRowFamilyQualifier(a, b); c != 0 {
		return c
	}
	if c := compareTimestampDesc(a, b); c != 0 {
		return c
	}
	if c := compareTypeDesc(a, b); c != 0 {
		return c
	}
	return compareWriteSeqDesc(a, b)
}

func compareIgnoreTimestamp(a, b *Cell) int {
	if c := compareRowFamilyQualifier(a, b); c != 0 {
		return c
	}
	if c := compareTypeDesc(a, b); c != 0 {
		return c
	}
	return compareWriteSeqDesc(a, b)
}

func compareIgnoreType(a, b *Cell) int {
	if c := compareRowFamilyQualifier(a, b); c != 0 {
		return c
	}
	if c := compareTimestampDesc(a, b); c != 0 {
		return c
	}
	return compareWriteSeqDesc(a, b)
}
