package memstore

import (
	"bytes"
	"fmt"
)

// CellType identifies what kind of write a Cell represents. Values are
// assigned so that a numerically larger type sorts before a smaller one
// under the primary comparator's descending type order, mirroring the
// convention that a delete marker must be able to shadow a put carrying the
// same timestamp.
type CellType byte

const (
	// TypePut is a normal value write.
	TypePut CellType = 4
	// TypeDelete removes a single (row, family, qualifier, timestamp).
	TypeDelete CellType = 8
	// TypeDeleteColumn removes all versions of (row, family, qualifier) at or
	// before the cell's timestamp.
	TypeDeleteColumn CellType = 12
	// TypeDeleteFamily removes all columns of (row, family) at or before the
	// cell's timestamp.
	TypeDeleteFamily CellType = 14

	// typeMaximum is a sentinel used only by CreateFirstOnRow; it never
	// appears on a cell actually inserted into a MemStore.
	typeMaximum CellType = 255
)

func (t CellType) String() string {
	switch t {
	case TypePut:
		return "Put"
	case TypeDelete:
		return "Delete"
	case TypeDeleteColumn:
		return "DeleteColumn"
	case TypeDeleteFamily:
		return "DeleteFamily"
	case typeMaximum:
		return "Maximum"
	default:
		return fmt.Sprintf("CellType(%d)", byte(t))
	}
}

// IsDelete reports whether t is one of the three delete marker types.
func (t CellType) IsDelete() bool {
	return t == TypeDelete || t == TypeDeleteColumn || t == TypeDeleteFamily
}

// cellFixedOverhead approximates the per-cell bookkeeping a real allocator
// would pay beyond the cell's own byte payload: the Cell struct header, the
// four slice headers for Row/Family/Qualifier/Value, and the btree node
// slot that indexes it. This is a modeling constant, not a measured value.
const cellFixedOverhead = 96

// Cell is a single immutable write: a row/family/qualifier/timestamp/type
// tuple carrying a value and the write sequence number assigned to it when
// it was appended. Cells are never mutated once inserted into a MemStore;
// updateColumnValue and deletes are modeled as additional cells, never as
// in-place edits of an existing one.
type Cell struct {
	Row       []byte
	Family    []byte
	Qualifier []byte
	Timestamp int64
	Type      CellType
	Value     []byte
	WriteSeq  uint64
}

// NewCell constructs a Cell with the given fields.
func NewCell(row, family, qualifier []byte, ts int64, typ CellType, value []byte) *Cell {
	return &Cell{
		Row:       row,
		Family:    family,
		Qualifier: qualifier,
		Timestamp: ts,
		Type:      typ,
		Value:     value,
	}
}

// CreateFirstOnRow returns a synthetic cell that sorts at or before every
// real cell sharing (row, family, qualifier) under the primary comparator:
// maximal timestamp, maximal type, maximal write sequence all sort first
// because those fields are ordered descending. It is never inserted into a
// set; it exists only to seed a tailRange/headRange probe.
func CreateFirstOnRow(row, family, qualifier []byte) *Cell {
	return &Cell{
		Row:       row,
		Family:    family,
		Qualifier: qualifier,
		Timestamp: int64(^uint64(0) >> 1), // math.MaxInt64, avoided import for a one-off use
		Type:      typeMaximum,
		WriteSeq:  ^uint64(0),
	}
}

// HeapSize approximates the heap bytes this cell would occupy, rounded up to
// an 8-byte boundary.
func (c *Cell) HeapSize() int {
	n := cellFixedOverhead + len(c.Row) + len(c.Family) + len(c.Qualifier) + len(c.Value)
	return alignUp(n)
}

// Length returns the raw byte length of the cell's variable-length fields,
// i.e. what an Arena allocation for this cell's bytes must hold.
func (c *Cell) Length() int {
	return len(c.Row) + len(c.Family) + len(c.Qualifier) + len(c.Value)
}

func alignUp(n int) int {
	return (n + 7) &^ 7
}

// sameQualifier reports whether a and b target the same (row, family,
// qualifier), used by updateColumnValue to find prior Puts to retire.
func sameQualifier(a, b *Cell) bool {
	return bytes.Equal(a.Row, b.Row) && bytes.Equal(a.Family, b.Family) && bytes.Equal(a.Qualifier, b.Qualifier)
}
