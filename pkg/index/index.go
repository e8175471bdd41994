// Package index defines the index collaborators the join executor drives:
// pushed-down index conditions with their per-column applicability masks,
// the Index and Iterator interfaces, the condition-driven cursor, and
// in-memory index implementations.
package index

import (
	"joindb/pkg/row"
	"joindb/pkg/types"
)

// Mask bits describing how index conditions apply to a column. A column's
// mask is the OR of the masks of every evaluatable condition touching it.
const (
	MaskEquality = 1 << iota
	MaskStart
	MaskEnd
	MaskIn

	MaskRange = MaskStart | MaskEnd
)

// SortSpec is a requested output ordering, consumed only as costing input:
// an index that already delivers the order is slightly cheaper.
type SortSpec struct {
	Column *row.Column
	Desc   bool
}

// Bound is one end of an index range.
type Bound struct {
	Value     types.Field
	Inclusive bool
}

// Iterator walks rows delivered by an index. Rows may be search rows that
// carry only the indexed columns plus the row key.
type Iterator interface {
	Next() (*row.Row, bool)
}

// Index is the narrow index interface the executor consumes. Implementations
// own their cost model; the executor only compares the returned estimates.
type Index interface {
	Name() string

	// ColumnIndex returns the position of the column inside the index, or
	// -1 when the index does not cover it.
	ColumnIndex(col *row.Column) int

	// Cost estimates reading the index given per-column condition masks and
	// the requested sort order.
	Cost(masks []int, sort *SortSpec) float64

	// Seek returns an iterator over the rows within the given bounds on the
	// index's leading column. Either bound may be nil.
	Seek(start, end *Bound) Iterator
}

// RowSource materializes full rows from row keys. Tables implement it; the
// cursor uses it to fill in columns the index does not cover.
type RowSource interface {
	RowByKey(key int64) *row.Row
}
