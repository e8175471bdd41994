package index

import (
	"math"

	"github.com/google/btree"

	"joindb/pkg/row"
	"joindb/pkg/types"
)

// item is one B-tree entry: the indexed value plus the row key as
// tie-breaker, so duplicate values coexist.
type item struct {
	value types.Field
	key   int64
}

func lessItem(a, b *item) bool {
	if !a.value.Equals(b.value) {
		return fieldLess(a.value, b.value)
	}
	return a.key < b.key
}

// fieldLess is the total order the in-memory index sorts by: NULL first,
// then value order, mixed types ordered by type id.
func fieldLess(a, b types.Field) bool {
	if a.IsNull() {
		return !b.IsNull()
	}
	if b.IsNull() {
		return false
	}
	if a.Type() != b.Type() {
		return a.Type() < b.Type()
	}
	lt, _ := a.Compare(types.LessThan, b)
	return lt
}

// OrderedIndex is a single-column in-memory B-tree index. The rows it
// yields are search rows covering the indexed column and the row key only,
// which exercises the executor's lazy materialization path.
type OrderedIndex struct {
	name  string
	col   *row.Column
	width int
	tree  *btree.BTreeG[*item]
}

// NewOrderedIndex creates an empty ordered index over the given column of a
// table with tableWidth columns.
func NewOrderedIndex(name string, col *row.Column, tableWidth int) *OrderedIndex {
	return &OrderedIndex{
		name:  name,
		col:   col,
		width: tableWidth,
		tree:  btree.NewG(8, lessItem),
	}
}

func (i *OrderedIndex) Name() string {
	return i.name
}

// Column returns the indexed column.
func (i *OrderedIndex) Column() *row.Column {
	return i.col
}

func (i *OrderedIndex) ColumnIndex(col *row.Column) int {
	if col == i.col {
		return 0
	}
	return -1
}

// Add inserts the row's indexed value.
func (i *OrderedIndex) Add(r *row.Row) {
	v := r.Value(i.col.ID)
	if v == nil {
		v = types.Null
	}
	i.tree.ReplaceOrInsert(&item{value: v, key: r.Key})
}

// Remove deletes the row's indexed value.
func (i *OrderedIndex) Remove(r *row.Row) {
	v := r.Value(i.col.ID)
	if v == nil {
		v = types.Null
	}
	i.tree.Delete(&item{value: v, key: r.Key})
}

// Cost estimates an index read for the given masks. Equality probes are
// cheapest, ranges scale with a quarter of the entries, a membership probe
// sits in between; an index that cannot serve any condition costs more
// than a plain table scan. Delivering the requested sort order shaves ten
// percent.
func (i *OrderedIndex) Cost(masks []int, sort *SortSpec) float64 {
	n := float64(i.tree.Len())
	m := 0
	if masks != nil && i.col.ID >= 0 && i.col.ID < len(masks) {
		m = masks[i.col.ID]
	}

	var cost float64
	switch {
	case m&MaskEquality != 0:
		cost = 3
	case m&MaskRange != 0:
		cost = n/4 + 2
	case m&MaskIn != 0:
		cost = n/10 + 4
	default:
		cost = n + 20
	}
	if sort != nil && sort.Column == i.col {
		cost -= cost * 0.1
	}
	return cost
}

func (i *OrderedIndex) Seek(start, end *Bound) Iterator {
	var rows []*row.Row

	visit := func(it *item) bool {
		// NULL never satisfies a bound.
		if (start != nil || end != nil) && it.value.IsNull() {
			return true
		}
		if start != nil && !start.Inclusive {
			if eq, known := it.value.Compare(types.Equals, start.Value); known && eq {
				return true
			}
		}
		if end != nil {
			if gt, known := it.value.Compare(types.GreaterThan, end.Value); known && gt {
				return false
			}
			if !end.Inclusive {
				if eq, known := it.value.Compare(types.Equals, end.Value); known && eq {
					return false
				}
			}
		}
		r := row.NewSearchRow(it.key, i.width)
		r.SetValue(i.col.ID, it.value)
		rows = append(rows, r)
		return true
	}

	if start != nil {
		pivot := &item{value: start.Value, key: math.MinInt64}
		i.tree.AscendGreaterOrEqual(pivot, visit)
	} else {
		i.tree.Ascend(visit)
	}
	return &sliceIter{rows: rows}
}

// ScanIndex is the default full-scan index: it walks the table's own rows
// in key order and covers every column.
type ScanIndex struct {
	name string
	all  func() []*row.Row
}

// NewScanIndex creates a scan index reading rows through the given
// snapshot function.
func NewScanIndex(name string, all func() []*row.Row) *ScanIndex {
	return &ScanIndex{name: name, all: all}
}

func (i *ScanIndex) Name() string {
	return i.name
}

// ColumnIndex always reports -1: the scan index offers no positioned
// lookup on any column, so no index condition survives prepare against it.
func (i *ScanIndex) ColumnIndex(col *row.Column) int {
	return -1
}

func (i *ScanIndex) Cost(masks []int, sort *SortSpec) float64 {
	return float64(len(i.all())) + 10
}

func (i *ScanIndex) Seek(start, end *Bound) Iterator {
	return &sliceIter{rows: i.all()}
}

type sliceIter struct {
	rows []*row.Row
	pos  int
}

func (it *sliceIter) Next() (*row.Row, bool) {
	if it.pos >= len(it.rows) {
		return nil, false
	}
	r := it.rows[it.pos]
	it.pos++
	return r, true
}
