package table

import (
	"fmt"
	"sort"

	"joindb/pkg/index"
	"joindb/pkg/row"
	"joindb/pkg/session"
	"joindb/pkg/types"
)

// secondaryIndex is an index maintained alongside the table rows.
type secondaryIndex interface {
	index.Index
	Add(r *row.Row)
	Remove(r *row.Row)
}

// MemTable is an in-memory table: a key-ordered heap of rows, one scan
// index and any number of single-column ordered indexes.
type MemTable struct {
	name    string
	schema  *row.Schema
	rows    map[int64]*row.Row
	nextKey int64
	scan    *index.ScanIndex
	indexes []secondaryIndex
	nullRow *row.Row
}

// NewMemTable creates an empty table with the given schema.
func NewMemTable(name string, schema *row.Schema) *MemTable {
	t := &MemTable{
		name:    name,
		schema:  schema,
		rows:    make(map[int64]*row.Row),
		nullRow: row.NullRow(schema.Width()),
	}
	t.scan = index.NewScanIndex("tableScan", t.allRows)
	return t
}

func (t *MemTable) Name() string {
	return t.name
}

func (t *MemTable) Schema() *row.Schema {
	return t.schema
}

// CreateIndex adds an ordered index over the named column, indexing any
// rows already present.
func (t *MemTable) CreateIndex(name, column string) error {
	col := t.schema.Find(column)
	if col == nil {
		return fmt.Errorf("no column %q in table %s", column, t.name)
	}
	idx := index.NewOrderedIndex(name, col, t.schema.Width())
	for _, r := range t.rows {
		idx.Add(r)
	}
	t.indexes = append(t.indexes, idx)
	return nil
}

// Insert appends a row built from the given values, allocating its key.
func (t *MemTable) Insert(values ...types.Field) *row.Row {
	t.nextKey++
	r := row.NewRow(t.nextKey, values...)
	t.rows[r.Key] = r
	for _, idx := range t.indexes {
		idx.Add(r)
	}
	return r
}

func (t *MemTable) AddRow(s *session.Session, r *row.Row) error {
	if r.Key == 0 {
		t.nextKey++
		r.Key = t.nextKey
	}
	if _, exists := t.rows[r.Key]; exists {
		return fmt.Errorf("duplicate row key %d in table %s", r.Key, t.name)
	}
	t.rows[r.Key] = r
	for _, idx := range t.indexes {
		idx.Add(r)
	}
	return nil
}

func (t *MemTable) RemoveRow(s *session.Session, r *row.Row) error {
	if _, exists := t.rows[r.Key]; !exists {
		return fmt.Errorf("row key %d not found in table %s", r.Key, t.name)
	}
	delete(t.rows, r.Key)
	for _, idx := range t.indexes {
		idx.Remove(r)
	}
	return nil
}

func (t *MemTable) RowByKey(key int64) *row.Row {
	return t.rows[key]
}

// RowCount returns the number of rows currently stored.
func (t *MemTable) RowCount() int {
	return len(t.rows)
}

func (t *MemTable) ScanIndex() index.Index {
	return t.scan
}

// BestIndexFor picks the cheapest index for the given masks: the scan index
// competes with every secondary index on estimated cost.
func (t *MemTable) BestIndexFor(s *session.Session, masks []int, sortSpec *index.SortSpec) (index.Index, float64) {
	best := index.Index(t.scan)
	bestCost := t.scan.Cost(masks, sortSpec)
	for _, idx := range t.indexes {
		if cost := idx.Cost(masks, sortSpec); cost < bestCost {
			best, bestCost = idx, cost
		}
	}
	return best, bestCost
}

func (t *MemTable) NullRow() *row.Row {
	return t.nullRow
}

// Lock is a no-op: the in-memory table relies on the single-session
// execution model.
func (t *MemTable) Lock(s *session.Session, exclusive bool) error {
	return nil
}

// allRows snapshots the heap in key order for the scan index.
func (t *MemTable) allRows() []*row.Row {
	rows := make([]*row.Row, 0, len(t.rows))
	for _, r := range t.rows {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	return rows
}
