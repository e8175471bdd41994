// Package filter implements the join-execution core: one TableFilter per
// table reference in a query, linked into a tree of chained and nested
// joins, driven row-at-a-time by the enclosing statement.
//
// A filter owns an index cursor, the index conditions used to position it,
// the residual filter condition, and the ON condition of its join step.
// Advancing the root filter recursively advances joined and nested
// children, producing the next joined candidate row or signalling
// exhaustion, with NULL rows synthesized for outer joins that found no
// match.
package filter

import (
	"fmt"

	"joindb/pkg/expr"
	"joindb/pkg/index"
	"joindb/pkg/row"
	"joindb/pkg/session"
	"joindb/pkg/table"
	"joindb/pkg/types"
)

// execution states of one filter
const (
	stateBeforeFirst = iota
	stateFound
	stateAfterLast
	stateNullRow
)

// checkCanceledInterval is how many physical cursor advances pass between
// cooperative cancellation polls.
const checkCanceledInterval = 4096

// Query is the enclosing statement, consulted only for the requested sort
// order during plan costing.
type Query interface {
	SortSpec() *index.SortSpec
}

// TableFilter represents a table used in a query. There is one filter per
// table reference: SELECT * FROM TEST T1, TEST T2 creates two.
type TableFilter struct {
	s     *session.Session
	table table.Table
	query Query
	alias string

	idx       index.Index
	cursor    *index.Cursor
	scanCount int

	// evaluatable reports whether conditions referencing this filter's
	// columns can currently be evaluated.
	evaluatable bool

	// used indicates that this filter is part of the chosen plan.
	used bool

	// indexConditions are the pushed-down predicates used for direct index
	// lookup (start or end of the scanned range, or membership probes).
	indexConditions []*index.Condition

	// filterCondition is the residual predicate: usable for row filtering
	// on this table but not for index lookup.
	filterCondition expr.Expression

	// joinCondition is the complete ON condition of this join step.
	joinCondition expr.Expression

	// fullCondition is the entire WHERE clause; it is only consulted while
	// distributing conditions over the join tree.
	fullCondition expr.Expression

	currentSearchRow *row.Row
	current          *row.Row
	state            int

	// join is the next filter in the left-deep join chain.
	join *TableFilter

	// joinOuter is set when this filter is the right hand side of an outer
	// join.
	joinOuter bool

	// joinOuterIndirect is set when an enclosing outer join forces this
	// filter's rows visible even though its own link is not the outer side.
	joinOuterIndirect bool

	// nestedJoin is the sub-tree wrapped by this filter (a parenthesized
	// join expression).
	nestedJoin *TableFilter

	naturalJoinColumns []*row.Column

	// foundOne tracks whether this outer-joined filter produced any real
	// match for the current outer context; reset with the context.
	foundOne bool

	id int
}

// New creates a table filter. Unless rights were already checked by the
// caller, the session user must hold the SELECT right on the table.
func New(s *session.Session, tbl table.Table, alias string, rightsChecked bool, query Query) (*TableFilter, error) {
	if !rightsChecked {
		if err := s.User().CheckRight(tbl.Name(), session.RightSelect); err != nil {
			return nil, err
		}
	}
	if alias == "" {
		alias = tbl.Name()
	}
	return &TableFilter{
		s:      s,
		table:  tbl,
		query:  query,
		alias:  alias,
		cursor: index.NewCursor(tbl),
		id:     s.NextObjectID(),
	}, nil
}

// Table returns the underlying table.
func (f *TableFilter) Table() table.Table {
	return f.table
}

// Session returns the session driving this filter.
func (f *TableFilter) Session() *session.Session {
	return f.s
}

// ID returns the session-scoped identity of this filter.
func (f *TableFilter) ID() int {
	return f.id
}

// Alias implements expr.ColumnResolver.
func (f *TableFilter) Alias() string {
	return f.alias
}

// SetAlias renames the filter.
func (f *TableFilter) SetAlias(alias string) {
	f.alias = alias
}

// Schema implements expr.ColumnResolver.
func (f *TableFilter) Schema() *row.Schema {
	return f.table.Schema()
}

// Index returns the chosen index, or nil before a plan is applied.
func (f *TableFilter) Index() index.Index {
	return f.idx
}

// SetIndex assigns the chosen index and resets its cursor.
func (f *TableFilter) SetIndex(idx index.Index) {
	f.idx = idx
	f.cursor.SetIndex(idx)
}

// Join returns the next filter of the join chain, or nil.
func (f *TableFilter) Join() *TableFilter {
	return f.join
}

// NestedJoin returns the nested sub-tree, or nil.
func (f *TableFilter) NestedJoin() *TableFilter {
	return f.nestedJoin
}

// IsJoinOuter reports whether this filter is the right side of an outer
// join.
func (f *TableFilter) IsJoinOuter() bool {
	return f.joinOuter
}

// IsJoinOuterIndirect reports whether an enclosing outer join forces this
// filter's rows visible.
func (f *TableFilter) IsJoinOuterIndirect() bool {
	return f.joinOuterIndirect
}

// SetUsed marks whether this filter takes part in the chosen plan.
func (f *TableFilter) SetUsed(used bool) {
	f.used = used
}

// Used reports whether this filter takes part in the chosen plan.
func (f *TableFilter) Used() bool {
	return f.used
}

// ScanCount returns the number of physical cursor advances since the query
// started.
func (f *TableFilter) ScanCount() int {
	return f.scanCount
}

// Lock locks the underlying table and all joined tables.
func (f *TableFilter) Lock(s *session.Session, exclusive bool) error {
	if err := f.table.Lock(s, exclusive); err != nil {
		return err
	}
	if f.join != nil {
		return f.join.Lock(s, exclusive)
	}
	return nil
}

// StartQuery binds the session and zeroes the scan counters, recursively
// through nested and chained filters.
func (f *TableFilter) StartQuery(s *session.Session) {
	f.s = s
	f.scanCount = 0
	if f.nestedJoin != nil {
		f.nestedJoin.StartQuery(s)
	}
	if f.join != nil {
		f.join.StartQuery(s)
	}
}

// Reset rewinds this filter and everything below it to before the first
// row. A full re-iteration after Reset yields the same rows again.
func (f *TableFilter) Reset() {
	if f.nestedJoin != nil {
		f.nestedJoin.Reset()
	}
	if f.join != nil {
		f.join.Reset()
	}
	f.state = stateBeforeFirst
	f.foundOne = false
}

// Next advances to the next candidate row of this filter and its join
// subtree. It returns false when no more rows exist. The rightmost table
// of the join chain moves fastest.
func (f *TableFilter) Next() (bool, error) {
	switch f.state {
	case stateAfterLast:
		return false, nil
	case stateBeforeFirst:
		if err := f.cursor.Find(f.s, f.indexConditions); err != nil {
			return false, err
		}
		if !f.cursor.IsAlwaysFalse() {
			if f.nestedJoin != nil {
				f.nestedJoin.Reset()
			}
			if f.join != nil {
				f.join.Reset()
			}
		}
	default:
		// stateFound or stateNullRow: the last row was ok - try the next
		// row of the joined chain before moving this filter.
		if f.join != nil {
			ok, err := f.join.Next()
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
	}

	for {
		// go to the next row
		if f.state == stateNullRow {
			break
		}
		if f.cursor.IsAlwaysFalse() {
			f.state = stateAfterLast
		} else if f.nestedJoin != nil {
			if f.state == stateBeforeFirst {
				f.state = stateFound
			}
		} else {
			f.scanCount++
			if f.scanCount&(checkCanceledInterval-1) == 0 {
				if err := f.s.CheckCanceled(); err != nil {
					return false, err
				}
			}
			ok, err := f.cursor.Next()
			if err != nil {
				return false, err
			}
			if ok {
				f.currentSearchRow = f.cursor.SearchRow()
				f.current = nil
				f.state = stateFound
			} else {
				f.state = stateAfterLast
			}
		}

		if f.nestedJoin != nil && f.state == stateFound {
			ok, err := f.nestedJoin.Next()
			if err != nil {
				return false, err
			}
			if !ok {
				f.state = stateAfterLast
				if !(f.joinOuter && !f.foundOne) {
					continue
				}
				// fall through: possibly a null row
			}
		}

		// if no more rows found, try the null row (outer joins only)
		if f.state == stateAfterLast {
			if f.joinOuter && !f.foundOne {
				f.setNullRow()
			} else {
				break
			}
		}

		ok, err := expr.IsTrue(f.s, f.filterCondition)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}

		joinConditionOk, err := expr.IsTrue(f.s, f.joinCondition)
		if err != nil {
			return false, err
		}
		if f.state == stateFound {
			if joinConditionOk {
				f.foundOne = true
			} else {
				continue
			}
		}

		if f.join != nil {
			f.join.Reset()
			ok, err := f.join.Next()
			if err != nil {
				return false, err
			}
			if !ok {
				continue
			}
		}

		if f.state == stateNullRow || joinConditionOk {
			return true, nil
		}
	}
	f.state = stateAfterLast
	return false, nil
}

// setNullRow moves this filter and every filter of its nested subtree onto
// the designated all-NULL row.
func (f *TableFilter) setNullRow() {
	f.state = stateNullRow
	f.current = f.table.NullRow()
	f.currentSearchRow = f.current
	if f.nestedJoin != nil {
		for n := range f.nestedJoin.All() {
			n.setNullRow()
		}
	}
}

// Row returns the current full row, materializing it from the cursor on
// first access, or nil when the filter is not positioned on a row.
func (f *TableFilter) Row() *row.Row {
	if f.current == nil && f.currentSearchRow != nil {
		f.current = f.cursor.Row()
	}
	return f.current
}

// Set overrides the current row. Used by callers that need to evaluate
// conditions against a row the cursor never produced, e.g. constraint
// checks.
func (f *TableFilter) Set(current *row.Row) {
	f.current = current
	f.currentSearchRow = current
}

// Value implements expr.ColumnResolver: it returns the current value of
// the given column. The synthetic row key comes straight from the search
// row; other columns prefer the value embedded in the index-only search
// row and fall back to materializing the full row, which is then cached.
// Returns NULL if materialization yields no row.
func (f *TableFilter) Value(col *row.Column) (types.Field, error) {
	if f.currentSearchRow == nil {
		return nil, fmt.Errorf("filter %s is not positioned on a row", f.alias)
	}
	if col.ID == row.RowKeyColumnID {
		return types.NewIntField(f.currentSearchRow.Key), nil
	}
	if f.current == nil {
		if v := f.currentSearchRow.Value(col.ID); v != nil {
			return v, nil
		}
		f.current = f.cursor.Row()
		if f.current == nil {
			// the row vanished underneath the cursor
			return types.Null, nil
		}
	}
	return f.current.Value(col.ID), nil
}

// LockRowAdd appends the current row to rows if the filter is positioned
// on a real row.
func (f *TableFilter) LockRowAdd(rows []*row.Row) []*row.Row {
	if f.state == stateFound {
		return append(rows, f.Row())
	}
	return rows
}

// LockRows write-locks previously captured rows by deleting each one and
// re-inserting an identical copy through the table, recording both
// operations for rollback. Row content is unchanged.
func (f *TableFilter) LockRows(forUpdateRows []*row.Row) error {
	for _, r := range forUpdateRows {
		newRow := r.Copy()
		if err := f.table.RemoveRow(f.s, r); err != nil {
			return err
		}
		f.s.Log(f.table.Name(), session.UndoDelete, r)
		if err := f.table.AddRow(f.s, newRow); err != nil {
			return err
		}
		f.s.Log(f.table.Name(), session.UndoInsert, newRow)
	}
	return nil
}

// HasInComparisons reports whether any index condition is an IN(...)
// membership test.
func (f *TableFilter) HasInComparisons() bool {
	for _, cond := range f.indexConditions {
		if cond.IsIn() {
			return true
		}
	}
	return false
}

// AddNaturalJoinColumn records a column of the natural join key list.
func (f *TableFilter) AddNaturalJoinColumn(c *row.Column) {
	f.naturalJoinColumns = append(f.naturalJoinColumns, c)
}

// IsNaturalJoinColumn reports whether the column is part of the natural
// join key list.
func (f *TableFilter) IsNaturalJoinColumn(c *row.Column) bool {
	for _, col := range f.naturalJoinColumns {
		if col == c {
			return true
		}
	}
	return false
}

// IsEvaluatable reports whether this filter's columns are currently
// available for condition evaluation.
func (f *TableFilter) IsEvaluatable() bool {
	return f.evaluatable
}

func (f *TableFilter) String() string {
	return f.alias
}
