package index

import (
	"fmt"

	"joindb/pkg/row"
	"joindb/pkg/session"
	"joindb/pkg/types"
)

// Cursor positions an index using pushed-down conditions and walks the
// matching rows. One cursor belongs to exactly one table filter; the chosen
// index is assigned once per plan and the cursor is re-positioned by Find
// for every outer-row combination.
type Cursor struct {
	src   RowSource
	index Index

	iter        Iterator
	alwaysFalse bool

	// conditions re-checked per row: covered by the index but not usable
	// for positioning its leading column.
	checks []*Condition

	// membership probe state
	inValues []types.Field
	inPos    int

	current *row.Row
	s       *session.Session
}

// NewCursor creates a cursor materializing full rows from the given source.
func NewCursor(src RowSource) *Cursor {
	return &Cursor{src: src}
}

// SetIndex assigns the index to walk and resets the cursor.
func (c *Cursor) SetIndex(idx Index) {
	c.index = idx
	c.iter = nil
	c.alwaysFalse = false
	c.current = nil
}

// Index returns the assigned index.
func (c *Cursor) Index() Index {
	return c.index
}

// Find positions the cursor using the given index conditions. Condition
// operands are evaluated against the current rows of the outer filters, so
// Find must be called again whenever those advance.
func (c *Cursor) Find(s *session.Session, conds []*Condition) error {
	c.s = s
	c.iter = nil
	c.current = nil
	c.alwaysFalse = false
	c.inValues = nil
	c.inPos = 0
	c.checks = c.checks[:0]

	if c.index == nil {
		return fmt.Errorf("cursor has no index assigned")
	}

	var start, end *Bound
	var inCond *Condition
	for _, cond := range conds {
		if cond.IsAlwaysFalse() {
			c.alwaysFalse = true
			return nil
		}
		leading := c.index.ColumnIndex(cond.Column) == 0
		if cond.IsIn() {
			if leading && inCond == nil && start == nil && end == nil {
				inCond = cond
				continue
			}
			c.checks = append(c.checks, cond)
			continue
		}

		v, err := cond.CurrentValue(s)
		if err != nil {
			return err
		}
		if v.IsNull() {
			// A range against NULL matches nothing.
			c.alwaysFalse = true
			return nil
		}
		if !leading || !boundingPredicate(cond.Op) {
			c.checks = append(c.checks, cond)
			continue
		}
		if inCond != nil {
			// A range on the probed column supersedes the membership
			// probe; the IN list becomes a per-row check.
			c.checks = append(c.checks, inCond)
			inCond = nil
		}
		switch cond.Op {
		case types.Equals:
			start = tighterStart(start, &Bound{Value: v, Inclusive: true})
			end = tighterEnd(end, &Bound{Value: v, Inclusive: true})
		case types.GreaterThan:
			start = tighterStart(start, &Bound{Value: v, Inclusive: false})
		case types.GreaterThanOrEqual:
			start = tighterStart(start, &Bound{Value: v, Inclusive: true})
		case types.LessThan:
			end = tighterEnd(end, &Bound{Value: v, Inclusive: false})
		case types.LessThanOrEqual:
			end = tighterEnd(end, &Bound{Value: v, Inclusive: true})
		}
	}

	if inCond != nil {
		// Membership probe: one equality seek per value, advanced lazily.
		values, err := inCond.CurrentValueList(s)
		if err != nil {
			return err
		}
		c.inValues = values
		return nil
	}
	c.iter = c.index.Seek(start, end)
	return nil
}

// IsAlwaysFalse reports whether the cursor is statically known to match
// nothing for the current positioning.
func (c *Cursor) IsAlwaysFalse() bool {
	return c.alwaysFalse
}

// Next advances to the next matching row.
func (c *Cursor) Next() (bool, error) {
	if c.alwaysFalse {
		return false, nil
	}
	for {
		if c.iter == nil {
			if !c.nextInProbe() {
				return false, nil
			}
		}
		r, ok := c.iter.Next()
		if !ok {
			c.iter = nil
			if c.inValues == nil || c.inPos >= len(c.inValues) {
				return false, nil
			}
			continue
		}
		match, err := c.matchesChecks(r)
		if err != nil {
			return false, err
		}
		if match {
			c.current = r
			return true, nil
		}
	}
}

// nextInProbe positions the iterator on the next IN value, returning false
// when the probe list is exhausted.
func (c *Cursor) nextInProbe() bool {
	for c.inValues != nil && c.inPos < len(c.inValues) {
		v := c.inValues[c.inPos]
		c.inPos++
		if v.IsNull() {
			continue
		}
		b := &Bound{Value: v, Inclusive: true}
		c.iter = c.index.Seek(b, b)
		return true
	}
	return false
}

// matchesChecks re-evaluates conditions the index could not use for
// positioning against the candidate row, materializing it when the search
// row does not cover the condition's column. Conditions on the row-key
// pseudo column compare against the key itself.
func (c *Cursor) matchesChecks(r *row.Row) (bool, error) {
	for _, cond := range c.checks {
		var v types.Field
		if cond.Column.ID == row.RowKeyColumnID {
			v = types.NewIntField(r.Key)
		} else {
			v = r.Value(cond.Column.ID)
			if v == nil {
				full := c.src.RowByKey(r.Key)
				if full == nil {
					return false, nil
				}
				v = full.Value(cond.Column.ID)
			}
		}
		if cond.IsIn() {
			values, err := cond.CurrentValueList(c.s)
			if err != nil {
				return false, err
			}
			found := false
			for _, item := range values {
				if match, known := v.Compare(types.Equals, item); known && match {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
			continue
		}
		want, err := cond.CurrentValue(c.s)
		if err != nil {
			return false, err
		}
		match, known := v.Compare(cond.Op, want)
		if !known || !match {
			return false, nil
		}
	}
	return true, nil
}

// SearchRow returns the current search row, which may cover only the
// indexed columns.
func (c *Cursor) SearchRow() *row.Row {
	return c.current
}

// Row materializes the full current row. Returns nil if the row vanished
// underneath the cursor.
func (c *Cursor) Row() *row.Row {
	if c.current == nil {
		return nil
	}
	return c.src.RowByKey(c.current.Key)
}

// boundingPredicate reports whether the operator can position an index
// through a start or end bound.
func boundingPredicate(op types.Predicate) bool {
	switch op {
	case types.Equals, types.GreaterThan, types.GreaterThanOrEqual,
		types.LessThan, types.LessThanOrEqual:
		return true
	}
	return false
}

// tighterStart keeps the stronger of two lower bounds.
func tighterStart(a, b *Bound) *Bound {
	if a == nil {
		return b
	}
	if cmp, known := b.Value.Compare(types.GreaterThan, a.Value); known && cmp {
		return b
	}
	if eq, known := b.Value.Compare(types.Equals, a.Value); known && eq && !b.Inclusive {
		return b
	}
	return a
}

// tighterEnd keeps the stronger of two upper bounds.
func tighterEnd(a, b *Bound) *Bound {
	if a == nil {
		return b
	}
	if cmp, known := b.Value.Compare(types.LessThan, a.Value); known && cmp {
		return b
	}
	if eq, known := b.Value.Compare(types.Equals, a.Value); known && eq && !b.Inclusive {
		return b
	}
	return a
}
