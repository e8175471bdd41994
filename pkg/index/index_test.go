package index

import (
	"context"
	"testing"

	"joindb/pkg/expr"
	"joindb/pkg/row"
	"joindb/pkg/session"
	"joindb/pkg/types"
)

// memSource is a trivial RowSource over a fixed row set.
type memSource map[int64]*row.Row

func (m memSource) RowByKey(key int64) *row.Row {
	return m[key]
}

func buildIndex(t *testing.T, values ...int64) (*OrderedIndex, memSource, *row.Column) {
	t.Helper()
	schema := row.NewSchema("t",
		&row.Column{Name: "id", Type: types.IntType},
		&row.Column{Name: "name", Type: types.StringType},
	)
	col := schema.Find("id")
	idx := NewOrderedIndex("idx_id", col, schema.Width())
	src := memSource{}
	for i, v := range values {
		key := int64(i + 1)
		r := row.NewRow(key, types.NewIntField(v), types.NewStringField("r"))
		idx.Add(r)
		src[key] = r
	}
	return idx, src, col
}

func cond(col *row.Column, op types.Predicate, v int64) *Condition {
	return NewCondition(expr.IndexConditionSpec{Column: col, Op: op, Expr: expr.Int(v)})
}

func collect(t *testing.T, c *Cursor) []int64 {
	t.Helper()
	var keys []int64
	for {
		ok, err := c.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			return keys
		}
		keys = append(keys, c.SearchRow().Key)
	}
}

func TestConditionMasks(t *testing.T) {
	col := &row.Column{Name: "id", Type: types.IntType}
	eq := cond(col, types.Equals, 1)
	gt := cond(col, types.GreaterThan, 1)
	lt := cond(col, types.LessThan, 9)
	in := NewCondition(expr.IndexConditionSpec{Column: col, Op: types.In, List: []expr.Expression{expr.Int(1)}})

	tests := []struct {
		name  string
		c     *Condition
		conds []*Condition
		want  int
	}{
		{"equality", eq, []*Condition{eq}, MaskEquality},
		{"range start", gt, []*Condition{gt}, MaskStart},
		{"range end", lt, []*Condition{lt}, MaskEnd},
		{"membership alone", in, []*Condition{in}, MaskIn},
		{"membership beside range", in, []*Condition{in, gt}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Mask(tt.conds); got != tt.want {
				t.Errorf("Mask = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCursorEqualitySeek(t *testing.T) {
	s := session.New(context.Background())
	idx, src, col := buildIndex(t, 10, 20, 20, 30)

	c := NewCursor(src)
	c.SetIndex(idx)
	if err := c.Find(s, []*Condition{cond(col, types.Equals, 20)}); err != nil {
		t.Fatal(err)
	}
	keys := collect(t, c)
	if len(keys) != 2 {
		t.Fatalf("equality seek found %d rows, want 2", len(keys))
	}
}

func TestCursorRangeSeek(t *testing.T) {
	s := session.New(context.Background())
	idx, src, col := buildIndex(t, 1, 2, 3, 4, 5)

	c := NewCursor(src)
	c.SetIndex(idx)
	conds := []*Condition{
		cond(col, types.GreaterThan, 1),
		cond(col, types.LessThanOrEqual, 4),
	}
	if err := c.Find(s, conds); err != nil {
		t.Fatal(err)
	}
	keys := collect(t, c)
	if len(keys) != 3 {
		t.Errorf("range (1, 4] found %d rows, want 3", len(keys))
	}
}

func TestCursorInProbe(t *testing.T) {
	s := session.New(context.Background())
	idx, src, col := buildIndex(t, 1, 2, 3, 4)

	c := NewCursor(src)
	c.SetIndex(idx)
	in := NewCondition(expr.IndexConditionSpec{
		Column: col,
		Op:     types.In,
		List:   []expr.Expression{expr.Int(4), expr.Int(2), expr.Int(99)},
	})
	if err := c.Find(s, []*Condition{in}); err != nil {
		t.Fatal(err)
	}
	keys := collect(t, c)
	if len(keys) != 2 {
		t.Errorf("IN(4, 2, 99) found %d rows, want 2", len(keys))
	}
}

func TestCursorRowKeyCheck(t *testing.T) {
	s := session.New(context.Background())
	idx, src, _ := buildIndex(t, 10, 20, 30)

	c := NewCursor(src)
	c.SetIndex(idx)
	rowKey := row.RowKeyColumn("t")
	if err := c.Find(s, []*Condition{cond(rowKey, types.Equals, 2)}); err != nil {
		t.Fatal(err)
	}
	keys := collect(t, c)
	if len(keys) != 1 || keys[0] != 2 {
		t.Errorf("row key lookup found keys %v, want [2]", keys)
	}
}

func TestCursorInProbeSupersededByRange(t *testing.T) {
	s := session.New(context.Background())
	idx, src, col := buildIndex(t, 1, 2, 3, 4, 5)

	c := NewCursor(src)
	c.SetIndex(idx)
	in := NewCondition(expr.IndexConditionSpec{
		Column: col,
		Op:     types.In,
		List:   []expr.Expression{expr.Int(1), expr.Int(2), expr.Int(3)},
	})
	conds := []*Condition{in, cond(col, types.GreaterThan, 2)}
	if err := c.Find(s, conds); err != nil {
		t.Fatal(err)
	}
	keys := collect(t, c)
	if len(keys) != 1 || keys[0] != 3 {
		t.Errorf("IN(1, 2, 3) AND > 2 found keys %v, want [3]", keys)
	}
}

func TestCursorAlwaysFalse(t *testing.T) {
	s := session.New(context.Background())
	idx, src, col := buildIndex(t, 1, 2)

	c := NewCursor(src)
	c.SetIndex(idx)
	falseCond := NewCondition(expr.IndexConditionSpec{Column: col, Op: types.AlwaysFalse})
	if err := c.Find(s, []*Condition{falseCond}); err != nil {
		t.Fatal(err)
	}
	if !c.IsAlwaysFalse() {
		t.Fatal("cursor must be statically empty")
	}
	if keys := collect(t, c); keys != nil {
		t.Errorf("statically empty cursor yielded rows %v", keys)
	}
}

func TestCursorMaterializesThroughSource(t *testing.T) {
	s := session.New(context.Background())
	idx, src, col := buildIndex(t, 7)

	c := NewCursor(src)
	c.SetIndex(idx)
	if err := c.Find(s, []*Condition{cond(col, types.Equals, 7)}); err != nil {
		t.Fatal(err)
	}
	ok, err := c.Next()
	if err != nil || !ok {
		t.Fatalf("Next = (%v, %v), want row", ok, err)
	}

	search := c.SearchRow()
	if v := search.Value(1); v != nil {
		t.Errorf("search row must not cover the name column, got %v", v)
	}
	full := c.Row()
	if full == nil || full.Value(1) == nil {
		t.Errorf("materialized row must cover every column")
	}
}

func TestScanIndexDropsConditions(t *testing.T) {
	rows := []*row.Row{row.NewRow(1, types.NewIntField(1))}
	scan := NewScanIndex("scan", func() []*row.Row { return rows })
	col := &row.Column{Name: "id", Type: types.IntType}
	if scan.ColumnIndex(col) != -1 {
		t.Errorf("scan index must not cover any column")
	}
}

func TestOrderedIndexCost(t *testing.T) {
	idx, _, col := buildIndex(t, 1, 2, 3, 4, 5, 6, 7, 8)
	masks := make([]int, 2)

	noCond := idx.Cost(nil, nil)
	masks[col.ID] = MaskEquality
	eq := idx.Cost(masks, nil)
	masks[col.ID] = MaskRange
	rng := idx.Cost(masks, nil)

	if !(eq < rng && rng < noCond) {
		t.Errorf("cost ordering violated: equality=%v range=%v unassisted=%v", eq, rng, noCond)
	}

	sorted := idx.Cost(masks, &SortSpec{Column: col})
	if sorted >= rng {
		t.Errorf("matching sort order must discount cost: %v >= %v", sorted, rng)
	}
}

func TestOrderedIndexMixedTypeEntries(t *testing.T) {
	col := &row.Column{Name: "v", Type: types.IntType}
	idx := NewOrderedIndex("mixed", col, 1)

	idx.Add(row.NewRow(1, types.NewIntField(7)))
	idx.Add(row.NewRow(2, types.NewStringField("7")))
	if idx.tree.Len() != 2 {
		t.Fatalf("index holds %d entries, want 2", idx.tree.Len())
	}

	it := idx.Seek(nil, nil)
	var keys []int64
	for {
		r, ok := it.Next()
		if !ok {
			break
		}
		keys = append(keys, r.Key)
	}
	if len(keys) != 2 || keys[0] != 1 || keys[1] != 2 {
		t.Errorf("full scan yielded keys %v, want [1 2]", keys)
	}
}
