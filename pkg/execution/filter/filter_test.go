package filter

import (
	"context"
	"math"
	"strings"
	"testing"

	dberror "joindb/pkg/error"
	"joindb/pkg/expr"
	"joindb/pkg/row"
	"joindb/pkg/session"
	"joindb/pkg/table"
	"joindb/pkg/types"
)

func newTestSession() *session.Session {
	return session.New(context.Background())
}

func intCol(name string) *row.Column {
	return &row.Column{Name: name, Type: types.IntType}
}

func strCol(name string) *row.Column {
	return &row.Column{Name: name, Type: types.StringType}
}

func iv(v int64) types.Field { return types.NewIntField(v) }
func sv(v string) types.Field { return types.NewStringField(v) }

// planAndStart runs the single-order planning flow: cost the tree, apply
// the plan, prepare, and rewind, with every filter marked evaluatable.
func planAndStart(t *testing.T, s *session.Session, top *TableFilter) {
	t.Helper()
	top.SetPlanItem(top.BestPlanItem(s, 1))
	if err := top.Prepare(); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	for f := range top.All() {
		top.SetEvaluatable(f, true)
	}
	top.StartQuery(s)
	top.Reset()
}

// drain advances top until exhaustion, invoking read after each row.
func drain(t *testing.T, top *TableFilter, read func()) int {
	t.Helper()
	n := 0
	for {
		ok, err := top.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !ok {
			return n
		}
		n++
		if read != nil {
			read()
		}
	}
}

func fieldOf(t *testing.T, f *TableFilter, name string) types.Field {
	t.Helper()
	col := f.Schema().Find(name)
	if col == nil {
		t.Fatalf("no column %s in %s", name, f.Alias())
	}
	v, err := f.Value(col)
	if err != nil {
		t.Fatalf("value of %s.%s: %v", f.Alias(), name, err)
	}
	return v
}

func newT1(t *testing.T, s *session.Session) (*table.MemTable, *TableFilter) {
	t.Helper()
	tbl := table.NewMemTable("T1", row.NewSchema("T1", intCol("ID"), strCol("NAME")))
	tbl.Insert(iv(1), sv("a"))
	tbl.Insert(iv(2), sv("b"))
	f, err := New(s, tbl, "", true, nil)
	if err != nil {
		t.Fatalf("new filter: %v", err)
	}
	return tbl, f
}

func newT2(t *testing.T, s *session.Session) (*table.MemTable, *TableFilter) {
	t.Helper()
	tbl := table.NewMemTable("T2", row.NewSchema("T2", intCol("ID"), strCol("V")))
	tbl.Insert(iv(1), sv("x"))
	f, err := New(s, tbl, "", true, nil)
	if err != nil {
		t.Fatalf("new filter: %v", err)
	}
	return tbl, f
}

func idEquals(left, right *TableFilter) expr.Expression {
	return expr.NewComparison(types.Equals,
		expr.NewQualifiedColumnRef(left.Alias(), "ID"),
		expr.NewQualifiedColumnRef(right.Alias(), "ID"))
}

func TestSingleTableScan(t *testing.T) {
	s := newTestSession()
	_, f := newT1(t, s)
	planAndStart(t, s, f)

	var ids []int64
	n := drain(t, f, func() {
		ids = append(ids, fieldOf(t, f, "ID").(*types.IntField).Value)
	})
	if n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
	if ids[0] != 1 || ids[1] != 2 {
		t.Errorf("unexpected ids %v", ids)
	}
}

func TestCartesianProduct(t *testing.T) {
	s := newTestSession()
	a := table.NewMemTable("A", row.NewSchema("A", intCol("ID")))
	b := table.NewMemTable("B", row.NewSchema("B", intCol("ID")))
	for i := int64(1); i <= 2; i++ {
		a.Insert(iv(i))
	}
	for i := int64(1); i <= 3; i++ {
		b.Insert(iv(i))
	}
	fa, _ := New(s, a, "", true, nil)
	fb, _ := New(s, b, "", true, nil)
	if err := fa.AddJoin(fb, false, false, nil); err != nil {
		t.Fatalf("add join: %v", err)
	}
	planAndStart(t, s, fa)

	if n := drain(t, fa, nil); n != 6 {
		t.Errorf("cartesian product of 2x3 rows: expected 6, got %d", n)
	}
}

func TestInnerJoin(t *testing.T) {
	s := newTestSession()
	_, f1 := newT1(t, s)
	_, f2 := newT2(t, s)
	if err := f1.AddJoin(f2, false, false, idEquals(f1, f2)); err != nil {
		t.Fatalf("add join: %v", err)
	}
	planAndStart(t, s, f1)

	type pair struct{ name, v string }
	var got []pair
	n := drain(t, f1, func() {
		got = append(got, pair{
			fieldOf(t, f1, "NAME").(*types.StringField).Value,
			fieldOf(t, f2, "V").(*types.StringField).Value,
		})
	})
	if n != 1 {
		t.Fatalf("expected 1 row, got %d", n)
	}
	if got[0] != (pair{"a", "x"}) {
		t.Errorf("unexpected row %+v", got[0])
	}
}

func TestLeftOuterJoin(t *testing.T) {
	s := newTestSession()
	_, f1 := newT1(t, s)
	_, f2 := newT2(t, s)
	if err := f1.AddJoin(f2, true, false, idEquals(f1, f2)); err != nil {
		t.Fatalf("add join: %v", err)
	}
	planAndStart(t, s, f1)

	type joined struct {
		id   types.Field
		name types.Field
		id2  types.Field
		v    types.Field
	}
	read := func() joined {
		return joined{
			fieldOf(t, f1, "ID"), fieldOf(t, f1, "NAME"),
			fieldOf(t, f2, "ID"), fieldOf(t, f2, "V"),
		}
	}
	check := func(rows []joined) {
		t.Helper()
		if len(rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(rows))
		}
		if !rows[0].id.Equals(iv(1)) || !rows[0].id2.Equals(iv(1)) || !rows[0].v.Equals(sv("x")) {
			t.Errorf("matched row wrong: %+v", rows[0])
		}
		if !rows[1].id.Equals(iv(2)) {
			t.Errorf("second row should be for ID 2: %+v", rows[1])
		}
		if !rows[1].id2.IsNull() || !rows[1].v.IsNull() {
			t.Errorf("unmatched side should be NULL: %+v", rows[1])
		}
	}

	var rows []joined
	drain(t, f1, func() { rows = append(rows, read()) })
	check(rows)

	// a restarted iteration yields the identical sequence
	f1.Reset()
	rows = rows[:0]
	drain(t, f1, func() { rows = append(rows, read()) })
	check(rows)
}

func TestOuterJoinEmptyRightYieldsOneNullRow(t *testing.T) {
	s := newTestSession()
	_, f1 := newT1(t, s)
	empty := table.NewMemTable("E", row.NewSchema("E", intCol("ID")))
	fe, _ := New(s, empty, "", true, nil)
	if err := f1.AddJoin(fe, true, false, nil); err != nil {
		t.Fatalf("add join: %v", err)
	}
	planAndStart(t, s, f1)

	nulls := 0
	n := drain(t, f1, func() {
		if fieldOf(t, fe, "ID").IsNull() {
			nulls++
		}
	})
	if n != 2 || nulls != 2 {
		t.Errorf("expected one NULL row per left row: rows=%d nulls=%d", n, nulls)
	}
}

func TestStaticallyFalseCondition(t *testing.T) {
	s := newTestSession()
	s.SetSettings(session.Settings{NestedJoins: true, OptimizeIsNull: false})

	addAlwaysFalse := func(f *TableFilter) {
		cmp := expr.NewComparison(types.Equals,
			expr.NewQualifiedColumnRef(f.Alias(), "ID"), expr.NullLiteral())
		cmp.MapColumns(f)
		opt, err := cmp.Optimize(s)
		if err != nil {
			t.Fatalf("optimize: %v", err)
		}
		opt.CreateIndexConditions(s, f)
	}

	t.Run("inner", func(t *testing.T) {
		_, f1 := newT1(t, s)
		addAlwaysFalse(f1)
		planAndStart(t, s, f1)
		if n := drain(t, f1, nil); n != 0 {
			t.Errorf("statically false scan returned %d rows", n)
		}
	})

	t.Run("outer right side", func(t *testing.T) {
		_, f1 := newT1(t, s)
		_, f2 := newT2(t, s)
		if err := f1.AddJoin(f2, true, false, nil); err != nil {
			t.Fatalf("add join: %v", err)
		}
		addAlwaysFalse(f2)
		planAndStart(t, s, f1)
		nulls := 0
		n := drain(t, f1, func() {
			if fieldOf(t, f2, "ID").IsNull() {
				nulls++
			}
		})
		if n != 2 || nulls != 2 {
			t.Errorf("outer join over false side: rows=%d nulls=%d", n, nulls)
		}
	})
}

func TestPrepareRejectsSelfJoin(t *testing.T) {
	s := newTestSession()
	_, f1 := newT1(t, s)
	f1.join = f1
	err := f1.Prepare()
	if !dberror.HasCode(err, dberror.CodeSelfJoin) {
		t.Errorf("expected self join error, got %v", err)
	}

	_, f2 := newT1(t, s)
	f2.nestedJoin = f2
	err = f2.Prepare()
	if !dberror.HasCode(err, dberror.CodeSelfJoin) {
		t.Errorf("expected self join error for nested link, got %v", err)
	}
}

func TestPrepareDropsConditionsScanCannotServe(t *testing.T) {
	s := newTestSession()
	_, f1 := newT1(t, s)
	cmp := expr.NewComparison(types.Equals,
		expr.NewQualifiedColumnRef("T1", "ID"), expr.Int(1))
	cmp.MapColumns(f1)
	cmp.CreateIndexConditions(s, f1)
	if len(f1.indexConditions) != 1 {
		t.Fatalf("expected 1 index condition, got %d", len(f1.indexConditions))
	}
	planAndStart(t, s, f1)
	if len(f1.indexConditions) != 0 {
		t.Errorf("scan index cannot serve conditions, %d survived", len(f1.indexConditions))
	}
}

func TestIndexedEqualityLookup(t *testing.T) {
	s := newTestSession()
	tbl := table.NewMemTable("T", row.NewSchema("T", intCol("ID"), strCol("NAME")))
	for i := int64(1); i <= 50; i++ {
		tbl.Insert(iv(i), sv(strings.Repeat("n", int(i%5)+1)))
	}
	if err := tbl.CreateIndex("T_ID", "ID"); err != nil {
		t.Fatalf("create index: %v", err)
	}
	f, _ := New(s, tbl, "", true, nil)
	cmp := expr.NewComparison(types.Equals,
		expr.NewQualifiedColumnRef("T", "ID"), expr.Int(7))
	cmp.MapColumns(f)
	cmp.CreateIndexConditions(s, f)
	planAndStart(t, s, f)

	if f.Index() == nil || f.Index().Name() != "T_ID" {
		t.Fatalf("expected index T_ID, got %v", f.Index())
	}
	if len(f.indexConditions) != 1 {
		t.Fatalf("index condition should survive prepare")
	}
	n := drain(t, f, func() {
		if got := fieldOf(t, f, "ID"); !got.Equals(iv(7)) {
			t.Errorf("lookup returned ID %v", got)
		}
	})
	if n != 1 {
		t.Errorf("equality lookup returned %d rows", n)
	}
}

func TestRowKeyEqualityLookup(t *testing.T) {
	s := newTestSession()
	_, f := newT1(t, s)
	cmp := expr.NewComparison(types.Equals,
		expr.NewQualifiedColumnRef("T1", "_ROWID_"), expr.Int(2))
	cmp.MapColumns(f)
	cmp.CreateIndexConditions(s, f)
	if len(f.indexConditions) != 1 {
		t.Fatalf("expected 1 index condition, got %d", len(f.indexConditions))
	}
	planAndStart(t, s, f)
	if len(f.indexConditions) != 1 {
		t.Fatalf("row key condition must survive prepare")
	}

	n := drain(t, f, func() {
		if got := fieldOf(t, f, "NAME"); !got.Equals(sv("b")) {
			t.Errorf("NAME = %v", got)
		}
	})
	if n != 1 {
		t.Errorf("row key lookup returned %d rows, want 1", n)
	}
}

func TestValueMaterializesLazily(t *testing.T) {
	s := newTestSession()
	tbl := table.NewMemTable("T", row.NewSchema("T", intCol("ID"), strCol("NAME")))
	r := tbl.Insert(iv(5), sv("hello"))
	if err := tbl.CreateIndex("T_ID", "ID"); err != nil {
		t.Fatalf("create index: %v", err)
	}
	f, _ := New(s, tbl, "", true, nil)
	cmp := expr.NewComparison(types.Equals,
		expr.NewQualifiedColumnRef("T", "ID"), expr.Int(5))
	cmp.MapColumns(f)
	cmp.CreateIndexConditions(s, f)
	planAndStart(t, s, f)

	ok, err := f.Next()
	if err != nil || !ok {
		t.Fatalf("next: ok=%v err=%v", ok, err)
	}

	// the indexed column comes straight from the search row
	if f.current != nil {
		t.Fatalf("row materialized before a non-covered column was read")
	}
	if got := fieldOf(t, f, "ID"); !got.Equals(iv(5)) {
		t.Errorf("ID = %v", got)
	}
	if f.current != nil {
		t.Fatalf("reading a covered column must not materialize the row")
	}

	// the row key is served without materialization too
	key, err := f.Value(row.RowKeyColumn("T"))
	if err != nil {
		t.Fatalf("row key: %v", err)
	}
	if !key.Equals(iv(r.Key)) {
		t.Errorf("row key = %v, want %d", key, r.Key)
	}
	if f.current != nil {
		t.Fatalf("reading the row key must not materialize the row")
	}

	// a non-covered column forces the full row, which is then cached
	if got := fieldOf(t, f, "NAME"); !got.Equals(sv("hello")) {
		t.Errorf("NAME = %v", got)
	}
	if f.current == nil {
		t.Fatalf("row should be cached after materialization")
	}
	cached := f.current
	fieldOf(t, f, "NAME")
	if f.current != cached {
		t.Errorf("second read must reuse the cached row")
	}
}

func TestCostDiscountPerIndexCondition(t *testing.T) {
	s := newTestSession()
	tbl := table.NewMemTable("T", row.NewSchema("T", intCol("ID")))
	for i := int64(1); i <= 100; i++ {
		tbl.Insert(iv(i))
	}
	if err := tbl.CreateIndex("T_ID", "ID"); err != nil {
		t.Fatalf("create index: %v", err)
	}

	costAt := func(level int) float64 {
		f, _ := New(s, tbl, "", true, nil)
		cmp := expr.NewComparison(types.Equals,
			expr.NewQualifiedColumnRef("T", "ID"), expr.Int(1))
		cmp.MapColumns(f)
		cmp.CreateIndexConditions(s, f)
		return f.BestPlanItem(s, level).Cost
	}

	// equality probe costs 3; one condition discounts 1% divided by level
	if got, want := costAt(1), 3-3*0.01; math.Abs(got-want) > 1e-9 {
		t.Errorf("level 1 cost = %v, want %v", got, want)
	}
	if got, want := costAt(2), 3-3*0.01/2; math.Abs(got-want) > 1e-9 {
		t.Errorf("level 2 cost = %v, want %v", got, want)
	}
}

func TestJoinCostIsMultiplicative(t *testing.T) {
	s := newTestSession()
	a := table.NewMemTable("A", row.NewSchema("A", intCol("ID")))
	b := table.NewMemTable("B", row.NewSchema("B", intCol("ID")))
	for i := int64(1); i <= 2; i++ {
		a.Insert(iv(i))
	}
	for i := int64(1); i <= 3; i++ {
		b.Insert(iv(i))
	}
	fa, _ := New(s, a, "", true, nil)
	fb, _ := New(s, b, "", true, nil)
	if err := fa.AddJoin(fb, false, false, nil); err != nil {
		t.Fatalf("add join: %v", err)
	}

	item := fa.BestPlanItem(s, 1)
	// scan costs are rowcount+10: A=12, B=13; joined cost is a + a*b
	if want := 12 + 12*13.0; math.Abs(item.Cost-want) > 1e-9 {
		t.Errorf("join cost = %v, want %v", item.Cost, want)
	}
	if item.JoinPlan() == nil || math.Abs(item.JoinPlan().Cost-13) > 1e-9 {
		t.Errorf("join sub-plan cost wrong: %+v", item.JoinPlan())
	}
}

func TestNextPollsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := session.New(ctx)
	tbl := table.NewMemTable("T", row.NewSchema("T", intCol("ID")))
	for i := int64(1); i <= 5000; i++ {
		tbl.Insert(iv(i))
	}
	f, _ := New(s, tbl, "", true, nil)
	planAndStart(t, s, f)
	cancel()

	rows := 0
	for {
		ok, err := f.Next()
		if err != nil {
			if !dberror.HasCode(err, dberror.CodeQueryCanceled) {
				t.Fatalf("expected cancellation error, got %v", err)
			}
			break
		}
		if !ok {
			t.Fatalf("scan finished without noticing cancellation")
		}
		rows++
	}
	if rows != checkCanceledInterval-1 {
		t.Errorf("cancellation noticed after %d rows, want %d", rows, checkCanceledInterval-1)
	}

	// the abort leaves the tree restartable under a fresh session
	fresh := newTestSession()
	f.StartQuery(fresh)
	f.Reset()
	if n := drain(t, f, nil); n != 5000 {
		t.Errorf("restart after cancellation returned %d rows", n)
	}
}

func TestLockRowsLogsUndoPairs(t *testing.T) {
	s := newTestSession()
	tbl, f := newT1(t, s)
	planAndStart(t, s, f)

	ok, err := f.Next()
	if err != nil || !ok {
		t.Fatalf("next: ok=%v err=%v", ok, err)
	}
	rows := f.LockRowAdd(nil)
	if len(rows) != 1 {
		t.Fatalf("expected 1 captured row, got %d", len(rows))
	}
	if err := f.LockRows(rows); err != nil {
		t.Fatalf("lock rows: %v", err)
	}

	log := s.UndoLog()
	if len(log) != 2 {
		t.Fatalf("expected delete+insert undo pair, got %d records", len(log))
	}
	if log[0].Op != session.UndoDelete || log[1].Op != session.UndoInsert {
		t.Errorf("wrong undo ops: %v, %v", log[0].Op, log[1].Op)
	}
	if log[0].Table != "T1" || log[1].Table != "T1" {
		t.Errorf("wrong undo table names: %s, %s", log[0].Table, log[1].Table)
	}
	if tbl.RowCount() != 2 {
		t.Errorf("locking must not change row count, have %d", tbl.RowCount())
	}
}

func TestNestedJoinIteratesSubtree(t *testing.T) {
	s := newTestSession()
	b := table.NewMemTable("B", row.NewSchema("B", intCol("ID")))
	c := table.NewMemTable("C", row.NewSchema("C", intCol("ID")))
	for i := int64(1); i <= 2; i++ {
		b.Insert(iv(i))
	}
	for i := int64(1); i <= 3; i++ {
		c.Insert(iv(i))
	}
	fb, _ := New(s, b, "", true, nil)
	fc, _ := New(s, c, "", true, nil)
	if err := fb.AddJoin(fc, false, false, nil); err != nil {
		t.Fatalf("add join: %v", err)
	}
	wrapTbl := table.NewMemTable("W", row.NewSchema("W"))
	wrap, _ := New(s, wrapTbl, "", true, nil)
	if err := wrap.AddJoin(fb, false, true, nil); err != nil {
		t.Fatalf("add nested join: %v", err)
	}
	planAndStart(t, s, wrap)

	if n := drain(t, wrap, nil); n != 6 {
		t.Errorf("nested (B x C) should yield 6 rows, got %d", n)
	}

	// a second nested join on the same filter is a bug upstream
	other, _ := New(s, table.NewMemTable("X", row.NewSchema("X")), "", true, nil)
	err := wrap.AddJoin(other, false, true, nil)
	if !dberror.HasCode(err, dberror.CodeNestedJoinSet) {
		t.Errorf("expected nested-join-set error, got %v", err)
	}
}

func TestOuterNestedJoinSynthesizesNullSubtree(t *testing.T) {
	s := newTestSession()
	_, f1 := newT1(t, s)

	b := table.NewMemTable("B", row.NewSchema("B", intCol("X")))
	c := table.NewMemTable("C", row.NewSchema("C", intCol("Y")))
	fb, _ := New(s, b, "", true, nil)
	fc, _ := New(s, c, "", true, nil)
	if err := fb.AddJoin(fc, false, false, nil); err != nil {
		t.Fatalf("add join: %v", err)
	}
	wrapTbl := table.NewMemTable("W", row.NewSchema("W"))
	wrap, _ := New(s, wrapTbl, "", true, nil)
	if err := wrap.AddJoin(fb, false, true, nil); err != nil {
		t.Fatalf("add nested join: %v", err)
	}
	if err := f1.AddJoin(wrap, true, false, nil); err != nil {
		t.Fatalf("add outer join: %v", err)
	}
	planAndStart(t, s, f1)

	n := drain(t, f1, func() {
		if !fieldOf(t, fb, "X").IsNull() || !fieldOf(t, fc, "Y").IsNull() {
			t.Errorf("whole nested subtree should be NULL")
		}
	})
	if n != 2 {
		t.Errorf("expected 2 rows (one NULL subtree per left row), got %d", n)
	}
}

func TestAddJoinMarksOuterChain(t *testing.T) {
	t.Run("nested joins enabled", func(t *testing.T) {
		s := newTestSession()
		_, fa := newT1(t, s)
		_, fb := newT2(t, s)
		fc, _ := New(s, table.NewMemTable("T3", row.NewSchema("T3", intCol("ID"))), "", true, nil)
		if err := fb.AddJoin(fc, false, false, nil); err != nil {
			t.Fatalf("add join: %v", err)
		}
		if err := fa.AddJoin(fb, true, false, nil); err != nil {
			t.Fatalf("add outer join: %v", err)
		}
		if !fb.IsJoinOuter() {
			t.Errorf("direct right side should be outer")
		}
		if fc.IsJoinOuter() {
			t.Errorf("inner link below should keep its own kind")
		}
		if !fb.IsJoinOuterIndirect() || !fc.IsJoinOuterIndirect() {
			t.Errorf("whole right subtree should be indirectly outer")
		}
	})

	t.Run("nested joins disabled", func(t *testing.T) {
		s := newTestSession()
		s.SetSettings(session.Settings{NestedJoins: false, OptimizeIsNull: true})
		_, fa := newT1(t, s)
		_, fb := newT2(t, s)
		fc, _ := New(s, table.NewMemTable("T3", row.NewSchema("T3", intCol("ID"))), "", true, nil)
		if err := fb.AddJoin(fc, false, false, nil); err != nil {
			t.Fatalf("add join: %v", err)
		}
		if err := fa.AddJoin(fb, true, false, nil); err != nil {
			t.Fatalf("add outer join: %v", err)
		}
		if !fb.IsJoinOuter() || !fc.IsJoinOuter() {
			t.Errorf("without nested joins every join to the right turns outer")
		}
	})
}

func TestOptimizeFullConditionRespectsOuterBoundary(t *testing.T) {
	s := newTestSession()

	build := func(outer bool) (*TableFilter, *TableFilter) {
		_, f1 := newT1(t, s)
		_, f2 := newT2(t, s)
		if err := f1.AddJoin(f2, outer, false, nil); err != nil {
			t.Fatalf("add join: %v", err)
		}
		where := expr.NewComparison(types.Equals,
			expr.NewQualifiedColumnRef("T2", "ID"), expr.Int(1))
		where.MapColumns(f1)
		where.MapColumns(f2)
		f1.SetFullCondition(where)
		f1.OptimizeFullCondition(false)
		return f1, f2
	}

	inner1, inner2 := build(false)
	if inner2.FilterCondition() == nil {
		t.Errorf("inner join: condition should be pushed down as a row filter")
	}
	if inner1.FilterCondition() != nil {
		t.Errorf("condition references T2 only, it must not attach to T1")
	}

	_, outer2 := build(true)
	if outer2.FilterCondition() != nil {
		t.Errorf("outer join: pushing the condition below the boundary changes semantics")
	}
}

func TestRemoveUnusableIndexConditions(t *testing.T) {
	s := newTestSession()
	_, f1 := newT1(t, s)
	_, f2 := newT2(t, s)
	cmp := idEquals(f2, f1)
	cmp.MapColumns(f1)
	cmp.MapColumns(f2)
	cmp.CreateIndexConditions(s, f2)
	if len(f2.indexConditions) == 0 {
		t.Fatalf("expected a correlated index condition on T2")
	}
	// T1 is not evaluatable yet, so the condition cannot be used
	f2.RemoveUnusableIndexConditions()
	if len(f2.indexConditions) != 0 {
		t.Errorf("unusable condition survived, %d left", len(f2.indexConditions))
	}
}

func TestHasInComparisons(t *testing.T) {
	s := newTestSession()
	_, f1 := newT1(t, s)
	if f1.HasInComparisons() {
		t.Errorf("fresh filter reports IN comparisons")
	}
	in := expr.NewInList(expr.NewQualifiedColumnRef("T1", "ID"), expr.Int(1), expr.Int(2))
	in.MapColumns(f1)
	in.CreateIndexConditions(s, f1)
	if !f1.HasInComparisons() {
		t.Errorf("IN condition not reported")
	}
}

func TestNaturalJoinColumns(t *testing.T) {
	s := newTestSession()
	_, f1 := newT1(t, s)
	id := f1.Schema().Find("ID")
	name := f1.Schema().Find("NAME")
	if f1.IsNaturalJoinColumn(id) {
		t.Errorf("no natural join columns registered yet")
	}
	f1.AddNaturalJoinColumn(id)
	if !f1.IsNaturalJoinColumn(id) || f1.IsNaturalJoinColumn(name) {
		t.Errorf("natural join column tracking wrong")
	}
}

func TestSetOverridesCurrentRow(t *testing.T) {
	s := newTestSession()
	_, f1 := newT1(t, s)
	r := row.NewRow(99, iv(42), sv("z"))
	f1.Set(r)
	if got := fieldOf(t, f1, "ID"); !got.Equals(iv(42)) {
		t.Errorf("ID = %v after Set", got)
	}
	key, err := f1.Value(row.RowKeyColumn("T1"))
	if err != nil {
		t.Fatalf("row key: %v", err)
	}
	if !key.Equals(iv(99)) {
		t.Errorf("row key = %v after Set", key)
	}
}

func TestNewChecksSelectRight(t *testing.T) {
	s := newTestSession()
	s.SetUser(session.NewUser("alice"))
	tbl := table.NewMemTable("T", row.NewSchema("T", intCol("ID")))

	if _, err := New(s, tbl, "", false, nil); !dberror.HasCode(err, dberror.CodeAccessDenied) {
		t.Errorf("expected access denied, got %v", err)
	}
	if _, err := New(s, tbl, "", true, nil); err != nil {
		t.Errorf("rights already checked, got %v", err)
	}
	s.User().Grant("T", session.RightSelect)
	if _, err := New(s, tbl, "", false, nil); err != nil {
		t.Errorf("granted user rejected: %v", err)
	}
}

func TestAllVisitsWholeTree(t *testing.T) {
	s := newTestSession()
	_, fa := newT1(t, s)
	_, fb := newT2(t, s)
	fc, _ := New(s, table.NewMemTable("T3", row.NewSchema("T3", intCol("ID"))), "", true, nil)
	wrapTbl := table.NewMemTable("W", row.NewSchema("W"))
	wrap, _ := New(s, wrapTbl, "", true, nil)
	if err := wrap.AddJoin(fb, false, true, nil); err != nil {
		t.Fatalf("add nested join: %v", err)
	}
	if err := fa.AddJoin(wrap, false, false, nil); err != nil {
		t.Fatalf("add join: %v", err)
	}
	if err := fa.AddJoin(fc, false, false, nil); err != nil {
		t.Fatalf("add join: %v", err)
	}

	var seen []string
	for f := range fa.All() {
		seen = append(seen, f.Alias())
	}
	want := []string{"T1", "W", "T2", "T3"}
	if len(seen) != len(want) {
		t.Fatalf("visited %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("visited %v, want %v", seen, want)
		}
	}

	// early stop is honored
	count := 0
	for range fa.All() {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Errorf("early break visited %d filters", count)
	}
}

func TestPlanSQL(t *testing.T) {
	s := newTestSession()
	_, f1 := newT1(t, s)
	_, f2 := newT2(t, s)
	if err := f1.AddJoin(f2, true, false, idEquals(f1, f2)); err != nil {
		t.Fatalf("add join: %v", err)
	}
	planAndStart(t, s, f1)

	top := f1.PlanSQL(false)
	if !strings.HasPrefix(top, "T1") {
		t.Errorf("top plan should start with the table name: %q", top)
	}
	joined := f2.PlanSQL(true)
	if !strings.Contains(joined, "LEFT OUTER JOIN") {
		t.Errorf("outer join missing from plan: %q", joined)
	}
	if !strings.Contains(joined, " ON ") {
		t.Errorf("ON clause missing from plan: %q", joined)
	}

	// an inner join without a condition renders the neutral ON clause
	_, g1 := newT1(t, s)
	_, g2 := newT2(t, s)
	if err := g1.AddJoin(g2, false, false, nil); err != nil {
		t.Fatalf("add join: %v", err)
	}
	planAndStart(t, s, g1)
	if got := g2.PlanSQL(true); !strings.Contains(got, "ON 1=1") {
		t.Errorf("neutral ON clause missing: %q", got)
	}

	// after execution the scan count shows up
	drain(t, g1, nil)
	if got := g1.PlanSQL(false); !strings.Contains(got, "scanCount") {
		t.Errorf("scan count annotation missing: %q", got)
	}
}
