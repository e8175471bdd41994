package filter

import (
	"fmt"
	"iter"

	dberror "joindb/pkg/error"
	"joindb/pkg/expr"
	"joindb/pkg/index"
)

// AddFilterCondition implements expr.FilterSink: it ANDs the condition
// onto the join condition (isJoin) or the residual filter condition.
func (f *TableFilter) AddFilterCondition(condition expr.Expression, isJoin bool) {
	if isJoin {
		f.joinCondition = expr.And(f.joinCondition, condition)
	} else {
		f.filterCondition = expr.And(f.filterCondition, condition)
	}
}

// AddIndexCondition implements expr.ConditionSink: it records a predicate
// usable for direct index lookup on this filter's table.
func (f *TableFilter) AddIndexCondition(spec expr.IndexConditionSpec) {
	f.indexConditions = append(f.indexConditions, index.NewCondition(spec))
}

// FilterCondition returns the residual condition, or nil.
func (f *TableFilter) FilterCondition() expr.Expression {
	return f.filterCondition
}

// JoinCondition returns the ON condition of this join step, or nil.
func (f *TableFilter) JoinCondition() expr.Expression {
	return f.joinCondition
}

// AddJoin attaches another filter to this one. With nested true (and
// nested joins enabled in the session) the filter becomes this filter's
// nested subtree, otherwise it is appended to the end of the join chain.
// outer marks a left outer join; on is the ON condition, which is mapped
// and distributed over the affected filters.
func (f *TableFilter) AddJoin(join *TableFilter, outer, nested bool, on expr.Expression) error {
	if on != nil {
		on.MapColumns(f)
		if f.s.Settings().NestedJoins {
			for n := range f.All() {
				on.MapColumns(n)
			}
			for n := range join.All() {
				on.MapColumns(n)
			}
		}
	}
	if nested && f.s.Settings().NestedJoins {
		if f.nestedJoin != nil {
			return dberror.Internal(dberror.CodeNestedJoinSet, fmt.Sprintf("filter %q already has a nested join", f.alias))
		}
		f.nestedJoin = join
		join.joinOuter = outer
		if outer {
			for n := range join.All() {
				n.joinOuterIndirect = true
			}
		}
		if on != nil {
			join.MapAndAddFilter(on)
		}
		return nil
	}
	if f.join == nil {
		f.join = join
		join.joinOuter = outer
		if f.s.Settings().NestedJoins {
			if outer {
				for n := range join.All() {
					n.joinOuterIndirect = true
				}
			}
		} else if outer {
			// without nested joins, an outer join forces every join to
			// its right outer as well
			for j := join.join; j != nil; j = j.join {
				j.joinOuter = true
			}
		}
		if on != nil {
			join.MapAndAddFilter(on)
		}
		return nil
	}
	return f.join.AddJoin(join, outer, nested, on)
}

// MapAndAddFilter maps the condition's columns against this filter and
// its nested subtree, records it as a join condition, derives index
// conditions, and repeats down the join chain.
func (f *TableFilter) MapAndAddFilter(on expr.Expression) {
	on.MapColumns(f)
	f.AddFilterCondition(on, true)
	on.CreateIndexConditions(f.s, f)
	if f.nestedJoin != nil {
		on.MapColumns(f.nestedJoin)
		on.CreateIndexConditions(f.s, f.nestedJoin)
	}
	if f.join != nil {
		f.join.MapAndAddFilter(on)
	}
}

// SetFullCondition stores the complete WHERE clause on this filter and
// everything down the join chain.
func (f *TableFilter) SetFullCondition(condition expr.Expression) {
	f.fullCondition = condition
	if f.join != nil {
		f.join.SetFullCondition(condition)
	}
}

// OptimizeFullCondition distributes the WHERE clause over the join tree.
// Walking the tree in join order, each filter is marked evaluatable on the
// condition first, so every part of it attaches to the first filter that
// can evaluate it. Below an outer join boundary nothing is attached as a
// row filter, or outer semantics would change.
func (f *TableFilter) OptimizeFullCondition(fromOuterJoin bool) {
	if f.fullCondition == nil {
		return
	}
	f.fullCondition.SetEvaluatable(f, true)
	f.fullCondition.AddFilterConditions(f, fromOuterJoin || f.joinOuter)
	if f.nestedJoin != nil {
		f.nestedJoin.OptimizeFullCondition(fromOuterJoin || f.joinOuter)
	}
	if f.join != nil {
		f.join.OptimizeFullCondition(fromOuterJoin || f.joinOuter)
	}
}

// SetEvaluatable marks the target filter's columns as available (or not)
// to the conditions held by this filter and everything below it. The
// nested subtree is only descended when the target is this filter itself:
// a nested subtree is planned as a unit, so foreign targets do not leak
// into it.
func (f *TableFilter) SetEvaluatable(target *TableFilter, b bool) {
	target.evaluatable = b
	if f.filterCondition != nil {
		f.filterCondition.SetEvaluatable(target, b)
	}
	if f.joinCondition != nil {
		f.joinCondition.SetEvaluatable(target, b)
	}
	if f.nestedJoin != nil && target == f {
		f.nestedJoin.SetEvaluatable(f.nestedJoin, b)
	}
	if f.join != nil {
		f.join.SetEvaluatable(target, b)
	}
}

// All iterates this filter, its nested subtree, and the whole join chain,
// depth-first.
func (f *TableFilter) All() iter.Seq[*TableFilter] {
	return func(yield func(*TableFilter) bool) {
		f.walk(yield)
	}
}

func (f *TableFilter) walk(yield func(*TableFilter) bool) bool {
	for cur := f; cur != nil; cur = cur.join {
		if !yield(cur) {
			return false
		}
		if cur.nestedJoin != nil && !cur.nestedJoin.walk(yield) {
			return false
		}
	}
	return true
}
