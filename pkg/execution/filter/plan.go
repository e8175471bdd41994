package filter

import (
	"fmt"

	dberror "joindb/pkg/error"
	"joindb/pkg/index"
	"joindb/pkg/plan"
	"joindb/pkg/session"
)

// BestPlanItem chooses the cheapest access path for this filter given the
// currently evaluatable index conditions, then recursively plans the
// nested subtree and the joined chain. level is the 1-based position of
// this filter in the join order under evaluation.
func (f *TableFilter) BestPlanItem(s *session.Session, level int) *plan.Item {
	item := &plan.Item{}
	if len(f.indexConditions) == 0 {
		item.Index = f.table.ScanIndex()
		item.Cost = item.Index.Cost(nil, nil)
	} else {
		masks := make([]int, f.table.Schema().Width())
		for _, cond := range f.indexConditions {
			if !cond.IsEvaluatable() {
				continue
			}
			if cond.IsAlwaysFalse() {
				masks = nil
				break
			}
			if id := cond.Column.ID; id >= 0 {
				masks[id] |= cond.Mask(f.indexConditions)
			}
		}
		var sort *index.SortSpec
		if f.query != nil {
			sort = f.query.SortSpec()
		}
		idx, cost := f.table.BestIndexFor(s, masks, sort)
		item.Index = idx
		item.Cost = cost
		// The more index conditions, the earlier the table should appear
		// in the join order; tables joined deeper discount less.
		item.Cost -= item.Cost * float64(len(f.indexConditions)) / 100 / float64(level)
	}
	if f.nestedJoin != nil {
		f.markEvaluatable(f.nestedJoin)
		item.SetNestedJoinPlan(f.nestedJoin.BestPlanItem(s, level))
		item.Cost += item.Cost * item.NestedJoinPlan().Cost
	}
	if f.join != nil {
		f.markEvaluatable(f.join)
		item.SetJoinPlan(f.join.BestPlanItem(s, level))
		item.Cost += item.Cost * item.JoinPlan().Cost
	}
	return item
}

// markEvaluatable makes this filter's columns available to the conditions
// of the given child subtree before it is costed, so that join conditions
// correlated against this filter count as index conditions there.
func (f *TableFilter) markEvaluatable(child *TableFilter) {
	f.evaluatable = true
	for c := range child.All() {
		if c.joinCondition != nil {
			c.joinCondition.SetEvaluatable(f, true)
		}
		if c.filterCondition != nil {
			c.filterCondition.SetEvaluatable(f, true)
		}
	}
}

// SetPlanItem applies a chosen plan: the index of this filter and,
// recursively, the plans of the nested subtree and the joined chain. A nil
// item is tolerated so that invalid intermediate plans surface as errors
// only when the final plan is prepared.
func (f *TableFilter) SetPlanItem(item *plan.Item) {
	if item == nil {
		return
	}
	f.SetIndex(item.Index)
	if f.nestedJoin != nil && item.NestedJoinPlan() != nil {
		f.nestedJoin.SetPlanItem(item.NestedJoinPlan())
	}
	if f.join != nil && item.JoinPlan() != nil {
		f.join.SetPlanItem(item.JoinPlan())
	}
}

// Prepare finalizes the filter for execution once the plan is fixed: index
// conditions the chosen index cannot serve are dropped, the join tree is
// validated, and the remaining conditions are optimized.
func (f *TableFilter) Prepare() error {
	if f.idx != nil {
		kept := f.indexConditions[:0]
		for _, cond := range f.indexConditions {
			// always-false conditions and row-key lookups survive any index
			if cond.IsAlwaysFalse() || cond.Column.ID < 0 || f.idx.ColumnIndex(cond.Column) >= 0 {
				kept = append(kept, cond)
			}
		}
		f.indexConditions = kept
	}
	if f.nestedJoin != nil {
		if f.nestedJoin == f {
			return dberror.Internal(dberror.CodeSelfJoin, fmt.Sprintf("filter %q is nested within itself", f.alias))
		}
		if err := f.nestedJoin.Prepare(); err != nil {
			return err
		}
	}
	if f.join != nil {
		if f.join == f {
			return dberror.Internal(dberror.CodeSelfJoin, fmt.Sprintf("filter %q is joined to itself", f.alias))
		}
		if err := f.join.Prepare(); err != nil {
			return err
		}
	}
	if f.filterCondition != nil {
		e, err := f.filterCondition.Optimize(f.s)
		if err != nil {
			return err
		}
		f.filterCondition = e
	}
	if f.joinCondition != nil {
		e, err := f.joinCondition.Optimize(f.s)
		if err != nil {
			return err
		}
		f.joinCondition = e
	}
	return nil
}

// RemoveUnusableIndexConditions drops index conditions whose operands
// cannot be evaluated yet. Called when the picked plan leaves a condition
// depending on a filter that comes later in the join order.
func (f *TableFilter) RemoveUnusableIndexConditions() {
	kept := f.indexConditions[:0]
	for _, cond := range f.indexConditions {
		if cond.IsEvaluatable() {
			kept = append(kept, cond)
		}
	}
	f.indexConditions = kept
}
