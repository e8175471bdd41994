// Package optimizer searches for the cheapest join order over a set of
// table filters and prepares the winning plan for execution.
//
// Small filter sets are planned by exhaustive permutation; larger ones
// fall back to a greedy cheapest-next order. Costing delegates to each
// filter's own plan item, so the estimates reflect the index conditions
// usable at every position of the candidate order.
package optimizer

import (
	"joindb/pkg/execution/filter"
	"joindb/pkg/expr"
	"joindb/pkg/logging"
	"joindb/pkg/session"
)

// maxExhaustive is the largest filter count planned by trying every
// permutation; factorial growth makes more expensive quickly.
const maxExhaustive = 7

// Optimize orders the given filters by estimated cost, links them into a
// left-deep inner join chain, distributes the condition, and prepares the
// plan. It returns the top filter of the chain and the estimated cost.
//
// The filters must not be linked yet; outer and nested join trees are
// assembled by the caller and planned in place with PlanTree.
func Optimize(s *session.Session, condition expr.Expression, filters ...*filter.TableFilter) (*filter.TableFilter, float64, error) {
	if len(filters) == 0 {
		return nil, 0, nil
	}
	if condition != nil {
		for _, f := range filters {
			condition.MapColumns(f)
		}
		for _, f := range filters {
			condition.CreateIndexConditions(s, f)
		}
	}

	order := bestOrder(s, condition, filters)
	top := order[0]
	for _, f := range order[1:] {
		if err := top.AddJoin(f, false, false, nil); err != nil {
			return nil, 0, err
		}
	}

	cost, err := plan(s, top, condition)
	if err != nil {
		return nil, 0, err
	}
	logging.WithComponent("optimizer").Debugw("join order chosen",
		"filters", len(filters), "cost", cost, "top", top.Alias())
	return top, cost, nil
}

// PlanTree plans an already assembled join tree in its given order:
// condition distribution, index selection, and preparation, without
// reordering. Used for trees containing outer or nested joins, whose
// order is fixed by their semantics.
func PlanTree(s *session.Session, top *filter.TableFilter, condition expr.Expression) (float64, error) {
	if condition != nil {
		for f := range top.All() {
			condition.MapColumns(f)
		}
		for f := range top.All() {
			// index conditions derived below an outer boundary would turn
			// missing matches into missing rows
			if !f.IsJoinOuter() && !f.IsJoinOuterIndirect() {
				condition.CreateIndexConditions(s, f)
			}
		}
	}
	return plan(s, top, condition)
}

// plan runs the shared planning pipeline on a linked tree. Evaluatable
// flags progress in join order throughout, so conditions only count where
// the filters they reference are already positioned.
func plan(s *session.Session, top *filter.TableFilter, condition expr.Expression) (float64, error) {
	resetEvaluatable(top, condition)
	item := top.BestPlanItem(s, 1)
	top.SetPlanItem(item)

	resetEvaluatable(top, condition)
	for f := range top.All() {
		f.RemoveUnusableIndexConditions()
		top.SetEvaluatable(f, true)
		if condition != nil {
			condition.SetEvaluatable(f, true)
		}
	}

	if condition != nil {
		for f := range top.All() {
			condition.SetEvaluatable(f, false)
		}
		top.SetFullCondition(condition)
		top.OptimizeFullCondition(false)
	}

	if err := top.Prepare(); err != nil {
		return 0, err
	}
	for f := range top.All() {
		top.SetEvaluatable(f, true)
		f.SetUsed(true)
	}
	return item.Cost, nil
}

func resetEvaluatable(top *filter.TableFilter, condition expr.Expression) {
	for f := range top.All() {
		top.SetEvaluatable(f, false)
		if condition != nil {
			condition.SetEvaluatable(f, false)
		}
	}
}

// bestOrder returns the lowest cost permutation of the filters.
func bestOrder(s *session.Session, condition expr.Expression, filters []*filter.TableFilter) []*filter.TableFilter {
	if len(filters) == 1 {
		return filters
	}
	if len(filters) > maxExhaustive {
		return greedyOrder(s, condition, filters)
	}

	best := make([]*filter.TableFilter, len(filters))
	copy(best, filters)
	bestCost := orderCost(s, condition, best)

	current := make([]*filter.TableFilter, len(filters))
	copy(current, filters)
	permute(current, 0, func(order []*filter.TableFilter) {
		if cost := orderCost(s, condition, order); cost < bestCost {
			bestCost = cost
			copy(best, order)
		}
	})
	return best
}

// orderCost estimates one candidate order. Each filter is costed at its
// position with only the preceding filters evaluatable, then joined
// multiplicatively, mirroring how the linked chain is costed later.
func orderCost(s *session.Session, condition expr.Expression, order []*filter.TableFilter) float64 {
	for _, f := range order {
		f.SetEvaluatable(f, false)
		if condition != nil {
			condition.SetEvaluatable(f, false)
		}
	}
	cost := 0.0
	for i, f := range order {
		item := f.BestPlanItem(s, i+1)
		if i == 0 {
			cost = item.Cost
		} else {
			cost += cost * item.Cost
		}
		f.SetEvaluatable(f, true)
		if condition != nil {
			condition.SetEvaluatable(f, true)
		}
	}
	return cost
}

// greedyOrder picks the cheapest not-yet-placed filter for each position.
func greedyOrder(s *session.Session, condition expr.Expression, filters []*filter.TableFilter) []*filter.TableFilter {
	remaining := make([]*filter.TableFilter, len(filters))
	copy(remaining, filters)
	order := make([]*filter.TableFilter, 0, len(filters))

	for _, f := range filters {
		f.SetEvaluatable(f, false)
		if condition != nil {
			condition.SetEvaluatable(f, false)
		}
	}
	for len(remaining) > 0 {
		bestIdx := 0
		bestCost := 0.0
		for i, f := range remaining {
			cost := f.BestPlanItem(s, len(order)+1).Cost
			if i == 0 || cost < bestCost {
				bestIdx, bestCost = i, cost
			}
		}
		next := remaining[bestIdx]
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
		order = append(order, next)
		next.SetEvaluatable(next, true)
		if condition != nil {
			condition.SetEvaluatable(next, true)
		}
	}
	return order
}

func permute(order []*filter.TableFilter, k int, visit func([]*filter.TableFilter)) {
	if k == len(order) {
		visit(order)
		return
	}
	for i := k; i < len(order); i++ {
		order[k], order[i] = order[i], order[k]
		permute(order, k+1, visit)
		order[k], order[i] = order[i], order[k]
	}
}
