// Package plan carries the access-plan protocol between the optimizer and
// the join executor: per-filter plan items with the chosen index, the
// estimated cost, and the sub-items of joined and nested filters.
package plan

import "joindb/pkg/index"

// Item is the best access plan for one table filter at a given position of
// the join order.
type Item struct {
	// Index is the chosen access path.
	Index index.Index

	// Cost is the estimated cost of this filter including its joined and
	// nested sub-plans.
	Cost float64

	joinPlan       *Item
	nestedJoinPlan *Item
}

// JoinPlan returns the sub-item for the chained join, or nil.
func (i *Item) JoinPlan() *Item {
	return i.joinPlan
}

// SetJoinPlan assigns the sub-item for the chained join.
func (i *Item) SetJoinPlan(item *Item) {
	i.joinPlan = item
}

// NestedJoinPlan returns the sub-item for the nested join, or nil.
func (i *Item) NestedJoinPlan() *Item {
	return i.nestedJoinPlan
}

// SetNestedJoinPlan assigns the sub-item for the nested join.
func (i *Item) SetNestedJoinPlan(item *Item) {
	i.nestedJoinPlan = item
}
