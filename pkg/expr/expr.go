// Package expr implements the condition expressions consumed by the join
// executor: column references, literals, comparisons, AND/OR and IN lists.
//
// Expressions evaluate under SQL three-valued logic: any comparison that
// touches NULL yields NULL, and a condition only accepts a row when it
// evaluates to exactly TRUE.
package expr

import (
	"joindb/pkg/row"
	"joindb/pkg/session"
	"joindb/pkg/types"
)

// ColumnResolver supplies column values during evaluation. The table filter
// is the only production implementation.
type ColumnResolver interface {
	// Alias returns the name the resolver is known by inside the query.
	Alias() string

	// Schema returns the resolver's columns.
	Schema() *row.Schema

	// Value returns the current value of the given column.
	Value(col *row.Column) (types.Field, error)
}

// FilterSink receives predicates pushed down from the full WHERE clause.
type FilterSink interface {
	AddFilterCondition(e Expression, isJoin bool)
}

// IndexConditionSpec describes a predicate convertible into a positioned
// index lookup. The index layer wraps it into its own condition type.
type IndexConditionSpec struct {
	Column *row.Column
	Op     types.Predicate // Equals, ranges, In or AlwaysFalse
	Expr   Expression      // single operand, nil for AlwaysFalse
	List   []Expression    // IN operands
}

// ConditionSink receives index conditions created from predicates. The
// table filter implements it on top of ColumnResolver.
type ConditionSink interface {
	ColumnResolver
	AddIndexCondition(spec IndexConditionSpec)
}

// Expression is a boolean- or value-producing condition tree.
type Expression interface {
	// Value evaluates the expression for the current rows of all bound
	// resolvers.
	Value(s *session.Session) (types.Field, error)

	// Optimize rewrites the expression into a cheaper equivalent form,
	// folding constants and normalizing NULL comparisons according to the
	// session settings.
	Optimize(s *session.Session) (Expression, error)

	// MapColumns binds unresolved column references that match the given
	// resolver. Unmatched references stay unresolved; they surface as
	// evaluation errors later.
	MapColumns(r ColumnResolver)

	// SetEvaluatable marks whether columns of the given resolver may be
	// read during evaluation, given the current join-order position.
	SetEvaluatable(r ColumnResolver, b bool)

	// Evaluatable reports whether every column reference in this tree is
	// currently available.
	Evaluatable() bool

	// AddFilterConditions pushes this expression down into per-filter
	// residual conditions. fromOuter blocks the pushdown: below an outer
	// join a WHERE predicate may only gate NULL-row synthesis, not
	// eliminate rows outright.
	AddFilterConditions(f FilterSink, fromOuter bool)

	// CreateIndexConditions derives index lookup conditions on the given
	// sink from this expression, where possible.
	CreateIndexConditions(s *session.Session, f ConditionSink)

	// DependsOn reports whether the tree references columns of the given
	// resolver.
	DependsOn(r ColumnResolver) bool

	// SQL renders the expression as a statement fragment.
	SQL() string
}

// IsTrue evaluates a condition for the current rows; a nil condition is
// vacuously true. NULL and FALSE both reject.
func IsTrue(s *session.Session, e Expression) (bool, error) {
	if e == nil {
		return true, nil
	}
	v, err := e.Value(s)
	if err != nil {
		return false, err
	}
	b, ok := v.(*types.BoolField)
	return ok && b.Value, nil
}

// addToFilter is the default pushdown behavior shared by non-AND
// expressions: the whole expression becomes a residual filter condition,
// but only when it is fully evaluatable and not under an outer join.
func addToFilter(e Expression, f FilterSink, fromOuter bool) {
	if !fromOuter && e.Evaluatable() {
		f.AddFilterCondition(e, false)
	}
}
