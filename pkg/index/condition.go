package index

import (
	"strings"

	"joindb/pkg/expr"
	"joindb/pkg/row"
	"joindb/pkg/session"
	"joindb/pkg/types"
)

// Condition is a pushed-down predicate usable for a direct index lookup:
// column op expression, column IN (list), or a statically false marker.
// The operand expression may reference other filters; its value is read at
// cursor positioning time, which is what makes correlated index lookups in
// nested-loop joins work.
type Condition struct {
	Column  *row.Column
	Op      types.Predicate
	operand expr.Expression
	list    []expr.Expression
}

// NewCondition wraps an index-condition spec produced by the expression
// layer.
func NewCondition(spec expr.IndexConditionSpec) *Condition {
	return &Condition{
		Column:  spec.Column,
		Op:      spec.Op,
		operand: spec.Expr,
		list:    spec.List,
	}
}

// IsEvaluatable reports whether the operand can currently be evaluated,
// given present join-order position.
func (c *Condition) IsEvaluatable() bool {
	if c.operand != nil && !c.operand.Evaluatable() {
		return false
	}
	for _, e := range c.list {
		if !e.Evaluatable() {
			return false
		}
	}
	return true
}

// IsAlwaysFalse reports whether the condition is statically known to match
// nothing.
func (c *Condition) IsAlwaysFalse() bool {
	return c.Op == types.AlwaysFalse
}

// IsStart reports whether the condition constrains the lower bound.
func (c *Condition) IsStart() bool {
	switch c.Op {
	case types.Equals, types.GreaterThan, types.GreaterThanOrEqual:
		return true
	}
	return false
}

// IsEnd reports whether the condition constrains the upper bound.
func (c *Condition) IsEnd() bool {
	switch c.Op {
	case types.Equals, types.LessThan, types.LessThanOrEqual:
		return true
	}
	return false
}

// Mask returns the applicability mask contributed by this condition. An IN
// condition only counts when no range condition exists in the same list,
// since a membership probe cannot be combined with a positioned range.
func (c *Condition) Mask(conds []*Condition) int {
	switch c.Op {
	case types.Equals:
		return MaskEquality
	case types.GreaterThan, types.GreaterThanOrEqual:
		return MaskStart
	case types.LessThan, types.LessThanOrEqual:
		return MaskEnd
	case types.In:
		for _, other := range conds {
			if other != c && (other.IsStart() || other.IsEnd()) && other.Op != types.Equals {
				return 0
			}
		}
		return MaskIn
	default:
		return 0
	}
}

// CurrentValue evaluates the operand for the current outer rows.
func (c *Condition) CurrentValue(s *session.Session) (types.Field, error) {
	return c.operand.Value(s)
}

// CurrentValueList evaluates all IN operands for the current outer rows.
func (c *Condition) CurrentValueList(s *session.Session) ([]types.Field, error) {
	values := make([]types.Field, 0, len(c.list))
	for _, e := range c.list {
		v, err := e.Value(s)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// IsIn reports whether this is a membership-test condition.
func (c *Condition) IsIn() bool {
	return c.Op == types.In
}

// SQL renders the condition for plan output.
func (c *Condition) SQL() string {
	if c.Op == types.AlwaysFalse {
		return "FALSE"
	}
	if c.Op == types.In {
		var sb strings.Builder
		sb.WriteString(c.Column.Name)
		sb.WriteString(" IN(")
		for i, e := range c.list {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(e.SQL())
		}
		sb.WriteByte(')')
		return sb.String()
	}
	return c.Column.Name + " " + c.Op.String() + " " + c.operand.SQL()
}
