package expr

import (
	"joindb/pkg/session"
	"joindb/pkg/types"
)

// Comparison compares two operand expressions, or tests one operand for
// NULL. After optimization a comparison against the NULL literal may
// degrade to an always-false condition, depending on session settings.
type Comparison struct {
	op    types.Predicate
	left  Expression
	right Expression // nil for IsNull / IsNotNull / AlwaysFalse
}

func NewComparison(op types.Predicate, left, right Expression) *Comparison {
	return &Comparison{op: op, left: left, right: right}
}

// NewNullCheck creates an IS NULL or IS NOT NULL test.
func NewNullCheck(operand Expression, negated bool) *Comparison {
	op := types.IsNull
	if negated {
		op = types.IsNotNull
	}
	return &Comparison{op: op, left: operand}
}

// Op returns the comparison operator.
func (c *Comparison) Op() types.Predicate {
	return c.op
}

func (c *Comparison) Value(s *session.Session) (types.Field, error) {
	switch c.op {
	case types.AlwaysFalse:
		return types.False, nil
	case types.IsNull, types.IsNotNull:
		v, err := c.left.Value(s)
		if err != nil {
			return nil, err
		}
		return types.NewBoolField(v.IsNull() == (c.op == types.IsNull)), nil
	}

	l, err := c.left.Value(s)
	if err != nil {
		return nil, err
	}
	r, err := c.right.Value(s)
	if err != nil {
		return nil, err
	}
	result, known := l.Compare(c.op, r)
	if !known {
		return types.Null, nil
	}
	return types.NewBoolField(result), nil
}

func (c *Comparison) Optimize(s *session.Session) (Expression, error) {
	var err error
	if c.left, err = c.left.Optimize(s); err != nil {
		return nil, err
	}
	if c.right != nil {
		if c.right, err = c.right.Optimize(s); err != nil {
			return nil, err
		}
	}

	// Normalize "literal op column" to "column op literal".
	if c.right != nil {
		_, leftIsLit := c.left.(*Literal)
		_, rightIsCol := c.right.(*ColumnRef)
		if leftIsLit && rightIsCol {
			c.left, c.right = c.right, c.left
			c.op = swapOp(c.op)
		}
	}

	// Comparing against the NULL literal never matches a row. With the
	// null-comparison optimization on, an equality becomes an IS NULL
	// test; with it off the condition is statically false.
	if lit, ok := c.right.(*Literal); ok && isOrdered(c.op) {
		v, _ := lit.Value(s)
		if v.IsNull() {
			if c.op == types.Equals && s.Settings().OptimizeIsNull {
				return &Comparison{op: types.IsNull, left: c.left}, nil
			}
			return &Comparison{op: types.AlwaysFalse, left: c.left, right: c.right}, nil
		}
	}

	// Fold constant comparisons.
	if c.left.Evaluatable() && !hasColumns(c.left) && c.right != nil && !hasColumns(c.right) {
		v, err := c.Value(s)
		if err != nil {
			return nil, err
		}
		return NewLiteral(v), nil
	}
	return c, nil
}

func (c *Comparison) MapColumns(r ColumnResolver) {
	c.left.MapColumns(r)
	if c.right != nil {
		c.right.MapColumns(r)
	}
}

func (c *Comparison) SetEvaluatable(r ColumnResolver, b bool) {
	c.left.SetEvaluatable(r, b)
	if c.right != nil {
		c.right.SetEvaluatable(r, b)
	}
}

func (c *Comparison) Evaluatable() bool {
	if !c.left.Evaluatable() {
		return false
	}
	return c.right == nil || c.right.Evaluatable()
}

func (c *Comparison) AddFilterConditions(f FilterSink, fromOuter bool) {
	addToFilter(c, f, fromOuter)
}

func (c *Comparison) CreateIndexConditions(s *session.Session, f ConditionSink) {
	if c.op == types.AlwaysFalse {
		if col, ok := c.left.(*ColumnRef); ok && col.Resolver() == f {
			f.AddIndexCondition(IndexConditionSpec{Column: col.Column(), Op: types.AlwaysFalse})
		}
		return
	}
	if !isOrdered(c.op) || c.op == types.NotEqual {
		return
	}
	if col, ok := c.left.(*ColumnRef); ok && col.Resolver() == f && !c.right.DependsOn(f) {
		f.AddIndexCondition(IndexConditionSpec{Column: col.Column(), Op: c.op, Expr: c.right})
	}
	if col, ok := c.right.(*ColumnRef); ok && col.Resolver() == f && !c.left.DependsOn(f) {
		f.AddIndexCondition(IndexConditionSpec{Column: col.Column(), Op: swapOp(c.op), Expr: c.left})
	}
}

func (c *Comparison) DependsOn(r ColumnResolver) bool {
	if c.left.DependsOn(r) {
		return true
	}
	return c.right != nil && c.right.DependsOn(r)
}

func (c *Comparison) SQL() string {
	switch c.op {
	case types.AlwaysFalse:
		return "FALSE"
	case types.IsNull, types.IsNotNull:
		return c.left.SQL() + " " + c.op.String()
	}
	return c.left.SQL() + " " + c.op.String() + " " + c.right.SQL()
}

// isOrdered reports whether op is one of the plain two-operand comparisons.
func isOrdered(op types.Predicate) bool {
	switch op {
	case types.Equals, types.NotEqual, types.LessThan, types.GreaterThan,
		types.LessThanOrEqual, types.GreaterThanOrEqual:
		return true
	}
	return false
}

// swapOp mirrors an operator across swapped operands.
func swapOp(op types.Predicate) types.Predicate {
	switch op {
	case types.LessThan:
		return types.GreaterThan
	case types.GreaterThan:
		return types.LessThan
	case types.LessThanOrEqual:
		return types.GreaterThanOrEqual
	case types.GreaterThanOrEqual:
		return types.LessThanOrEqual
	default:
		return op
	}
}

// hasColumns reports whether the tree contains any column reference.
func hasColumns(e Expression) bool {
	switch t := e.(type) {
	case *ColumnRef:
		return true
	case *Literal:
		return false
	case *Comparison:
		if hasColumns(t.left) {
			return true
		}
		return t.right != nil && hasColumns(t.right)
	case *AndOr:
		return hasColumns(t.left) || hasColumns(t.right)
	case *InList:
		if hasColumns(t.operand) {
			return true
		}
		for _, v := range t.values {
			if hasColumns(v) {
				return true
			}
		}
		return false
	default:
		return true
	}
}
