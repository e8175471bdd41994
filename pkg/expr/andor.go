package expr

import (
	"joindb/pkg/session"
	"joindb/pkg/types"
)

// AndOr combines two conditions with AND or OR under three-valued logic.
type AndOr struct {
	and   bool
	left  Expression
	right Expression
}

func NewAnd(left, right Expression) *AndOr {
	return &AndOr{and: true, left: left, right: right}
}

func NewOr(left, right Expression) *AndOr {
	return &AndOr{and: false, left: left, right: right}
}

// And chains a condition onto an existing one, tolerating a nil base. Used
// when accumulating filter and join conditions on a filter node.
func And(base, cond Expression) Expression {
	if base == nil {
		return cond
	}
	return NewAnd(base, cond)
}

func (a *AndOr) Value(s *session.Session) (types.Field, error) {
	l, err := a.left.Value(s)
	if err != nil {
		return nil, err
	}
	r, err := a.right.Value(s)
	if err != nil {
		return nil, err
	}

	lb, lKnown := l.(*types.BoolField)
	rb, rKnown := r.(*types.BoolField)
	if a.and {
		// AND: FALSE dominates NULL.
		if lKnown && !lb.Value || rKnown && !rb.Value {
			return types.False, nil
		}
		if !lKnown || !rKnown {
			return types.Null, nil
		}
		return types.True, nil
	}
	// OR: TRUE dominates NULL.
	if lKnown && lb.Value || rKnown && rb.Value {
		return types.True, nil
	}
	if !lKnown || !rKnown {
		return types.Null, nil
	}
	return types.False, nil
}

func (a *AndOr) Optimize(s *session.Session) (Expression, error) {
	var err error
	if a.left, err = a.left.Optimize(s); err != nil {
		return nil, err
	}
	if a.right, err = a.right.Optimize(s); err != nil {
		return nil, err
	}

	// TRUE AND x => x; x AND TRUE => x (and the OR duals).
	if lit, ok := a.left.(*Literal); ok {
		if b, isBool := mustValue(lit, s).(*types.BoolField); isBool && b.Value == a.and {
			return a.right, nil
		}
	}
	if lit, ok := a.right.(*Literal); ok {
		if b, isBool := mustValue(lit, s).(*types.BoolField); isBool && b.Value == a.and {
			return a.left, nil
		}
	}
	return a, nil
}

func mustValue(l *Literal, s *session.Session) types.Field {
	v, _ := l.Value(s)
	return v
}

func (a *AndOr) MapColumns(r ColumnResolver) {
	a.left.MapColumns(r)
	a.right.MapColumns(r)
}

func (a *AndOr) SetEvaluatable(r ColumnResolver, b bool) {
	a.left.SetEvaluatable(r, b)
	a.right.SetEvaluatable(r, b)
}

func (a *AndOr) Evaluatable() bool {
	return a.left.Evaluatable() && a.right.Evaluatable()
}

func (a *AndOr) AddFilterConditions(f FilterSink, fromOuter bool) {
	// An AND distributes over its branches so each side can be pushed to
	// the filter that can evaluate it; OR must stay whole.
	if a.and {
		a.left.AddFilterConditions(f, fromOuter)
		a.right.AddFilterConditions(f, fromOuter)
		return
	}
	addToFilter(a, f, fromOuter)
}

func (a *AndOr) CreateIndexConditions(s *session.Session, f ConditionSink) {
	if a.and {
		a.left.CreateIndexConditions(s, f)
		a.right.CreateIndexConditions(s, f)
	}
}

func (a *AndOr) DependsOn(r ColumnResolver) bool {
	return a.left.DependsOn(r) || a.right.DependsOn(r)
}

func (a *AndOr) SQL() string {
	op := " OR "
	if a.and {
		op = " AND "
	}
	return "(" + a.left.SQL() + op + a.right.SQL() + ")"
}
