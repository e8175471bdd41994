package expr

import (
	"joindb/pkg/session"
	"joindb/pkg/types"
)

// Literal is a constant value expression.
type Literal struct {
	value types.Field
}

func NewLiteral(v types.Field) *Literal {
	return &Literal{value: v}
}

// Int is shorthand for an integer literal.
func Int(v int64) *Literal {
	return NewLiteral(types.NewIntField(v))
}

// Str is shorthand for a string literal.
func Str(v string) *Literal {
	return NewLiteral(types.NewStringField(v))
}

// NullLiteral is shorthand for the NULL literal.
func NullLiteral() *Literal {
	return NewLiteral(types.Null)
}

func (l *Literal) Value(s *session.Session) (types.Field, error) {
	return l.value, nil
}

func (l *Literal) Optimize(s *session.Session) (Expression, error) {
	return l, nil
}

func (l *Literal) MapColumns(r ColumnResolver) {}

func (l *Literal) SetEvaluatable(r ColumnResolver, b bool) {}

func (l *Literal) Evaluatable() bool {
	return true
}

func (l *Literal) AddFilterConditions(f FilterSink, fromOuter bool) {
	addToFilter(l, f, fromOuter)
}

func (l *Literal) CreateIndexConditions(s *session.Session, f ConditionSink) {}

func (l *Literal) DependsOn(r ColumnResolver) bool {
	return false
}

func (l *Literal) SQL() string {
	if l.value.Type() == types.StringType {
		return "'" + l.value.String() + "'"
	}
	return l.value.String()
}
