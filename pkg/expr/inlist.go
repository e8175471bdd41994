package expr

import (
	"strings"

	"joindb/pkg/session"
	"joindb/pkg/types"
)

// InList is a membership test: operand IN (v1, v2, ...).
type InList struct {
	operand Expression
	values  []Expression
}

func NewInList(operand Expression, values ...Expression) *InList {
	return &InList{operand: operand, values: values}
}

func (in *InList) Value(s *session.Session) (types.Field, error) {
	v, err := in.operand.Value(s)
	if err != nil {
		return nil, err
	}
	if v.IsNull() {
		return types.Null, nil
	}

	sawNull := false
	for _, ve := range in.values {
		item, err := ve.Value(s)
		if err != nil {
			return nil, err
		}
		match, known := v.Compare(types.Equals, item)
		if !known {
			sawNull = true
			continue
		}
		if match {
			return types.True, nil
		}
	}
	if sawNull {
		// No match but a NULL in the list keeps the outcome unknown.
		return types.Null, nil
	}
	return types.False, nil
}

func (in *InList) Optimize(s *session.Session) (Expression, error) {
	var err error
	if in.operand, err = in.operand.Optimize(s); err != nil {
		return nil, err
	}
	for i := range in.values {
		if in.values[i], err = in.values[i].Optimize(s); err != nil {
			return nil, err
		}
	}
	if len(in.values) == 1 {
		return NewComparison(types.Equals, in.operand, in.values[0]).Optimize(s)
	}
	return in, nil
}

func (in *InList) MapColumns(r ColumnResolver) {
	in.operand.MapColumns(r)
	for _, v := range in.values {
		v.MapColumns(r)
	}
}

func (in *InList) SetEvaluatable(r ColumnResolver, b bool) {
	in.operand.SetEvaluatable(r, b)
	for _, v := range in.values {
		v.SetEvaluatable(r, b)
	}
}

func (in *InList) Evaluatable() bool {
	if !in.operand.Evaluatable() {
		return false
	}
	for _, v := range in.values {
		if !v.Evaluatable() {
			return false
		}
	}
	return true
}

func (in *InList) AddFilterConditions(f FilterSink, fromOuter bool) {
	addToFilter(in, f, fromOuter)
}

func (in *InList) CreateIndexConditions(s *session.Session, f ConditionSink) {
	col, ok := in.operand.(*ColumnRef)
	if !ok || col.Resolver() != f {
		return
	}
	for _, v := range in.values {
		if v.DependsOn(f) {
			return
		}
	}
	f.AddIndexCondition(IndexConditionSpec{Column: col.Column(), Op: types.In, List: in.values})
}

func (in *InList) DependsOn(r ColumnResolver) bool {
	if in.operand.DependsOn(r) {
		return true
	}
	for _, v := range in.values {
		if v.DependsOn(r) {
			return true
		}
	}
	return false
}

func (in *InList) SQL() string {
	var sb strings.Builder
	sb.WriteString(in.operand.SQL())
	sb.WriteString(" IN(")
	for i, v := range in.values {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(v.SQL())
	}
	sb.WriteByte(')')
	return sb.String()
}
