package types

import "strconv"

// IntField represents a 64-bit signed integer field.
type IntField struct {
	Value int64
}

func NewIntField(value int64) *IntField {
	return &IntField{Value: value}
}

func (f *IntField) Compare(op Predicate, other Field) (bool, bool) {
	if other == nil || other.IsNull() {
		return false, false
	}
	otherField, ok := other.(*IntField)
	if !ok {
		return false, true
	}
	cmp := 0
	switch {
	case f.Value < otherField.Value:
		cmp = -1
	case f.Value > otherField.Value:
		cmp = 1
	}
	return compareOrdered(cmp, op), true
}

func (f *IntField) Type() Type {
	return IntType
}

func (f *IntField) String() string {
	return strconv.FormatInt(f.Value, 10)
}

func (f *IntField) Equals(other Field) bool {
	otherField, ok := other.(*IntField)
	if !ok {
		return false
	}
	return f.Value == otherField.Value
}

func (f *IntField) IsNull() bool {
	return false
}
