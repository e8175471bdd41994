package types

import "strings"

// StringField represents a variable-length character field.
type StringField struct {
	Value string
}

func NewStringField(value string) *StringField {
	return &StringField{Value: value}
}

func (f *StringField) Compare(op Predicate, other Field) (bool, bool) {
	if other == nil || other.IsNull() {
		return false, false
	}
	otherField, ok := other.(*StringField)
	if !ok {
		return false, true
	}
	return compareOrdered(strings.Compare(f.Value, otherField.Value), op), true
}

func (f *StringField) Type() Type {
	return StringType
}

func (f *StringField) String() string {
	return f.Value
}

func (f *StringField) Equals(other Field) bool {
	otherField, ok := other.(*StringField)
	if !ok {
		return false
	}
	return f.Value == otherField.Value
}

func (f *StringField) IsNull() bool {
	return false
}
