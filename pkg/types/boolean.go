package types

// BoolField represents a boolean field value. Boolean expressions evaluate
// to a BoolField or to Null, never to any other type.
type BoolField struct {
	Value bool
}

var (
	True  = &BoolField{Value: true}
	False = &BoolField{Value: false}
)

func NewBoolField(value bool) *BoolField {
	if value {
		return True
	}
	return False
}

func (f *BoolField) Compare(op Predicate, other Field) (bool, bool) {
	if other == nil || other.IsNull() {
		return false, false
	}
	otherField, ok := other.(*BoolField)
	if !ok {
		return false, true
	}
	cmp := 0
	switch {
	case !f.Value && otherField.Value:
		cmp = -1
	case f.Value && !otherField.Value:
		cmp = 1
	}
	return compareOrdered(cmp, op), true
}

func (f *BoolField) Type() Type {
	return BoolType
}

func (f *BoolField) String() string {
	if f.Value {
		return "TRUE"
	}
	return "FALSE"
}

func (f *BoolField) Equals(other Field) bool {
	otherField, ok := other.(*BoolField)
	if !ok {
		return false
	}
	return f.Value == otherField.Value
}

func (f *BoolField) IsNull() bool {
	return false
}
