package types

// NullField is the SQL NULL marker. There is a single shared instance.
type NullField struct{}

// Null is the singleton NULL value.
var Null = &NullField{}

func (f *NullField) Compare(op Predicate, other Field) (bool, bool) {
	// NULL compared with anything (including NULL) is unknown.
	return false, false
}

func (f *NullField) Type() Type {
	return NullType
}

func (f *NullField) String() string {
	return "NULL"
}

func (f *NullField) Equals(other Field) bool {
	_, ok := other.(*NullField)
	return ok
}

func (f *NullField) IsNull() bool {
	return true
}
