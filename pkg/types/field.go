package types

// Type identifies the runtime type of a field value.
type Type int

const (
	IntType Type = iota
	StringType
	BoolType
	NullType
)

func (t Type) String() string {
	switch t {
	case IntType:
		return "INT"
	case StringType:
		return "VARCHAR"
	case BoolType:
		return "BOOLEAN"
	case NullType:
		return "NULL"
	default:
		return "UNKNOWN"
	}
}

// Field is a single typed value as seen by the join executor. Comparisons
// follow SQL semantics: any comparison involving NULL is unknown, which
// Compare reports through its second return value.
type Field interface {
	// Compare evaluates `f op other`. The first result is the comparison
	// outcome, the second reports whether the outcome is known (false when
	// either side is NULL).
	Compare(op Predicate, other Field) (bool, bool)

	Type() Type

	String() string

	Equals(other Field) bool

	IsNull() bool
}
