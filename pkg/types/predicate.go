package types

// Predicate is a comparison operator usable in filter, join and index
// conditions.
type Predicate int

const (
	Equals Predicate = iota
	NotEqual
	LessThan
	GreaterThan
	LessThanOrEqual
	GreaterThanOrEqual
	In
	IsNull
	IsNotNull

	// AlwaysFalse marks a condition that is statically known to match
	// nothing, e.g. an equality against NULL when null-comparison
	// optimization is disabled.
	AlwaysFalse
)

func (p Predicate) String() string {
	switch p {
	case Equals:
		return "="
	case NotEqual:
		return "<>"
	case LessThan:
		return "<"
	case GreaterThan:
		return ">"
	case LessThanOrEqual:
		return "<="
	case GreaterThanOrEqual:
		return ">="
	case In:
		return "IN"
	case IsNull:
		return "IS NULL"
	case IsNotNull:
		return "IS NOT NULL"
	case AlwaysFalse:
		return "FALSE"
	default:
		return "UNKNOWN"
	}
}

// compareOrdered maps a three-way comparison result onto a predicate.
func compareOrdered(cmp int, op Predicate) bool {
	switch op {
	case Equals:
		return cmp == 0
	case NotEqual:
		return cmp != 0
	case LessThan:
		return cmp < 0
	case GreaterThan:
		return cmp > 0
	case LessThanOrEqual:
		return cmp <= 0
	case GreaterThanOrEqual:
		return cmp >= 0
	default:
		return false
	}
}
