package row

import (
	"strings"

	"joindb/pkg/types"
)

// Row holds the values of one table row, addressed by a stable int64 key.
//
// A Row is also used as a search row: an index that does not cover every
// column produces rows whose uncovered slots are nil. Callers distinguish
// "value not covered" (nil) from SQL NULL (types.Null). Materializing
// through the owning cursor fills the remaining slots.
type Row struct {
	Key    int64
	values []types.Field
}

// NewRow creates a fully populated row.
func NewRow(key int64, values ...types.Field) *Row {
	return &Row{Key: key, values: values}
}

// NewSearchRow creates a sparse row of the given width with no values set.
func NewSearchRow(key int64, width int) *Row {
	return &Row{Key: key, values: make([]types.Field, width)}
}

// Value returns the value at the given column position, or nil if the slot
// is not populated.
func (r *Row) Value(i int) types.Field {
	if i < 0 || i >= len(r.values) {
		return nil
	}
	return r.values[i]
}

// SetValue populates the value at the given column position.
func (r *Row) SetValue(i int, v types.Field) {
	r.values[i] = v
}

// Width returns the number of column slots.
func (r *Row) Width() int {
	return len(r.values)
}

// Copy returns a row with the same key and a copied value slice.
func (r *Row) Copy() *Row {
	values := make([]types.Field, len(r.values))
	copy(values, r.values)
	return &Row{Key: r.Key, values: values}
}

func (r *Row) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, v := range r.values {
		if i > 0 {
			sb.WriteString(", ")
		}
		if v == nil {
			sb.WriteByte('?')
		} else {
			sb.WriteString(v.String())
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

// NullRow returns a row of the given width with every column set to NULL.
// It is the designated row substituted for the non-matching side of an
// outer join.
func NullRow(width int) *Row {
	r := NewSearchRow(0, width)
	for i := range r.values {
		r.values[i] = types.Null
	}
	return r
}
