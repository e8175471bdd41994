package row

import "joindb/pkg/types"

// RowKeyColumnID is the column id of the synthetic row-key pseudo column.
// Reading it returns the row key directly, without materializing the row.
const RowKeyColumnID = -1

// Column describes one column of a table.
type Column struct {
	Name  string
	Type  types.Type
	ID    int    // position inside the table, or RowKeyColumnID
	Table string // owning table name, used when resolving qualified names
}

// RowKeyColumn returns the synthetic row-key column for the given table.
func RowKeyColumn(table string) *Column {
	return &Column{Name: "_ROWID_", Type: types.IntType, ID: RowKeyColumnID, Table: table}
}

// Schema is an ordered list of columns.
type Schema struct {
	Columns []*Column
}

// NewSchema builds a schema, assigning column ids by position and stamping
// the owning table name on every column.
func NewSchema(table string, cols ...*Column) *Schema {
	for i, c := range cols {
		c.ID = i
		c.Table = table
	}
	return &Schema{Columns: cols}
}

// Find returns the column with the given name, or nil.
func (s *Schema) Find(name string) *Column {
	for _, c := range s.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Width returns the number of columns.
func (s *Schema) Width() int {
	return len(s.Columns)
}
