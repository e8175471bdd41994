package expr

import (
	"fmt"

	"joindb/pkg/row"
	"joindb/pkg/session"
	"joindb/pkg/types"
)

// ColumnRef is a reference to a table column, optionally qualified with a
// table alias. It stays unresolved until MapColumns binds it to a resolver.
type ColumnRef struct {
	tableAlias  string
	name        string
	column      *row.Column
	resolver    ColumnResolver
	evaluatable bool
}

// NewColumnRef creates an unqualified column reference.
func NewColumnRef(name string) *ColumnRef {
	return &ColumnRef{name: name}
}

// NewQualifiedColumnRef creates a column reference qualified with a table
// alias; it only binds to a resolver with that alias.
func NewQualifiedColumnRef(tableAlias, name string) *ColumnRef {
	return &ColumnRef{tableAlias: tableAlias, name: name}
}

// Column returns the bound column, or nil while unresolved.
func (c *ColumnRef) Column() *row.Column {
	return c.column
}

// Resolver returns the resolver this reference is bound to, or nil.
func (c *ColumnRef) Resolver() ColumnResolver {
	return c.resolver
}

func (c *ColumnRef) Value(s *session.Session) (types.Field, error) {
	if c.resolver == nil {
		return nil, fmt.Errorf("column %s not resolved", c.SQL())
	}
	if !c.evaluatable {
		return nil, fmt.Errorf("column %s not evaluatable at this join position", c.SQL())
	}
	return c.resolver.Value(c.column)
}

func (c *ColumnRef) Optimize(s *session.Session) (Expression, error) {
	return c, nil
}

func (c *ColumnRef) MapColumns(r ColumnResolver) {
	if c.resolver != nil {
		return
	}
	if c.tableAlias != "" && c.tableAlias != r.Alias() {
		return
	}
	if col := r.Schema().Find(c.name); col != nil {
		c.column = col
		c.resolver = r
		return
	}
	if c.name == "_ROWID_" {
		c.column = row.RowKeyColumn(r.Alias())
		c.resolver = r
	}
}

func (c *ColumnRef) SetEvaluatable(r ColumnResolver, b bool) {
	if c.resolver == r {
		c.evaluatable = b
	}
}

func (c *ColumnRef) Evaluatable() bool {
	return c.evaluatable
}

func (c *ColumnRef) AddFilterConditions(f FilterSink, fromOuter bool) {
	addToFilter(c, f, fromOuter)
}

func (c *ColumnRef) CreateIndexConditions(s *session.Session, f ConditionSink) {
	// A bare boolean column used as a condition is an equality against
	// TRUE, e.g. WHERE active.
	if c.resolver == f && c.column != nil && c.column.Type == types.BoolType {
		f.AddIndexCondition(IndexConditionSpec{
			Column: c.column,
			Op:     types.Equals,
			Expr:   NewLiteral(types.True),
		})
	}
}

func (c *ColumnRef) DependsOn(r ColumnResolver) bool {
	return c.resolver == r
}

func (c *ColumnRef) SQL() string {
	if c.tableAlias != "" {
		return c.tableAlias + "." + c.name
	}
	return c.name
}
