// Package table defines the table collaborator the join executor reads
// from, plus an in-memory implementation backing tests and the demo
// command. The executor never touches storage directly; everything flows
// through the Table and index interfaces.
package table

import (
	"joindb/pkg/index"
	"joindb/pkg/row"
	"joindb/pkg/session"
)

// Table is the narrow table interface consumed by the join executor.
type Table interface {
	index.RowSource

	Name() string

	Schema() *row.Schema

	// ScanIndex returns the default full-scan index, used when no index
	// condition applies.
	ScanIndex() index.Index

	// BestIndexFor delegates index selection to the table's own chooser,
	// given per-column condition masks and the requested sort order. A nil
	// mask slice means the conditions are statically false; the chooser
	// still returns a usable index.
	BestIndexFor(s *session.Session, masks []int, sort *index.SortSpec) (index.Index, float64)

	// NullRow returns the designated all-NULL row substituted for the
	// non-matching side of an outer join.
	NullRow() *row.Row

	// AddRow and RemoveRow mutate the table through its own concurrency
	// control; the executor uses them pairwise to acquire row write locks.
	AddRow(s *session.Session, r *row.Row) error
	RemoveRow(s *session.Session, r *row.Row) error

	// Lock locks the table itself for the session.
	Lock(s *session.Session, exclusive bool) error
}
