package session

import (
	"context"

	dberror "joindb/pkg/error"
	"joindb/pkg/row"
)

// Settings are the engine toggles consulted by the join executor.
type Settings struct {
	// NestedJoins enables parenthesized sub-joins as first-class filter
	// subtrees. When disabled, attaching an outer join converts every
	// inner join chained to its right into an outer join instead.
	NestedJoins bool

	// OptimizeIsNull controls whether equality comparisons against NULL
	// are turned into IS NULL lookups. When disabled such comparisons
	// become statically false index conditions.
	OptimizeIsNull bool
}

// DefaultSettings returns the settings a fresh session starts with.
func DefaultSettings() Settings {
	return Settings{NestedJoins: true, OptimizeIsNull: true}
}

// UndoOp identifies the kind of operation recorded in the undo log.
type UndoOp int

const (
	UndoDelete UndoOp = iota
	UndoInsert
)

// UndoRecord is one entry of the session undo log.
type UndoRecord struct {
	Table string
	Op    UndoOp
	Row   *row.Row
}

// Session is the single logical execution context that drives one filter
// tree at a time. It carries cooperative cancellation, allocates stable
// object ids, records undo information for row mutations, and knows the
// rights of the current user. A session must not be shared concurrently
// across query executions.
type Session struct {
	ctx          context.Context
	user         *User
	settings     Settings
	nextObjectID int
	undoLog      []UndoRecord
}

// New creates a session bound to the given context. The session starts
// with default settings and a user holding every right.
func New(ctx context.Context) *Session {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Session{
		ctx:      ctx,
		user:     systemUser(),
		settings: DefaultSettings(),
	}
}

// Context returns the context carrying this session's cancellation signal.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Settings returns the current engine settings.
func (s *Session) Settings() Settings {
	return s.settings
}

// SetSettings replaces the engine settings. Only meaningful before a query
// is planned.
func (s *Session) SetSettings(settings Settings) {
	s.settings = settings
}

// User returns the user this session runs as.
func (s *Session) User() *User {
	return s.user
}

// SetUser replaces the session user.
func (s *Session) SetUser(u *User) {
	s.user = u
}

// NextObjectID allocates the next session-scoped object id. Filter nodes
// use it as their identity for hashing and equality.
func (s *Session) NextObjectID() int {
	s.nextObjectID++
	return s.nextObjectID
}

// CheckCanceled returns a cancellation error if the session context is
// done. It is polled cooperatively from the scan loop.
func (s *Session) CheckCanceled() error {
	if err := s.ctx.Err(); err != nil {
		return dberror.Canceled(err)
	}
	return nil
}

// Log records an undo entry for a row mutation performed on behalf of this
// session.
func (s *Session) Log(table string, op UndoOp, r *row.Row) {
	s.undoLog = append(s.undoLog, UndoRecord{Table: table, Op: op, Row: r})
}

// UndoLog returns the recorded undo entries, oldest first.
func (s *Session) UndoLog() []UndoRecord {
	return s.undoLog
}
