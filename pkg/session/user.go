package session

import dberror "joindb/pkg/error"

// Right is a bitmask of privileges on a table.
type Right int

const (
	RightSelect Right = 1 << iota
	RightInsert
	RightDelete
	RightUpdate

	RightAll = RightSelect | RightInsert | RightDelete | RightUpdate
)

// User holds per-table rights. A nil rights map grants nothing; the grantAll
// flag bypasses the map entirely.
type User struct {
	Name     string
	grantAll bool
	rights   map[string]Right
}

// systemUser returns the built-in user holding every right.
func systemUser() *User {
	return &User{Name: "SYSTEM", grantAll: true}
}

// NewUser creates a user with no rights granted yet.
func NewUser(name string) *User {
	return &User{Name: name, rights: make(map[string]Right)}
}

// Grant adds rights on the given table.
func (u *User) Grant(table string, r Right) {
	if u.rights == nil {
		u.rights = make(map[string]Right)
	}
	u.rights[table] |= r
}

// CheckRight verifies the user holds the given right on the table,
// returning an access-denied error otherwise.
func (u *User) CheckRight(table string, r Right) error {
	if u.grantAll {
		return nil
	}
	if u.rights[table]&r == r {
		return nil
	}
	return dberror.AccessDenied(table)
}
