package session

import (
	"context"
	"testing"

	dberror "joindb/pkg/error"
	"joindb/pkg/row"
	"joindb/pkg/types"
)

func TestNextObjectIDIsMonotonic(t *testing.T) {
	s := New(context.Background())
	a, b, c := s.NextObjectID(), s.NextObjectID(), s.NextObjectID()
	if !(a < b && b < c) {
		t.Errorf("object ids not monotonic: %d %d %d", a, b, c)
	}
}

func TestCheckCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(ctx)

	if err := s.CheckCanceled(); err != nil {
		t.Fatalf("live session reported canceled: %v", err)
	}
	cancel()
	err := s.CheckCanceled()
	if err == nil {
		t.Fatal("canceled session reported live")
	}
	if !dberror.HasCode(err, dberror.CodeQueryCanceled) {
		t.Errorf("cancellation error has code %v, want %s", err, dberror.CodeQueryCanceled)
	}
}

func TestUndoLogOrder(t *testing.T) {
	s := New(context.Background())
	r := row.NewRow(1, types.NewIntField(1))
	s.Log("t", UndoDelete, r)
	s.Log("t", UndoInsert, r)

	log := s.UndoLog()
	if len(log) != 2 || log[0].Op != UndoDelete || log[1].Op != UndoInsert {
		t.Errorf("undo log = %+v, want delete then insert", log)
	}
}

func TestUserRights(t *testing.T) {
	u := NewUser("reader")
	u.Grant("t1", RightSelect)

	if err := u.CheckRight("t1", RightSelect); err != nil {
		t.Errorf("granted right rejected: %v", err)
	}
	if err := u.CheckRight("t2", RightSelect); !dberror.HasCode(err, dberror.CodeAccessDenied) {
		t.Errorf("missing right must be access denied, got %v", err)
	}
	if err := u.CheckRight("t1", RightDelete); err == nil {
		t.Errorf("ungranted right accepted")
	}
	if err := systemUser().CheckRight("anything", RightAll); err != nil {
		t.Errorf("system user must hold every right: %v", err)
	}
}
