package api

import "testing"

func TestResultThunkPendingThenReady(t *testing.T) {
	thunk := NewResultThunk()

	if thunk.Ready() {
		t.Fatalf("expected a fresh thunk to be pending")
	}
	if _, err := thunk.Get(); err != ErrResultNotReady {
		t.Fatalf("expected ErrResultNotReady, got %v", err)
	}

	thunk.Set(42)

	if !thunk.Ready() {
		t.Fatalf("expected thunk to be ready after Set")
	}
	v, err := thunk.Get()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Fatalf("expected 42, got %v", v)
	}
}

func TestResultThunkDoubleSetPanics(t *testing.T) {
	thunk := NewResultThunk()
	thunk.Set("first")

	defer func() {
		if recover() == nil {
			t.Fatalf("expected Set to panic on a second call")
		}
	}()
	thunk.Set("second")
}

func TestVariableCellUninitializedUntilAssigned(t *testing.T) {
	decl := &Variable{ID: "v1", Name: "count"}
	cell := NewVariableCell(decl)

	if _, ok := cell.Current(); ok {
		t.Fatalf("expected an uninitialized cell with no declared initial value")
	}

	cell.Assign(3)
	v, ok := cell.Current()
	if !ok || v != 3 {
		t.Fatalf("expected (3, true), got (%v, %v)", v, ok)
	}

	if err := cell.Update(func(current any) (any, error) {
		return current.(int) + 1, nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, _ = cell.Current()
	if v != 4 {
		t.Fatalf("expected 4 after update, got %v", v)
	}
}

func TestVariableCellResetRestoresDeclaredInitial(t *testing.T) {
	decl := &Variable{ID: "v1", Initial: 10, HasInit: true}
	cell := NewVariableCell(decl)

	cell.Assign(99)
	cell.Reset()

	v, ok := cell.Current()
	if !ok || v != 10 {
		t.Fatalf("expected (10, true) after reset, got (%v, %v)", v, ok)
	}
}
