package flowkit

import "github.com/flowkit-go/flowkit/pkg/api"

// VariableHandle refers to a declared Variable of type T. Go methods
// cannot themselves be generic, so Variable is a package-level function
// rather than a method on Builder.
type VariableHandle[T any] struct {
	b    *Builder
	decl *api.Variable
}

// Variable declares a new variable at the builder's current scope
// (flow-wide at the top level, block-local inside a Block's init
// function). An initial value may be supplied; omitting it leaves the
// variable uninitialized until first assigned.
func Variable[T any](b *Builder, name string, initial ...T) *VariableHandle[T] {
	has := len(initial) > 0
	var init any
	if has {
		init = initial[0]
	}
	decl := b.g.AddVariable(name, init, has)
	return &VariableHandle[T]{b: b, decl: decl}
}

func (v *VariableHandle[T]) ID() api.VariableID { return v.decl.ID }

// BindToResultOf is sugar for AfterCompletionOf(source).AssignResult().
func (v *VariableHandle[T]) BindToResultOf(source Bindable) {
	v.AfterCompletionOf(source).AssignResult()
}

// AfterCompletionOf schedules an update to run once trigger completes
// successfully. Updates for the same trigger run in declaration order.
func (v *VariableHandle[T]) AfterCompletionOf(trigger Bindable) *UpdateBuilder[T] {
	v.b.g.RequireScope(v.decl.Scope, "variable update on "+string(trigger.NodeID()))
	return &UpdateBuilder[T]{v: v, trigger: trigger}
}

// UpdateBuilder picks which mutation AfterCompletionOf schedules.
type UpdateBuilder[T any] struct {
	v       *VariableHandle[T]
	trigger Bindable
}

// Assign schedules an unconditional overwrite with val.
func (u *UpdateBuilder[T]) Assign(val T) {
	u.trigger.AppendUpdate(&api.VariableUpdate{
		Target:  u.v.decl.ID,
		Trigger: u.trigger.NodeID(),
		Op:      api.OpAssign,
		Value:   val,
	})
}

// AssignResult schedules the variable to take on the trigger's own
// result.
func (u *UpdateBuilder[T]) AssignResult() {
	u.trigger.AppendUpdate(&api.VariableUpdate{
		Target:  u.v.decl.ID,
		Trigger: u.trigger.NodeID(),
		Op:      api.OpAssignResult,
		Source:  u.trigger.NodeID(),
	})
}

// Update schedules fn to transform the variable's current value.
func (u *UpdateBuilder[T]) Update(fn func(current T) (T, error)) {
	wrapped := func(current any) (any, error) {
		typed, _ := current.(T)
		return fn(typed)
	}
	u.trigger.AppendUpdate(&api.VariableUpdate{
		Target:  u.v.decl.ID,
		Trigger: u.trigger.NodeID(),
		Op:      api.OpUpdate,
		Fn:      wrapped,
	})
}
