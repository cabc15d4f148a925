package flowkit

import (
	"fmt"

	"github.com/flowkit-go/flowkit/pkg/api"
)

// PropertyTarget is the typed, property-name-keyed binding target
// returned by Bind. It stands in for the dynamic target's lambda
// member-access selector: the property name and its apply function are
// both fixed at build time rather than resolved via reflection.
type PropertyTarget[V any] struct {
	owner Bindable
	name  string
	apply func(instance any, v V) error
}

// Bind starts a binding for owner's input property named name. apply
// assigns a resolved value of type V onto the freshly constructed
// activity instance.
func Bind[V any](owner Bindable, name string, apply func(instance any, v V) error) *PropertyTarget[V] {
	return &PropertyTarget[V]{owner: owner, name: name, apply: apply}
}

func (t *PropertyTarget[V]) wrapApply() func(any, any) error {
	return func(instance any, value any) error {
		v, ok := value.(V)
		if !ok {
			var zero V
			return fmt.Errorf("flowkit: property %q expected %T, got %T", t.name, zero, value)
		}
		return t.apply(instance, v)
	}
}

// ToConstant binds the property to an eagerly-known value.
func (t *PropertyTarget[V]) ToConstant(v V) {
	t.owner.AppendBinding(&api.Binding{
		Property: t.name,
		Mode:     api.BindConstant,
		Eval:     func(api.ResultReader) (any, error) { return v, nil },
		Apply:    t.wrapApply(),
	})
}

// ToResultOf binds the property to source's result once source has
// completed.
func (t *PropertyTarget[V]) ToResultOf(source NodeRef) {
	src := source.NodeID()
	t.owner.AppendBinding(&api.Binding{
		Property: t.name,
		Mode:     api.BindResult,
		Source:   src,
		Eval:     func(rr api.ResultReader) (any, error) { return rr.ReadResult(src) },
		Apply:    t.wrapApply(),
	})
}

// ToExpression binds the property to a late-bound expression. build
// receives a DepRecorder and must return the evaluation closure; every
// ReadResult/ReadVariable call against that recorder while build runs
// registers a dependency the validator's liveness pass checks. This is
// the accessor-object pattern spec.md's design notes require in place
// of automatic read-set inference.
func (t *PropertyTarget[V]) ToExpression(build func(d *DepRecorder) func(api.ResultReader) (V, error)) {
	d := &DepRecorder{}
	fn := build(d)
	t.owner.AppendBinding(&api.Binding{
		Property: t.name,
		Mode:     api.BindExpression,
		Deps:     d.deps,
		Eval:     func(rr api.ResultReader) (any, error) { return fn(rr) },
		Apply:    t.wrapApply(),
	})
}

// DepRecorder accumulates the node ids an expression binding reads from,
// so the validator can prove liveness without inspecting the closure's
// body.
type DepRecorder struct {
	deps []api.NodeID
}

// ReadResult returns a typed accessor for source's result and records
// source as a dependency of the expression being built.
func ReadResult[V any](d *DepRecorder, source NodeRef) func(api.ResultReader) (V, error) {
	id := source.NodeID()
	d.deps = append(d.deps, id)
	return func(rr api.ResultReader) (V, error) {
		raw, err := rr.ReadResult(id)
		if err != nil {
			var zero V
			return zero, err
		}
		v, ok := raw.(V)
		if !ok {
			var zero V
			return zero, fmt.Errorf("flowkit: result of %s is not of the expected type", id)
		}
		return v, nil
	}
}

// ReadVariable returns a typed accessor for a variable's current value.
// Variables are not subject to the liveness pass (their value is always
// defined, initial or uninitialized), so this does not record a
// dependency.
func ReadVariable[V any](v *VariableHandle[V]) func(api.ResultReader) (V, error) {
	id := v.decl.ID
	v.b.g.RequireScope(v.decl.Scope, "expression reading variable "+string(id))
	return func(rr api.ResultReader) (V, error) {
		raw, ok := rr.ReadVariable(id)
		if !ok {
			var zero V
			return zero, fmt.Errorf("flowkit: variable %s is not initialized", id)
		}
		tv, ok := raw.(V)
		if !ok {
			var zero V
			return zero, fmt.Errorf("flowkit: variable %s is not of the expected type", id)
		}
		return tv, nil
	}
}
