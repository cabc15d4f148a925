// Package graph holds the low-level, write-only flow builder. It is the
// mutable machinery behind the flowkit package's fluent handles: node and
// variable storage, scope tracking, and the build-time misuse checks
// (duplicate edges, double-set edges, cross-scope references) that the
// specification calls programmer errors and raises immediately rather
// than deferring to the validator.
package graph

import (
	"fmt"
	"sync/atomic"

	"github.com/flowkit-go/flowkit/pkg/api"
)

// Builder accumulates nodes and variables for a single Flow (or, while a
// Block is being initialized, for that block's nested scope). It is never
// safe for concurrent use: construction happens on a single goroutine.
type Builder struct {
	name string

	nodes     map[api.NodeID]*api.Node
	variables map[api.VariableID]*api.Variable

	initial              api.NodeID
	hasInitial           bool
	defaultFault         api.NodeID
	hasDefaultFault      bool
	defaultCancel        api.NodeID
	hasDefaultCancel     bool

	scopeStack []api.ScopeID
	nextID     *atomic.Uint64
}

// NewBuilder starts a builder for a flow named name.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:       name,
		nodes:      make(map[api.NodeID]*api.Node),
		variables:  make(map[api.VariableID]*api.Variable),
		scopeStack: []api.ScopeID{api.RootScope},
		nextID:     new(atomic.Uint64),
	}
}

// CurrentScope returns the innermost active scope (the root scope unless
// a Block initializer is currently running).
func (b *Builder) CurrentScope() api.ScopeID {
	return b.scopeStack[len(b.scopeStack)-1]
}

// PushScope enters a new nested scope (used by Block initializers) and
// returns its id.
func (b *Builder) PushScope() api.ScopeID {
	id := api.ScopeID(b.freshID("scope"))
	b.scopeStack = append(b.scopeStack, id)
	return id
}

// PopScope leaves the innermost scope.
func (b *Builder) PopScope() {
	if len(b.scopeStack) == 1 {
		panic("flowkit: PopScope called with no nested scope active")
	}
	b.scopeStack = b.scopeStack[:len(b.scopeStack)-1]
}

// ScopeActive reports whether scope is the root scope or currently on the
// active scope stack. Binding/update helpers call this to enforce that a
// block-local variable is only referenced while its block is being built.
func (b *Builder) ScopeActive(scope api.ScopeID) bool {
	if scope == api.RootScope {
		return true
	}
	for _, s := range b.scopeStack {
		if s == scope {
			return true
		}
	}
	return false
}

func (b *Builder) freshID(prefix string) string {
	n := b.nextID.Add(1)
	return fmt.Sprintf("%s-%d", prefix, n)
}

// NewNodeID mints a fresh node id.
func (b *Builder) NewNodeID() api.NodeID {
	return api.NodeID(b.freshID("node"))
}

// NewVariableID mints a fresh variable id.
func (b *Builder) NewVariableID() api.VariableID {
	return api.VariableID(b.freshID("var"))
}

// AddNode registers a new node of the given kind in the current scope and
// returns it for the caller to populate with its payload.
func (b *Builder) AddNode(kind api.NodeKind, name string) *api.Node {
	n := &api.Node{
		ID:    b.NewNodeID(),
		Name:  name,
		Scope: b.CurrentScope(),
		Kind:  kind,
	}
	b.nodes[n.ID] = n
	return n
}

// Node looks up a previously added node.
func (b *Builder) Node(id api.NodeID) (*api.Node, bool) {
	n, ok := b.nodes[id]
	return n, ok
}

// AddVariable registers a new variable in the current scope.
func (b *Builder) AddVariable(name string, initial any, hasInit bool) *api.Variable {
	v := &api.Variable{
		ID:      b.NewVariableID(),
		Name:    name,
		Scope:   b.CurrentScope(),
		Initial: initial,
		HasInit: hasInit,
	}
	b.variables[v.ID] = v
	return v
}

// SetInitial designates id as the flow's single entry point. Calling it
// twice is a build-time misuse error.
func (b *Builder) SetInitial(id api.NodeID) {
	if b.hasInitial {
		panic("flowkit: initial node already set")
	}
	b.hasInitial = true
	b.initial = id
}

// SetDefaultFaultHandler designates id as the flow-wide fault handler.
func (b *Builder) SetDefaultFaultHandler(id api.NodeID) {
	if b.hasDefaultFault {
		panic("flowkit: default fault handler already set")
	}
	b.hasDefaultFault = true
	b.defaultFault = id
}

// SetDefaultCancelHandler designates id as the flow-wide cancellation
// handler.
func (b *Builder) SetDefaultCancelHandler(id api.NodeID) {
	if b.hasDefaultCancel {
		panic("flowkit: default cancellation handler already set")
	}
	b.hasDefaultCancel = true
	b.defaultCancel = id
}

// RequireEmptyEdge panics with a descriptive message if target is
// already set, enforcing the "double-setting an edge is a build-time
// error" rule uniformly across node variants.
func RequireEmptyEdge(owner api.NodeID, edge string, target api.NodeID) {
	if target != "" {
		panic(fmt.Sprintf("flowkit: node %s already has its %q edge set", owner, edge))
	}
}

// RequireScope panics if scope is not reachable from the builder's
// current scope stack, implementing the build-time rejection of
// cross-scope variable references.
func (b *Builder) RequireScope(scope api.ScopeID, what string) {
	if !b.ScopeActive(scope) {
		panic(fmt.Sprintf("flowkit: %s references a variable outside its declaring scope", what))
	}
}

// Build assembles the accumulated nodes and variables into an immutable
// Flow. Build itself performs no graph validation: that is the
// validator's job, run separately by the flow façade before execution.
func (b *Builder) Build() *api.Flow {
	return &api.Flow{
		Name:                 b.name,
		Root:                 b.initial,
		Nodes:                b.nodes,
		Variables:            b.variables,
		DefaultFaultHandler:  b.defaultFault,
		HasDefaultFault:      b.hasDefaultFault,
		DefaultCancelHandler: b.defaultCancel,
		HasDefaultCancel:     b.hasDefaultCancel,
	}
}
