package flowkit

import (
	"github.com/flowkit-go/flowkit/internal/graph"
	"github.com/flowkit-go/flowkit/pkg/api"
)

// Builder is the fluent, strongly-typed construction surface over a
// single flow. It is write-only: reading the graph it produces requires
// calling Build and then Validate. A Builder returned from inside a
// Block's init function shares the outer flow's node and variable
// stores but creates new nodes in that block's private scope.
type Builder struct {
	g *graph.Builder
}

// NewFlow starts building a flow named name.
func NewFlow(name string) *Builder {
	return &Builder{g: graph.NewBuilder(name)}
}

// Activity adds a new activity node backed by desc.
func (b *Builder) Activity(desc *api.Descriptor, name string) *ActivityHandle {
	n := b.g.AddNode(api.KindActivity, name)
	n.Activity = &api.ActivityNode{Descriptor: desc}
	return &ActivityHandle{b: b, node: n}
}

// Condition adds a new condition node evaluating predicate.
func (b *Builder) Condition(name string, predicate func(api.ResultReader) (bool, error)) *ConditionHandle {
	n := b.g.AddNode(api.KindCondition, name)
	n.Condition = &api.ConditionNode{Predicate: predicate}
	return &ConditionHandle{b: b, node: n}
}

// Switch adds a new switch node evaluating choice to a case key.
func (b *Builder) Switch(name string, choice func(api.ResultReader) (string, error)) *SwitchHandle {
	n := b.g.AddNode(api.KindSwitch, name)
	n.Switch = &api.SwitchNode{Choice: choice, Cases: make(map[string]api.NodeID)}
	return &SwitchHandle{b: b, node: n}
}

// ForkJoin adds a new fork-join node. Children are added in call order
// via the returned handle's AddChild.
func (b *Builder) ForkJoin(name string) *ForkJoinHandle {
	n := b.g.AddNode(api.KindForkJoin, name)
	n.ForkJoin = &api.ForkJoinNode{}
	return &ForkJoinHandle{b: b, node: n}
}

// FaultHandler adds a new fault-handler node backed by desc. desc must
// have been built with RegisterFaultHandler: the validator's
// handler-type pass rejects any other descriptor used here.
func (b *Builder) FaultHandler(desc *api.Descriptor, name string) *FaultHandlerHandle {
	n := b.g.AddNode(api.KindFaultHandler, name)
	n.FaultHandler = &api.FaultHandlerNode{Descriptor: desc}
	return &FaultHandlerHandle{b: b, node: n}
}

// Block adds a new named sub-scope. init runs against a nested Builder
// sharing the same underlying node/variable store, so any node or
// variable it creates belongs to the block's private scope; init also
// receives the block's own handle so it can wire ConnectInitial once its
// nodes exist.
func (b *Builder) Block(name string, init func(inner *Builder, blk *BlockHandle)) *BlockHandle {
	n := b.g.AddNode(api.KindBlock, name)
	scope := b.g.PushScope()
	n.Block = &api.BlockNode{Scope: scope}
	handle := &BlockHandle{b: b, node: n}

	inner := &Builder{g: b.g}
	init(inner, handle)

	b.g.PopScope()
	return handle
}

// WithInitial designates the flow's single entry point.
func (b *Builder) WithInitial(h NodeRef) *Builder {
	b.g.SetInitial(h.NodeID())
	return b
}

// WithDefaultFaultHandler designates the flow-wide fault handler used by
// any reachable activity that did not declare its own.
func (b *Builder) WithDefaultFaultHandler(h *FaultHandlerHandle) *Builder {
	b.g.SetDefaultFaultHandler(h.NodeID())
	return b
}

// WithDefaultCancelHandler designates the flow-wide cancellation
// handler.
func (b *Builder) WithDefaultCancelHandler(h *FaultHandlerHandle) *Builder {
	b.g.SetDefaultCancelHandler(h.NodeID())
	return b
}

// build assembles the accumulated nodes and variables into an immutable
// api.Flow. It performs no validation; the package-level flowkit.Build
// wraps the result in a Flow whose Validate runs the validator.
func (b *Builder) build() *api.Flow {
	return b.g.Build()
}
