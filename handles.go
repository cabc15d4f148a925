package flowkit

import (
	"github.com/flowkit-go/flowkit/internal/graph"
	"github.com/flowkit-go/flowkit/pkg/api"
)

// NodeRef is any handle that identifies a built node. ToResultOf and the
// connect_* family accept a NodeRef rather than a raw id so that a typo
// referencing a node that was never built is a compile error, not a
// runtime DanglingEdge diagnostic.
type NodeRef interface {
	NodeID() api.NodeID
}

// Bindable is a handle whose node can carry bindings and post-completion
// variable updates: activities, fork children (which are activities),
// and fault/cancellation handlers.
type Bindable interface {
	NodeRef
	AppendBinding(*api.Binding)
	AppendUpdate(*api.VariableUpdate)
}

// ActivityHandle refers to an Activity-kind node, including fork-join
// children (which are ordinary activity nodes referenced from a
// ForkJoinNode rather than chained through Next).
type ActivityHandle struct {
	b    *Builder
	node *api.Node
}

func (h *ActivityHandle) NodeID() api.NodeID { return h.node.ID }

func (h *ActivityHandle) AppendBinding(b *api.Binding) {
	h.node.Activity.Bindings = append(h.node.Activity.Bindings, b)
}

func (h *ActivityHandle) AppendUpdate(u *api.VariableUpdate) {
	h.node.Activity.Updates = append(h.node.Activity.Updates, u)
}

// ConnectNext wires this activity's successor on success.
func (h *ActivityHandle) ConnectNext(next NodeRef) *ActivityHandle {
	graph.RequireEmptyEdge(h.node.ID, "next", h.node.Activity.Next)
	h.node.Activity.Next = next.NodeID()
	return h
}

// ConnectFault wires this activity's own fault handler, taking
// precedence over the flow's default.
func (h *ActivityHandle) ConnectFault(handler *FaultHandlerHandle) *ActivityHandle {
	graph.RequireEmptyEdge(h.node.ID, "fault", h.node.Activity.Fault)
	h.node.Activity.Fault = handler.NodeID()
	return h
}

// ConnectCancellation wires this activity's own cancellation handler.
func (h *ActivityHandle) ConnectCancellation(handler *FaultHandlerHandle) *ActivityHandle {
	graph.RequireEmptyEdge(h.node.ID, "cancel", h.node.Activity.Cancel)
	h.node.Activity.Cancel = handler.NodeID()
	return h
}

// ConditionHandle refers to a Condition-kind node.
type ConditionHandle struct {
	b    *Builder
	node *api.Node
}

func (h *ConditionHandle) NodeID() api.NodeID { return h.node.ID }

func (h *ConditionHandle) ConnectTrue(next NodeRef) *ConditionHandle {
	graph.RequireEmptyEdge(h.node.ID, "true", h.node.Condition.TrueNext)
	h.node.Condition.TrueNext = next.NodeID()
	return h
}

func (h *ConditionHandle) ConnectFalse(next NodeRef) *ConditionHandle {
	graph.RequireEmptyEdge(h.node.ID, "false", h.node.Condition.FalseNext)
	h.node.Condition.FalseNext = next.NodeID()
	return h
}

// SwitchHandle refers to a Switch-kind node.
type SwitchHandle struct {
	b    *Builder
	node *api.Node
}

func (h *SwitchHandle) NodeID() api.NodeID { return h.node.ID }

// Case wires key to target. A repeated key is a build-time misuse error
// (spec.md's switch-key-collision open question, decided the same way
// as every other double-set edge).
func (h *SwitchHandle) Case(key string, target NodeRef) *SwitchHandle {
	sw := h.node.Switch
	if _, exists := sw.Cases[key]; exists {
		panic("flowkit: switch " + string(h.node.ID) + " already has a case for key " + key)
	}
	sw.Cases[key] = target.NodeID()
	sw.CaseOrder = append(sw.CaseOrder, key)
	return h
}

func (h *SwitchHandle) Default(target NodeRef) *SwitchHandle {
	sw := h.node.Switch
	if sw.HasDefault {
		panic("flowkit: switch " + string(h.node.ID) + " already has a default")
	}
	sw.HasDefault = true
	sw.Default = target.NodeID()
	return h
}

// AllowPartial opts this switch out of the default-coverage requirement
// the validator otherwise enforces.
func (h *SwitchHandle) AllowPartial() *SwitchHandle {
	h.node.Switch.AllowPartial = true
	return h
}

// ForkJoinHandle refers to a ForkJoin-kind node.
type ForkJoinHandle struct {
	b    *Builder
	node *api.Node
}

func (h *ForkJoinHandle) NodeID() api.NodeID { return h.node.ID }

// AddChild appends a new independent branch, in call order, and returns
// a handle to it. A child's ConnectNext is unused: the join, not the
// child, decides what runs next.
func (h *ForkJoinHandle) AddChild(desc *api.Descriptor, name string) *ActivityHandle {
	n := h.b.g.AddNode(api.KindActivity, name)
	n.Activity = &api.ActivityNode{Descriptor: desc}
	h.node.ForkJoin.Children = append(h.node.ForkJoin.Children, n.ID)
	return &ActivityHandle{b: h.b, node: n}
}

func (h *ForkJoinHandle) ConnectNext(next NodeRef) *ForkJoinHandle {
	graph.RequireEmptyEdge(h.node.ID, "join", h.node.ForkJoin.Next)
	h.node.ForkJoin.Next = next.NodeID()
	return h
}

// BlockHandle refers to a Block-kind node.
type BlockHandle struct {
	b    *Builder
	node *api.Node
}

func (h *BlockHandle) NodeID() api.NodeID { return h.node.ID }

func (h *BlockHandle) ConnectInitial(initial NodeRef) *BlockHandle {
	graph.RequireEmptyEdge(h.node.ID, "initial", h.node.Block.Initial)
	h.node.Block.Initial = initial.NodeID()
	return h
}

func (h *BlockHandle) ConnectNext(next NodeRef) *BlockHandle {
	graph.RequireEmptyEdge(h.node.ID, "next", h.node.Block.Next)
	h.node.Block.Next = next.NodeID()
	return h
}

// FaultHandlerHandle refers to a FaultHandler-kind node.
type FaultHandlerHandle struct {
	b    *Builder
	node *api.Node
}

func (h *FaultHandlerHandle) NodeID() api.NodeID { return h.node.ID }

func (h *FaultHandlerHandle) AppendBinding(b *api.Binding) {
	h.node.FaultHandler.Bindings = append(h.node.FaultHandler.Bindings, b)
}

func (h *FaultHandlerHandle) AppendUpdate(u *api.VariableUpdate) {
	h.node.FaultHandler.Updates = append(h.node.FaultHandler.Updates, u)
}
