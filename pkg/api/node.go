package api

// NodeID identifies a node within a Flow. Successors are stored as ids
// rather than pointers so that the graph can contain cycles (loops) while
// the in-memory node store itself stays a flat, easily validated map.
type NodeID string

// ScopeID identifies a builder scope: the root flow scope, or a Block's
// private nested scope.
type ScopeID string

// RootScope is the scope id of the flow's top-level (global) scope.
const RootScope ScopeID = ""

// NodeKind discriminates which payload a Node carries.
type NodeKind string

const (
	KindActivity     NodeKind = "activity"
	KindCondition    NodeKind = "condition"
	KindSwitch       NodeKind = "switch"
	KindForkJoin     NodeKind = "fork_join"
	KindBlock        NodeKind = "block"
	KindFaultHandler NodeKind = "fault_handler"
)

// Node is a tagged-variant vertex of the flow graph. Exactly one of the
// payload fields matching Kind is non-nil.
type Node struct {
	ID    NodeID
	Name  string
	Scope ScopeID
	Kind  NodeKind

	Activity     *ActivityNode
	Condition    *ConditionNode
	Switch       *SwitchNode
	ForkJoin     *ForkJoinNode
	Block        *BlockNode
	FaultHandler *FaultHandlerNode
}

// ActivityNode references an activity type descriptor resolved by the
// service container. Next/Fault/Cancel are successor ids; an empty NodeID
// means "no successor of this kind wired".
type ActivityNode struct {
	Descriptor *Descriptor
	Bindings   []*Binding
	Updates    []*VariableUpdate

	Next   NodeID
	Fault  NodeID
	Cancel NodeID
}

// ConditionNode holds a nullary, boolean-valued predicate and its two
// successors. Conditions take no bindings: they have no inputs.
type ConditionNode struct {
	Predicate func(ResultReader) (bool, error)
	TrueNext  NodeID
	FalseNext NodeID
}

// SwitchNode holds a choice expression (evaluated to a formatted key) and
// a mapping from key to successor. AllowPartial opts out of the default
// coverage requirement enforced by the validator's switch-coverage pass.
type SwitchNode struct {
	Choice       func(ResultReader) (string, error)
	Cases        map[string]NodeID
	CaseOrder    []string
	Default      NodeID
	HasDefault   bool
	AllowPartial bool
}

// ForkJoinNode launches its Children in parallel and waits for all of
// them to settle before transitioning to Next. Each child is an ordinary
// Activity-kind node (its Next is left unset: the join, not the child,
// decides what runs afterward); a child's Fault edge is its own fault
// handler. A fault in any child cancels its siblings; once all have
// settled, the first faulted child in Children order is dispatched to
// its own effective handler.
type ForkJoinNode struct {
	Children []NodeID
	Next     NodeID
}

// BlockNode is a named sub-scope with its own block-local variables. The
// block executes Initial (and whatever it transitively reaches inside the
// block's scope) and transitions to Next once the block's terminal node
// has exited.
type BlockNode struct {
	Scope     ScopeID
	Variables []VariableID
	Initial   NodeID
	Next      NodeID
}

// FaultHandlerNode runs as an ordinary activity whose fault-handler
// capability has been verified by the validator. It has no Fault/Cancel
// successor of its own: a failure inside a fault handler is never
// re-dispatched, it terminates the flow with HandlerFailed.
type FaultHandlerNode struct {
	Descriptor *Descriptor
	Bindings   []*Binding
	Updates    []*VariableUpdate
}
