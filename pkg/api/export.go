package api

// EdgeLabel names the kind of edge a GraphEdge represents, matching the
// label set a graph-export tool needs to render a flow.
type EdgeLabel string

const (
	EdgeNext    EdgeLabel = "next"
	EdgeFault   EdgeLabel = "fault"
	EdgeCancel  EdgeLabel = "cancel"
	EdgeTrue    EdgeLabel = "true"
	EdgeFalse   EdgeLabel = "false"
	EdgeCase    EdgeLabel = "case"
	EdgeDefault EdgeLabel = "default"
	EdgeFork    EdgeLabel = "fork"
	EdgeJoin    EdgeLabel = "join"
)

// GraphNode is the exported view of a Node: just enough to render a box.
type GraphNode struct {
	ID   NodeID
	Kind NodeKind
	Name string
}

// GraphEdge is the exported view of one successor relationship. CaseKey
// is set when Label == EdgeCase; ForkIndex is set when Label == EdgeFork.
type GraphEdge struct {
	From      NodeID
	To        NodeID
	Label     EdgeLabel
	CaseKey   string
	ForkIndex int
}

// GraphDescription is a serialization-agnostic directed-graph view of a
// Flow, intended to be consumed by an out-of-process visualization tool.
type GraphDescription struct {
	Name  string
	Root  NodeID
	Nodes []GraphNode
	Edges []GraphEdge
}
