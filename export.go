package flowkit

import (
	"fmt"

	"github.com/flowkit-go/flowkit/pkg/api"
)

// Export produces a serialization-agnostic directed-graph description
// of flow for an out-of-process visualization tool, covering every edge
// label spec.md §6 names.
func Export(flow *api.Flow) *api.GraphDescription {
	desc := &api.GraphDescription{Name: flow.Name, Root: flow.Root}

	for id, n := range flow.Nodes {
		desc.Nodes = append(desc.Nodes, api.GraphNode{ID: id, Kind: n.Kind, Name: n.Name})

		edge := func(to api.NodeID, label api.EdgeLabel) {
			if to != "" {
				desc.Edges = append(desc.Edges, api.GraphEdge{From: id, To: to, Label: label})
			}
		}

		switch n.Kind {
		case api.KindActivity:
			edge(n.Activity.Next, api.EdgeNext)
			edge(n.Activity.Fault, api.EdgeFault)
			edge(n.Activity.Cancel, api.EdgeCancel)
		case api.KindCondition:
			edge(n.Condition.TrueNext, api.EdgeTrue)
			edge(n.Condition.FalseNext, api.EdgeFalse)
		case api.KindSwitch:
			for _, k := range n.Switch.CaseOrder {
				desc.Edges = append(desc.Edges, api.GraphEdge{From: id, To: n.Switch.Cases[k], Label: api.EdgeCase, CaseKey: k})
			}
			if n.Switch.HasDefault {
				edge(n.Switch.Default, api.EdgeDefault)
			}
		case api.KindForkJoin:
			for i, c := range n.ForkJoin.Children {
				desc.Edges = append(desc.Edges, api.GraphEdge{From: id, To: c, Label: api.EdgeFork, ForkIndex: i})
			}
			edge(n.ForkJoin.Next, api.EdgeJoin)
		case api.KindBlock:
			edge(n.Block.Initial, api.EdgeNext)
			edge(n.Block.Next, api.EdgeNext)
		}
	}

	if flow.HasDefaultFault {
		desc.Edges = append(desc.Edges, api.GraphEdge{From: "", To: flow.DefaultFaultHandler, Label: api.EdgeFault})
	}
	if flow.HasDefaultCancel {
		desc.Edges = append(desc.Edges, api.GraphEdge{From: "", To: flow.DefaultCancelHandler, Label: api.EdgeCancel})
	}

	return desc
}

// DescribeNode renders a short human-readable line for a node.
func DescribeNode(n api.GraphNode) string {
	if n.Name == "" {
		return fmt.Sprintf("%s(%s)", n.Kind, n.ID)
	}
	return fmt.Sprintf("%s(%s %q)", n.Kind, n.ID, n.Name)
}
