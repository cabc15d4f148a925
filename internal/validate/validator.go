// Package validate implements the flow validator: the sequence of
// graph-level checks run ahead of execution that reject structurally or
// semantically ill-formed flows. Every pass returns data, never panics;
// misuse that the builder could catch immediately is the graph
// package's job, not this one's.
package validate

import (
	"fmt"

	"github.com/flowkit-go/flowkit/pkg/api"
)

// Validate runs every pass against flow and returns the accumulated
// diagnostics. Passes after reachability only consider reachable nodes,
// matching spec "subsequent passes consider only reachable nodes".
func Validate(flow *api.Flow) api.ValidationResult {
	var res api.ValidationResult

	if flow.Root == "" {
		res.Errors = append(res.Errors, api.Diagnostic{
			Code:     api.CodeMissingInitialNode,
			Message:  "flow has no initial node",
			Severity: api.SeverityError,
		})
		return res
	}

	checkReferenceIntegrity(flow, &res)

	reachable := reachability(flow)
	for id := range flow.Nodes {
		if !reachable[id] {
			res.Warnings = append(res.Warnings, api.Diagnostic{
				Code:     api.CodeUnreachableNode,
				Message:  fmt.Sprintf("node %s is unreachable from the initial node", id),
				NodeID:   id,
				Severity: api.SeverityWarning,
			})
		}
	}

	checkHandlerCoverage(flow, reachable, &res)
	checkHandlerType(flow, reachable, &res)
	checkRequiredInputs(flow, reachable, &res)
	checkBindingLiveness(flow, reachable, &res)
	checkSwitchCoverage(flow, reachable, &res)
	checkForkJoin(flow, reachable, &res)
	checkVariableScope(flow, reachable, &res)

	return res
}

// successors returns every outgoing node edge of n, labelled, skipping
// empty (unset) edges. Fork-join children are included because they
// behave exactly like activity nodes for reachability purposes.
func successors(n *api.Node) []api.NodeID {
	var out []api.NodeID
	add := func(id api.NodeID) {
		if id != "" {
			out = append(out, id)
		}
	}
	switch n.Kind {
	case api.KindActivity:
		add(n.Activity.Next)
		add(n.Activity.Fault)
		add(n.Activity.Cancel)
	case api.KindCondition:
		add(n.Condition.TrueNext)
		add(n.Condition.FalseNext)
	case api.KindSwitch:
		for _, k := range n.Switch.CaseOrder {
			add(n.Switch.Cases[k])
		}
		if n.Switch.HasDefault {
			add(n.Switch.Default)
		}
	case api.KindForkJoin:
		for _, c := range n.ForkJoin.Children {
			add(c)
		}
		add(n.ForkJoin.Next)
	case api.KindBlock:
		add(n.Block.Initial)
		add(n.Block.Next)
	case api.KindFaultHandler:
		// fault handlers have no successor of their own; the flow
		// terminates when one completes.
	}
	return out
}

func checkReferenceIntegrity(flow *api.Flow, res *api.ValidationResult) {
	exists := func(id api.NodeID, owner api.NodeID, edge string) {
		if id == "" {
			return
		}
		if _, ok := flow.Nodes[id]; !ok {
			res.Errors = append(res.Errors, api.Diagnostic{
				Code:     api.CodeDanglingEdge,
				Message:  fmt.Sprintf("node %s has a dangling %s edge to %s", owner, edge, id),
				NodeID:   owner,
				Severity: api.SeverityError,
			})
		}
	}
	if _, ok := flow.Nodes[flow.Root]; !ok {
		res.Errors = append(res.Errors, api.Diagnostic{
			Code:     api.CodeDanglingEdge,
			Message:  fmt.Sprintf("initial node %s does not exist", flow.Root),
			Severity: api.SeverityError,
		})
	}
	for id, n := range flow.Nodes {
		switch n.Kind {
		case api.KindActivity:
			exists(n.Activity.Next, id, "next")
			exists(n.Activity.Fault, id, "fault")
			exists(n.Activity.Cancel, id, "cancel")
		case api.KindCondition:
			exists(n.Condition.TrueNext, id, "true")
			exists(n.Condition.FalseNext, id, "false")
		case api.KindSwitch:
			for _, k := range n.Switch.CaseOrder {
				exists(n.Switch.Cases[k], id, "case")
			}
			if n.Switch.HasDefault {
				exists(n.Switch.Default, id, "default")
			}
		case api.KindForkJoin:
			for _, c := range n.ForkJoin.Children {
				exists(c, id, "fork")
			}
			exists(n.ForkJoin.Next, id, "join")
		case api.KindBlock:
			exists(n.Block.Initial, id, "initial")
			exists(n.Block.Next, id, "next")
		}
		for _, b := range bindingsOf(n) {
			if b.Mode == api.BindResult {
				exists(b.Source, id, "result binding")
			}
			for _, d := range b.Deps {
				exists(d, id, "expression dependency")
			}
		}
	}
	if flow.HasDefaultFault {
		exists(flow.DefaultFaultHandler, "", "default fault")
	}
	if flow.HasDefaultCancel {
		exists(flow.DefaultCancelHandler, "", "default cancellation")
	}
}

func reachability(flow *api.Flow) map[api.NodeID]bool {
	seen := map[api.NodeID]bool{}
	var stack []api.NodeID
	if _, ok := flow.Nodes[flow.Root]; ok {
		stack = append(stack, flow.Root)
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		n, ok := flow.Nodes[id]
		if !ok {
			continue
		}
		for _, s := range successors(n) {
			if !seen[s] {
				stack = append(stack, s)
			}
		}
	}
	return seen
}

// bindingsOf returns the bindings declared on n, regardless of variant.
func bindingsOf(n *api.Node) []*api.Binding {
	switch n.Kind {
	case api.KindActivity:
		return n.Activity.Bindings
	case api.KindFaultHandler:
		return n.FaultHandler.Bindings
	default:
		return nil
	}
}

// descriptorOf returns the activity descriptor backing n, if any.
func descriptorOf(n *api.Node) *api.Descriptor {
	switch n.Kind {
	case api.KindActivity:
		return n.Activity.Descriptor
	case api.KindFaultHandler:
		return n.FaultHandler.Descriptor
	default:
		return nil
	}
}

// effectiveFault returns the handler id that n would dispatch to on
// fault, and whether one exists (own, else flow default).
func effectiveFault(flow *api.Flow, n *api.Node) (api.NodeID, bool) {
	if n.Kind == api.KindActivity && n.Activity.Fault != "" {
		return n.Activity.Fault, true
	}
	if flow.HasDefaultFault {
		return flow.DefaultFaultHandler, true
	}
	return "", false
}

func effectiveCancel(flow *api.Flow, n *api.Node) (api.NodeID, bool) {
	if n.Kind == api.KindActivity && n.Activity.Cancel != "" {
		return n.Activity.Cancel, true
	}
	if flow.HasDefaultCancel {
		return flow.DefaultCancelHandler, true
	}
	return "", false
}

func checkHandlerCoverage(flow *api.Flow, reachable map[api.NodeID]bool, res *api.ValidationResult) {
	for id, n := range flow.Nodes {
		if !reachable[id] {
			continue
		}
		if n.Kind != api.KindActivity {
			continue
		}
		if _, ok := effectiveFault(flow, n); !ok {
			res.Errors = append(res.Errors, api.Diagnostic{
				Code:     api.CodeMissingFaultHandler,
				Message:  fmt.Sprintf("activity %s has no fault handler and no default is set", id),
				NodeID:   id,
				Severity: api.SeverityError,
			})
		}
		if _, ok := effectiveCancel(flow, n); !ok {
			res.Errors = append(res.Errors, api.Diagnostic{
				Code:     api.CodeMissingCancellationHandler,
				Message:  fmt.Sprintf("activity %s has no cancellation handler and no default is set", id),
				NodeID:   id,
				Severity: api.SeverityError,
			})
		}
	}
}

func checkHandlerType(flow *api.Flow, reachable map[api.NodeID]bool, res *api.ValidationResult) {
	check := func(id api.NodeID) {
		if id == "" {
			return
		}
		n, ok := flow.Nodes[id]
		if !ok {
			return
		}
		if n.Kind != api.KindFaultHandler {
			res.Errors = append(res.Errors, api.Diagnostic{
				Code:     api.CodeInvalidFaultHandlerType,
				Message:  fmt.Sprintf("node %s is used as a fault handler but is not a fault-handler node", id),
				NodeID:   id,
				Severity: api.SeverityError,
			})
			return
		}
		if n.FaultHandler.Descriptor == nil || !n.FaultHandler.Descriptor.IsFaultHandler {
			res.Errors = append(res.Errors, api.Diagnostic{
				Code:     api.CodeInvalidFaultHandlerType,
				Message:  fmt.Sprintf("fault handler %s's activity type does not implement the fault-handler capability", id),
				NodeID:   id,
				Severity: api.SeverityError,
			})
		}
	}
	for id, n := range flow.Nodes {
		if !reachable[id] || n.Kind != api.KindActivity {
			continue
		}
		check(n.Activity.Fault)
		check(n.Activity.Cancel)
	}
	if flow.HasDefaultFault {
		check(flow.DefaultFaultHandler)
	}
	if flow.HasDefaultCancel {
		check(flow.DefaultCancelHandler)
	}
}

func checkRequiredInputs(flow *api.Flow, reachable map[api.NodeID]bool, res *api.ValidationResult) {
	for id, n := range flow.Nodes {
		if !reachable[id] {
			continue
		}
		desc := descriptorOf(n)
		if desc == nil {
			continue
		}
		counts := map[string]int{}
		for _, b := range bindingsOf(n) {
			counts[b.Property]++
		}
		for prop, c := range counts {
			if c > 1 {
				res.Errors = append(res.Errors, api.Diagnostic{
					Code:     api.CodeDuplicateBinding,
					Message:  fmt.Sprintf("node %s has %d bindings for property %q", id, c, prop),
					NodeID:   id,
					Severity: api.SeverityError,
				})
			}
		}
		for _, req := range desc.Required {
			if counts[req] == 0 {
				res.Errors = append(res.Errors, api.Diagnostic{
					Code:     api.CodeMissingRequiredInput,
					Message:  fmt.Sprintf("node %s is missing a binding for required property %q", id, req),
					NodeID:   id,
					Severity: api.SeverityError,
				})
			}
		}
	}
}

// checkBindingLiveness proves that every ToResultOf dependency (direct
// or declared by an expression binding) has completed by the time its
// reader runs: src must appear on every path from the root to the
// reader's owning node. Fork-join children and block-internal nodes are
// treated as reachable from their region's entry for this purpose,
// since the executor always runs the producer before resolving bindings
// downstream of it within the same sequential chain.
func checkBindingLiveness(flow *api.Flow, reachable map[api.NodeID]bool, res *api.ValidationResult) {
	predecessors := map[api.NodeID][]api.NodeID{}
	for id, n := range flow.Nodes {
		for _, s := range successors(n) {
			predecessors[s] = append(predecessors[s], id)
		}
	}

	// dominators[id] = set of nodes that lie on every path from root to id.
	dominators := computeDominators(flow, reachable, predecessors)

	for id, n := range flow.Nodes {
		if !reachable[id] {
			continue
		}
		for _, b := range bindingsOf(n) {
			if b.Mode != api.BindResult {
				continue
			}
			if !dominators[id][b.Source] {
				res.Errors = append(res.Errors, api.Diagnostic{
					Code:     api.CodeResultReadBeforeProducer,
					Message:  fmt.Sprintf("node %s reads the result of %s, which is not guaranteed to have completed on every path", id, b.Source),
					NodeID:   id,
					Severity: api.SeverityError,
				})
			}
		}
		for _, b := range bindingsOf(n) {
			if b.Mode != api.BindExpression {
				continue
			}
			for _, dep := range b.Deps {
				if !dominators[id][dep] {
					res.Errors = append(res.Errors, api.Diagnostic{
						Code:     api.CodeResultReadBeforeProducer,
						Message:  fmt.Sprintf("node %s's expression binding for %q depends on %s, which is not guaranteed to have completed on every path", id, b.Property, dep),
						NodeID:   id,
						Severity: api.SeverityError,
					})
				}
			}
		}
	}
}

// computeDominators runs the standard iterative dataflow fixpoint:
// dom(root) = {root}; dom(n) = {n} ∪ ⋂ dom(p) for p in preds(n).
func computeDominators(flow *api.Flow, reachable map[api.NodeID]bool, predecessors map[api.NodeID][]api.NodeID) map[api.NodeID]map[api.NodeID]bool {
	all := map[api.NodeID]bool{}
	for id := range flow.Nodes {
		if reachable[id] {
			all[id] = true
		}
	}

	dom := map[api.NodeID]map[api.NodeID]bool{}
	for id := range all {
		if id == flow.Root {
			dom[id] = map[api.NodeID]bool{id: true}
			continue
		}
		dom[id] = map[api.NodeID]bool{}
		for other := range all {
			dom[id][other] = true
		}
	}

	changed := true
	for changed {
		changed = false
		for id := range all {
			if id == flow.Root {
				continue
			}
			var preds []api.NodeID
			for _, p := range predecessors[id] {
				if reachable[p] {
					preds = append(preds, p)
				}
			}
			if len(preds) == 0 {
				continue
			}
			merged := map[api.NodeID]bool{}
			for k := range dom[preds[0]] {
				merged[k] = true
			}
			for _, p := range preds[1:] {
				for k := range merged {
					if !dom[p][k] {
						delete(merged, k)
					}
				}
			}
			merged[id] = true
			if !equalSets(merged, dom[id]) {
				dom[id] = merged
				changed = true
			}
		}
	}
	return dom
}

func equalSets(a, b map[api.NodeID]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func checkSwitchCoverage(flow *api.Flow, reachable map[api.NodeID]bool, res *api.ValidationResult) {
	for id, n := range flow.Nodes {
		if !reachable[id] || n.Kind != api.KindSwitch {
			continue
		}
		if !n.Switch.HasDefault && !n.Switch.AllowPartial {
			res.Errors = append(res.Errors, api.Diagnostic{
				Code:     api.CodeNonDefaultedPartialSwitch,
				Message:  fmt.Sprintf("switch %s has no default branch and is not marked as allowing partial coverage", id),
				NodeID:   id,
				Severity: api.SeverityError,
			})
		}
	}
}

func checkForkJoin(flow *api.Flow, reachable map[api.NodeID]bool, res *api.ValidationResult) {
	for id, n := range flow.Nodes {
		if !reachable[id] || n.Kind != api.KindForkJoin {
			continue
		}
		if len(n.ForkJoin.Children) == 0 {
			res.Errors = append(res.Errors, api.Diagnostic{
				Code:     api.CodeForkJoinEmpty,
				Message:  fmt.Sprintf("fork-join %s has no children", id),
				NodeID:   id,
				Severity: api.SeverityError,
			})
			continue
		}
		for _, child := range n.ForkJoin.Children {
			if reachesAncestor(flow, child, id, map[api.NodeID]bool{}) {
				res.Errors = append(res.Errors, api.Diagnostic{
					Code:     api.CodeForkJoinCycle,
					Message:  fmt.Sprintf("fork-join %s's child %s transitively re-enters the same fork-join", id, child),
					NodeID:   id,
					Severity: api.SeverityError,
				})
			}
		}
	}
}

// reachesAncestor reports whether following successors from start ever
// reaches target, excluding simple sequential back-edges that are
// ordinary loops (those are permitted by spec invariant 7): only
// fork-join re-entry is checked by restricting the walk to nodes that
// are fork-join children or fork-join nodes themselves.
func reachesAncestor(flow *api.Flow, start, target api.NodeID, seen map[api.NodeID]bool) bool {
	if start == target {
		return true
	}
	if seen[start] {
		return false
	}
	seen[start] = true
	n, ok := flow.Nodes[start]
	if !ok {
		return false
	}
	if n.Kind == api.KindForkJoin {
		for _, c := range n.ForkJoin.Children {
			if reachesAncestor(flow, c, target, seen) {
				return true
			}
		}
		return false
	}
	return false
}

func checkVariableScope(flow *api.Flow, reachable map[api.NodeID]bool, res *api.ValidationResult) {
	scopeOf := map[api.NodeID]api.ScopeID{}
	for id, n := range flow.Nodes {
		scopeOf[id] = n.Scope
	}

	inScope := func(nodeID api.NodeID, varID api.VariableID) bool {
		v, ok := flow.Variables[varID]
		if !ok {
			return false
		}
		if v.Scope == api.RootScope {
			return true
		}
		return scopeOf[nodeID] == v.Scope || enclosedBy(flow, nodeID, v.Scope)
	}

	for id, n := range flow.Nodes {
		if !reachable[id] {
			continue
		}
		var updates []*api.VariableUpdate
		switch n.Kind {
		case api.KindActivity:
			updates = n.Activity.Updates
		case api.KindFaultHandler:
			updates = n.FaultHandler.Updates
		}
		seen := map[api.VariableID]bool{}
		for _, u := range updates {
			if !inScope(id, u.Target) {
				res.Errors = append(res.Errors, api.Diagnostic{
					Code:     api.CodeVariableOutOfScope,
					Message:  fmt.Sprintf("node %s updates variable %s outside its declaring scope", id, u.Target),
					NodeID:   id,
					Severity: api.SeverityError,
				})
			}
			if seen[u.Target] {
				res.Errors = append(res.Errors, api.Diagnostic{
					Code:     api.CodeParallelVariableWriteConflict,
					Message:  fmt.Sprintf("node %s schedules more than one update of variable %s", id, u.Target),
					NodeID:   id,
					Severity: api.SeverityError,
				})
			}
			seen[u.Target] = true
		}
	}

	for id, n := range flow.Nodes {
		if !reachable[id] || n.Kind != api.KindForkJoin {
			continue
		}
		writes := map[api.VariableID][]api.NodeID{}
		for _, child := range n.ForkJoin.Children {
			cn, ok := flow.Nodes[child]
			if !ok || cn.Kind != api.KindActivity {
				continue
			}
			for _, u := range cn.Activity.Updates {
				writes[u.Target] = append(writes[u.Target], child)
			}
		}
		for varID, writers := range writes {
			if len(writers) > 1 {
				res.Errors = append(res.Errors, api.Diagnostic{
					Code:     api.CodeParallelVariableWriteConflict,
					Message:  fmt.Sprintf("fork-join %s has %d sibling children writing variable %s", id, len(writers), varID),
					NodeID:   id,
					Severity: api.SeverityError,
				})
			}
		}
	}
}

// enclosedBy reports whether nodeID's block nesting encloses scope: it
// walks every block node reachable anywhere in the flow and checks
// whether nodeID sits inside a block whose scope is scope.
func enclosedBy(flow *api.Flow, nodeID api.NodeID, scope api.ScopeID) bool {
	for _, n := range flow.Nodes {
		if n.Kind != api.KindBlock || n.Block.Scope != scope {
			continue
		}
		if containsNode(flow, n.Block.Initial, nodeID, map[api.NodeID]bool{}) {
			return true
		}
	}
	return false
}

func containsNode(flow *api.Flow, start, target api.NodeID, seen map[api.NodeID]bool) bool {
	if start == "" || seen[start] {
		return false
	}
	if start == target {
		return true
	}
	seen[start] = true
	n, ok := flow.Nodes[start]
	if !ok {
		return false
	}
	if n.Kind == api.KindBlock {
		// a nested block's contents belong to its own scope, not this one.
		return false
	}
	for _, s := range successors(n) {
		if containsNode(flow, s, target, seen) {
			return true
		}
	}
	return false
}
