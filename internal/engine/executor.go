// Package engine implements the executor: the runtime that walks a
// validated Flow's graph, invokes activities through the service
// container, resolves bindings and variable updates, and honors the
// fault/cancellation/fork-join concurrency semantics the flow model
// defines.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/flowkit-go/flowkit/pkg/api"
)

// Run validates nothing itself — that is the flow façade's job — and
// executes flow from its initial node to completion.
func Run(ctx context.Context, flow *api.Flow, container api.Container, logger api.Logger) error {
	if logger == nil {
		logger = api.NoopLogger{}
	}
	instanceID := uuid.NewString()
	state := newRunState(flow)
	e := &executor{flow: flow, container: container, logger: logger, instanceID: instanceID, state: state}

	logger.FlowStarted(flow.Name, instanceID)
	err := e.walk(ctx, flow.Root)
	logger.FlowEnded(flow.Name, instanceID, err)
	return err
}

type executor struct {
	flow       *api.Flow
	container  api.Container
	logger     api.Logger
	instanceID string
	state      *runState
}

// walk drives the sequential control-flow loop starting at start. It
// returns nil on clean termination (including a fault or cancellation
// absorbed by a handler), or one of the §6 run-result error types.
func (e *executor) walk(ctx context.Context, start api.NodeID) error {
	current := start
	for current != "" {
		n, ok := e.flow.Node(current)
		if !ok {
			return &api.FlowFaultedError{Err: fmt.Errorf("flowkit: node %s does not exist", current)}
		}

		if err := ctx.Err(); err != nil {
			return e.dispatchCancel(ctx, n)
		}

		e.logger.NodeEnter(e.instanceID, n.ID, n.Kind)
		next, err := e.step(ctx, n)
		e.logger.NodeExit(e.instanceID, n.ID, n.Kind)
		if err != nil {
			return err
		}
		current = next
	}
	return nil
}

// step executes one node and returns the next node to visit, or a
// terminal error if the run has ended (successfully, via a handler, or
// via an escaped fault/cancellation).
func (e *executor) step(ctx context.Context, n *api.Node) (api.NodeID, error) {
	switch n.Kind {
	case api.KindActivity:
		return e.stepActivity(ctx, n)
	case api.KindCondition:
		return e.stepCondition(ctx, n)
	case api.KindSwitch:
		return e.stepSwitch(ctx, n)
	case api.KindForkJoin:
		return e.stepForkJoin(ctx, n)
	case api.KindBlock:
		return e.stepBlock(ctx, n)
	default:
		return "", &api.FlowFaultedError{Err: fmt.Errorf("flowkit: node %s has unexpected kind %q in the control-flow chain", n.ID, n.Kind)}
	}
}

func (e *executor) stepActivity(ctx context.Context, n *api.Node) (api.NodeID, error) {
	a := n.Activity
	result, err := e.invoke(ctx, n.ID, a.Descriptor, a.Bindings, nil)
	if err != nil {
		return "", e.faultFromActivity(ctx, n, err)
	}
	e.state.thunkFor(n.ID).Set(result)
	e.logger.ActivityCompleted(e.instanceID, n.ID, a.Descriptor.Token, nil)
	if err := e.state.applyUpdates(a.Updates, n.ID, e.logger, e.instanceID); err != nil {
		return "", e.faultFromActivity(ctx, n, err)
	}
	return a.Next, nil
}

func (e *executor) stepCondition(ctx context.Context, n *api.Node) (api.NodeID, error) {
	ok, err := n.Condition.Predicate(e.state)
	if err != nil {
		return "", e.dispatchDefaultFault(ctx, n, err)
	}
	if ok {
		return n.Condition.TrueNext, nil
	}
	return n.Condition.FalseNext, nil
}

func (e *executor) stepSwitch(ctx context.Context, n *api.Node) (api.NodeID, error) {
	sw := n.Switch
	key, err := sw.Choice(e.state)
	if err != nil {
		return "", e.dispatchDefaultFault(ctx, n, err)
	}
	if target, ok := sw.Cases[key]; ok {
		return target, nil
	}
	if sw.HasDefault {
		return sw.Default, nil
	}
	return "", e.dispatchDefaultFault(ctx, n, fmt.Errorf("flowkit: unhandled switch case %q", key))
}

func (e *executor) stepBlock(ctx context.Context, n *api.Node) (api.NodeID, error) {
	b := n.Block
	e.state.resetScope(b.Scope)
	if err := e.walk(ctx, b.Initial); err != nil {
		return "", err
	}
	return b.Next, nil
}

// stepForkJoin launches every child concurrently via an errgroup bound to
// a context derived from ctx, so that the first child fault cancels the
// siblings. Outcomes are collected rather than short-circuited by the
// errgroup's own error so that the aggregate result can be reported per
// §4.H: a genuine fault always outranks a mere cancellation (a sibling
// settling early because another child faulted is not itself a fault),
// and the first genuine fault is reported as primary with the rest
// joined in as suppressed.
func (e *executor) stepForkJoin(ctx context.Context, n *api.Node) (api.NodeID, error) {
	fj := n.ForkJoin
	groupCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, groupCtx := errgroup.WithContext(groupCtx)

	outcomes := make([]childOutcome, len(fj.Children))
	for i, childID := range fj.Children {
		i, childID := i, childID
		g.Go(func() error {
			child, ok := e.flow.Node(childID)
			if !ok {
				outcomes[i] = childOutcome{node: childID, err: fmt.Errorf("flowkit: fork child %s does not exist", childID)}
				cancel()
				return nil
			}
			result, err := e.invoke(groupCtx, childID, child.Activity.Descriptor, child.Activity.Bindings, nil)
			if err != nil {
				outcomes[i] = childOutcome{node: childID, err: err, cancelled: errors.Is(err, context.Canceled)}
				cancel()
				return nil
			}
			e.state.thunkFor(childID).Set(result)
			e.logger.ActivityCompleted(e.instanceID, childID, child.Activity.Descriptor.Token, nil)
			if err := e.state.applyUpdates(child.Activity.Updates, childID, e.logger, e.instanceID); err != nil {
				outcomes[i] = childOutcome{node: childID, err: err}
				cancel()
			}
			return nil
		})
	}
	_ = g.Wait()

	primaryIdx := -1
	for i := range outcomes {
		if outcomes[i].err != nil && !outcomes[i].cancelled {
			primaryIdx = i
			break
		}
	}
	if primaryIdx == -1 {
		for i := range outcomes {
			if outcomes[i].err != nil {
				primaryIdx = i
				break
			}
		}
	}
	if primaryIdx == -1 {
		return fj.Next, nil
	}

	primary := outcomes[primaryIdx]
	primary.err = aggregateForkFault(outcomes, primaryIdx)
	if primary.cancelled {
		return "", e.dispatchChildCancel(ctx, primary)
	}
	return "", e.dispatchChildFault(ctx, primary)
}

// aggregateForkFault reports outcomes[primaryIdx].err as the primary
// cause, joined with every other child's error as suppressed detail
// still reachable via errors.Is/errors.As.
func aggregateForkFault(outcomes []childOutcome, primaryIdx int) error {
	errs := []error{outcomes[primaryIdx].err}
	for i, o := range outcomes {
		if i == primaryIdx || o.err == nil {
			continue
		}
		errs = append(errs, o.err)
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}

type childOutcome struct {
	node      api.NodeID
	err       error
	cancelled bool
}

// invoke resolves instance, bindings and (for fault handlers) the
// incoming fault, then calls Execute. It is shared by ordinary
// activities, fork children, and fault/cancellation handlers.
func (e *executor) invoke(ctx context.Context, id api.NodeID, desc *api.Descriptor, bindings []*api.Binding, incomingFault error) (any, error) {
	instance, err := e.container.Resolve(desc.Token)
	if err != nil {
		return nil, err
	}
	if aware, ok := instance.(api.CancelAware); ok {
		aware.SetCancelToken(ctx)
	}
	if incomingFault != nil {
		receiver, ok := instance.(api.FaultReceiver)
		if !ok {
			return nil, fmt.Errorf("flowkit: handler %s does not implement FaultReceiver", id)
		}
		receiver.SetFault(incomingFault)
	}
	for _, b := range bindings {
		value, err := b.Eval(e.state)
		if err != nil {
			e.logger.BindingFailed(e.instanceID, id, b.Property, err)
			return nil, err
		}
		if err := b.Apply(instance, value); err != nil {
			e.logger.BindingFailed(e.instanceID, id, b.Property, err)
			return nil, err
		}
	}
	return instance.Execute(ctx)
}

// faultFromActivity dispatches to n's own fault handler if it declared
// one, else the flow default.
func (e *executor) faultFromActivity(ctx context.Context, n *api.Node, cause error) error {
	handler, ok := n.Activity.Fault, true
	if handler == "" {
		handler, ok = e.flow.DefaultFaultHandler, e.flow.HasDefaultFault
	}
	if !ok || handler == "" {
		return &api.FlowFaultedError{Err: cause}
	}
	return e.runHandler(ctx, handler, cause)
}

func (e *executor) dispatchDefaultFault(ctx context.Context, n *api.Node, cause error) error {
	if !e.flow.HasDefaultFault {
		return &api.FlowFaultedError{Err: cause}
	}
	return e.runHandler(ctx, e.flow.DefaultFaultHandler, cause)
}

func (e *executor) dispatchChildFault(ctx context.Context, out childOutcome) error {
	child, _ := e.flow.Node(out.node)
	handler := child.Activity.Fault
	if handler == "" {
		handler = e.flow.DefaultFaultHandler
	}
	if handler == "" {
		return &api.FlowFaultedError{Err: out.err}
	}
	return e.runHandler(ctx, handler, out.err)
}

func (e *executor) dispatchChildCancel(ctx context.Context, out childOutcome) error {
	child, _ := e.flow.Node(out.node)
	handler := child.Activity.Cancel
	if handler == "" {
		handler = e.flow.DefaultCancelHandler
	}
	if handler == "" {
		return &api.FlowCancelledError{}
	}
	e.logger.CancellationPropagated(e.instanceID, out.node)
	return e.runHandler(ctx, handler, out.err)
}

func (e *executor) dispatchCancel(ctx context.Context, n *api.Node) error {
	var handler api.NodeID
	if n.Kind == api.KindActivity && n.Activity.Cancel != "" {
		handler = n.Activity.Cancel
	} else if e.flow.HasDefaultCancel {
		handler = e.flow.DefaultCancelHandler
	}
	e.logger.CancellationPropagated(e.instanceID, n.ID)
	if handler == "" {
		return &api.FlowCancelledError{}
	}
	return e.runHandler(ctx, handler, ctx.Err())
}

// runHandler executes a fault or cancellation handler as an ordinary
// activity whose fault-carrying input has been pre-populated. A handler
// failure is never re-dispatched: it always terminates the run with
// HandlerFailed. A handler that completes ends the run cleanly, since
// the fault it was invoked for has now been handled.
func (e *executor) runHandler(ctx context.Context, handlerID api.NodeID, cause error) error {
	n, ok := e.flow.Node(handlerID)
	if !ok || n.Kind != api.KindFaultHandler {
		return &api.FlowFaultedError{Err: fmt.Errorf("flowkit: %s is not a fault-handler node", handlerID)}
	}
	h := n.FaultHandler
	e.logger.FaultHandlerInvoked(e.instanceID, handlerID, handlerID, cause)
	result, err := e.invoke(context.WithoutCancel(ctx), handlerID, h.Descriptor, h.Bindings, cause)
	if err != nil {
		return &api.HandlerFailedError{Err: err}
	}
	e.state.thunkFor(handlerID).Set(result)
	e.logger.ActivityCompleted(e.instanceID, handlerID, h.Descriptor.Token, nil)
	if err := e.state.applyUpdates(h.Updates, handlerID, e.logger, e.instanceID); err != nil {
		return &api.HandlerFailedError{Err: err}
	}
	return nil
}
