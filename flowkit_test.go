package flowkit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowkit-go/flowkit/pkg/api"
)

// constAct returns a fixed value and never fails.
type constAct struct{ value int }

func (a *constAct) Execute(ctx context.Context) (any, error) { return a.value, nil }

// adder reads two bound integers and sums them.
type adder struct{ first, second int }

func (a *adder) setFirst(v int) error  { a.first = v; return nil }
func (a *adder) setSecond(v int) error { a.second = v; return nil }
func (a *adder) Execute(ctx context.Context) (any, error) {
	return a.first + a.second, nil
}

// recorder appends its own name to a shared log when executed.
type recorder struct {
	name string
	log  *[]string
}

func (r *recorder) Execute(ctx context.Context) (any, error) {
	*r.log = append(*r.log, r.name)
	return nil, nil
}

// failingAct always faults with err.
type failingAct struct{ err error }

func (a *failingAct) Execute(ctx context.Context) (any, error) { return nil, a.err }

// recordingHandler satisfies the fault-handler capability and remembers
// the cause it was invoked with.
type recordingHandler struct{ fault error }

func (h *recordingHandler) SetFault(err error)                       { h.fault = err }
func (h *recordingHandler) Execute(ctx context.Context) (any, error) { return nil, nil }

func noopHandlerDescriptor(token string) *api.Descriptor {
	return RegisterFaultHandler[*recordingHandler](token, nil, func(api.Container) (*recordingHandler, error) {
		return &recordingHandler{}, nil
	})
}

func TestEndToEndSumTwoInputs(t *testing.T) {
	b := NewFlow("sum-two-inputs")
	handler := b.FaultHandler(noopHandlerDescriptor("t.sum.handler"), "noop")

	descFirst := RegisterActivity[*constAct]("t.sum.first", nil, func(api.Container) (*constAct, error) {
		return &constAct{value: 7}, nil
	})
	descSecond := RegisterActivity[*constAct]("t.sum.second", nil, func(api.Container) (*constAct, error) {
		return &constAct{value: 5}, nil
	})
	descAdder := RegisterActivity[*adder]("t.sum.adder", []string{"FirstNumber", "SecondNumber"}, func(api.Container) (*adder, error) {
		return &adder{}, nil
	})

	first := b.Activity(descFirst, "first")
	second := b.Activity(descSecond, "second")
	total := b.Activity(descAdder, "total")

	Bind[int](total, "FirstNumber", func(instance any, v int) error {
		return instance.(*adder).setFirst(v)
	}).ToResultOf(first)
	Bind[int](total, "SecondNumber", func(instance any, v int) error {
		return instance.(*adder).setSecond(v)
	}).ToResultOf(second)

	first.ConnectNext(second)
	second.ConnectNext(total)
	b.WithInitial(first).WithDefaultFaultHandler(handler).WithDefaultCancelHandler(handler)

	flow := Build(b)
	require.True(t, flow.Validate().OK())

	result := &adder{}
	c := NewContainer()
	AddSingletonInstance[*adder](c, "t.sum.adder", result)
	RegisterDescriptors(c, flow.Raw())

	require.NoError(t, flow.Run(context.Background(), WithContainer(c)))
	require.Equal(t, 12, result.first+result.second)
}

func TestEndToEndConditionBranchesOnResult(t *testing.T) {
	var log []string
	b := NewFlow("condition-branch")
	handler := b.FaultHandler(noopHandlerDescriptor("t.cond.handler"), "noop")

	descCheck := RegisterActivity[*constAct]("t.cond.check", nil, func(api.Container) (*constAct, error) {
		return &constAct{value: 10}, nil
	})
	descHigh := RegisterActivity[*recorder]("t.cond.high", nil, func(api.Container) (*recorder, error) {
		return &recorder{name: "high", log: &log}, nil
	})
	descLow := RegisterActivity[*recorder]("t.cond.low", nil, func(api.Container) (*recorder, error) {
		return &recorder{name: "low", log: &log}, nil
	})

	check := b.Activity(descCheck, "check")
	high := b.Activity(descHigh, "high")
	low := b.Activity(descLow, "low")

	checkID := check.NodeID()
	cond := b.Condition("decide", func(rr api.ResultReader) (bool, error) {
		v, err := rr.ReadResult(checkID)
		if err != nil {
			return false, err
		}
		return v.(int) > 5, nil
	})
	cond.ConnectTrue(high).ConnectFalse(low)
	check.ConnectNext(cond)

	b.WithInitial(check).WithDefaultFaultHandler(handler).WithDefaultCancelHandler(handler)

	flow := Build(b)
	require.True(t, flow.Validate().OK())
	require.NoError(t, flow.Run(context.Background()))
	require.Equal(t, []string{"high"}, log)
}

func TestEndToEndActivityFaultHandledByDefaultHandler(t *testing.T) {
	failure := errors.New("activity exploded")
	b := NewFlow("fault-default")
	h := &recordingHandler{}
	descHandler := RegisterFaultHandler[*recordingHandler]("t.fault.handler", nil, func(api.Container) (*recordingHandler, error) {
		return h, nil
	})
	handler := b.FaultHandler(descHandler, "handler")

	descBroken := RegisterActivity[*failingAct]("t.fault.broken", nil, func(api.Container) (*failingAct, error) {
		return &failingAct{err: failure}, nil
	})
	broken := b.Activity(descBroken, "broken")

	b.WithInitial(broken).WithDefaultFaultHandler(handler).WithDefaultCancelHandler(handler)

	flow := Build(b)
	require.True(t, flow.Validate().OK())

	c := NewContainer()
	AddSingletonInstance[*recordingHandler](c, "t.fault.handler", h)
	RegisterDescriptors(c, flow.Raw())

	require.NoError(t, flow.Run(context.Background(), WithContainer(c)))
	require.ErrorIs(t, h.fault, failure)
}

func TestEndToEndForkJoinWritesFromEachBranch(t *testing.T) {
	var log []string
	b := NewFlow("fork-join-success")
	handler := b.FaultHandler(noopHandlerDescriptor("t.fj.handler"), "noop")

	descA := RegisterActivity[*recorder]("t.fj.a", nil, func(api.Container) (*recorder, error) {
		return &recorder{name: "a", log: &log}, nil
	})
	descB := RegisterActivity[*recorder]("t.fj.b", nil, func(api.Container) (*recorder, error) {
		return &recorder{name: "b", log: &log}, nil
	})
	descAfter := RegisterActivity[*recorder]("t.fj.after", nil, func(api.Container) (*recorder, error) {
		return &recorder{name: "after", log: &log}, nil
	})

	fj := b.ForkJoin("fj")
	fj.AddChild(descA, "a")
	fj.AddChild(descB, "b")
	after := b.Activity(descAfter, "after")
	fj.ConnectNext(after)

	b.WithInitial(fj).WithDefaultFaultHandler(handler).WithDefaultCancelHandler(handler)

	flow := Build(b)
	require.True(t, flow.Validate().OK())
	require.NoError(t, flow.Run(context.Background()))

	require.Len(t, log, 3)
	require.ElementsMatch(t, []string{"a", "b"}, log[:2])
	require.Equal(t, "after", log[2])
}

func TestEndToEndForkJoinChildFaultDispatchesToDefault(t *testing.T) {
	var log []string
	failure := errors.New("fork child exploded")
	b := NewFlow("fork-join-fault")
	h := &recordingHandler{}
	descHandler := RegisterFaultHandler[*recordingHandler]("t.fjfault.handler", nil, func(api.Container) (*recordingHandler, error) {
		return h, nil
	})
	handler := b.FaultHandler(descHandler, "handler")

	descOK := RegisterActivity[*recorder]("t.fjfault.ok", nil, func(api.Container) (*recorder, error) {
		return &recorder{name: "ok", log: &log}, nil
	})
	descBroken := RegisterActivity[*failingAct]("t.fjfault.broken", nil, func(api.Container) (*failingAct, error) {
		return &failingAct{err: failure}, nil
	})

	fj := b.ForkJoin("fj")
	fj.AddChild(descOK, "ok")
	fj.AddChild(descBroken, "broken")

	b.WithInitial(fj).WithDefaultFaultHandler(handler).WithDefaultCancelHandler(handler)

	flow := Build(b)
	require.True(t, flow.Validate().OK())

	c := NewContainer()
	AddSingletonInstance[*recordingHandler](c, "t.fjfault.handler", h)
	RegisterDescriptors(c, flow.Raw())

	require.NoError(t, flow.Run(context.Background(), WithContainer(c)))
	require.ErrorIs(t, h.fault, failure)
}

func TestEndToEndValidateCatchesMissingRequiredInput(t *testing.T) {
	b := NewFlow("missing-required-input")
	handler := b.FaultHandler(noopHandlerDescriptor("t.missing.handler"), "noop")

	descAdder := RegisterActivity[*adder]("t.missing.adder", []string{"FirstNumber", "SecondNumber"}, func(api.Container) (*adder, error) {
		return &adder{}, nil
	})
	total := b.Activity(descAdder, "total")
	b.WithInitial(total).WithDefaultFaultHandler(handler).WithDefaultCancelHandler(handler)

	flow := Build(b)
	res := flow.Validate()
	require.False(t, res.OK())

	found := false
	for _, d := range res.Errors {
		if d.Code == api.CodeMissingRequiredInput {
			found = true
		}
	}
	require.True(t, found, "expected a MissingRequiredInput diagnostic, got %+v", res.Errors)

	err := flow.Run(context.Background())
	var valErr *api.ValidationFailedError
	require.ErrorAs(t, err, &valErr)
}
