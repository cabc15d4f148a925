package api

import "context"

// Activity is implemented by user-supplied units of work. Execute is
// invoked once the activity's bindings have been resolved and applied;
// its return value is pushed into the owning node's result thunk.
type Activity interface {
	Execute(ctx context.Context) (any, error)
}

// FaultReceiver is implemented by activity types used as fault handlers.
// SetFault is called by the executor with the captured error before
// Execute runs, populating the handler's fault-carrying input.
type FaultReceiver interface {
	SetFault(err error)
}

// CancelAware is implemented by background activities that want to
// observe the flow's cancellation token cooperatively.
type CancelAware interface {
	SetCancelToken(ctx context.Context)
}

// Descriptor is a constructor descriptor published when an activity type
// is registered with the builder: a factory closure standing in for
// reflection-based instantiation, together with the metadata the
// validator needs statically (which properties are required, whether the
// type satisfies the fault-handler capability).
type Descriptor struct {
	// Token names the activity type for diagnostics and container lookup.
	Token string

	// Factory constructs one instance, resolving any injected
	// dependencies from the container.
	Factory func(Container) (Activity, error)

	// Required lists the input property names that must have exactly
	// one binding for this descriptor to be valid.
	Required []string

	// IsFaultHandler records whether the concrete type produced by
	// Factory implements FaultReceiver. It is computed once, at
	// registration time, by the typed builder helpers rather than by
	// probing an instance.
	IsFaultHandler bool
}
