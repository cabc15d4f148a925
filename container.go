package flowkit

import (
	"github.com/flowkit-go/flowkit/internal/container"
	"github.com/flowkit-go/flowkit/pkg/api"
)

// Container is a mutable service container: register activity types
// under a token with one of three lifetimes, then hand it to Run (or
// let Run build one automatically from the flow's own descriptors via
// RegisterDescriptors).
type Container = container.Registry

// NewContainer returns an empty container.
func NewContainer() *Container { return container.New() }

// AddSingletonInstance registers a pre-built instance under token.
func AddSingletonInstance[T api.Activity](c *Container, token string, instance T) {
	c.AddSingletonInstance(token, instance)
}

// AddSingletonType registers a factory invoked at most once per
// container.
func AddSingletonType[T api.Activity](c *Container, token string, factory func() (T, error)) {
	c.AddSingletonType(token, func() (api.Activity, error) { return factory() })
}

// AddTransient registers a factory invoked fresh on every resolve.
func AddTransient[T api.Activity](c *Container, token string, factory func() (T, error)) {
	c.AddTransient(token, func() (api.Activity, error) { return factory() })
}

// RegisterDescriptors walks flow and registers every node's own
// Descriptor.Factory as a transient fallback for any token the caller
// did not already register explicitly. This lets a flow run
// out-of-the-box when its activities need no external dependencies
// beyond what their own factory closures capture.
func RegisterDescriptors(c *Container, flow *api.Flow) {
	for _, n := range flow.Nodes {
		switch n.Kind {
		case api.KindActivity:
			container.FromDescriptor(c, n.Activity.Descriptor)
		case api.KindFaultHandler:
			container.FromDescriptor(c, n.FaultHandler.Descriptor)
		}
	}
}
