package flowkit

import "github.com/flowkit-go/flowkit/pkg/api"

// FaultHandlerActivity is the constraint RegisterFaultHandler requires:
// a fault-handler's activity type must accept the captured error via
// SetFault in addition to satisfying api.Activity. This is the
// compile-time substitute for the reflection-based capability probing a
// dynamic target would use; required inputs are declared separately,
// through the required list passed to the Register functions.
type FaultHandlerActivity interface {
	api.Activity
	api.FaultReceiver
}

// RegisterActivity publishes a constructor descriptor for an ordinary
// activity type. required names the input properties the validator must
// find exactly one binding for.
func RegisterActivity[T api.Activity](token string, required []string, factory func(api.Container) (T, error)) *api.Descriptor {
	return &api.Descriptor{
		Token:    token,
		Required: required,
		Factory: func(c api.Container) (api.Activity, error) {
			return factory(c)
		},
	}
}

// RegisterFaultHandler publishes a constructor descriptor for a type
// used as a fault or cancellation handler. The FaultHandlerActivity
// constraint proves the fault-handler capability at compile time, so
// the validator's handler-type pass never has to probe an instance.
func RegisterFaultHandler[T FaultHandlerActivity](token string, required []string, factory func(api.Container) (T, error)) *api.Descriptor {
	return &api.Descriptor{
		Token:          token,
		Required:       required,
		IsFaultHandler: true,
		Factory: func(c api.Container) (api.Activity, error) {
			return factory(c)
		},
	}
}
