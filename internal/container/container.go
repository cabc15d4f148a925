// Package container implements the service container contract declared
// in pkg/api: activity instantiation with three lifetimes, backed by a
// simple registry rather than reflection, per the factory-closure
// approach the activity Descriptor already commits to.
package container

import (
	"fmt"
	"sync"

	"github.com/flowkit-go/flowkit/pkg/api"
)

type lifetimeEntry struct {
	lifetime api.Lifetime
	instance api.Activity                      // set for LifetimeSingletonInstance
	factory  func() (api.Activity, error)      // set for SingletonType/Transient
	resolved api.Activity                      // cached for LifetimeSingletonType, once built
}

// Registry is a mutable, thread-safe collection of token→construction
// registrations. It is built up before a run starts and then consumed
// read-only by the executor as an api.Container.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*lifetimeEntry
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*lifetimeEntry)}
}

// AddSingletonInstance registers a pre-built instance: every resolve of
// token returns the same value.
func (r *Registry) AddSingletonInstance(token string, instance api.Activity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[token] = &lifetimeEntry{lifetime: api.LifetimeSingletonInstance, instance: instance}
}

// AddSingletonType registers a factory that is invoked at most once per
// registry; subsequent resolves of token return the cached instance.
func (r *Registry) AddSingletonType(token string, factory func() (api.Activity, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[token] = &lifetimeEntry{lifetime: api.LifetimeSingletonType, factory: factory}
}

// AddTransient registers a factory invoked fresh on every resolve.
func (r *Registry) AddTransient(token string, factory func() (api.Activity, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[token] = &lifetimeEntry{lifetime: api.LifetimeTransient, factory: factory}
}

// Resolve implements api.Container.
func (r *Registry) Resolve(token string) (api.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[token]
	if !ok {
		return nil, &api.ActivityInstantiationError{Token: token, Err: fmt.Errorf("no registration for token %q", token)}
	}

	switch e.lifetime {
	case api.LifetimeSingletonInstance:
		return e.instance, nil
	case api.LifetimeSingletonType:
		if e.resolved != nil {
			return e.resolved, nil
		}
		inst, err := e.factory()
		if err != nil {
			return nil, &api.ActivityInstantiationError{Token: token, Err: err}
		}
		e.resolved = inst
		return inst, nil
	case api.LifetimeTransient:
		inst, err := e.factory()
		if err != nil {
			return nil, &api.ActivityInstantiationError{Token: token, Err: err}
		}
		return inst, nil
	default:
		return nil, &api.ActivityInstantiationError{Token: token, Err: fmt.Errorf("unknown lifetime %q", e.lifetime)}
	}
}

// FromDescriptor registers a descriptor's own factory as a transient
// registration under its token, unless the token is already registered.
// flowkit.RegisterDescriptors (and so Run, when no container is
// supplied) uses it as the fallback for tokens the caller did not
// register explicitly.
func FromDescriptor(r *Registry, desc *api.Descriptor) {
	if desc == nil || desc.Token == "" || desc.Factory == nil {
		return
	}
	r.mu.Lock()
	if _, exists := r.entries[desc.Token]; exists {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	factory := desc.Factory
	r.AddTransient(desc.Token, func() (api.Activity, error) { return factory(r) })
}
