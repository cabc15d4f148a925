package api

import "fmt"

// Lifetime controls how many instances a Container hands out for a given
// registration.
type Lifetime string

const (
	// LifetimeSingletonInstance serves one pre-built instance for every
	// resolution.
	LifetimeSingletonInstance Lifetime = "singleton_instance"

	// LifetimeSingletonType constructs one instance the first time it is
	// resolved and reuses it for the rest of the run.
	LifetimeSingletonType Lifetime = "singleton_type"

	// LifetimeTransient constructs a fresh instance on every resolution.
	LifetimeTransient Lifetime = "transient"
)

// Container is the consumed contract for activity instantiation: given an
// activity type token, return a fully-constructed activity instance with
// its injected dependencies already wired. The container is expected to
// be thread-safe; the instances it returns are not.
type Container interface {
	Resolve(token string) (Activity, error)
}

// ActivityInstantiationError wraps any error raised while resolving an
// activity type token, including failures originating inside a Factory.
type ActivityInstantiationError struct {
	Token string
	Err   error
}

func (e *ActivityInstantiationError) Error() string {
	return fmt.Sprintf("flowkit: failed to instantiate activity %q: %v", e.Token, e.Err)
}

func (e *ActivityInstantiationError) Unwrap() error { return e.Err }
