package container

import (
	"context"
	"errors"
	"testing"

	"github.com/flowkit-go/flowkit/pkg/api"
)

type fakeActivity struct{ id int }

func (a *fakeActivity) Execute(ctx context.Context) (any, error) { return a.id, nil }

func TestSingletonInstanceAlwaysReturnsSameValue(t *testing.T) {
	r := New()
	inst := &fakeActivity{id: 1}
	r.AddSingletonInstance("tok", inst)

	got1, err := r.Resolve("tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got2, _ := r.Resolve("tok")
	if got1 != inst || got2 != inst {
		t.Fatalf("expected the same instance on every resolve")
	}
}

func TestSingletonTypeBuildsOnce(t *testing.T) {
	r := New()
	calls := 0
	r.AddSingletonType("tok", func() (api.Activity, error) {
		calls++
		return &fakeActivity{id: calls}, nil
	})

	first, _ := r.Resolve("tok")
	second, _ := r.Resolve("tok")
	if calls != 1 {
		t.Fatalf("expected the factory to run once, ran %d times", calls)
	}
	if first != second {
		t.Fatalf("expected the same cached instance across resolves")
	}
}

func TestTransientBuildsEveryTime(t *testing.T) {
	r := New()
	calls := 0
	r.AddTransient("tok", func() (api.Activity, error) {
		calls++
		return &fakeActivity{id: calls}, nil
	})

	first, _ := r.Resolve("tok")
	second, _ := r.Resolve("tok")
	if calls != 2 {
		t.Fatalf("expected the factory to run on every resolve, ran %d times", calls)
	}
	if first == second {
		t.Fatalf("expected distinct instances across resolves")
	}
}

func TestResolveUnknownTokenWrapsAsInstantiationError(t *testing.T) {
	r := New()
	_, err := r.Resolve("missing")
	var instErr *api.ActivityInstantiationError
	if !errors.As(err, &instErr) {
		t.Fatalf("expected an ActivityInstantiationError, got %T", err)
	}
	if instErr.Token != "missing" {
		t.Fatalf("expected token %q, got %q", "missing", instErr.Token)
	}
}

func TestFromDescriptorDoesNotOverrideExplicitRegistration(t *testing.T) {
	r := New()
	explicit := &fakeActivity{id: 99}
	r.AddSingletonInstance("tok", explicit)

	FromDescriptor(r, &api.Descriptor{
		Token: "tok",
		Factory: func(api.Container) (api.Activity, error) {
			return &fakeActivity{id: -1}, nil
		},
	})

	got, _ := r.Resolve("tok")
	if got != explicit {
		t.Fatalf("expected FromDescriptor to leave the explicit registration in place")
	}
}
