package flowkit

import (
	"context"

	"github.com/flowkit-go/flowkit/internal/engine"
	"github.com/flowkit-go/flowkit/internal/validate"
	"github.com/flowkit-go/flowkit/pkg/api"
)

// Flow is the runnable façade over an api.Flow: spec.md
// §4.I's validate()/run() entrypoint.
type Flow struct {
	raw *api.Flow
}

// Build assembles b's accumulated nodes and variables into a runnable
// Flow. It performs no validation itself; call Validate before Run, or
// just call Run, which validates first and refuses to execute on error.
func Build(b *Builder) *Flow {
	return &Flow{raw: b.build()}
}

// Raw exposes the underlying immutable api.Flow, e.g. for Export.
func (f *Flow) Raw() *api.Flow { return f.raw }

// Validate runs every validator pass and returns the structured result.
func (f *Flow) Validate() api.ValidationResult {
	return validate.Validate(f.raw)
}

// Option configures a single Run call.
type Option func(*runConfig)

type runConfig struct {
	container api.Container
	logger    api.Logger
}

// WithContainer supplies the service container Run resolves activity
// tokens against. If omitted, Run builds one from the flow's own
// descriptors (see RegisterDescriptors).
func WithContainer(c api.Container) Option {
	return func(cfg *runConfig) { cfg.container = c }
}

// WithLogger supplies the structured event sink. If omitted, events are
// discarded.
func WithLogger(l api.Logger) Option {
	return func(cfg *runConfig) { cfg.logger = l }
}

// Run validates f and, on success, drives the executor to completion.
// On a validation error it returns *api.ValidationFailedError without
// invoking any activity, matching spec.md §4.I.
func (f *Flow) Run(ctx context.Context, opts ...Option) error {
	res := f.Validate()
	if !res.OK() {
		return &api.ValidationFailedError{Result: res}
	}

	cfg := &runConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.container == nil {
		c := NewContainer()
		RegisterDescriptors(c, f.raw)
		cfg.container = c
	}

	return engine.Run(ctx, f.raw, cfg.container, cfg.logger)
}
