// Package api contains the core building blocks used by the flowkit
// workflow engine: the node graph, bindings, result thunks, variables,
// the service container and logger contracts, and the diagnostics
// produced by validation.
//
// Most callers interact with the higher-level flowkit package, which
// re-exports selected types and wraps construction behind a fluent
// builder. The api package is the stable vocabulary that the builder,
// the validator, and the executor all share; it is intended for
// contributors extending the engine or embedding it at a lower level.
//
// # Node graph
//
// A Flow is an immutable bundle of Nodes with a single root; it is
// validated separately, before it runs. Each Node carries a Kind and exactly one of the
// variant-specific payloads (Activity, Condition, Switch, ForkJoin,
// Block, FaultHandler). Successors are stored as NodeID references
// rather than pointers, which keeps the in-memory representation
// acyclic-safe to walk even though the flow graph itself may contain
// back edges (loops).
//
// # Data flow
//
// Activities receive their inputs through Bindings, which resolve to a
// constant, the Result of an earlier activity, or the evaluation of an
// Expression. Results are published through write-once ResultThunks;
// cross-activity mutable state flows through scoped Variables whose
// updates are triggered by activity completions.
//
// # Collaborators
//
// The api package only specifies the boundary contracts for the
// service container (Container) and the structured logger (Logger).
// Their concrete implementations live outside the core: flowkit ships
// a small in-memory Container and a slog-backed Logger as conveniences,
// but any conforming implementation may be substituted.
package api
