package api

import (
	"log/slog"
)

// Verbosity controls which events a Logger is willing to emit.
type Verbosity int

const (
	Off Verbosity = iota
	LevelError
	LevelWarning
	LevelInfo
	LevelDebug
)

// Logger is a narrow structured-event sink. Implementations should be
// fast and non-blocking; the executor never calls a Logger method while
// holding a lock shared with another goroutine.
type Logger interface {
	Verbosity() Verbosity

	FlowStarted(flowName, instanceID string)
	FlowEnded(flowName, instanceID string, outcome error)

	NodeEnter(instanceID string, id NodeID, kind NodeKind)
	NodeExit(instanceID string, id NodeID, kind NodeKind)

	ActivityCompleted(instanceID string, id NodeID, token string, err error)
	BindingFailed(instanceID string, id NodeID, property string, err error)
	VariableUpdated(instanceID string, id VariableID, trigger NodeID)

	FaultHandlerInvoked(instanceID string, handlerID NodeID, faultSource NodeID, err error)
	CancellationPropagated(instanceID string, id NodeID)
}

// NoopLogger discards every event. It is the default when no logger is
// configured.
type NoopLogger struct{}

func (NoopLogger) Verbosity() Verbosity                                              { return Off }
func (NoopLogger) FlowStarted(string, string)                                        {}
func (NoopLogger) FlowEnded(string, string, error)                                    {}
func (NoopLogger) NodeEnter(string, NodeID, NodeKind)                                {}
func (NoopLogger) NodeExit(string, NodeID, NodeKind)                                 {}
func (NoopLogger) ActivityCompleted(string, NodeID, string, error)                   {}
func (NoopLogger) BindingFailed(string, NodeID, string, error)                       {}
func (NoopLogger) VariableUpdated(string, VariableID, NodeID)                        {}
func (NoopLogger) FaultHandlerInvoked(string, NodeID, NodeID, error)                 {}
func (NoopLogger) CancellationPropagated(string, NodeID)                             {}

// SlogLogger writes structured logs using log/slog, gated by a
// configured Verbosity.
type SlogLogger struct {
	logger *slog.Logger
	level  Verbosity
}

// NewSlogLogger returns a Logger backed by the given slog.Logger. If
// logger is nil, slog.Default() is used. Events above the configured
// Verbosity are silently dropped.
func NewSlogLogger(logger *slog.Logger, level Verbosity) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger, level: level}
}

func (l *SlogLogger) Verbosity() Verbosity { return l.level }

func (l *SlogLogger) enabled(v Verbosity) bool { return l.level >= v }

func (l *SlogLogger) FlowStarted(flowName, instanceID string) {
	if !l.enabled(LevelInfo) {
		return
	}
	l.logger.Info("flow_started", slog.String("flow", flowName), slog.String("instance", instanceID))
}

func (l *SlogLogger) FlowEnded(flowName, instanceID string, outcome error) {
	if outcome != nil {
		if l.enabled(LevelError) {
			l.logger.Error("flow_failed", slog.String("flow", flowName), slog.String("instance", instanceID), slog.Any("error", outcome))
		}
		return
	}
	if l.enabled(LevelInfo) {
		l.logger.Info("flow_completed", slog.String("flow", flowName), slog.String("instance", instanceID))
	}
}

func (l *SlogLogger) NodeEnter(instanceID string, id NodeID, kind NodeKind) {
	if !l.enabled(LevelDebug) {
		return
	}
	l.logger.Debug("node_enter", slog.String("instance", instanceID), slog.String("node", string(id)), slog.String("kind", string(kind)))
}

func (l *SlogLogger) NodeExit(instanceID string, id NodeID, kind NodeKind) {
	if !l.enabled(LevelDebug) {
		return
	}
	l.logger.Debug("node_exit", slog.String("instance", instanceID), slog.String("node", string(id)), slog.String("kind", string(kind)))
}

func (l *SlogLogger) ActivityCompleted(instanceID string, id NodeID, token string, err error) {
	if err != nil {
		if l.enabled(LevelWarning) {
			l.logger.Warn("activity_completed", slog.String("instance", instanceID), slog.String("node", string(id)), slog.String("token", token), slog.Any("error", err))
		}
		return
	}
	if l.enabled(LevelInfo) {
		l.logger.Info("activity_completed", slog.String("instance", instanceID), slog.String("node", string(id)), slog.String("token", token))
	}
}

func (l *SlogLogger) BindingFailed(instanceID string, id NodeID, property string, err error) {
	if !l.enabled(LevelError) {
		return
	}
	l.logger.Error("binding_failed", slog.String("instance", instanceID), slog.String("node", string(id)), slog.String("property", property), slog.Any("error", err))
}

func (l *SlogLogger) VariableUpdated(instanceID string, id VariableID, trigger NodeID) {
	if !l.enabled(LevelDebug) {
		return
	}
	l.logger.Debug("variable_updated", slog.String("instance", instanceID), slog.String("variable", string(id)), slog.String("trigger", string(trigger)))
}

func (l *SlogLogger) FaultHandlerInvoked(instanceID string, handlerID NodeID, faultSource NodeID, err error) {
	if !l.enabled(LevelWarning) {
		return
	}
	l.logger.Warn("fault_handler_invoked", slog.String("instance", instanceID), slog.String("handler", string(handlerID)), slog.String("source", string(faultSource)), slog.Any("error", err))
}

func (l *SlogLogger) CancellationPropagated(instanceID string, id NodeID) {
	if !l.enabled(LevelWarning) {
		return
	}
	l.logger.Warn("cancellation_propagated", slog.String("instance", instanceID), slog.String("node", string(id)))
}
