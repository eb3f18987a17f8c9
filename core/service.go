package core

// ServiceState is the observable lifecycle state of a supervised Service.
type ServiceState int

const (
	Starting ServiceState = iota
	Running
	Paused
	Faulted
	Stopped
)

func (s ServiceState) String() string {
	switch s {
	case Starting:
		return "Starting"
	case Running:
		return "Running"
	case Paused:
		return "Paused"
	case Faulted:
		return "Faulted"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Service is a supervised long-running task with an observable lifecycle
// and pause/resume/shutdown control. T is the capability the service
// exposes once running (a message sink for targets, a probe for health
// checks, a measurement emitter for metrics).
//
// Transitions: Starting -> Running; Running <-> Paused; any -> Faulted on
// error; Running|Paused|Faulted -> Stopped via Shutdown. Stopped is
// terminal.
type Service[T any] interface {
	// Capability returns the T this service wraps, regardless of state;
	// callers that need to know whether it's safe to use should check
	// GetState first.
	Capability() T

	// GetState returns the current lifecycle state, plus the fault error
	// when State == Faulted.
	GetState() (ServiceState, error)

	// Pause transitions Running -> Paused. No-op if already Paused.
	Pause()

	// Resume transitions Paused -> Running. No-op if already Running.
	Resume()

	// Shutdown transitions to Stopped, waiting up to timeoutSeconds for
	// the service's task to drain. A zero or negative timeoutSeconds
	// means "don't wait": the stop request is sent but Shutdown returns
	// immediately, treating the deadline as already expired rather than
	// blocking for the acknowledgement.
	Shutdown(timeoutSeconds float64) error
}

// TargetSink is the capability a Target's Service[T] wraps: a message
// sink a target implementation provides to the Engine.
type TargetSink interface {
	// Emit writes the message to the target's destination. It may block;
	// the caller (the per-target Service worker) is expected to apply its
	// own timeout/backpressure policy around slow sinks.
	Emit(m Message) error

	// Close releases resources held by the sink. Called once, during
	// Service shutdown.
	Close() error
}

// HealthCheck is the capability a HealthCheckConf's Service[T] wraps: a
// periodic probe reporting whether some external dependency is healthy.
type HealthCheck interface {
	Check() error
}

// Metric is the capability a MetricConf's Service[T] wraps. Structurally
// identical to a TargetSink: in this core, metrics are treated the same
// as targets (per the glossary), differing only in the configuration that
// produced them.
type Metric = TargetSink
