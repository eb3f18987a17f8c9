package core

import (
	"errors"
	"fmt"

	"github.com/bassosimone/errclass"
)

// ErrStopped is returned by any Registry/Engine operation attempted after
// shutdown has completed.
var ErrStopped = errors.New("logary: registry stopped")

// ErrBufferFull is the BackpressureDrop signal: returned by Logger.Log (or
// surfaced as the Ack on Logger.LogWithAck) when a bounded ingress is
// configured and saturated.
var ErrBufferFull = errors.New("logary: ingress buffer full")

// ConfigurationError reports an invalid LogaryConf, detected at Build/
// Registry-creation time (e.g. a duplicate target name).
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("logary: invalid configuration: %s", e.Reason)
}

// ServiceFault wraps an error that escaped a supervised service's task,
// classified with errclass for a short, log-friendly label.
type ServiceFault struct {
	Service string
	Reason  string
	Cause   error
}

func NewServiceFault(service string, cause error) *ServiceFault {
	return &ServiceFault{
		Service: service,
		Reason:  errclass.New(cause),
		Cause:   cause,
	}
}

func (e *ServiceFault) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("logary: service %q faulted: %v", e.Service, e.Cause)
	}
	return fmt.Sprintf("logary: service %q faulted (%s): %v", e.Service, e.Reason, e.Cause)
}

func (e *ServiceFault) Unwrap() error { return e.Cause }

// TimeoutError reports that a flush or shutdown deadline elapsed before
// one or more targets acknowledged. It is informational: flush/shutdown
// never fail outright on timeout, they report partial completion via
// FlushInfo/ShutdownInfo; TimeoutError exists for callers that want to
// treat the partial result as an error.
type TimeoutError struct {
	Pending []string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("logary: timed out waiting for %v", e.Pending)
}
