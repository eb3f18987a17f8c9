// Package service implements the uniform supervised Service[T] wrapper
// (spec §4.6) used around every target, metric, and health check sink the
// Registry spawns. It is grounded on the teacher's sinks/async.go
// buffered-worker-with-recover shape, generalized into an explicit
// Starting/Running/Paused/Faulted/Stopped state machine with real
// pause/resume/shutdown control channels instead of a single ctx.Done().
package service

import (
	"sync"
	"time"

	"github.com/willibrandon/logary/core"
	"github.com/willibrandon/logary/selflog"
)

// supervisor holds the state-machine plumbing shared by every flavor of
// supervised service (sink-backed, probe-backed). The concrete driver
// goroutine (started by the constructor that embeds a supervisor) is
// responsible for calling markFaulted/markRunning/markStopped as appropriate and
// for selecting on pauseCh/resumeCh/shutdownCh.
type supervisor struct {
	name string

	mu    sync.Mutex
	state core.ServiceState
	fault error

	pauseCh    chan struct{}
	resumeCh   chan struct{}
	shutdownCh chan chan struct{}

	stopOnce sync.Once
	stopped  chan struct{}
}

func newSupervisor(name string) *supervisor {
	return &supervisor{
		name:       name,
		state:      core.Starting,
		pauseCh:    make(chan struct{}, 1),
		resumeCh:   make(chan struct{}, 1),
		shutdownCh: make(chan chan struct{}),
		stopped:    make(chan struct{}),
	}
}

func (s *supervisor) getState() (core.ServiceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.fault
}

func (s *supervisor) markRunning() {
	s.mu.Lock()
	if s.state != core.Stopped {
		s.state = core.Running
	}
	s.mu.Unlock()
}

func (s *supervisor) markPaused() {
	s.mu.Lock()
	if s.state != core.Stopped {
		s.state = core.Paused
	}
	s.mu.Unlock()
}

func (s *supervisor) markFaulted(err error) {
	s.mu.Lock()
	if s.state != core.Stopped {
		s.state = core.Faulted
		s.fault = err
	}
	s.mu.Unlock()
	if selflog.IsEnabled() {
		selflog.Printf("[service:%s] faulted: %v", s.name, err)
	}
}

func (s *supervisor) markStopped() {
	s.mu.Lock()
	s.state = core.Stopped
	s.mu.Unlock()
	s.stopOnce.Do(func() { close(s.stopped) })
}

// Pause requests a transition to Paused; the driver goroutine observes it
// on pauseCh. No-op if the service already stopped.
func (s *supervisor) Pause() {
	select {
	case s.pauseCh <- struct{}{}:
	case <-s.stopped:
	default:
	}
}

// Resume requests a transition back to Running.
func (s *supervisor) Resume() {
	select {
	case s.resumeCh <- struct{}{}:
	case <-s.stopped:
	default:
	}
}

// shutdown signals the driver goroutine to stop and waits up to timeout
// for it to acknowledge. A zero or negative timeout is treated as already
// expired: the stop request is sent but shutdown returns immediately
// rather than waiting on the reply.
func (s *supervisor) shutdown(timeout time.Duration) error {
	if timeout <= 0 {
		s.requestShutdown()
		return &core.TimeoutError{Pending: []string{s.name}}
	}

	reply := make(chan struct{})
	select {
	case s.shutdownCh <- reply:
	case <-s.stopped:
		return nil
	}

	select {
	case <-reply:
		return nil
	case <-time.After(timeout):
		return &core.TimeoutError{Pending: []string{s.name}}
	}
}

// requestShutdown sends the stop request without waiting for it to be
// acknowledged, returning a channel that closes once the driver goroutine
// has drained and stopped. Callers that want a shared deadline across
// several services (the Registry's fan-out flush/shutdown) select on the
// returned channel themselves instead of calling shutdown's own
// per-service timeout.
func (s *supervisor) requestShutdown() <-chan struct{} {
	reply := make(chan struct{})
	go func() {
		select {
		case s.shutdownCh <- reply:
		case <-s.stopped:
			close(reply)
		}
	}()
	return reply
}
