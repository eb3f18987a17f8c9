package service

import (
	"time"

	"github.com/willibrandon/logary/core"
	"github.com/willibrandon/logary/selflog"
)

const defaultSinkBuffer = 256

// SinkService supervises a raw core.TargetSink (as produced by a
// TargetConf/MetricConf factory) behind a buffered worker goroutine, so a
// slow or misbehaving sink can't stall the Engine's dispatch loop. It is
// itself a core.TargetSink: Capability() returns the supervised front end,
// whose Emit enqueues onto the internal buffer instead of calling the
// wrapped sink directly.
type SinkService struct {
	*supervisor
	wrapped core.TargetSink
	buffer  chan sinkItem
}

// sinkItem is either a message to emit or a flush barrier; barriers ride
// the same channel as messages so Flush only reports done once every
// message enqueued before it has actually reached the wrapped sink.
type sinkItem struct {
	msg     core.Message
	barrier chan struct{} // non-nil for a barrier item
}

var _ core.Service[core.TargetSink] = (*SinkService)(nil)
var _ core.TargetSink = (*SinkService)(nil)

// NewSink starts a SinkService wrapping raw. bufferSize <= 0 uses a
// reasonable default.
func NewSink(name string, raw core.TargetSink, bufferSize int) *SinkService {
	if bufferSize <= 0 {
		bufferSize = defaultSinkBuffer
	}
	s := &SinkService{
		supervisor: newSupervisor(name),
		wrapped:    raw,
		buffer:     make(chan sinkItem, bufferSize),
	}
	go s.run()
	return s
}

// Capability returns the supervised sink front end applications/the
// Engine should call Emit on.
func (s *SinkService) Capability() core.TargetSink { return s }

func (s *SinkService) GetState() (core.ServiceState, error) { return s.getState() }

// Emit enqueues m for asynchronous delivery to the wrapped sink. It
// returns core.ErrBufferFull if the internal buffer is saturated.
func (s *SinkService) Emit(m core.Message) error {
	select {
	case s.buffer <- sinkItem{msg: m}:
		return nil
	default:
		if selflog.IsEnabled() {
			selflog.Printf("[service:%s] buffer full, dropping message", s.name)
		}
		return core.ErrBufferFull
	}
}

// Flush blocks until every message already enqueued ahead of this call has
// reached the wrapped sink, or timeout elapses first. A zero or negative
// timeout is treated as already expired: Flush returns a TimeoutError
// immediately without waiting on the barrier at all.
func (s *SinkService) Flush(timeout time.Duration) error {
	if timeout <= 0 {
		return &core.TimeoutError{Pending: []string{s.name}}
	}

	reply := s.RequestFlush()
	select {
	case <-reply:
		return nil
	case <-s.stopped:
		return nil
	case <-time.After(timeout):
		return &core.TimeoutError{Pending: []string{s.name}}
	}
}

// RequestFlush enqueues a flush barrier and returns a channel that closes
// once every message enqueued ahead of it has reached the wrapped sink
// (or the service stops first). It applies no timeout of its own; callers
// that need a shared deadline across several services (the Registry's
// fan-out Flush) select on the returned channel against their own timer.
func (s *SinkService) RequestFlush() <-chan struct{} {
	reply := make(chan struct{})
	item := sinkItem{barrier: reply}
	select {
	case s.buffer <- item:
	case <-s.stopped:
		close(reply)
	}
	return reply
}

// RequestShutdown sends the stop request without waiting for it to drain,
// returning a channel that closes once it has. See supervisor.requestShutdown.
func (s *SinkService) RequestShutdown() <-chan struct{} { return s.requestShutdown() }

// Close is an alias for Shutdown with no wait, satisfying core.TargetSink.
func (s *SinkService) Close() error {
	return s.Shutdown(0)
}

// Shutdown stops the worker, draining whatever is already buffered, then
// closes the wrapped sink. timeoutSeconds <= 0 sends the stop request but
// returns immediately rather than waiting for it to finish.
func (s *SinkService) Shutdown(timeoutSeconds float64) error {
	var timeout time.Duration
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds * float64(time.Second))
	}
	return s.shutdown(timeout)
}

func (s *SinkService) run() {
	s.markRunning()
	paused := false

	emit := func(m core.Message) {
		defer func() {
			if r := recover(); r != nil {
				s.markFaulted(core.NewServiceFault(s.name, panicError{r}))
			}
		}()
		if err := s.wrapped.Emit(m); err != nil {
			if selflog.IsEnabled() {
				selflog.Printf("[service:%s] emit error: %v", s.name, err)
			}
		}
	}

	handle := func(item sinkItem) {
		if item.barrier != nil {
			close(item.barrier)
			return
		}
		if paused {
			return // drop while paused rather than block the channel
		}
		emit(item.msg)
	}

	for {
		select {
		case item := <-s.buffer:
			handle(item)

		case <-s.pauseCh:
			paused = true
			s.markPaused()

		case <-s.resumeCh:
			paused = false
			s.markRunning()

		case reply := <-s.shutdownCh:
			drain := true
			for drain {
				select {
				case item := <-s.buffer:
					handle(item)
				default:
					drain = false
				}
			}
			if err := s.wrapped.Close(); err != nil && selflog.IsEnabled() {
				selflog.Printf("[service:%s] close error: %v", s.name, err)
			}
			s.markStopped()
			close(reply)
			return
		}
	}
}

type panicError struct{ v any }

func (p panicError) Error() string { return "panic: " + panicString(p.v) }

func panicString(v any) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	if s, ok := v.(string); ok {
		return s
	}
	return "recovered panic"
}
