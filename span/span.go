package span

import (
	"sync"
	"time"

	"github.com/willibrandon/logary/core"
)

// Info is attached to a span's completion message under the
// core.ContextSpanInfo key (spec §6 wire conventions).
type Info struct {
	ID       string
	BeginAt  time.Time
	EndAt    time.Time
	Duration time.Duration
}

func (i Info) toValue() core.Value {
	return core.Object(map[string]core.Value{
		"id":       core.String(i.ID),
		"beginAt":  core.Int64(i.BeginAt.UnixNano() / 100), // 100ns ticks, per spec §4.3
		"endAt":    core.Int64(i.EndAt.UnixNano() / 100),
		"duration": core.Int64(i.Duration.Nanoseconds() / 100),
	})
}

// Span is a scoped tracing unit bounded by a begin and end instant. It
// auto-emits exactly one completion log message; Finish (and the scoped
// Close alias) is idempotent.
type Span struct {
	id       string
	parentID string
	name     core.PointName
	beginAt  time.Time
	logger   core.Logger
	clock    core.Clock
	idGen    *IDGenerator

	mu         sync.Mutex
	hasFired   bool
	doneSignal chan struct{}
	result     core.Ack
}

// New starts a root or child span. parentID == "" starts a root span;
// otherwise parentID should be another Span's ID, producing a child ID
// hierarchically derived from it (spec §4.3).
func New(name core.PointName, logger core.Logger, clock core.Clock, idGen *IDGenerator, parentID string) *Span {
	return &Span{
		id:       idGen.Generate(parentID),
		parentID: parentID,
		name:     name,
		beginAt:  clock.Now(),
		logger:   logger,
		clock:    clock,
		idGen:    idGen,
	}
}

// ID returns this span's identifier.
func (s *Span) ID() string { return s.id }

// ParentID returns the parent's identifier, or "" for a root span.
func (s *Span) ParentID() string { return s.parentID }

// NewChild starts a child span whose ID hierarchically extends this
// span's ID.
func (s *Span) NewChild(name core.PointName) *Span {
	return New(name, s.logger, s.clock, s.idGen, s.id)
}

// Finish completes the span, idempotently. The first call constructs a
// completion message at Info level via messageFactory(Info), passes it
// through transform, attaches spanInfo/spanId context (spec §6), and logs
// it with an ack; it returns a channel that will receive that ack.
// Subsequent calls are no-ops returning the already-completed ack.
func (s *Span) Finish(transform core.Middleware) <-chan core.Ack {
	s.mu.Lock()
	if s.hasFired {
		done := s.doneSignal
		s.mu.Unlock()
		out := make(chan core.Ack, 1)
		go func() {
			<-done
			s.mu.Lock()
			res := s.result
			s.mu.Unlock()
			out <- res
		}()
		return out
	}
	s.hasFired = true
	s.doneSignal = make(chan struct{})
	s.mu.Unlock()

	endAt := s.clock.Now()
	info := Info{ID: s.id, BeginAt: s.beginAt, EndAt: endAt, Duration: endAt.Sub(s.beginAt)}

	s.idGen.release(s.id)

	ack := s.logger.LogWithAck(core.Info, func() core.Message {
		m := core.Message{
			Name:      s.name,
			Level:     core.Info,
			Value:     core.String(s.name.String() + " completed"),
			Context:   map[string]core.Value{},
			Timestamp: s.beginAt,
		}
		m = transform(m)
		m = m.WithContext(core.ContextSpanInfo, info.toValue())
		m = m.WithContext(core.ContextSpanID, core.String(s.id))
		return m
	})

	out := make(chan core.Ack, 1)
	go func() {
		res := <-ack
		s.mu.Lock()
		s.result = res
		close(s.doneSignal)
		s.mu.Unlock()
		out <- res
	}()
	return out
}

// Close finishes the span with the identity transform, fire-and-forget —
// the idiom for scoped disposal on exit from the span's lexical scope
// (spec §4.3, §5):
//
//	span := span.New(...)
//	defer span.Close()
func (s *Span) Close() {
	s.Finish(identity)
}

func identity(m core.Message) core.Message { return m }
