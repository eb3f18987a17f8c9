// Package engine implements the message router at the heart of logary
// (spec §4.2): a single-threaded actor that runs every inbound message
// through a user-supplied Processing function and fans emitted messages
// out to named subscriber sinks.
//
// It is grounded on the teacher's pipeline.go (staged enrich/filter/sink
// processing collapsed here into the single user Processing function) and
// sinks/router.go (predicate-based fan-out narrowed to the spec's single
// "target" context-key lookup).
package engine

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/willibrandon/logary/core"
	"github.com/willibrandon/logary/selflog"
)

type subscribeOp struct {
	key  string
	sink core.TargetSink // nil means unsubscribe
}

type envelope struct {
	factory core.MessageFactory
	level   core.LogLevel
	ack     chan core.Ack // nil for fire-and-forget Log
}

// Metrics are the Prometheus counters the Engine exposes for the
// observability the spec's §4.2 rationale asks for ("a counter should be
// exposed"), registered against a caller-supplied Registerer so tests
// never collide with the global default registry.
type Metrics struct {
	Dropped *prometheus.CounterVec
	Routed  *prometheus.CounterVec
}

// NewMetrics registers the Engine's counters against reg. Pass a fresh
// prometheus.NewRegistry() in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logary_engine_dropped_messages_total",
			Help: "Messages the engine could not route to a subscriber.",
		}, []string{"reason"}),
		Routed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logary_engine_routed_messages_total",
			Help: "Messages successfully routed to a subscriber, by target.",
		}, []string{"target"}),
	}
	reg.MustRegister(m.Dropped, m.Routed)
	return m
}

// Engine is the message router. Zero value is not usable; construct with
// New.
type Engine struct {
	processing core.Processing
	metrics    *Metrics

	input      chan envelope
	subscribe  chan subscribeOp
	shutdownCh chan chan struct{}

	subscribers map[string]core.TargetSink
}

// New constructs an Engine around the given processing function.
// The ingress is always a bounded buffer of inputBuffer messages;
// inputBuffer <= 0 uses a default capacity of 4096. Log/LogWithAck return
// core.ErrBufferFull whenever that buffer is saturated (spec §9 design
// note 1).
func New(processing core.Processing, metrics *Metrics, inputBuffer int) *Engine {
	if inputBuffer <= 0 {
		inputBuffer = 4096
	}
	e := &Engine{
		processing:  processing,
		metrics:     metrics,
		input:       make(chan envelope, inputBuffer),
		subscribe:   make(chan subscribeOp),
		shutdownCh:  make(chan chan struct{}),
		subscribers: make(map[string]core.TargetSink),
	}
	go e.run()
	return e
}

// Subscribe registers sink under key, replacing any prior sink at that
// key (idempotent-by-key replacement, spec §3 Engine state invariant).
func (e *Engine) Subscribe(key string, sink core.TargetSink) {
	e.subscribe <- subscribeOp{key: key, sink: sink}
}

// Unsubscribe removes the sink registered at key. A missing key is a
// no-op (spec §4.2).
func (e *Engine) Unsubscribe(key string) {
	e.subscribe <- subscribeOp{key: key, sink: nil}
}

// Log enqueues a message without waiting for acceptance. It returns
// core.ErrBufferFull only if the ingress is bounded and saturated.
func (e *Engine) Log(level core.LogLevel, factory core.MessageFactory) error {
	select {
	case e.input <- envelope{factory: factory, level: level}:
		return nil
	default:
		return core.ErrBufferFull
	}
}

// LogWithAck enqueues a message and returns a channel that receives
// exactly one Ack once the message has passed the processing function.
func (e *Engine) LogWithAck(level core.LogLevel, factory core.MessageFactory) <-chan core.Ack {
	ack := make(chan core.Ack, 1)
	select {
	case e.input <- envelope{factory: factory, level: level, ack: ack}:
	default:
		ack <- core.ErrBufferFull
	}
	return ack
}

// Shutdown signals the Engine's run loop to terminate and waits for it.
func (e *Engine) Shutdown() {
	reply := make(chan struct{})
	e.shutdownCh <- reply
	<-reply
}

func (e *Engine) run() {
	for {
		select {
		case op := <-e.subscribe:
			if op.sink == nil {
				delete(e.subscribers, op.key)
			} else {
				e.subscribers[op.key] = op.sink
			}

		case env := <-e.input:
			e.process(env)

		case reply := <-e.shutdownCh:
			close(reply)
			return
		}
	}
}

func (e *Engine) process(env envelope) {
	m := env.factory()
	m.Level = env.level

	e.safeProcessing(m)

	if env.ack != nil {
		env.ack <- nil
	}
}

// safeProcessing runs the user processing function, recovering a panic so
// the Engine survives a broken pipeline (spec §7: "the engine itself
// survives processing-function errors by logging and continuing").
func (e *Engine) safeProcessing(m core.Message) {
	defer func() {
		if r := recover(); r != nil {
			if selflog.IsEnabled() {
				selflog.Printf("[engine] processing function panic: %v", r)
			}
		}
	}()
	e.processing(m, e.emit)
}

func (e *Engine) emit(m core.Message) {
	name, ok := m.Context[core.ContextTarget]
	if !ok {
		e.metrics.Dropped.WithLabelValues("no_target").Inc()
		return
	}
	target, ok := name.AsString()
	if !ok {
		e.metrics.Dropped.WithLabelValues("no_target").Inc()
		return
	}

	sink, ok := e.subscribers[target]
	if !ok {
		if selflog.IsEnabled() {
			selflog.Printf("[engine] no subscriber for target %q", target)
		}
		e.metrics.Dropped.WithLabelValues("unknown_target").Inc()
		return
	}

	if err := sink.Emit(m); err != nil && selflog.IsEnabled() {
		selflog.Printf("[engine] target %q rejected message: %v", target, err)
	}
	e.metrics.Routed.WithLabelValues(target).Inc()
}
