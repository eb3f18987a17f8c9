package engine

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/logary/core"
)

type memorySink struct {
	events []core.Message
}

func (m *memorySink) Emit(msg core.Message) error {
	m.events = append(m.events, msg)
	return nil
}

func (m *memorySink) Close() error { return nil }

func testMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

func routeToTarget(name string) core.Processing {
	return func(m core.Message, emit core.EmitFunc) {
		emit(m.WithContext(core.ContextTarget, core.String(name)))
	}
}

// Scenario 1: single target happy path (spec §8 end-to-end scenario 1).
func TestEngineSingleTargetHappyPath(t *testing.T) {
	e := New(routeToTarget("console"), testMetrics(), 0)
	defer e.Shutdown()

	sink := &memorySink{}
	e.Subscribe("console", sink)

	ack := e.LogWithAck(core.Info, func() core.Message {
		return core.Message{Name: core.NewPointName("app")}
	})
	require.NoError(t, <-ack)

	require.Len(t, sink.events, 1)
	assert.Equal(t, core.NewPointName("app"), sink.events[0].Name)
	assert.Equal(t, core.Info, sink.events[0].Level)
	target, ok := sink.events[0].Context[core.ContextTarget].AsString()
	require.True(t, ok)
	assert.Equal(t, "console", target)
}

// Scenario 2: unknown target routing drops silently.
func TestEngineUnknownTargetDropsSilently(t *testing.T) {
	e := New(routeToTarget("missing"), testMetrics(), 0)
	defer e.Shutdown()

	sink := &memorySink{}
	e.Subscribe("console", sink)

	ack := e.LogWithAck(core.Info, func() core.Message {
		return core.Message{Name: core.NewPointName("app")}
	})
	require.NoError(t, <-ack)
	assert.Empty(t, sink.events)
}

func TestEngineSubscribeReplacesPriorSink(t *testing.T) {
	e := New(routeToTarget("t"), testMetrics(), 0)
	defer e.Shutdown()

	s1 := &memorySink{}
	s2 := &memorySink{}
	e.Subscribe("t", s1)
	e.Subscribe("t", s2)

	ack := e.LogWithAck(core.Info, func() core.Message { return core.Message{} })
	require.NoError(t, <-ack)

	assert.Empty(t, s1.events)
	assert.Len(t, s2.events, 1)
}

func TestEngineUnsubscribeMissingKeyIsNoOp(t *testing.T) {
	e := New(routeToTarget("t"), testMetrics(), 0)
	defer e.Shutdown()
	assert.NotPanics(t, func() { e.Unsubscribe("does-not-exist") })
}

func TestEnginePerTargetOrderingPreserved(t *testing.T) {
	e := New(func(m core.Message, emit core.EmitFunc) {
		emit(m.WithContext(core.ContextTarget, core.String("t")))
	}, testMetrics(), 0)
	defer e.Shutdown()

	sink := &memorySink{}
	e.Subscribe("t", sink)

	var acks []<-chan core.Ack
	for i := 0; i < 50; i++ {
		i := i
		acks = append(acks, e.LogWithAck(core.Info, func() core.Message {
			return core.Message{Value: core.Int64(int64(i))}
		}))
	}
	for _, a := range acks {
		<-a
	}

	require.Len(t, sink.events, 50)
	for i, m := range sink.events {
		v, _ := m.Value.AsInt64()
		assert.Equal(t, int64(i), v)
	}
}

func TestEngineBoundedIngressReturnsBufferFull(t *testing.T) {
	block := make(chan struct{})
	e := New(func(m core.Message, emit core.EmitFunc) {
		<-block // hold the single processing slot open
	}, testMetrics(), 1)
	defer func() {
		close(block)
		e.Shutdown()
	}()

	// First call occupies the engine's single processing goroutine.
	e.Log(core.Info, func() core.Message { return core.Message{} })
	time.Sleep(20 * time.Millisecond) // let the engine pick it up

	// Buffer size 1 plus the one in flight: saturate and expect a drop.
	var sawFull bool
	for i := 0; i < 10; i++ {
		if err := e.Log(core.Info, func() core.Message { return core.Message{} }); err == core.ErrBufferFull {
			sawFull = true
			break
		}
	}
	assert.True(t, sawFull)
}
