package logary

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/logary/core"
	"github.com/willibrandon/logary/internal/testutil"
)

func routeByName() core.Processing {
	return func(m core.Message, emit core.EmitFunc) {
		emit(m.WithContext(core.ContextTarget, core.String(m.Name.String())))
	}
}

func TestBuildAndLogEndToEnd(t *testing.T) {
	mem := testutil.NewMemoryTarget()
	conf, err := NewConf(core.NewRuntimeInfo("svc", "host", nil), routeByName(),
		WithTarget(core.TargetConf{
			Name: "console",
			Factory: func(core.RuntimeInfo) (core.TargetSink, error) { return mem, nil },
		}),
		WithPrometheusRegisterer(prometheus.NewRegistry()),
	)
	require.NoError(t, err)

	mgr, err := Build(conf)
	require.NoError(t, err)
	defer mgr.Shutdown(1, 1)

	logger, err := mgr.GetLogger(core.NewPointName("console"))
	require.NoError(t, err)
	require.NoError(t, <-logger.LogWithAck(core.Info, func() core.Message {
		return core.NewMessage(core.SystemClock{}, core.NewPointName("console"), core.Info, core.String("hi"))
	}))

	require.Eventually(t, func() bool { return len(mem.Events()) == 1 }, time.Second, time.Millisecond)
}

func TestGetLoggerSyncBuffersBeforeReady(t *testing.T) {
	mem := testutil.NewMemoryTarget()
	conf, err := NewConf(core.NewRuntimeInfo("svc", "host", nil), routeByName(),
		WithTarget(core.TargetConf{
			Name: "console",
			Factory: func(core.RuntimeInfo) (core.TargetSink, error) { return mem, nil },
		}),
		WithPrometheusRegisterer(prometheus.NewRegistry()),
	)
	require.NoError(t, err)

	mgr := BuildAsync(conf)
	defer mgr.Shutdown(1, 1)

	logger := mgr.GetLoggerSync(core.NewPointName("console"))
	require.NoError(t, logger.Log(core.Info, func() core.Message {
		return core.NewMessage(core.SystemClock{}, core.NewPointName("console"), core.Info, core.String("buffered"))
	}))

	require.Eventually(t, func() bool { return len(mem.Events()) == 1 }, time.Second, time.Millisecond)
}

func TestBuildAsyncPropagatesErrorToGetLogger(t *testing.T) {
	boom := errors.New("boom")
	conf, err := NewConf(core.NewRuntimeInfo("svc", "host", nil), routeByName(),
		WithTarget(core.TargetConf{
			Name:    "broken",
			Factory: func(core.RuntimeInfo) (core.TargetSink, error) { return nil, boom },
		}),
		WithPrometheusRegisterer(prometheus.NewRegistry()),
	)
	require.NoError(t, err)

	mgr := BuildAsync(conf)
	_, err = mgr.GetLogger(core.NewPointName("broken"))
	require.Error(t, err)
}

func TestNewConfRejectsEmptyTargetName(t *testing.T) {
	conf, err := NewConf(core.NewRuntimeInfo("svc", "host", nil), routeByName(),
		WithTarget(core.TargetConf{Name: "", Factory: func(core.RuntimeInfo) (core.TargetSink, error) { return nil, nil }}),
	)
	assert.Error(t, err)
	assert.Nil(t, conf)
}

func TestNewPanicsOnBuildFailure(t *testing.T) {
	boom := errors.New("boom")
	conf, err := NewConf(core.NewRuntimeInfo("svc", "host", nil), routeByName(),
		WithTarget(core.TargetConf{
			Name:    "broken",
			Factory: func(core.RuntimeInfo) (core.TargetSink, error) { return nil, boom },
		}),
		WithPrometheusRegisterer(prometheus.NewRegistry()),
	)
	require.NoError(t, err)

	assert.Panics(t, func() { New(conf) })
}

func TestShutdownReportsAcks(t *testing.T) {
	mem := testutil.NewMemoryTarget()
	conf, err := NewConf(core.NewRuntimeInfo("svc", "host", nil), routeByName(),
		WithTarget(core.TargetConf{
			Name: "console",
			Factory: func(core.RuntimeInfo) (core.TargetSink, error) { return mem, nil },
		}),
		WithPrometheusRegisterer(prometheus.NewRegistry()),
	)
	require.NoError(t, err)

	mgr, err := Build(conf)
	require.NoError(t, err)

	flushInfo, shutdownInfo, err := mgr.Shutdown(1, 1)
	require.NoError(t, err)
	assert.Contains(t, flushInfo.Acks, "console")
	assert.Contains(t, shutdownInfo.Acks, "console")
}
