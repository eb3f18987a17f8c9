package logary

import (
	"context"
	"net/http"
	"sync"

	"github.com/willibrandon/logary/core"
	"github.com/willibrandon/logary/internal/registry"
)

const defaultPromiseSlots = 4096

// LogManager is the application-facing facade over a running Registry
// (spec §6). It is obtained via Build/New (synchronous) or BuildAsync
// (returns immediately, resolving in the background).
type LogManager struct {
	ready chan struct{}

	mu       sync.Mutex
	reg      *registry.Registry
	buildErr error

	promiseSlots chan struct{}
}

// Build synchronously constructs a LogManager from conf, spawning every
// target/metric/health check and waiting for them to come up before
// returning.
func Build(conf *Conf) (*LogManager, error) {
	reg, err := registry.Build(conf)
	if err != nil {
		return nil, err
	}
	m := &LogManager{
		ready:        make(chan struct{}),
		reg:          reg,
		promiseSlots: make(chan struct{}, defaultPromiseSlots),
	}
	close(m.ready)
	return m, nil
}

// New is Build, panicking instead of returning an error — the teacher's
// convention for callers that treat a bad configuration as fatal.
func New(conf *Conf) *LogManager {
	m, err := Build(conf)
	if err != nil {
		panic(err)
	}
	return m
}

// BuildAsync starts building in the background and returns immediately.
// GetLogger blocks until the build finishes (successfully or not);
// GetLoggerSync returns a proxy Logger usable right away, whose calls are
// buffered (bounded) until the real logger resolves (spec §9 "promised
// logger" design note — there's no teacher analogue for this, since the
// teacher's Build is always synchronous; this is new code written in the
// same idiom: small struct, explicit bounded channel, no hidden goroutine
// leaks).
func BuildAsync(conf *Conf) *LogManager {
	m := &LogManager{
		ready:        make(chan struct{}),
		promiseSlots: make(chan struct{}, defaultPromiseSlots),
	}
	go func() {
		reg, err := registry.Build(conf)
		m.mu.Lock()
		m.reg = reg
		m.buildErr = err
		m.mu.Unlock()
		close(m.ready)
	}()
	return m
}

// resolved returns the built Registry, blocking until the build finishes.
func (m *LogManager) resolved() (*registry.Registry, error) {
	<-m.ready
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reg, m.buildErr
}

// resolvedLoggerFor returns a Logger scoped to name from the built
// Registry. Must only be called after m.ready is closed.
func (m *LogManager) resolvedLoggerFor(name core.PointName, callSite ...core.Middleware) (core.Logger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.buildErr != nil {
		return nil, m.buildErr
	}
	return m.reg.GetLogger(name, callSite...), nil
}

// GetLogger blocks until the manager finishes building, then returns a
// Logger scoped to name (its view composed with any call-site middleware
// given), or the build error if construction failed.
func (m *LogManager) GetLogger(name core.PointName, callSite ...core.Middleware) (core.Logger, error) {
	reg, err := m.resolved()
	if err != nil {
		return nil, err
	}
	return reg.GetLogger(name, callSite...), nil
}

// GetLoggerSync returns immediately: a Logger proxy that queues calls made
// before the manager finishes building and forwards them once it does.
// Safe to call and log through even while the underlying Registry is
// still spawning its targets.
func (m *LogManager) GetLoggerSync(name core.PointName, callSite ...core.Middleware) core.Logger {
	return &promisedLogger{manager: m, name: name, callSite: callSite}
}

// RuntimeInfo returns the process RuntimeInfo the manager was configured
// with, blocking until the build finishes.
func (m *LogManager) RuntimeInfo() (core.RuntimeInfo, error) {
	reg, err := m.resolved()
	if err != nil {
		return core.RuntimeInfo{}, err
	}
	return reg.RuntimeInfo(), nil
}

// Pause suspends delivery to every supervised target without tearing
// anything down (spec §4.5 / §4.6 interplay: the level switch and target
// services share the same pause vocabulary).
func (m *LogManager) Pause() error {
	reg, err := m.resolved()
	if err != nil {
		return err
	}
	reg.Pause()
	return nil
}

// Resume reverses Pause.
func (m *LogManager) Resume() error {
	reg, err := m.resolved()
	if err != nil {
		return err
	}
	reg.Resume()
	return nil
}

// SetLevel installs a new process-wide minimum level.
func (m *LogManager) SetLevel(level core.LogLevel) error {
	reg, err := m.resolved()
	if err != nil {
		return err
	}
	reg.SetLevel(level)
	return nil
}

// FlushPending waits up to timeoutSeconds for every target/metric's
// currently-enqueued messages to reach their destination. Cancelling ctx
// nacks the flush (spec.md:175): Flush stops waiting immediately and
// whatever hasn't acked yet is reported in FlushInfo.Timeouts.
func (m *LogManager) FlushPending(ctx context.Context, timeoutSeconds float64) (core.FlushInfo, error) {
	reg, err := m.resolved()
	if err != nil {
		return core.FlushInfo{}, err
	}
	return reg.Flush(ctx, timeoutSeconds), nil
}

// Shutdown flushes, then stops every supervised service in dependency
// order, returning the combined flush/shutdown report. Shutdown itself is
// not cancellable (spec.md:175); only the preceding flush is.
func (m *LogManager) Shutdown(flushTimeoutSeconds, shutdownTimeoutSeconds float64) (core.FlushInfo, core.ShutdownInfo, error) {
	reg, err := m.resolved()
	if err != nil {
		return core.FlushInfo{}, core.ShutdownInfo{}, err
	}
	flushInfo := reg.Flush(context.Background(), flushTimeoutSeconds)
	shutdownInfo := reg.Shutdown(shutdownTimeoutSeconds)
	return flushInfo, shutdownInfo, nil
}

// AdminHandler returns the Registry's HTTP admin surface
// (/healthz, /metrics, /servicez), or nil with the build error if
// construction failed.
func (m *LogManager) AdminHandler() (http.Handler, error) {
	reg, err := m.resolved()
	if err != nil {
		return nil, err
	}
	return reg.AdminRouter(), nil
}
