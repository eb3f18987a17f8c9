package registry

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/willibrandon/logary/core"
	"github.com/willibrandon/logary/internal/engine"
	"github.com/willibrandon/logary/internal/globals"
	"github.com/willibrandon/logary/internal/service"
	"github.com/willibrandon/logary/selflog"
)

// defaultRestartInterval is how often the supervisor loop polls for
// Faulted services when Conf.RestartInterval is left unset (spec.md:129
// "delayed restart every 500 ms on fault").
const defaultRestartInterval = 500 * time.Millisecond

// Registry is the running instantiation of a Conf: one Engine, one
// supervised service per target/metric/health check, and the process-wide
// level switch every Logger this Registry hands out filters against.
//
// Grounded on spec §4.4's composition-root algorithm and the teacher's
// Build (logger.go) + config (options.go), generalized from "assemble one
// pipeline" to "concurrently spawn and supervise N named services plus one
// routing engine."
type Registry struct {
	conf *Conf

	eng     *engine.Engine
	metrics *engine.Metrics
	levels  *globals.Service[core.LogLevel]

	internalLogger core.Logger

	// mu guards targets/metricSinks/healthChecks: the supervisor loop
	// replaces Faulted entries concurrently with Flush/Shutdown/Pause/
	// Resume and the admin HTTP handlers reading them.
	mu           sync.RWMutex
	targets      map[string]*service.SinkService
	metricSinks  map[string]*service.SinkService
	healthChecks map[string]*service.ProbeService

	targetFactories map[string]core.TargetConf
	metricFactories map[string]core.MetricConf
	healthFactories map[string]core.HealthCheckConf

	adminServer *http.Server

	supervisorDone    chan struct{}
	supervisorStopped chan struct{}
}

// Build constructs a Registry from conf: spawns every target, metric, and
// health check concurrently (spec §4.4 step 2), wraps each behind a
// supervised service, wires the targets into a freshly constructed Engine
// as subscribers, and returns the assembled Registry. If any factory errors,
// Build tears down whatever had already started and returns the first
// error encountered.
func Build(conf *Conf) (*Registry, error) {
	r := &Registry{
		conf:              conf,
		metrics:           engine.NewMetrics(conf.PrometheusReg),
		levels:            globals.New(core.Info),
		targets:           make(map[string]*service.SinkService),
		metricSinks:       make(map[string]*service.SinkService),
		healthChecks:      make(map[string]*service.ProbeService),
		targetFactories:   make(map[string]core.TargetConf, len(conf.Targets)),
		metricFactories:   make(map[string]core.MetricConf, len(conf.Metrics)),
		healthFactories:   make(map[string]core.HealthCheckConf, len(conf.HealthChecks)),
		supervisorDone:    make(chan struct{}),
		supervisorStopped: make(chan struct{}),
	}
	for _, tc := range conf.Targets {
		r.targetFactories[tc.Name] = tc
	}
	for _, mc := range conf.Metrics {
		r.metricFactories[mc.Name] = mc
	}
	for _, hc := range conf.HealthChecks {
		r.healthFactories[hc.Name] = hc
	}
	r.eng = engine.New(conf.Processing, r.metrics, conf.EngineInputBuffer)
	r.internalLogger = newPointLogger(core.NewPointName("Logary", "Registry"), r.eng, r.levels, core.Compose(conf.Middleware...))

	type spawnedTarget struct {
		name string
		sink core.TargetSink
	}
	type spawnedMetric struct {
		name string
		sink core.Metric
	}
	type spawnedProbe struct {
		name  string
		check core.HealthCheck
		hc    core.HealthCheckConf
	}

	var g errgroup.Group

	targetResults := make([]spawnedTarget, len(conf.Targets))
	for i, tc := range conf.Targets {
		i, tc := i, tc
		g.Go(func() error {
			sink, err := tc.Factory(conf.RuntimeInfo)
			if err != nil {
				return core.NewServiceFault(tc.Name, err)
			}
			targetResults[i] = spawnedTarget{name: tc.Name, sink: sink}
			return nil
		})
	}

	metricResults := make([]spawnedMetric, len(conf.Metrics))
	for i, mc := range conf.Metrics {
		i, mc := i, mc
		g.Go(func() error {
			sink, err := mc.Factory(conf.RuntimeInfo)
			if err != nil {
				return core.NewServiceFault(mc.Name, err)
			}
			metricResults[i] = spawnedMetric{name: mc.Name, sink: sink}
			return nil
		})
	}

	probeResults := make([]spawnedProbe, len(conf.HealthChecks))
	for i, hc := range conf.HealthChecks {
		i, hc := i, hc
		g.Go(func() error {
			check, err := hc.Factory(conf.RuntimeInfo)
			if err != nil {
				return core.NewServiceFault(hc.Name, err)
			}
			probeResults[i] = spawnedProbe{name: hc.Name, check: check, hc: hc}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		r.logFault("build", err)
		r.eng.Shutdown()
		r.levels.Shutdown()
		return nil, err
	}

	for _, t := range targetResults {
		sinkSvc := service.NewSink(t.name, t.sink, conf.SinkBufferSize)
		r.targets[t.name] = sinkSvc
		r.eng.Subscribe(t.name, sinkSvc)
	}
	for _, m := range metricResults {
		sinkSvc := service.NewSink(m.name, m.sink, conf.SinkBufferSize)
		r.metricSinks[m.name] = sinkSvc
	}
	for _, p := range probeResults {
		interval := time.Duration(p.hc.Interval * float64(time.Second))
		probeSvc, err := service.NewProbe(p.name, p.check, interval, p.hc.Schedule)
		if err != nil {
			r.shutdownAll(0)
			return nil, err
		}
		r.healthChecks[p.name] = probeSvc
	}

	if conf.AdminAddr != "" {
		r.adminServer = &http.Server{Addr: conf.AdminAddr, Handler: r.AdminRouter()}
		go func() {
			if err := r.adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				r.logFault("admin", err)
			}
		}()
	}

	go r.superviseLoop()

	return r, nil
}

// GetLogger returns a Logger scoped to name, routing through this
// Registry's Engine and filtered by its level switch. Its view is
// registry middleware composed with the given call-site middleware, in
// that order: registry middleware runs first, call-site middleware runs
// last, closest to the call (spec §4.4 getLogger, §4.7).
func (r *Registry) GetLogger(name core.PointName, callSite ...core.Middleware) core.Logger {
	all := make([]core.Middleware, 0, len(r.conf.Middleware)+len(callSite))
	all = append(all, r.conf.Middleware...)
	all = append(all, callSite...)
	return newPointLogger(name, r.eng, r.levels, core.Compose(all...))
}

// RuntimeInfo returns the process RuntimeInfo this Registry was built
// from.
func (r *Registry) RuntimeInfo() core.RuntimeInfo { return r.conf.RuntimeInfo }

// InternalLogger returns the Registry's own logger, used for its
// self-diagnostic messages (spec §7: the registry logs its own faults
// through the same pipeline it supervises).
func (r *Registry) InternalLogger() core.Logger { return r.internalLogger }

// Pause suspends message delivery to every supervised target, leaving the
// Engine itself running (messages are still processed and routed, but
// each SinkService drops rather than forwards while paused), and pauses
// the level switch: until Resume, loggers filter against the level that
// was in force before the most recent SetLevel (spec §4.5: the Globals
// service's pause/resume is reachable through the same Registry-level
// Pause/Resume as the sink services).
func (r *Registry) Pause() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.targets {
		t.Pause()
	}
	for _, m := range r.metricSinks {
		m.Pause()
	}
	r.levels.Pause()
}

// Resume reverses Pause.
func (r *Registry) Resume() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.targets {
		t.Resume()
	}
	for _, m := range r.metricSinks {
		m.Resume()
	}
	r.levels.Resume()
}

// SetLevel installs a new process-wide minimum level.
func (r *Registry) SetLevel(level core.LogLevel) { r.levels.Install(level) }

func (r *Registry) logFault(service string, err error) {
	if selflog.IsEnabled() {
		selflog.Printf("[registry] %s: %v", service, err)
	}
	if r.internalLogger == nil || err == nil {
		return
	}
	text := service + ": " + err.Error()
	_ = r.internalLogger.Log(core.Error, func() core.Message {
		return core.Message{Level: core.Error, Value: core.String(text), Context: map[string]core.Value{}, Timestamp: time.Now()}
	})
}
