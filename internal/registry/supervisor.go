package registry

import (
	"time"

	"github.com/willibrandon/logary/core"
	"github.com/willibrandon/logary/internal/service"
)

// superviseLoop polls every supervised service's state on conf.RestartInterval
// and restarts any found Faulted, per spec.md:129,143's "delayed restart
// every 500 ms on fault" policy. It is the composition root's only
// background goroutine besides the Engine/sink workers, and runs for the
// Registry's lifetime; Shutdown stops it before tearing down the services
// it supervises, so a fault observed mid-shutdown can't race a restart
// against a service already being stopped.
func (r *Registry) superviseLoop() {
	defer close(r.supervisorStopped)

	interval := r.conf.RestartInterval
	if interval <= 0 {
		interval = defaultRestartInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.restartFaulted()
		case <-r.supervisorDone:
			return
		}
	}
}

// restartFaulted finds every Faulted target/metric/health check, logs the
// fault on the internal logger, and replaces it with a freshly built
// instance from the same factory. A failed restart attempt is logged and
// left Faulted; it is retried on the next tick.
func (r *Registry) restartFaulted() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, t := range r.targets {
		state, faultErr := t.GetState()
		if state != core.Faulted {
			continue
		}
		r.logFault("target:"+name, faultErr)
		tc, ok := r.targetFactories[name]
		if !ok {
			continue
		}
		sink, err := tc.Factory(r.conf.RuntimeInfo)
		if err != nil {
			r.logFault("target-restart:"+name, err)
			continue
		}
		_ = t.Shutdown(0)
		fresh := service.NewSink(name, sink, r.conf.SinkBufferSize)
		r.targets[name] = fresh
		r.eng.Subscribe(name, fresh)
	}

	for name, m := range r.metricSinks {
		state, faultErr := m.GetState()
		if state != core.Faulted {
			continue
		}
		r.logFault("metric:"+name, faultErr)
		mc, ok := r.metricFactories[name]
		if !ok {
			continue
		}
		sink, err := mc.Factory(r.conf.RuntimeInfo)
		if err != nil {
			r.logFault("metric-restart:"+name, err)
			continue
		}
		_ = m.Shutdown(0)
		r.metricSinks[name] = service.NewSink(name, sink, r.conf.SinkBufferSize)
	}

	for name, p := range r.healthChecks {
		state, faultErr := p.GetState()
		if state != core.Faulted {
			continue
		}
		r.logFault("healthcheck:"+name, faultErr)
		hc, ok := r.healthFactories[name]
		if !ok {
			continue
		}
		check, err := hc.Factory(r.conf.RuntimeInfo)
		if err != nil {
			r.logFault("healthcheck-restart:"+name, err)
			continue
		}
		_ = p.Shutdown(0)
		fresh, err := service.NewProbe(name, check, time.Duration(hc.Interval*float64(time.Second)), hc.Schedule)
		if err != nil {
			r.logFault("healthcheck-restart:"+name, err)
			continue
		}
		r.healthChecks[name] = fresh
	}
}
