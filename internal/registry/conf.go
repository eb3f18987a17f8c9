// Package registry is the composition root that turns a LogaryConf into a
// running set of supervised services (spec §4.4). It is unexported: the
// public surface is the root-level LogManager/LogaryConf facade, which
// embeds a *Registry.
//
// Grounded on the teacher's options.go functional-options idiom
// (generalized from a single config struct to LogaryConf) and pipeline.go
// (the immutable, once-built value the functional options assemble into).
package registry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/willibrandon/logary/core"
)

// Conf is the validated, immutable configuration a Registry is built
// from. It mirrors spec §6's LogaryConf: named target/metric/health-check
// factories, the process's RuntimeInfo, global middleware, and the
// routing Processing function.
type Conf struct {
	Targets      []core.TargetConf
	Metrics      []core.MetricConf
	HealthChecks []core.HealthCheckConf
	RuntimeInfo  core.RuntimeInfo
	Middleware   []core.Middleware
	Processing   core.Processing

	EngineInputBuffer int
	SinkBufferSize    int
	PrometheusReg     prometheus.Registerer

	// AdminAddr, when non-empty, is the address the Registry binds its
	// /healthz, /metrics, /servicez HTTP surface to (spec §4.4.1). Empty
	// (the default) means no admin server is started; AdminRouter is still
	// available for callers that want to mount it themselves.
	AdminAddr string

	// RestartInterval is how often the Registry's supervisor loop polls
	// for Faulted services and attempts a delayed restart (spec.md:129,
	// 143: "delayed restart every 500 ms on fault"). Defaults to 500ms;
	// tests may shrink it to avoid slow polling waits.
	RestartInterval time.Duration
}

// Option configures a Conf under construction, per the teacher's
// functional-option convention (options.go).
type Option func(*Conf) error

// NewConf builds a Conf from the given RuntimeInfo, Processing function,
// and options, validating it before returning. An invalid configuration
// (duplicate names, nil factories) yields a *core.ConfigurationError.
func NewConf(ri core.RuntimeInfo, processing core.Processing, opts ...Option) (*Conf, error) {
	c := &Conf{
		RuntimeInfo:       ri,
		Processing:        processing,
		EngineInputBuffer: 4096,
		SinkBufferSize:    256,
		PrometheusReg:     prometheus.DefaultRegisterer,
		RestartInterval:   500 * time.Millisecond,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// WithTarget registers a named target factory. Duplicate names are
// rejected at NewConf time.
func WithTarget(tc core.TargetConf) Option {
	return func(c *Conf) error {
		c.Targets = append(c.Targets, tc)
		return nil
	}
}

// WithMetric registers a named metric factory.
func WithMetric(mc core.MetricConf) Option {
	return func(c *Conf) error {
		c.Metrics = append(c.Metrics, mc)
		return nil
	}
}

// WithHealthCheck registers a named health check, run on Interval seconds
// or Schedule (a standard five-field cron expression), not both.
func WithHealthCheck(hc core.HealthCheckConf) Option {
	return func(c *Conf) error {
		c.HealthChecks = append(c.HealthChecks, hc)
		return nil
	}
}

// WithMiddleware appends to the global middleware chain applied to every
// message the registry's loggers produce, in call order (spec §4.7).
func WithMiddleware(m core.Middleware) Option {
	return func(c *Conf) error {
		c.Middleware = append(c.Middleware, m)
		return nil
	}
}

// WithEngineInputBuffer overrides the engine's ingress channel capacity
// (default 4096).
func WithEngineInputBuffer(n int) Option {
	return func(c *Conf) error {
		if n <= 0 {
			return &core.ConfigurationError{Reason: "engine input buffer must be positive"}
		}
		c.EngineInputBuffer = n
		return nil
	}
}

// WithSinkBufferSize overrides each target sink's per-target buffer
// capacity (default 256).
func WithSinkBufferSize(n int) Option {
	return func(c *Conf) error {
		if n <= 0 {
			return &core.ConfigurationError{Reason: "sink buffer size must be positive"}
		}
		c.SinkBufferSize = n
		return nil
	}
}

// WithPrometheusRegisterer overrides the registerer the engine's counters
// are registered against and the admin /metrics endpoint gathers from
// (default prometheus.DefaultRegisterer). Tests should supply a fresh
// prometheus.NewRegistry() to avoid collisions between runs.
func WithPrometheusRegisterer(reg prometheus.Registerer) Option {
	return func(c *Conf) error {
		c.PrometheusReg = reg
		return nil
	}
}

// WithAdminAddr starts the /healthz, /metrics, /servicez HTTP surface on
// addr once the Registry is built (spec §4.4.1). Leave unset to disable
// it (the default).
func WithAdminAddr(addr string) Option {
	return func(c *Conf) error {
		c.AdminAddr = addr
		return nil
	}
}

// WithRestartInterval overrides how often the supervisor loop polls for
// Faulted services (default 500ms).
func WithRestartInterval(d time.Duration) Option {
	return func(c *Conf) error {
		if d <= 0 {
			return &core.ConfigurationError{Reason: "restart interval must be positive"}
		}
		c.RestartInterval = d
		return nil
	}
}

// promGatherer returns the Gatherer side of PrometheusReg when it
// implements one (true of *prometheus.Registry and the default
// registerer), falling back to prometheus.DefaultGatherer otherwise.
func (c *Conf) promGatherer() prometheus.Gatherer {
	if g, ok := c.PrometheusReg.(prometheus.Gatherer); ok {
		return g
	}
	return prometheus.DefaultGatherer
}

func (c *Conf) validate() error {
	if c.Processing == nil {
		return &core.ConfigurationError{Reason: "processing function is required"}
	}
	seen := make(map[string]bool, len(c.Targets))
	for _, t := range c.Targets {
		if t.Name == "" {
			return &core.ConfigurationError{Reason: "target name must not be empty"}
		}
		if t.Factory == nil {
			return &core.ConfigurationError{Reason: fmt.Sprintf("target %q has a nil factory", t.Name)}
		}
		if seen[t.Name] {
			return &core.ConfigurationError{Reason: fmt.Sprintf("duplicate target name %q", t.Name)}
		}
		seen[t.Name] = true
	}
	seenMetric := make(map[string]bool, len(c.Metrics))
	for _, m := range c.Metrics {
		if m.Name == "" {
			return &core.ConfigurationError{Reason: "metric name must not be empty"}
		}
		if m.Factory == nil {
			return &core.ConfigurationError{Reason: fmt.Sprintf("metric %q has a nil factory", m.Name)}
		}
		if seenMetric[m.Name] {
			return &core.ConfigurationError{Reason: fmt.Sprintf("duplicate metric name %q", m.Name)}
		}
		seenMetric[m.Name] = true
	}
	seenHC := make(map[string]bool, len(c.HealthChecks))
	for _, hc := range c.HealthChecks {
		if hc.Name == "" {
			return &core.ConfigurationError{Reason: "health check name must not be empty"}
		}
		if hc.Factory == nil {
			return &core.ConfigurationError{Reason: fmt.Sprintf("health check %q has a nil factory", hc.Name)}
		}
		if hc.Interval <= 0 && hc.Schedule == "" {
			return &core.ConfigurationError{Reason: fmt.Sprintf("health check %q needs an interval or a schedule", hc.Name)}
		}
		if hc.Interval > 0 && hc.Schedule != "" {
			return &core.ConfigurationError{Reason: fmt.Sprintf("health check %q sets both interval and schedule", hc.Name)}
		}
		if seenHC[hc.Name] {
			return &core.ConfigurationError{Reason: fmt.Sprintf("duplicate health check name %q", hc.Name)}
		}
		seenHC[hc.Name] = true
	}
	return nil
}
