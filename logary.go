// Package logary is a structured logging and tracing core built around a
// single routing Engine, named supervised targets/metrics/health checks,
// and a process-wide level switch with pause/resume/restore semantics.
//
// Grounded on the teacher's top-level New/Build entrypoints (logger.go)
// and functional-option config (options.go), retargeted from "assemble an
// immutable logger pipeline" to "build and supervise a named-service
// registry" (internal/registry).
package logary

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/willibrandon/logary/core"
	"github.com/willibrandon/logary/internal/registry"
)

// Conf is a validated, immutable configuration a LogManager is built
// from: named target/metric/health-check factories, the process's
// RuntimeInfo, global middleware, and the routing Processing function
// (spec §6).
type Conf = registry.Conf

// Option configures a Conf under construction.
type Option = registry.Option

// NewConf validates and builds a Conf from the given RuntimeInfo,
// Processing function, and options. An invalid configuration (duplicate
// target names, nil factories, conflicting health-check scheduling)
// yields a *core.ConfigurationError.
func NewConf(ri core.RuntimeInfo, processing core.Processing, opts ...Option) (*Conf, error) {
	return registry.NewConf(ri, processing, opts...)
}

// WithTarget registers a named target factory.
func WithTarget(tc core.TargetConf) Option { return registry.WithTarget(tc) }

// WithMetric registers a named metric factory.
func WithMetric(mc core.MetricConf) Option { return registry.WithMetric(mc) }

// WithHealthCheck registers a named health check, run on Interval seconds
// or on a Schedule cron expression, not both.
func WithHealthCheck(hc core.HealthCheckConf) Option { return registry.WithHealthCheck(hc) }

// WithMiddleware appends to the global middleware chain applied to every
// message produced by a Logger this LogManager hands out.
func WithMiddleware(m core.Middleware) Option { return registry.WithMiddleware(m) }

// WithEngineInputBuffer overrides the engine's ingress channel capacity
// (default 4096).
func WithEngineInputBuffer(n int) Option { return registry.WithEngineInputBuffer(n) }

// WithSinkBufferSize overrides each target/metric sink's per-service
// buffer capacity (default 256).
func WithSinkBufferSize(n int) Option { return registry.WithSinkBufferSize(n) }

// WithPrometheusRegisterer overrides the registerer the engine's counters
// and admin /metrics endpoint use (default prometheus.DefaultRegisterer).
func WithPrometheusRegisterer(reg prometheus.Registerer) Option {
	return registry.WithPrometheusRegisterer(reg)
}

// WithAdminAddr starts the /healthz, /metrics, /servicez HTTP surface on
// addr once the LogManager finishes building. Leave unset to disable it.
func WithAdminAddr(addr string) Option { return registry.WithAdminAddr(addr) }

// WithRestartInterval overrides how often the Registry's supervisor loop
// polls for Faulted services and attempts a delayed restart (default
// 500ms).
func WithRestartInterval(d time.Duration) Option { return registry.WithRestartInterval(d) }
