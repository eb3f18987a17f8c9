package service

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/willibrandon/logary/core"
)

// ProbeService supervises a core.HealthCheck, invoking it either on a
// fixed interval or on a cron schedule (parsed with robfig/cron/v3's
// Schedule, driven by this package's own select loop rather than cron's
// own engine, so it shares the same pause/resume/shutdown control as
// every other supervised service).
type ProbeService struct {
	*supervisor
	check    core.HealthCheck
	interval time.Duration
	schedule cron.Schedule
	now      func() time.Time
}

var _ core.Service[core.HealthCheck] = (*ProbeService)(nil)

// NewProbe starts a ProbeService. Exactly one of interval or cronExpr
// should be meaningful; interval takes precedence when both are set.
func NewProbe(name string, check core.HealthCheck, interval time.Duration, cronExpr string) (*ProbeService, error) {
	p := &ProbeService{
		supervisor: newSupervisor(name),
		check:      check,
		interval:   interval,
		now:        time.Now,
	}
	if interval <= 0 && cronExpr != "" {
		sched, err := cron.ParseStandard(cronExpr)
		if err != nil {
			return nil, &core.ConfigurationError{Reason: "invalid health check schedule for " + name + ": " + err.Error()}
		}
		p.schedule = sched
	}
	go p.run()
	return p, nil
}

func (p *ProbeService) Capability() core.HealthCheck { return p.check }

func (p *ProbeService) GetState() (core.ServiceState, error) { return p.getState() }

// Shutdown stops the probe. timeoutSeconds <= 0 sends the stop request
// but returns immediately rather than waiting for it to finish.
func (p *ProbeService) Shutdown(timeoutSeconds float64) error {
	var timeout time.Duration
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds * float64(time.Second))
	}
	return p.shutdown(timeout)
}

// RequestShutdown sends the stop request without waiting for it to
// finish, returning a channel that closes once it has. See
// supervisor.requestShutdown.
func (p *ProbeService) RequestShutdown() <-chan struct{} { return p.requestShutdown() }

func (p *ProbeService) nextFire(from time.Time) <-chan time.Time {
	if p.interval > 0 {
		return time.After(p.interval)
	}
	if p.schedule != nil {
		return time.After(p.schedule.Next(from).Sub(from))
	}
	// No schedule configured: probe is manual-only: a channel that never
	// fires.
	return make(chan time.Time)
}

func (p *ProbeService) run() {
	p.markRunning()
	paused := false
	timer := p.nextFire(p.now())

	for {
		select {
		case now := <-timer:
			if !paused {
				if err := p.check.Check(); err != nil {
					p.markFaulted(core.NewServiceFault(p.name, err))
				} else {
					p.markRunning()
				}
			}
			timer = p.nextFire(now)

		case <-p.pauseCh:
			paused = true
			p.markPaused()

		case <-p.resumeCh:
			paused = false
			p.markRunning()

		case reply := <-p.shutdownCh:
			p.markStopped()
			close(reply)
			return
		}
	}
}
