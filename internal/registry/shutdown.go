package registry

import (
	"context"
	"time"

	"github.com/willibrandon/logary/core"
)

// shutdownRequester is the capability shutdownGroup's fan-out needs from
// a supervised service: send the stop request without waiting, and hand
// back a channel that closes once it has drained.
type shutdownRequester interface {
	RequestShutdown() <-chan struct{}
}

// shutdownGroup sends a shutdown request to every service in group and
// selects across all their replies against the shared deadline, rather
// than waiting the full timeout on each in turn (spec §9 design note 2).
func shutdownGroup[T shutdownRequester](deadline time.Time, group map[string]T) (acked, timedOut []string) {
	if len(group) == 0 {
		return nil, nil
	}

	results := make(chan string, len(group))
	for name, svc := range group {
		name, svc := name, svc
		go func() {
			<-svc.RequestShutdown()
			results <- name
		}()
	}

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	ackedSet := make(map[string]bool, len(group))
	remaining := len(group)
	for remaining > 0 {
		select {
		case name := <-results:
			ackedSet[name] = true
			acked = append(acked, name)
			remaining--
		case <-timer.C:
			remaining = 0
		}
	}
	for name := range group {
		if !ackedSet[name] {
			timedOut = append(timedOut, name)
		}
	}
	return acked, timedOut
}

// Shutdown stops every supervised service in reverse dependency order —
// admin server and supervisor loop first (so nothing is mid-restart while
// services are torn down), then health checks, metrics, targets, the
// Engine, then the level switch — honoring a single deadline shared
// across the whole call instead of giving each service the full
// timeoutSeconds in turn (spec §4.4 "shutdown" operation, spec §9 design
// note 2).
func (r *Registry) Shutdown(timeoutSeconds float64) core.ShutdownInfo {
	if r.adminServer != nil {
		_ = r.adminServer.Shutdown(context.Background())
	}
	close(r.supervisorDone)
	<-r.supervisorStopped

	deadline := time.Now()
	if timeoutSeconds > 0 {
		deadline = deadline.Add(time.Duration(timeoutSeconds * float64(time.Second)))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var info core.ShutdownInfo

	hcAcked, hcTimedOut := shutdownGroup(deadline, r.healthChecks)
	info.Acks = append(info.Acks, hcAcked...)
	info.Timeouts = append(info.Timeouts, hcTimedOut...)

	mAcked, mTimedOut := shutdownGroup(deadline, r.metricSinks)
	info.Acks = append(info.Acks, mAcked...)
	info.Timeouts = append(info.Timeouts, mTimedOut...)

	tAcked, tTimedOut := shutdownGroup(deadline, r.targets)
	info.Acks = append(info.Acks, tAcked...)
	info.Timeouts = append(info.Timeouts, tTimedOut...)

	r.eng.Shutdown()
	r.levels.Shutdown()

	return info
}

// shutdownAll is used during a failed Build to tear down whatever had
// already started, without bothering to collect a ShutdownInfo nobody
// will see. It runs before the supervisor loop is ever started, so there
// is nothing to stop here.
func (r *Registry) shutdownAll(timeoutSeconds float64) {
	if r.adminServer != nil {
		_ = r.adminServer.Shutdown(context.Background())
	}
	for _, p := range r.healthChecks {
		_ = p.Shutdown(timeoutSeconds)
	}
	for _, m := range r.metricSinks {
		_ = m.Shutdown(timeoutSeconds)
	}
	for _, t := range r.targets {
		_ = t.Shutdown(timeoutSeconds)
	}
	r.eng.Shutdown()
	r.levels.Shutdown()
}
