package registry

import (
	"context"
	"time"

	"github.com/willibrandon/logary/core"
)

// flushable is the capability Flush's fan-out needs from a target/metric
// sink: enqueue a flush barrier and hand back a channel that closes once
// it's been reached.
type flushable interface {
	RequestFlush() <-chan struct{}
}

// Flush broadcasts a flush barrier to every target and metric sink and
// selects across all of their replies against a single shared deadline,
// rather than waiting the full timeout on each in turn (spec §4.4
// "flush"; spec §9 design note 2: request/reply broadcast with one shared
// deadline timer). ctx carries the caller's nack (spec.md:175): cancelling
// it aborts the wait immediately, same as the deadline elapsing, and
// whatever hasn't acked by then is reported in FlushInfo.Timeouts.
//
// A zero or negative timeoutSeconds is treated as already expired: every
// target/metric is reported as timed out without enqueuing a barrier or
// waiting at all (spec.md:229).
func (r *Registry) Flush(ctx context.Context, timeoutSeconds float64) core.FlushInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var info core.FlushInfo

	if timeoutSeconds <= 0 {
		for name := range r.targets {
			info.Timeouts = append(info.Timeouts, name)
		}
		for name := range r.metricSinks {
			info.Timeouts = append(info.Timeouts, name)
		}
		return info
	}

	names := make([]string, 0, len(r.targets)+len(r.metricSinks))
	results := make(chan string, len(r.targets)+len(r.metricSinks))
	start := func(name string, svc flushable) {
		names = append(names, name)
		go func() {
			<-svc.RequestFlush()
			results <- name
		}()
	}
	for name, t := range r.targets {
		start(name, t)
	}
	for name, m := range r.metricSinks {
		start(name, m)
	}

	timer := time.NewTimer(time.Duration(timeoutSeconds * float64(time.Second)))
	defer timer.Stop()

	acked := make(map[string]bool, len(names))
	remaining := len(names)
	for remaining > 0 {
		select {
		case name := <-results:
			acked[name] = true
			info.Acks = append(info.Acks, name)
			remaining--
		case <-timer.C:
			remaining = 0
		case <-ctx.Done():
			remaining = 0
		}
	}
	for _, name := range names {
		if !acked[name] {
			info.Timeouts = append(info.Timeouts, name)
		}
	}
	return info
}
