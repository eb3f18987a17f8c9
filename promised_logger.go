package logary

import "github.com/willibrandon/logary/core"

// promisedLogger is the Logger proxy handed back by
// LogManager.GetLoggerSync: usable immediately, before the manager's
// Registry has finished spawning. Calls made before the real logger
// resolves are queued (bounded by the manager's promiseSlots semaphore)
// and replayed against it once it's ready; calls made after resolution go
// straight through.
type promisedLogger struct {
	manager  *LogManager
	name     core.PointName
	callSite []core.Middleware
}

var _ core.Logger = (*promisedLogger)(nil)

func (p *promisedLogger) Name() core.PointName { return p.name }

// Level reports Verbose until the manager resolves, since the real
// threshold isn't known yet and under-filtering is the safer default for
// a handful of early log calls.
func (p *promisedLogger) Level() core.LogLevel {
	select {
	case <-p.manager.ready:
		logger, err := p.manager.resolvedLoggerFor(p.name, p.callSite...)
		if err != nil {
			return core.Verbose
		}
		return logger.Level()
	default:
		return core.Verbose
	}
}

func (p *promisedLogger) Log(level core.LogLevel, factory core.MessageFactory) error {
	select {
	case <-p.manager.ready:
		logger, err := p.manager.resolvedLoggerFor(p.name, p.callSite...)
		if err != nil {
			return err
		}
		return logger.Log(level, factory)
	default:
	}

	select {
	case p.manager.promiseSlots <- struct{}{}:
		go func() {
			defer func() { <-p.manager.promiseSlots }()
			<-p.manager.ready
			if logger, err := p.manager.resolvedLoggerFor(p.name, p.callSite...); err == nil {
				_ = logger.Log(level, factory)
			}
		}()
		return nil
	default:
		return core.ErrBufferFull
	}
}

func (p *promisedLogger) LogWithAck(level core.LogLevel, factory core.MessageFactory) <-chan core.Ack {
	ack := make(chan core.Ack, 1)

	select {
	case <-p.manager.ready:
		logger, err := p.manager.resolvedLoggerFor(p.name, p.callSite...)
		if err != nil {
			ack <- err
			return ack
		}
		return logger.LogWithAck(level, factory)
	default:
	}

	select {
	case p.manager.promiseSlots <- struct{}{}:
		go func() {
			defer func() { <-p.manager.promiseSlots }()
			<-p.manager.ready
			logger, err := p.manager.resolvedLoggerFor(p.name, p.callSite...)
			if err != nil {
				ack <- err
				return
			}
			ack <- <-logger.LogWithAck(level, factory)
		}()
	default:
		ack <- core.ErrBufferFull
	}
	return ack
}
