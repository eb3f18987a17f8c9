package registry

import (
	"github.com/willibrandon/logary/core"
	"github.com/willibrandon/logary/internal/engine"
	"github.com/willibrandon/logary/internal/globals"
)

// pointLogger is the concrete core.Logger every call site receives from
// the Registry. It filters against the process-wide level threshold
// (internal/globals, generalized from the teacher's LoggingLevelSwitch),
// stamps the message's Name, runs the registry's global middleware chain,
// and hands the result to the Engine.
type pointLogger struct {
	name       core.PointName
	eng        *engine.Engine
	levels     *globals.Service[core.LogLevel]
	middleware core.Middleware
}

var _ core.Logger = (*pointLogger)(nil)

func newPointLogger(name core.PointName, eng *engine.Engine, levels *globals.Service[core.LogLevel], mw core.Middleware) *pointLogger {
	if mw == nil {
		mw = func(m core.Message) core.Message { return m }
	}
	return &pointLogger{name: name, eng: eng, levels: levels, middleware: mw}
}

func (l *pointLogger) Name() core.PointName { return l.name }

func (l *pointLogger) Level() core.LogLevel { return l.levels.Get() }

func (l *pointLogger) Log(level core.LogLevel, factory core.MessageFactory) error {
	if level < l.levels.Get() {
		return nil
	}
	return l.eng.Log(level, l.wrap(factory))
}

func (l *pointLogger) LogWithAck(level core.LogLevel, factory core.MessageFactory) <-chan core.Ack {
	if level < l.levels.Get() {
		ack := make(chan core.Ack, 1)
		ack <- nil
		return ack
	}
	return l.eng.LogWithAck(level, l.wrap(factory))
}

func (l *pointLogger) wrap(factory core.MessageFactory) core.MessageFactory {
	return func() core.Message {
		m := factory()
		m.Name = l.name
		return l.middleware(m)
	}
}
