package core

// MessageFactory produces a Message lazily. It must be invoked at most
// once, and only when the enclosing level passes the logger's filter —
// callers must never evaluate a factory for a filtered-out level.
type MessageFactory func() Message

// Ack is delivered on the channel returned by Logger.LogWithAck once the
// message has been accepted by the Engine (i.e. has passed the processing
// function), not once targets have written it. A nil Ack means success;
// a non-nil error reports why the message was not accepted (e.g. the
// owning Registry has shut down).
type Ack = error

// Logger is the client-facing capability applications hold to emit
// messages. Implementations must not invoke the MessageFactory for a
// level below Level().
type Logger interface {
	// Name is the PointName this logger was obtained for.
	Name() PointName

	// Level is the minimum level this logger admits.
	Level() LogLevel

	// Log enqueues a message without waiting for target acknowledgement.
	// It returns ErrBufferFull only when a bounded ingress is configured
	// and saturated; callers treat a non-nil error as a drop signal.
	Log(level LogLevel, factory MessageFactory) error

	// LogWithAck enqueues a message and returns a channel that receives
	// exactly one Ack once the message has been accepted by the Engine.
	LogWithAck(level LogLevel, factory MessageFactory) <-chan Ack
}
