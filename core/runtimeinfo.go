package core

import (
	"time"

	"github.com/google/uuid"
)

// Clock abstracts the current instant so spans and messages can be tested
// deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock is the Clock backed by the host's wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// RuntimeInfo is immutable after Registry creation and describes the
// process the Registry runs in.
type RuntimeInfo struct {
	Service string
	Host    string
	Clock   Clock

	// Logger is the internal logger the library uses to log about itself
	// (supervision faults, dropped messages, ...), not an application logger.
	Logger Logger

	// InstanceID is a random per-RuntimeInfo identifier that callers can
	// use to tell runs of the same service/host pair apart; it carries no
	// meaning in the message wire format, and the library does not log it.
	InstanceID uuid.UUID
}

// NewRuntimeInfo constructs a RuntimeInfo with a freshly generated
// InstanceID and the system clock.
func NewRuntimeInfo(service, host string, logger Logger) RuntimeInfo {
	return RuntimeInfo{
		Service:    service,
		Host:       host,
		Clock:      SystemClock{},
		Logger:     logger,
		InstanceID: uuid.New(),
	}
}
