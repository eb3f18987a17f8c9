// Package globals implements the process-wide configuration cell with an
// explicit pause/resume/shutdown lifecycle (spec §4.5). It is grounded on
// the teacher's LoggingLevelSwitch (an atomically swappable int32 cell,
// levelswitch.go), generalized from a single level to an arbitrary T and
// extended with the pause/resume/restore-previous state machine the
// teacher has no equivalent of — built the same channel-actor way as the
// Engine (spec §5).
package globals

// Service is a single-writer, many-reader cell holding the current
// process-wide configuration T. init installs an initial value; pause
// re-installs the value that preceded the last Install (resume re-installs
// the last Install's value); shutdown re-installs that preceding value one
// last time and terminates.
type Service[T any] struct {
	getCh      chan chan T
	installCh  chan installReq[T]
	pauseCh    chan chan struct{}
	resumeCh   chan chan struct{}
	shutdownCh chan chan struct{}
	stopped    chan struct{}
	final      T // visible value at shutdown; written before stopped closes
}

type installReq[T any] struct {
	value T
	reply chan struct{}
}

// New starts a globals Service initialized to current.
func New[T any](current T) *Service[T] {
	s := &Service[T]{
		getCh:      make(chan chan T),
		installCh:  make(chan installReq[T]),
		pauseCh:    make(chan chan struct{}),
		resumeCh:   make(chan chan struct{}),
		shutdownCh: make(chan chan struct{}),
		stopped:    make(chan struct{}),
	}
	go s.run(current)
	return s
}

// Get returns the currently installed configuration. After Shutdown it
// returns the configuration Shutdown re-installed.
func (s *Service[T]) Get() T {
	reply := make(chan T, 1)
	select {
	case s.getCh <- reply:
		return <-reply
	case <-s.stopped:
		return s.final
	}
}

// Install replaces the "new" configuration (the value restored on
// Resume). It does not itself pause/resume anything.
func (s *Service[T]) Install(value T) {
	reply := make(chan struct{})
	select {
	case s.installCh <- installReq[T]{value: value, reply: reply}:
		<-reply
	case <-s.stopped:
	}
}

// Pause re-installs the configuration that was visible before the last
// Install, so nested temporary reconfiguration (e.g. a test harness)
// doesn't lose the prior global state.
func (s *Service[T]) Pause() {
	reply := make(chan struct{})
	select {
	case s.pauseCh <- reply:
		<-reply
	case <-s.stopped:
	}
}

// Resume re-installs the "new" configuration captured at the last
// Install.
func (s *Service[T]) Resume() {
	reply := make(chan struct{})
	select {
	case s.resumeCh <- reply:
		<-reply
	case <-s.stopped:
	}
}

// Shutdown re-installs the configuration that was visible before the last
// Install one final time and stops the service.
func (s *Service[T]) Shutdown() {
	reply := make(chan struct{})
	select {
	case s.shutdownCh <- reply:
		<-reply
	case <-s.stopped:
	}
}

// run tracks two labeled values — newVal (the most recently installed
// configuration) and prevVal (whatever was visible right before that
// install) — and a single bit recording which one is currently visible.
// Pause/Resume only flip that bit; they never relabel newVal/prevVal, so
// a shutdown that arrives while paused still "re-installs previous" in
// the sense spec §4.5 means (the configuration that predates the last
// Install), not whatever happened to be visible a moment ago.
func (s *Service[T]) run(initial T) {
	var newVal, prevVal T
	newVal = initial
	usingPrevious := false

	visible := func() T {
		if usingPrevious {
			return prevVal
		}
		return newVal
	}

	for {
		select {
		case reply := <-s.getCh:
			reply <- visible()

		case req := <-s.installCh:
			prevVal = visible()
			newVal = req.value
			usingPrevious = false
			close(req.reply)

		case reply := <-s.pauseCh:
			usingPrevious = true
			close(reply)

		case reply := <-s.resumeCh:
			usingPrevious = false
			close(reply)

		case reply := <-s.shutdownCh:
			usingPrevious = true
			s.final = visible()
			close(reply)
			close(s.stopped)
			return
		}
	}
}
