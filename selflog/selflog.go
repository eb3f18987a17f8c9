// Package selflog provides internal diagnostic logging for logary itself.
//
// When enabled, selflog captures internal conditions (dropped messages,
// recovered panics, faulted services) that the core's error-handling
// design (spec §7) deliberately swallows rather than propagating to
// application code. This is the same escape hatch the teacher library
// ships, rebuilt on zerolog for structured, leveled output instead of a
// bare fmt.Fprintln line.
//
// Enable to stderr:
//
//	selflog.Enable(os.Stderr)
//	defer selflog.Disable()
//
// Or set LOGARY_SELFLOG to "stderr", "stdout", or a file path to enable
// automatically when the package is initialized.
package selflog

import (
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var (
	mu      sync.Mutex
	logger  zerolog.Logger
	enabled atomic.Bool
)

// Enable activates self-logging to the provided writer. The writer
// should be safe for concurrent use (wrap with zerolog.SyncWriter if not).
func Enable(w io.Writer) {
	if w == nil {
		return
	}
	mu.Lock()
	logger = zerolog.New(w).With().Timestamp().Logger()
	mu.Unlock()
	enabled.Store(true)
}

// Disable deactivates self-logging.
func Disable() {
	enabled.Store(false)
}

// IsEnabled reports whether selflog output is currently active.
func IsEnabled() bool {
	return enabled.Load()
}

// Printf logs a diagnostic message. The format string should name the
// component in square brackets, e.g. "[engine] dropped message: %s".
func Printf(format string, args ...any) {
	if !enabled.Load() {
		return
	}
	mu.Lock()
	l := logger
	mu.Unlock()
	l.Warn().Msgf(format, args...)
}

func init() {
	switch v := os.Getenv("LOGARY_SELFLOG"); v {
	case "":
		// disabled by default
	case "stderr":
		Enable(os.Stderr)
	case "stdout":
		Enable(os.Stdout)
	default:
		if f, err := os.OpenFile(v, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err == nil {
			Enable(zerolog.SyncWriter(f))
		}
	}
}
