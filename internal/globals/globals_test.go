package globals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Scenario 5 (spec §8): install A, pause -> resolves prior config, resume
// -> resolves A again, shutdown -> resolves prior config.
func TestPauseResumeShutdownRestoresPrevious(t *testing.T) {
	g := New("prior")
	defer g.Shutdown()

	assert.Equal(t, "prior", g.Get())

	g.Install("A")
	assert.Equal(t, "A", g.Get())

	g.Pause()
	assert.Equal(t, "prior", g.Get())

	g.Resume()
	assert.Equal(t, "A", g.Get())

	g.Shutdown()
	assert.Equal(t, "prior", g.Get())
}

func TestNestedInstallDuringPauseTracksNewPrevious(t *testing.T) {
	g := New("v0")
	defer g.Shutdown()

	g.Install("v1")
	g.Pause()
	assert.Equal(t, "v0", g.Get())

	// Installing while paused defines a fresh new/previous pair relative
	// to whatever is currently visible (v0), per the "init" transition.
	g.Install("v2")
	assert.Equal(t, "v2", g.Get())

	g.Pause()
	assert.Equal(t, "v0", g.Get())

	g.Resume()
	assert.Equal(t, "v2", g.Get())
}

func TestGetAfterShutdownStillResponds(t *testing.T) {
	g := New(42)
	g.Install(7)
	g.Shutdown()
	// Shutdown leaves the service stopped; Get on a stopped service
	// returns the configuration Shutdown re-installed (the one before the
	// last Install) rather than blocking forever.
	assert.Equal(t, 42, g.Get())
}
