package selflog

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisabledByDefault(t *testing.T) {
	Disable()
	assert.False(t, IsEnabled())
}

func TestEnablePrintsToWriter(t *testing.T) {
	var buf bytes.Buffer
	Enable(&buf)
	defer Disable()

	assert.True(t, IsEnabled())
	Printf("[test] hello %s", "world")
	assert.Contains(t, buf.String(), "hello world")
}

func TestDisableStopsOutput(t *testing.T) {
	var buf bytes.Buffer
	Enable(&buf)
	Disable()

	Printf("[test] should not appear")
	assert.Empty(t, buf.String())
}
