package span

import (
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/logary/core"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock(start time.Time) *manualClock { return &manualClock{now: start} }

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingLogger struct {
	mu       sync.Mutex
	messages []core.Message
}

func (l *recordingLogger) Name() core.PointName { return core.NewPointName("test") }
func (l *recordingLogger) Level() core.LogLevel { return core.Verbose }
func (l *recordingLogger) Log(level core.LogLevel, factory core.MessageFactory) error {
	<-l.LogWithAck(level, factory)
	return nil
}
func (l *recordingLogger) LogWithAck(level core.LogLevel, factory core.MessageFactory) <-chan core.Ack {
	m := factory()
	l.mu.Lock()
	l.messages = append(l.messages, m)
	l.mu.Unlock()
	ack := make(chan core.Ack, 1)
	ack <- nil
	return ack
}

// Scenario 4 (spec §8): span ID hierarchy.
func TestSpanIDHierarchy(t *testing.T) {
	gen := NewIDGenerator("h", "s")
	logger := &recordingLogger{}
	clock := newManualClock(time.Unix(0, 0))

	root := New(core.NewPointName("op"), logger, clock, gen, "")
	assert.Regexp(t, regexp.MustCompile(`^#h-s\.[0-9a-f]+$`), root.ID())

	child := root.NewChild(core.NewPointName("op", "child"))
	assert.True(t, len(child.ID()) > len(root.ID()))
	assert.Equal(t, root.ID()+".", child.ID()[:len(root.ID())+1])
	// exactly one additional segment
	assert.Equal(t, 1, countExtraSegments(root.ID(), child.ID()))
}

func countExtraSegments(parent, child string) int {
	rest := child[len(parent):]
	count := 0
	for _, r := range rest {
		if r == '.' {
			count++
		}
	}
	return count
}

// Invariant (spec §8): finish invoked n>=1 times emits exactly one
// message with duration >= 0.
func TestSpanFinishEmitsExactlyOnce(t *testing.T) {
	gen := NewIDGenerator("h", "s")
	logger := &recordingLogger{}
	clock := newManualClock(time.Unix(100, 0))

	sp := New(core.NewPointName("op"), logger, clock, gen, "")
	clock.Advance(5 * time.Millisecond)

	require.NoError(t, <-sp.Finish(func(m core.Message) core.Message { return m }))
	require.NoError(t, <-sp.Finish(func(m core.Message) core.Message { return m }))
	require.NoError(t, <-sp.Finish(func(m core.Message) core.Message { return m }))

	logger.mu.Lock()
	defer logger.mu.Unlock()
	require.Len(t, logger.messages, 1)

	infoVal := logger.messages[0].Context[core.ContextSpanInfo]
	obj, ok := infoVal.AsObject()
	require.True(t, ok)
	dur, ok := obj["duration"].AsInt64()
	require.True(t, ok)
	assert.GreaterOrEqual(t, dur, int64(0))

	spanID, ok := logger.messages[0].Context[core.ContextSpanID].AsString()
	require.True(t, ok)
	assert.Equal(t, sp.ID(), spanID)
}

// Boundary behavior (spec §8): generate(""), generate("   ") equivalent.
func TestGenerateNormalizesEmptyAndWhitespaceParent(t *testing.T) {
	gen := NewIDGenerator("h", "s")
	a := gen.Generate("")
	b := gen.Generate("   ")
	// Both draw from the same (root) counter, so they're sequential, not
	// equal, but share the same local-prefix base.
	assert.Equal(t, a[:strings.LastIndexByte(a, '.')], b[:strings.LastIndexByte(b, '.')])
}

// Invariant (spec §8): k concurrent generate(p) calls yield k distinct IDs.
func TestGenerateConcurrentDistinctIDs(t *testing.T) {
	gen := NewIDGenerator("h", "s")
	const k = 200
	ids := make([]string, k)
	var wg sync.WaitGroup
	for i := 0; i < k; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids[i] = gen.Generate("parent")
		}()
	}
	wg.Wait()

	seen := make(map[string]bool, k)
	for _, id := range ids {
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
