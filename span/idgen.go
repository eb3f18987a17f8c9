// Package span implements the scoped tracing primitive specified in
// spec §4.3: Span and SpanIdGenerator. It is grounded on
// adapters/sentry/performance.go's StartSpan/Finish closure idiom and the
// DataDog tracer's Span field layout (other_examples), generalized to the
// spec's ID format and idempotent-finish requirements.
package span

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// IDGenerator allocates span IDs of the form
// "#{host}-{service}.{hex}[.{hex}]*" (spec §4.3). Root spans get the
// local prefix plus one counter segment; child spans append a further
// ".{hex}" segment, reusing the parent's local prefix if it already
// carries one so IDs stay readable across process boundaries.
//
// Counter allocation is a concurrent map keyed by normalized parent ID
// (trimmed; nil/empty normalized to "") holding an atomically
// incremented 64-bit counter; overflow wraps silently (documented here,
// per spec §4.3's "implementers must document the wrap behavior").
type IDGenerator struct {
	host    string
	service string

	mu       sync.Mutex
	counters map[string]*uint64
}

// NewIDGenerator builds a generator for the given host/service pair; both
// are embedded verbatim in every ID this generator produces.
func NewIDGenerator(host, service string) *IDGenerator {
	return &IDGenerator{
		host:     host,
		service:  service,
		counters: make(map[string]*uint64),
	}
}

func (g *IDGenerator) localPrefix() string {
	return fmt.Sprintf("#%s-%s", g.host, g.service)
}

// normalize implements spec §8's boundary behavior: generate(nil),
// generate(""), and generate("   ") are equivalent.
func normalize(parentID string) string {
	return strings.TrimSpace(parentID)
}

func (g *IDGenerator) counterFor(key string) *uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.counters[key]
	if !ok {
		c = new(uint64)
		g.counters[key] = c
	}
	return c
}

// Generate atomically increments the counter associated with parentID
// (after normalization) and returns a newly constructed, unique-within-
// that-parent ID.
//
// Root spans (parentID == "") get "{localPrefix}.{hex}". Child spans
// whose parentID already contains this generator's local prefix reuse it
// as the base (enabling cross-process propagation while preserving
// locality); otherwise the local prefix is prepended to the parent ID
// before appending the new counter segment.
func (g *IDGenerator) Generate(parentID string) string {
	key := normalize(parentID)
	counter := atomic.AddUint64(g.counterFor(key), 1)

	if key == "" {
		return fmt.Sprintf("%s.%x", g.localPrefix(), counter)
	}

	base := key
	if !strings.Contains(key, g.localPrefix()) {
		base = g.localPrefix() + key
	}
	return fmt.Sprintf("%s.%x", base, counter)
}

// release drops the counter entry for parentID; called from Span.finish
// once a span completes, per spec §4.3's lifecycle ("finish... removes
// the counter entry").
func (g *IDGenerator) release(parentID string) {
	key := normalize(parentID)
	g.mu.Lock()
	delete(g.counters, key)
	g.mu.Unlock()
}
