package testutil

import (
	"strconv"
	"sync"
)

// ScriptedGenerator returns a fixed list of operation IDs, then falls back
// to "<fallback>-N" once the list is used up.
//
// This lets a test name the operations it cares about:
//
//	ids := testutil.NewScriptedGenerator("first", "second")
//	c := collection.New("items", collection.WithIDGenerator(ids))
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ScriptedGenerator struct {
	mu       sync.Mutex
	ids      []string
	next     int
	fallback string
}

// NewScriptedGenerator creates a generator returning ids in order. The
// fallback prefix is "extra".
func NewScriptedGenerator(ids ...string) *ScriptedGenerator {
	return &ScriptedGenerator{ids: ids, fallback: "extra"}
}

// Generate implements collection.IDGenerator.
func (g *ScriptedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	if g.next <= len(g.ids) {
		return g.ids[g.next-1]
	}
	return g.fallback + "-" + strconv.Itoa(g.next-len(g.ids))
}

// Reset restarts the script for test reuse.
func (g *ScriptedGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next = 0
}
