// Package testutil provides deterministic test doubles shared across
// packages.
package testutil

import (
	"fmt"
	"sync"
)

// SequenceIDGenerator returns numbered eval IDs ("eval-0001",
// "eval-0002", ...). This enables deterministic test execution and
// golden snapshot comparison: the same scenario produces byte-identical
// match events.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequenceIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceIDGenerator creates a generator with the given prefix.
// An empty prefix defaults to "eval".
func NewSequenceIDGenerator(prefix string) *SequenceIDGenerator {
	if prefix == "" {
		prefix = "eval"
	}
	return &SequenceIDGenerator{prefix: prefix}
}

// Generate returns the next numbered ID.
//
// Implements engine.EvalIDGenerator.
func (g *SequenceIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// Reset restarts the sequence. After Reset the next Generate returns
// "<prefix>-0001" again.
func (g *SequenceIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
