// Package stats counts what the compiler, the evaluators and the searchers do.
// Counters go through an explicit Collector handed to each component.
package stats

import (
	"fmt"
	"sync/atomic"
)

type Counter uint8

const (
	// Evaluator
	Writes Counter = iota
	NoopWrites
	DirtyMarks
	Recomputes
	CacheHits

	// Compiler
	OptimizationPasses
	ComponentsRemoved
	ComponentsRewired
	GatesFactored
	CompileNanos

	// State machine and search
	Playouts
	PlayoutMoves
	Episodes

	NumCounters
)

var names = [NumCounters]string{
	Writes:             "writes",
	NoopWrites:         "noop_writes",
	DirtyMarks:         "dirty_marks",
	Recomputes:         "recomputes",
	CacheHits:          "cache_hits",
	OptimizationPasses: "optimization_passes",
	ComponentsRemoved:  "components_removed",
	ComponentsRewired:  "components_rewired",
	GatesFactored:      "gates_factored",
	CompileNanos:       "compile_nanos",
	Playouts:           "playouts",
	PlayoutMoves:       "playout_moves",
	Episodes:           "episodes",
}

func (c Counter) String() string {
	if c < NumCounters {
		return names[c]
	}
	return fmt.Sprintf("counter(%d)", c)
}

// Snapshot is a point in time copy of every counter.
type Snapshot [NumCounters]int64

func (s Snapshot) Get(c Counter) int64 {
	return s[c]
}

// Sub returns the counts accumulated since an earlier snapshot.
func (s Snapshot) Sub(earlier Snapshot) Snapshot {
	for i := range s {
		s[i] -= earlier[i]
	}
	return s
}

type Collector interface {
	Add(c Counter, delta int64)
	Snapshot() Snapshot
}

type collector struct {
	counts [NumCounters]atomic.Int64
}

// NewCollector returns a collector safe for concurrent use.
func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Add(c Counter, delta int64) {
	m.counts[c].Add(delta)
}

func (m *collector) Snapshot() Snapshot {
	var s Snapshot
	for i := range m.counts {
		s[i] = m.counts[i].Load()
	}
	return s
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return dummyCollector{}
}

func (dummyCollector) Add(Counter, int64) {}
func (dummyCollector) Snapshot() Snapshot { return Snapshot{} }

// OrDummy returns c, or a dummy collector when c is nil.
func OrDummy(c Collector) Collector {
	if c == nil {
		return NewDummyCollector()
	}
	return c
}
