// Package evaluator computes propnet values incrementally.
//
// Every component caches its value and a dirty flag. Writing a stored
// proposition marks what may have changed, and reads recompute only dirty
// components. And and Or gates remember the input that decided them, a FALSE
// input of an And or a TRUE input of an Or, so changes to their other inputs
// need not propagate. Values always equal a full evaluation of the net.
//
// An Evaluator is single-writer. Clones share the frozen net and own their
// values, so parallel workers each use their own clone.
package evaluator

import (
	"fmt"

	"ggp/propnet"
	"ggp/stats"

	"golang.org/x/exp/slices"
)

type Option func(e *Evaluator)

// WithStats reports writes, dirty marks and recomputations to collector when
// Flush is called.
func WithStats(collector stats.Collector) Option {
	return func(e *Evaluator) {
		if collector != nil {
			e.stats = collector
		}
	}
}

type Evaluator struct {
	net    *propnet.PropNet
	kinds  []propnet.Kind
	stored []bool
	consts []bool

	// inputs is each gate's evaluation order. Slices are shared with the net
	// and with clones until owned is set.
	inputs [][]propnet.ID
	owned  []bool

	value    []bool
	dirty    []bool
	decisive []propnet.ID
	hits     []uint32

	stack  []frame
	counts stats.Snapshot
	stats  stats.Collector
}

type frame struct {
	id, source propnet.ID
}

// New returns an evaluator with every stored proposition FALSE.
func New(net *propnet.PropNet, options ...Option) (*Evaluator, error) {
	if !net.Frozen() {
		return nil, propnet.ErrNotFrozen
	}
	n := net.Len()
	e := &Evaluator{
		net:      net,
		kinds:    make([]propnet.Kind, n),
		stored:   make([]bool, n),
		consts:   make([]bool, n),
		inputs:   make([][]propnet.ID, n),
		owned:    make([]bool, n),
		value:    make([]bool, n),
		dirty:    make([]bool, n),
		decisive: make([]propnet.ID, n),
		hits:     make([]uint32, n),
		stats:    stats.NewDummyCollector(),
	}
	for _, option := range options {
		option(e)
	}
	for i := 0; i < n; i++ {
		id := propnet.ID(i)
		c := net.Component(id)
		e.kinds[i] = c.Kind
		e.stored[i] = net.Stored(id)
		e.consts[i] = c.Kind == propnet.Constant && c.Value
		e.inputs[i] = c.Inputs
	}
	e.Reset(true)
	return e, nil
}

func (e *Evaluator) Net() *propnet.PropNet {
	return e.net
}

// Stored reports whether id is written by SetValue rather than computed.
func (e *Evaluator) Stored(id propnet.ID) bool {
	return e.stored[id]
}

func (e *Evaluator) Dirty(id propnet.ID) bool {
	return e.dirty[id]
}

// Reset forgets every decisive input and marks every computed component
// dirty. With clear, stored propositions are set FALSE as well.
func (e *Evaluator) Reset(clear bool) {
	for i := range e.value {
		e.decisive[i] = propnet.None
		switch {
		case e.kinds[i] == propnet.Constant:
			e.value[i] = e.consts[i]
			e.dirty[i] = false
		case e.stored[i]:
			if clear {
				e.value[i] = false
			}
			e.dirty[i] = false
		default:
			e.dirty[i] = true
		}
	}
}

// SetValue writes a stored proposition. Writing a computed component is a
// programming error and panics.
func (e *Evaluator) SetValue(id propnet.ID, v bool) {
	if !e.stored[id] {
		panic(fmt.Sprintf("evaluator: %s is not a stored proposition", e.net.Component(id)))
	}
	e.counts[stats.Writes]++
	if e.value[id] == v {
		e.counts[stats.NoopWrites]++
		return
	}
	e.value[id] = v
	for _, out := range e.net.Outputs(id) {
		e.setDirty(out, id)
	}
}

// setDirty marks id dirty because source may have changed, then its outputs.
// A gate decided by another input keeps its value. A gate whose deciding input
// changed first looks for another clean input that decides it.
func (e *Evaluator) setDirty(id, source propnet.ID) {
	stack := append(e.stack[:0], frame{id, source})
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		id := f.id
		if e.dirty[id] {
			continue
		}

		switch e.kinds[id] {
		case propnet.Transition:
			e.dirty[id] = true
			e.counts[stats.DirtyMarks]++
			continue
		case propnet.And, propnet.Or:
			if d := e.decisive[id]; d != propnet.None {
				if d != f.source {
					continue
				}
				if e.refind(id, d) {
					continue
				}
				e.decisive[id] = propnet.None
			}
		}

		e.dirty[id] = true
		e.counts[stats.DirtyMarks]++
		for _, out := range e.net.Outputs(id) {
			stack = append(stack, frame{out, id})
		}
	}
	e.stack = stack
}

// refind looks for a clean input other than old that decides gate id.
func (e *Evaluator) refind(id, old propnet.ID) bool {
	want := e.kinds[id] == propnet.Or
	for _, in := range e.inputs[id] {
		if in != old && !e.dirty[in] && e.value[in] == want {
			e.decisive[id] = in
			return true
		}
	}
	return false
}

// Value returns the value of any component, recomputing it if dirty.
func (e *Evaluator) Value(id propnet.ID) bool {
	if !e.dirty[id] {
		e.counts[stats.CacheHits]++
		return e.value[id]
	}
	e.counts[stats.Recomputes]++

	var v bool
	switch e.kinds[id] {
	case propnet.And, propnet.Or:
		v = e.gate(id)
	case propnet.Not:
		v = !e.Value(e.inputs[id][0])
	default:
		v = e.Value(e.inputs[id][0])
	}
	e.value[id] = v
	e.dirty[id] = false
	return v
}

// gate evaluates an And or Or, trying the clean inputs before forcing the
// dirty ones.
func (e *Evaluator) gate(id propnet.ID) bool {
	want := e.kinds[id] == propnet.Or
	inputs := e.inputs[id]
	for _, in := range inputs {
		if !e.dirty[in] && e.value[in] == want {
			e.decide(id, in)
			return want
		}
	}
	for _, in := range inputs {
		if e.dirty[in] && e.Value(in) == want {
			e.decide(id, in)
			return want
		}
	}
	e.decisive[id] = propnet.None
	return !want
}

func (e *Evaluator) decide(id, in propnet.ID) {
	e.decisive[id] = in
	e.hits[in]++
}

// OptimizeInputOrder sorts the inputs of every gate so that the inputs that
// decided it most often come first. Call it between moves.
func (e *Evaluator) OptimizeInputOrder() {
	for i, kind := range e.kinds {
		if kind != propnet.And && kind != propnet.Or || len(e.inputs[i]) < 2 {
			continue
		}
		if !e.owned[i] {
			e.inputs[i] = slices.Clone(e.inputs[i])
			e.owned[i] = true
		}
		slices.SortStableFunc(e.inputs[i], func(a, b propnet.ID) int {
			switch {
			case e.hits[a] > e.hits[b]:
				return -1
			case e.hits[a] < e.hits[b]:
				return 1
			}
			return 0
		})
	}
}

// Inputs returns the evaluation order of a gate's inputs.
func (e *Evaluator) Inputs(id propnet.ID) []propnet.ID {
	return e.inputs[id]
}

// Clone returns an evaluator with the same values over the same net. Input
// orders are shared until either side reorders them; success counters start
// from zero.
func (e *Evaluator) Clone() *Evaluator {
	n := len(e.value)
	c := &Evaluator{
		net:      e.net,
		kinds:    e.kinds,
		stored:   e.stored,
		consts:   e.consts,
		inputs:   slices.Clone(e.inputs),
		owned:    make([]bool, n),
		value:    slices.Clone(e.value),
		dirty:    slices.Clone(e.dirty),
		decisive: slices.Clone(e.decisive),
		hits:     make([]uint32, n),
		stats:    e.stats,
	}
	for i := range e.owned {
		e.owned[i] = false
	}
	return c
}

// Flush adds the counts since the last flush to the collector.
func (e *Evaluator) Flush() {
	for c, n := range e.counts {
		if n != 0 {
			e.stats.Add(stats.Counter(c), n)
		}
	}
	e.counts = stats.Snapshot{}
}
