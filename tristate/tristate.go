// Package tristate proves latches: base propositions that keep a value once
// they have it.
//
// The analyzer copies the topology of a crystallized net and gives every
// component one slot per synthetic turn, each TRUE, FALSE or UNKNOWN. To prove
// that P latches to v it assumes the opposite transition, P = v in turn 0 and
// P = !v in turn 1, and propagates forwards and backwards. A slot forced to
// both values refutes the assumption. Anything else is inconclusive, which is
// never a proof of the opposite.
//
// The INIT proposition is assumed FALSE in every turn. Turns after the initial
// state are exactly those, so latches that only hold because of the initial
// state are missed rather than wrongly reported.
package tristate

import (
	"ggp/propnet"
)

// Value is the tri-state value of one slot.
type Value uint8

const (
	Unknown Value = iota
	True
	False
)

func valueOf(b bool) Value {
	if b {
		return True
	}
	return False
}

func (v Value) not() Value {
	switch v {
	case True:
		return False
	case False:
		return True
	}
	return Unknown
}

func (v Value) String() string {
	switch v {
	case True:
		return "TRUE"
	case False:
		return "FALSE"
	}
	return "UNKNOWN"
}

// turns is the number of synthetic turns: the one before the latch is tested,
// the one it is tested in, and the next.
const turns = 3

type slot struct {
	value Value
	// trues and falses count known inputs of And and Or gates.
	trues, falses int32
}

// outcome is the result of one propagation step.
type outcome uint8

const (
	proceed outcome = iota
	// contradiction means a slot was forced to both values.
	contradiction
	// disproved means the target was forced to keep the opposite value.
	disproved
)

type event struct {
	id   propnet.ID
	turn int
}

// Analyzer owns a private copy of the net's slots. It is single-use and
// single-threaded.
type Analyzer struct {
	net   *propnet.PropNet
	kinds []propnet.Kind

	baseline [][turns]slot
	slots    [][turns]slot
	queue    []event

	// target is the proposition whose turn 2 slot ends the analysis when it is
	// forced to stop.
	target propnet.ID
	stop   Value
}

// New builds an analyzer over a crystallized net.
func New(net *propnet.PropNet) (*Analyzer, error) {
	if !net.Frozen() {
		return nil, propnet.ErrNotFrozen
	}
	n := net.Len()
	a := &Analyzer{
		net:      net,
		kinds:    make([]propnet.Kind, n),
		baseline: make([][turns]slot, n),
		slots:    make([][turns]slot, n),
		target:   propnet.None,
	}
	for i := 0; i < n; i++ {
		a.kinds[i] = net.Kind(propnet.ID(i))
	}

	// Constants and INIT are settled once; every hypothesis starts from their
	// consequences.
	for i := 0; i < n; i++ {
		c := net.Component(propnet.ID(i))
		if c.Kind != propnet.Constant {
			continue
		}
		for t := 0; t < turns; t++ {
			a.set(propnet.ID(i), t, valueOf(c.Value))
		}
	}
	if init := net.Init(); init != propnet.None {
		for t := 0; t < turns; t++ {
			a.set(init, t, False)
		}
	}
	// A FALSE INIT and the constants hold together in every turn after the
	// first, so their consequences never conflict.
	a.propagate()
	copy(a.baseline, a.slots)
	return a, nil
}

func (a *Analyzer) Net() *propnet.PropNet {
	return a.net
}

// Reset restores every slot to what the constants and INIT imply.
func (a *Analyzer) Reset() {
	copy(a.slots, a.baseline)
	a.queue = a.queue[:0]
	a.target, a.stop = propnet.None, Unknown
}

// Value returns the slot of id in turn after the last analysis.
func (a *Analyzer) Value(id propnet.ID, turn int) Value {
	return a.slots[id][turn].value
}

// IsLatch reports whether base, once equal to polarity, keeps that value for
// the rest of the game. false means not proven.
func (a *Analyzer) IsLatch(base propnet.ID, polarity bool) bool {
	a.Reset()
	v := valueOf(polarity)
	a.target, a.stop = base, v.not()

	if r := a.assume(base, 0, v); r != proceed {
		return r == contradiction
	}
	return a.assume(base, 1, v.not()) == contradiction
}

// assume forces id to v in turn and propagates the consequences.
func (a *Analyzer) assume(id propnet.ID, turn int, v Value) outcome {
	if r := a.set(id, turn, v); r != proceed {
		return r
	}
	return a.propagate()
}

// set records a newly known slot.
func (a *Analyzer) set(id propnet.ID, turn int, v Value) outcome {
	s := &a.slots[id][turn]
	if s.value != Unknown {
		if s.value != v {
			return contradiction
		}
		return proceed
	}
	s.value = v
	a.queue = append(a.queue, event{id, turn})
	if id == a.target && turn == turns-1 && v == a.stop {
		return disproved
	}
	return proceed
}

func (a *Analyzer) propagate() outcome {
	for len(a.queue) > 0 {
		e := a.queue[len(a.queue)-1]
		a.queue = a.queue[:len(a.queue)-1]
		if r := a.forward(e); r != proceed {
			return r
		}
		if r := a.backward(e.id, e.turn); r != proceed {
			return r
		}
	}
	return proceed
}

// forward tells the outputs of a newly known slot.
func (a *Analyzer) forward(e event) outcome {
	v := a.slots[e.id][e.turn].value
	for _, out := range a.net.Outputs(e.id) {
		var r outcome
		switch a.kinds[out] {
		case propnet.And, propnet.Or:
			r = a.count(out, e.turn, v)
		case propnet.Not:
			r = a.set(out, e.turn, v.not())
		case propnet.Transition:
			r = a.set(out, e.turn, v)
		case propnet.Proposition:
			if a.kinds[e.id] == propnet.Transition {
				if e.turn+1 == turns {
					continue
				}
				r = a.set(out, e.turn+1, v)
			} else {
				r = a.set(out, e.turn, v)
			}
		}
		if r != proceed {
			return r
		}
	}
	return proceed
}

// count adds a known input to gate and resolves it when it can.
func (a *Analyzer) count(gate propnet.ID, turn int, v Value) outcome {
	s := &a.slots[gate][turn]
	if v == True {
		s.trues++
	} else {
		s.falses++
	}

	n := int32(len(a.net.Inputs(gate)))
	decisive, other := True, False
	known, settled := s.trues, s.falses
	if a.kinds[gate] == propnet.And {
		decisive, other = False, True
		known, settled = s.falses, s.trues
	}
	switch {
	case known > 0:
		return a.set(gate, turn, decisive)
	case settled == n:
		return a.set(gate, turn, other)
	case s.value != Unknown:
		// An input more may leave a single one to explain the output.
		return a.backward(gate, turn)
	}
	return proceed
}

// backward derives inputs from a known output.
func (a *Analyzer) backward(id propnet.ID, turn int) outcome {
	v := a.slots[id][turn].value
	inputs := a.net.Inputs(id)
	switch a.kinds[id] {
	case propnet.And, propnet.Or:
		// An And is TRUE only with every input TRUE; when FALSE, the last
		// unknown input beside TRUE ones must be FALSE. Or is the dual.
		decisive := True
		if a.kinds[id] == propnet.And {
			decisive = False
		}
		s := a.slots[id][turn]
		if v != decisive {
			for _, in := range inputs {
				if r := a.set(in, turn, v); r != proceed {
					return r
				}
			}
			return proceed
		}
		known := s.trues
		if decisive == True {
			known = s.falses
		}
		if int(known) != len(inputs)-1 {
			return proceed
		}
		for _, in := range inputs {
			if a.slots[in][turn].value == Unknown {
				return a.set(in, turn, decisive)
			}
		}
	case propnet.Not:
		return a.set(inputs[0], turn, v.not())
	case propnet.Transition:
		return a.set(inputs[0], turn, v)
	case propnet.Proposition:
		if len(inputs) != 1 {
			return proceed
		}
		if a.kinds[inputs[0]] == propnet.Transition {
			if turn == 0 {
				return proceed
			}
			return a.set(inputs[0], turn-1, v)
		}
		return a.set(inputs[0], turn, v)
	}
	return proceed
}
