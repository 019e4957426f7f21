package sat

import (
	"fmt"

	"ggp/propnet"

	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
	"golang.org/x/exp/slices"
)

// Counterexample is an assignment on which two nets disagree.
type Counterexample struct {
	// True lists the stored propositions set TRUE.
	True []string
	// Differ lists the outputs with different values.
	Differ []string
}

// output is a value the state machine reads from a net: terminal, a legal, a
// goal, or the next value of a base.
type output struct {
	name string
	lit  z.Lit
}

// Equivalent reports whether a and b compute the same outputs for every
// assignment of their stored propositions, which are matched by sentence. An
// output missing from one net counts as FALSE there.
func Equivalent(a, b *propnet.PropNet) (bool, *Counterexample, error) {
	if !a.Frozen() || !b.Frozen() {
		return false, nil, propnet.ErrNotFrozen
	}
	if len(a.Roles()) != len(b.Roles()) {
		return false, nil, fmt.Errorf("failed to compare nets: %d and %d roles", len(a.Roles()), len(b.Roles()))
	}

	c := logic.NewC()
	shared := make(map[string]z.Lit)
	stored := func(net *propnet.PropNet) func(propnet.ID) z.Lit {
		return func(id propnet.ID) z.Lit {
			name := net.Component(id).Name.String()
			if m, ok := shared[name]; ok {
				return m
			}
			m := c.Lit()
			shared[name] = m
			return m
		}
	}
	la := encode(c, a, stored(a))
	lb := encode(c, b, stored(b))

	oa := outputs(a, la)
	ob := outputs(b, lb)
	var names []string
	for name := range oa {
		names = append(names, name)
	}
	for name := range ob {
		if _, ok := oa[name]; !ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	diffs := make([]output, 0, len(names))
	for _, name := range names {
		ma, ok := oa[name]
		if !ok {
			ma = c.F
		}
		mb, ok := ob[name]
		if !ok {
			mb = c.F
		}
		diffs = append(diffs, output{name: name, lit: xor(c, ma, mb)})
	}
	miter := c.F
	for _, d := range diffs {
		miter = c.Or(miter, d.lit)
	}

	g := solve(c, miter)
	if g == nil {
		return true, nil, nil
	}
	cex := &Counterexample{}
	for name, m := range shared {
		if g.Value(m) {
			cex.True = append(cex.True, name)
		}
	}
	slices.Sort(cex.True)
	for _, d := range diffs {
		if g.Value(d.lit) {
			cex.Differ = append(cex.Differ, d.name)
		}
	}
	return false, cex, nil
}

func outputs(net *propnet.PropNet, lits []z.Lit) map[string]z.Lit {
	out := make(map[string]z.Lit)
	add := func(id propnet.ID) {
		out[net.Component(id).Name.String()] = lits[id]
	}
	add(net.Terminal())
	for r := range net.Roles() {
		for _, l := range net.Legals(r) {
			add(l)
		}
		for _, g := range net.Goals(r) {
			add(g)
		}
	}
	for _, b := range net.Bases() {
		next := b
		if net.Stored(b) {
			next = net.Inputs(b)[0]
		}
		out["next "+net.Component(b).Name.String()] = lits[next]
	}
	return out
}
