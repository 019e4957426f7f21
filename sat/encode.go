// Package sat checks propnets with a SAT solver: equivalence of two nets
// over one turn, and latches over two.
package sat

import (
	"ggp/propnet"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// Circuit is one turn of a net as a gini circuit. Stored propositions are its
// free variables.
type Circuit struct {
	*logic.C
	net  *propnet.PropNet
	lits []z.Lit
}

func Encode(net *propnet.PropNet) (*Circuit, error) {
	if !net.Frozen() {
		return nil, propnet.ErrNotFrozen
	}
	c := logic.NewC()
	return &Circuit{C: c, net: net, lits: encode(c, net, freshStored(c))}, nil
}

func (c *Circuit) Net() *propnet.PropNet {
	return c.net
}

// Literal returns the literal computing id.
func (c *Circuit) Literal(id propnet.ID) z.Lit {
	return c.lits[id]
}

// Solve looks for values of the stored propositions that make every literal
// of assumptions true. It returns the solver holding the model, or nil when
// there is none.
func (c *Circuit) Solve(assumptions ...z.Lit) *gini.Gini {
	return solve(c.C, assumptions...)
}

func solve(c *logic.C, assumptions ...z.Lit) *gini.Gini {
	g := gini.New()
	c.ToCnf(g)
	g.Assume(assumptions...)
	if g.Solve() != 1 {
		return nil
	}
	return g
}

func freshStored(c *logic.C) func(propnet.ID) z.Lit {
	return func(propnet.ID) z.Lit {
		return c.Lit()
	}
}

type encoder struct {
	c      *logic.C
	net    *propnet.PropNet
	lits   []z.Lit
	stored func(id propnet.ID) z.Lit
}

// encode builds a literal for every live component of net. stored supplies
// the literals of stored propositions.
func encode(c *logic.C, net *propnet.PropNet, stored func(id propnet.ID) z.Lit) []z.Lit {
	e := &encoder{c: c, net: net, lits: make([]z.Lit, net.Len()), stored: stored}
	for i := 0; i < net.Len(); i++ {
		e.lit(propnet.ID(i))
	}
	return e.lits
}

func (e *encoder) lit(id propnet.ID) z.Lit {
	if m := e.lits[id]; m != z.LitNull {
		return m
	}

	comp := e.net.Component(id)
	var m z.Lit
	switch {
	case comp.Kind == propnet.Constant:
		m = e.c.F
		if comp.Value {
			m = e.c.T
		}
	case e.net.Stored(id):
		m = e.stored(id)
	case comp.Kind == propnet.And:
		m = e.gate(comp.Inputs, e.c.T, e.c.Ands)
	case comp.Kind == propnet.Or:
		m = e.gate(comp.Inputs, e.c.F, e.c.Ors)
	case comp.Kind == propnet.Not:
		m = e.lit(comp.Inputs[0]).Not()
	default:
		m = e.lit(comp.Inputs[0])
	}
	e.lits[id] = m
	return m
}

func (e *encoder) gate(inputs []propnet.ID, empty z.Lit, combine func(ms ...z.Lit) z.Lit) z.Lit {
	switch len(inputs) {
	case 0:
		return empty
	case 1:
		return e.lit(inputs[0])
	}
	ms := make([]z.Lit, len(inputs))
	for i, in := range inputs {
		ms[i] = e.lit(in)
	}
	return combine(ms...)
}

// xor is TRUE when a and b differ.
func xor(c *logic.C, a, b z.Lit) z.Lit {
	return c.Or(c.And(a, b.Not()), c.And(a.Not(), b))
}
