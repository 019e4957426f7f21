package compiler

import (
	"ggp/propnet"
	"ggp/stats"

	"golang.org/x/exp/slices"
)

// minCollapsed is how many Ands must shrink to a single input for factoring
// to remove more gates than it adds.
const minCollapsed = 3

// factor rewrites large Ors over Ands sharing an input X,
//
//	Or(..., And(X, a...), And(X, b...))  ->  Or(..., And(X, Or(And(a...), And(b...))))
//
// Only Ands read by the Or alone are factored.
func (c *compiler) factor() (bool, error) {
	changed := false
	for id := propnet.ID(0); int(id) < c.net.Len(); id++ {
		if err := c.tick(); err != nil {
			return false, err
		}
		if !c.net.Alive(id) || c.net.Kind(id) != propnet.Or || len(c.net.Inputs(id)) < c.opts.LargeGateThreshold {
			continue
		}
		if c.factorOr(id) {
			changed = true
		}
	}
	return changed, nil
}

func (c *compiler) factorOr(or propnet.ID) bool {
	var ands []propnet.ID
	count := make(map[propnet.ID]int)
	collapse := make(map[propnet.ID]int)
	for _, in := range c.net.Inputs(or) {
		if c.net.Kind(in) != propnet.And {
			continue
		}
		if out := c.net.Outputs(in); len(out) != 1 || out[0] != or {
			continue
		}
		ands = append(ands, in)
		for _, x := range c.net.Inputs(in) {
			count[x]++
			if len(c.net.Inputs(in)) == 2 {
				collapse[x]++
			}
		}
	}

	shared := propnet.None
	for x, n := range collapse {
		if n < minCollapsed || count[x] < 2 {
			continue
		}
		// The Or reading X itself would absorb the Ands instead.
		if slices.Contains(c.net.Inputs(or), x) {
			continue
		}
		if shared == propnet.None || n > collapse[shared] || (n == collapse[shared] && x < shared) {
			shared = x
		}
	}
	if shared == propnet.None {
		return false
	}

	rest := c.net.Add(propnet.Or)
	for _, and := range ands {
		if !slices.Contains(c.net.Inputs(and), shared) {
			continue
		}
		c.net.Unlink(shared, and)
		if in := c.net.Inputs(and); len(in) == 1 {
			c.net.Link(in[0], rest)
			c.net.Remove(and)
			c.opts.Stats.Add(stats.ComponentsRemoved, 1)
			continue
		}
		c.net.Unlink(and, or)
		c.net.Link(and, rest)
	}
	factored := c.net.Add(propnet.And)
	c.net.Link(shared, factored)
	c.net.Link(rest, factored)
	c.net.Link(factored, or)
	c.opts.Stats.Add(stats.GatesFactored, 1)
	return true
}
