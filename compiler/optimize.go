package compiler

import (
	"ggp/propnet"
	"ggp/stats"

	"github.com/rs/zerolog/log"
)

// pass is one optimization; it reports whether it changed the net.
type pass struct {
	name string
	run  func() (bool, error)
}

// optimize runs the enabled passes until none of them changes the net.
func (c *compiler) optimize() error {
	passes := []pass{
		{"constants", c.propagateConstants},
		{"simplify", c.simplify},
	}
	if c.opts.Reachability {
		passes = append(passes, pass{"reachability", c.reachability})
	}
	if c.opts.Factoring {
		passes = append(passes, pass{"factoring", c.factor})
	}

	for round := 1; ; round++ {
		changed := false
		for _, p := range passes {
			if err := c.checkpoint(); err != nil {
				return err
			}
			before := c.net.Size()
			ok, err := p.run()
			if err != nil {
				return err
			}
			if ok {
				changed = true
				log.Debug().Msgf("compiler: round %d %s: %d -> %d components", round, p.name, before, c.net.Size())
			}
			c.opts.Stats.Add(stats.OptimizationPasses, 1)
		}
		if !changed {
			return nil
		}
	}
}

// keepsInputs reports whether id must stay in the net fed by its inputs
// rather than be bypassed: it is a role proposition computed from others.
func (c *compiler) keepsInputs(id propnet.ID) bool {
	comp := c.net.Component(id)
	if comp.Kind != propnet.Proposition {
		return false
	}
	switch comp.Role {
	case propnet.RoleBase, propnet.RoleLegal, propnet.RoleGoal, propnet.RoleTerminal:
		return true
	}
	return false
}

// rewire replaces the value of id by the constant v. Consumers read the
// constant directly. Role propositions that are computed keep existing, fed by
// the constant.
func (c *compiler) rewire(id propnet.ID, v bool) bool {
	k := c.constant(v)
	changed := false
	if len(c.net.Outputs(id)) > 0 {
		c.net.Redirect(id, k)
		changed = true
	}
	if c.keepsInputs(id) {
		if in := c.net.Inputs(id); len(in) != 1 || in[0] != k {
			for _, t := range in {
				if c.net.Kind(t) == propnet.Transition {
					c.net.Remove(t)
				}
			}
			c.net.ClearInputs(id)
			c.net.Link(k, id)
			changed = true
		}
	}
	if changed {
		c.opts.Stats.Add(stats.ComponentsRewired, 1)
	}
	return changed
}

// propagateConstants folds gates whose value the constants decide and drops
// constant inputs that cannot decide a gate.
func (c *compiler) propagateConstants() (bool, error) {
	changed := false
	queue := make([]propnet.ID, 0, c.net.Len())
	c.net.Each(func(id propnet.ID, _ *propnet.Component) {
		queue = append(queue, id)
	})

	for len(queue) > 0 {
		if err := c.tick(); err != nil {
			return false, err
		}
		id := queue[0]
		queue = queue[1:]
		if !c.net.Alive(id) {
			continue
		}

		outputs := append([]propnet.ID(nil), c.net.Outputs(id)...)
		inputs := len(c.net.Inputs(id))
		folded, ok := c.fold(id)
		if len(c.net.Inputs(id)) != inputs {
			changed = true
		}
		if !ok {
			continue
		}
		if c.rewire(id, folded) {
			changed = true
			queue = append(queue, outputs...)
		}
	}
	return changed, nil
}

// fold computes the constant value of id from its constant inputs, unlinking
// inputs that do not matter. ok is false when the value is not constant.
func (c *compiler) fold(id propnet.ID) (value, ok bool) {
	comp := c.net.Component(id)
	switch comp.Kind {
	case propnet.And, propnet.Or:
		// And is decided by FALSE and ignores TRUE; Or the other way round.
		decisive := comp.Kind == propnet.Or
		for _, in := range append([]propnet.ID(nil), comp.Inputs...) {
			v, isConst := c.constValue(in)
			if !isConst {
				continue
			}
			if v == decisive {
				return decisive, true
			}
			c.net.Unlink(in, id)
		}
		if len(comp.Inputs) == 0 {
			return !decisive, true
		}
	case propnet.Not:
		if v, isConst := c.constValue(comp.Inputs[0]); isConst {
			return !v, true
		}
	case propnet.Proposition:
		// A base reads its transition, which is never folded.
		if len(comp.Inputs) == 1 {
			return c.constValue(comp.Inputs[0])
		}
	}
	return false, false
}

// simplify bypasses gates that do not compute anything: single input And and
// Or, double negation and role-less propositions. Then it removes what no
// role proposition depends on.
func (c *compiler) simplify() (bool, error) {
	changed := false
	for id := propnet.ID(0); int(id) < c.net.Len(); id++ {
		if err := c.tick(); err != nil {
			return false, err
		}
		if !c.net.Alive(id) {
			continue
		}
		comp := c.net.Component(id)
		switch comp.Kind {
		case propnet.And, propnet.Or:
			if len(comp.Inputs) == 1 {
				c.bypass(id, comp.Inputs[0])
				changed = true
			}
		case propnet.Not:
			if inner := comp.Inputs[0]; c.net.Kind(inner) == propnet.Not {
				c.bypass(id, c.net.Inputs(inner)[0])
				changed = true
			}
		case propnet.Proposition:
			if comp.Role == propnet.RoleNone && len(comp.Inputs) == 1 {
				c.bypass(id, comp.Inputs[0])
				changed = true
			}
		}
	}

	removed, err := c.removeDead()
	return changed || removed, err
}

// bypass makes the consumers of id read from instead and removes id.
func (c *compiler) bypass(id, from propnet.ID) {
	c.net.Redirect(id, from)
	c.net.Remove(id)
	c.opts.Stats.Add(stats.ComponentsRemoved, 1)
}

// removeDead removes every component no role proposition depends on.
func (c *compiler) removeDead() (bool, error) {
	live := make([]bool, c.net.Len())
	var queue []propnet.ID
	c.net.Each(func(id propnet.ID, comp *propnet.Component) {
		if comp.Kind == propnet.Proposition && comp.Role != propnet.RoleNone {
			live[id] = true
			queue = append(queue, id)
		}
	})
	for len(queue) > 0 {
		if err := c.tick(); err != nil {
			return false, err
		}
		id := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		for _, in := range c.net.Inputs(id) {
			if !live[in] {
				live[in] = true
				queue = append(queue, in)
			}
		}
	}

	removed := 0
	c.net.Each(func(id propnet.ID, _ *propnet.Component) {
		if !live[id] {
			c.net.Remove(id)
			removed++
		}
	})
	c.opts.Stats.Add(stats.ComponentsRemoved, int64(removed))
	return removed > 0, nil
}
