package compiler

import (
	"ggp/gdl"
	"ggp/propnet"

	"github.com/rs/zerolog/log"
)

// reach is the set of values a component takes over the reachable states.
// The empty set means no reachable state has been seen to reach it yet.
type reach uint8

const (
	unreached reach = 0
	canTrue   reach = 1
	canFalse  reach = 2
	both            = canTrue | canFalse
)

// reachability computes, as a least fixpoint, which values every component
// can take in the reachable states and replaces single-valued components by
// constants. Bases start from their initial value and then collect whatever
// their transition carries. An input can only be true where its legal is.
func (c *compiler) reachability() (bool, error) {
	n := c.net
	masks := make([]reach, n.Len())

	inputsOf := make(map[propnet.ID][]propnet.ID)
	legalOf := make(map[propnet.ID]propnet.ID)
	byName := make(map[string]propnet.ID)
	n.Each(func(id propnet.ID, comp *propnet.Component) {
		if comp.Kind == propnet.Proposition && comp.Role == propnet.RoleInput {
			byName[comp.Name.String()] = id
		}
	})
	n.Each(func(id propnet.ID, comp *propnet.Component) {
		if comp.Kind != propnet.Proposition || comp.Role != propnet.RoleLegal {
			return
		}
		does := gdl.NewSentence(gdl.Does, comp.Name.Args...)
		if in, ok := byName[does.String()]; ok {
			legalOf[in] = id
			inputsOf[id] = append(inputsOf[id], in)
		}
	})

	eval := func(id propnet.ID) reach {
		comp := n.Component(id)
		switch comp.Kind {
		case propnet.Constant:
			if comp.Value {
				return canTrue
			}
			return canFalse
		case propnet.And, propnet.Or:
			// And can be true when every input can, false when any can.
			all, some := canTrue, canFalse
			if comp.Kind == propnet.Or {
				all, some = canFalse, canTrue
			}
			m := all
			for _, in := range comp.Inputs {
				if masks[in]&all == 0 {
					m &^= all
				}
				if masks[in]&some != 0 {
					m |= some
				}
			}
			return m
		case propnet.Not:
			m := masks[comp.Inputs[0]]
			return (m&canTrue)<<1 | (m&canFalse)>>1
		case propnet.Transition:
			return masks[comp.Inputs[0]]
		}

		switch {
		case comp.Role == propnet.RoleInput && len(comp.Inputs) == 0:
			m := canFalse
			if legal, ok := legalOf[id]; ok {
				m |= masks[legal] & canTrue
			}
			return m
		case len(comp.Inputs) == 0:
			return both
		case n.Kind(comp.Inputs[0]) == propnet.Transition:
			m := canFalse
			if comp.Initial {
				m = canTrue
			}
			return m | masks[comp.Inputs[0]]
		default:
			return masks[comp.Inputs[0]]
		}
	}

	queue := make([]propnet.ID, 0, n.Len())
	n.Each(func(id propnet.ID, _ *propnet.Component) {
		queue = append(queue, id)
	})
	for len(queue) > 0 {
		if err := c.tick(); err != nil {
			return false, err
		}
		id := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		m := masks[id] | eval(id)
		if m == masks[id] {
			continue
		}
		masks[id] = m
		queue = append(queue, n.Outputs(id)...)
		queue = append(queue, inputsOf[id]...)
	}

	changed := false
	promoted := 0
	for id := propnet.ID(0); int(id) < len(masks); id++ {
		// A transition's mask is its base's next value only. The base's own
		// mask includes the initial value and decides it.
		if !n.Alive(id) || n.Kind(id) == propnet.Constant || n.Kind(id) == propnet.Transition {
			continue
		}
		switch masks[id] {
		case unreached:
			promoted++
		case canTrue:
			changed = c.rewire(id, true) || changed
		case canFalse:
			changed = c.rewire(id, false) || changed
		}
	}
	if promoted > 0 {
		log.Warn().Msgf("compiler: %d components never resolved a value, keeping them", promoted)
	}

	removed, err := c.removeDead()
	return changed || removed, err
}
