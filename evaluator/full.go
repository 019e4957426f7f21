package evaluator

import (
	"ggp/propnet"
)

// Full evaluates every component of net from scratch, reading stored
// propositions from stored. It is the reference the incremental values are
// checked against.
func Full(net *propnet.PropNet, stored func(propnet.ID) bool) []bool {
	const (
		pending uint8 = iota
		active
		done
	)
	state := make([]uint8, net.Len())
	values := make([]bool, net.Len())

	var eval func(id propnet.ID) bool
	eval = func(id propnet.ID) bool {
		switch state[id] {
		case done:
			return values[id]
		case active:
			panic("evaluator: same turn cycle through " + net.Component(id).String())
		}
		state[id] = active

		c := net.Component(id)
		var v bool
		switch {
		case c.Kind == propnet.Constant:
			v = c.Value
		case net.Stored(id):
			v = stored(id)
		case c.Kind == propnet.And:
			v = true
			for _, in := range c.Inputs {
				if !eval(in) {
					v = false
				}
			}
		case c.Kind == propnet.Or:
			for _, in := range c.Inputs {
				if eval(in) {
					v = true
				}
			}
		case c.Kind == propnet.Not:
			v = !eval(c.Inputs[0])
		default:
			v = eval(c.Inputs[0])
		}

		values[id] = v
		state[id] = done
		return v
	}

	for i := 0; i < net.Len(); i++ {
		eval(propnet.ID(i))
	}
	return values
}
