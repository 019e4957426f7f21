package propnet

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Crystallize compacts the arena, renumbering the live components, rebuilds
// the role indices, validates the net and freezes it.
func (n *PropNet) Crystallize() error {
	if n.frozen {
		return ErrGraphFrozen
	}

	remap := make([]ID, len(n.components))
	live := make([]Component, 0, len(n.components))
	for i := range n.components {
		if n.components[i].removed {
			remap[i] = None
			continue
		}
		remap[i] = ID(len(live))
		live = append(live, n.components[i])
	}
	for i := range live {
		c := &live[i]
		c.Inputs = slices.Clip(renumber(c.Inputs, remap))
		c.Outputs = slices.Clip(renumber(c.Outputs, remap))
	}
	n.components = live

	n.Reindex()
	if err := n.validate(); err != nil {
		return err
	}
	n.frozen = true
	return nil
}

func renumber(ids []ID, remap []ID) []ID {
	out := make([]ID, 0, len(ids))
	for _, id := range ids {
		if remap[id] != None {
			out = append(out, remap[id])
		}
	}
	return out
}

func (n *PropNet) validate() error {
	terminals, inits := 0, 0
	for i := range n.components {
		c := &n.components[i]
		switch c.Kind {
		case Not, Transition:
			if len(c.Inputs) != 1 {
				return fmt.Errorf("%w: %s %d has %d inputs", ErrMalformedNet, c.Kind, i, len(c.Inputs))
			}
		case Constant:
			if len(c.Inputs) != 0 {
				return fmt.Errorf("%w: constant %d has inputs", ErrMalformedNet, i)
			}
		case Proposition:
			if len(c.Inputs) > 1 {
				return fmt.Errorf("%w: proposition %s has %d inputs", ErrMalformedNet, c.Name, len(c.Inputs))
			}
			switch c.Role {
			case RoleTerminal:
				terminals++
			case RoleInit:
				inits++
			case RoleBase:
				if len(c.Inputs) != 1 {
					return fmt.Errorf("%w: base %s has no input", ErrMalformedNet, c.Name)
				}
				if k := n.components[c.Inputs[0]].Kind; k != Transition && k != Constant {
					return fmt.Errorf("%w: base %s is fed by a %s", ErrMalformedNet, c.Name, k)
				}
			}
		}
	}
	if terminals != 1 {
		return fmt.Errorf("%w: %d terminal propositions", ErrMalformedNet, terminals)
	}
	if inits > 1 {
		return fmt.Errorf("%w: %d init propositions", ErrMalformedNet, inits)
	}
	return n.checkAcyclic()
}

// checkAcyclic looks for a cycle that does not pass through a transition.
func (n *PropNet) checkAcyclic() error {
	const (
		white = iota
		grey
		black
	)
	color := make([]uint8, len(n.components))

	type frame struct {
		id  ID
		out int
	}
	for root := range n.components {
		if color[root] != white {
			continue
		}
		stack := []frame{{id: ID(root)}}
		color[root] = grey
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			c := &n.components[top.id]
			if c.Kind == Transition || top.out == len(c.Outputs) {
				color[top.id] = black
				stack = stack[:len(stack)-1]
				continue
			}
			next := c.Outputs[top.out]
			top.out++
			switch color[next] {
			case grey:
				return fmt.Errorf("%w: cycle through %s", ErrMalformedNet, n.components[next].String())
			case white:
				color[next] = grey
				stack = append(stack, frame{id: next})
			}
		}
	}
	return nil
}

// Clone returns an unfrozen deep copy of n.
func (n *PropNet) Clone() *PropNet {
	c := New(n.roles)
	c.components = make([]Component, len(n.components))
	for i, comp := range n.components {
		comp.Inputs = slices.Clone(comp.Inputs)
		comp.Outputs = slices.Clone(comp.Outputs)
		c.components[i] = comp
	}
	c.Reindex()
	return c
}
