package sat

import (
	"ggp/propnet"

	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// ConfirmLatch reports whether base, once equal to polarity, keeps it: no
// assignment of a turn and its successor has base flip away. INIT is FALSE in
// both turns, as it is in every turn after the initial state.
func ConfirmLatch(net *propnet.PropNet, base propnet.ID, polarity bool) (bool, error) {
	if !net.Frozen() {
		return false, propnet.ErrNotFrozen
	}

	c := logic.NewC()
	free := func(id propnet.ID) z.Lit {
		if id == net.Init() {
			return c.F
		}
		return c.Lit()
	}
	turn0 := encode(c, net, free)
	turn1 := encode(c, net, func(id propnet.ID) z.Lit {
		if in := net.Inputs(id); len(in) == 1 && net.Kind(in[0]) == propnet.Transition {
			return turn0[in[0]]
		}
		return free(id)
	})

	before, after := turn0[base], turn1[base]
	if !polarity {
		before, after = before.Not(), after.Not()
	}
	return solve(c, before, after.Not()) == nil, nil
}
