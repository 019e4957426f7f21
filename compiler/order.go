package compiler

import (
	"fmt"

	"ggp/rulemodel"
)

// step is one unit of the compilation order: a form and whether its rules
// depend on the form itself.
type step struct {
	form      rulemodel.Form
	recursive bool
}

// order sorts the forms of m so that every form comes after the forms its
// rules depend on. It is Tarjan's algorithm: components are emitted once
// everything they reach has been emitted.
func order(m rulemodel.Model) ([]step, error) {
	forms := m.Forms()
	index := make(map[rulemodel.Form]int, len(forms))
	low := make(map[rulemodel.Form]int, len(forms))
	onStack := make(map[rulemodel.Form]bool, len(forms))
	var stack []rulemodel.Form
	var out []step
	var err error
	next := 0

	var visit func(f rulemodel.Form)
	visit = func(f rulemodel.Form) {
		index[f] = next
		low[f] = next
		next++
		stack = append(stack, f)
		onStack[f] = true

		self := false
		for _, d := range m.Dependencies(f) {
			if d == f {
				self = true
				continue
			}
			if _, seen := index[d]; !seen {
				visit(d)
				low[f] = min(low[f], low[d])
			} else if onStack[d] {
				low[f] = min(low[f], index[d])
			}
		}

		if low[f] != index[f] {
			return
		}
		var members []rulemodel.Form
		for {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[top] = false
			members = append(members, top)
			if top == f {
				break
			}
		}
		if len(members) > 1 && err == nil {
			err = fmt.Errorf("%w: forms %v depend on each other", ErrUnsupportedStructure, members)
		}
		out = append(out, step{form: f, recursive: self})
	}

	for _, f := range forms {
		if _, seen := index[f]; !seen {
			visit(f)
		}
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}
