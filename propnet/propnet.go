// Package propnet is the boolean-gate graph a game's rules compile to.
//
// Components live in an arena and refer to each other by ID. A net is built
// with Add, Link, Redirect and Remove, then Crystallize compacts the arena,
// indexes the propositions by role, checks the structural invariants and
// freezes the net. From then on only values change, and they live outside the
// net, in evaluators that share its topology.
package propnet

import (
	"strconv"

	"ggp/gdl"

	"golang.org/x/exp/slices"
)

type PropNet struct {
	components []Component
	roles      []gdl.Term

	bases      map[string]ID
	baseOrder  []ID
	baseIndex  map[ID]int
	inputs     map[string]ID
	inputOrder []ID
	legals     [][]ID
	goals      [][]ID
	goalValues map[ID]int
	legalInput map[ID]ID
	terminal   ID
	init       ID

	frozen bool
}

func New(roles []gdl.Term) *PropNet {
	return &PropNet{
		roles:    roles,
		terminal: None,
		init:     None,
	}
}

func (n *PropNet) mutate() {
	if n.frozen {
		panic(ErrGraphFrozen)
	}
}

func (n *PropNet) add(c Component) ID {
	n.mutate()
	n.components = append(n.components, c)
	return ID(len(n.components) - 1)
}

// Add creates a gate or transition.
func (n *PropNet) Add(kind Kind) ID {
	if kind == Proposition || kind == Constant {
		panic("use AddProposition or AddConstant for " + kind.String())
	}
	return n.add(Component{Kind: kind})
}

// AddProposition creates a proposition whose role follows from its name.
func (n *PropNet) AddProposition(name gdl.Sentence) ID {
	return n.add(Component{Kind: Proposition, Role: roleOf(name), Name: name})
}

func (n *PropNet) AddConstant(value bool) ID {
	return n.add(Component{Kind: Constant, Value: value})
}

// Link adds the edge from -> to. Existing edges are not duplicated.
func (n *PropNet) Link(from, to ID) {
	n.mutate()
	f, t := &n.components[from], &n.components[to]
	if slices.Contains(f.Outputs, to) {
		return
	}
	f.Outputs = append(f.Outputs, to)
	t.Inputs = append(t.Inputs, from)
}

func (n *PropNet) Unlink(from, to ID) {
	n.mutate()
	f, t := &n.components[from], &n.components[to]
	f.Outputs = deleteID(f.Outputs, to)
	t.Inputs = deleteID(t.Inputs, from)
}

// Redirect moves every output edge of from onto to, keeping each consumer's
// input position.
func (n *PropNet) Redirect(from, to ID) {
	n.mutate()
	if from == to {
		return
	}
	f, t := &n.components[from], &n.components[to]
	for _, o := range f.Outputs {
		out := &n.components[o]
		if slices.Contains(t.Outputs, o) {
			out.Inputs = deleteID(out.Inputs, from)
			continue
		}
		i := slices.Index(out.Inputs, from)
		out.Inputs[i] = to
		t.Outputs = append(t.Outputs, o)
	}
	f.Outputs = nil
}

// ClearInputs removes every input edge of id.
func (n *PropNet) ClearInputs(id ID) {
	n.mutate()
	c := &n.components[id]
	for _, in := range c.Inputs {
		n.components[in].Outputs = deleteID(n.components[in].Outputs, id)
	}
	c.Inputs = nil
}

// Remove disconnects id and drops it from the net.
func (n *PropNet) Remove(id ID) {
	n.mutate()
	c := &n.components[id]
	n.ClearInputs(id)
	for _, out := range c.Outputs {
		n.components[out].Inputs = deleteID(n.components[out].Inputs, id)
	}
	c.Outputs = nil
	c.removed = true
}

// SetRole overrides the role derived from a proposition's name.
// MarkInitial records that the base id holds in the initial state.
func (n *PropNet) MarkInitial(id ID) {
	n.mutate()
	n.components[id].Initial = true
}

func (n *PropNet) SetRole(id ID, role Role) {
	n.mutate()
	n.components[id].Role = role
}

func deleteID(ids []ID, id ID) []ID {
	i := slices.Index(ids, id)
	if i < 0 {
		return ids
	}
	return slices.Delete(ids, i, i+1)
}

// Len is the size of the arena, removed components included until the net is
// crystallized.
func (n *PropNet) Len() int {
	return len(n.components)
}

func (n *PropNet) Alive(id ID) bool {
	return !n.components[id].removed
}

// Component returns a read-only view of id.
func (n *PropNet) Component(id ID) *Component {
	return &n.components[id]
}

func (n *PropNet) Kind(id ID) Kind {
	return n.components[id].Kind
}

func (n *PropNet) Inputs(id ID) []ID {
	return n.components[id].Inputs
}

func (n *PropNet) Outputs(id ID) []ID {
	return n.components[id].Outputs
}

// Stored reports whether id is a proposition whose value is written rather
// than computed: it has no input, or its input is a transition.
func (n *PropNet) Stored(id ID) bool {
	c := &n.components[id]
	if c.Kind != Proposition {
		return false
	}
	return len(c.Inputs) == 0 || (len(c.Inputs) == 1 && n.components[c.Inputs[0]].Kind == Transition)
}

// Each calls fn for every live component.
func (n *PropNet) Each(fn func(id ID, c *Component)) {
	for i := range n.components {
		if !n.components[i].removed {
			fn(ID(i), &n.components[i])
		}
	}
}

func (n *PropNet) Frozen() bool {
	return n.frozen
}

func (n *PropNet) Roles() []gdl.Term {
	return n.roles
}

// RoleIndex returns the position of role in Roles, or -1.
func (n *PropNet) RoleIndex(role gdl.Term) int {
	for i, r := range n.roles {
		if r.Equal(role) {
			return i
		}
	}
	return -1
}

// Bases returns the base propositions ordered by sentence.
func (n *PropNet) Bases() []ID {
	return n.baseOrder
}

// BaseOf returns the base proposition (true s), or None.
func (n *PropNet) BaseOf(s gdl.Sentence) ID {
	if id, ok := n.bases[s.String()]; ok {
		return id
	}
	return None
}

// BaseIndex returns the position of id in Bases, or -1.
func (n *PropNet) BaseIndex(id ID) int {
	if i, ok := n.baseIndex[id]; ok {
		return i
	}
	return -1
}

// InputProps returns the input propositions ordered by sentence.
func (n *PropNet) InputProps() []ID {
	return n.inputOrder
}

// InputOf returns the input proposition (does r m), or None.
func (n *PropNet) InputOf(s gdl.Sentence) ID {
	if id, ok := n.inputs[s.String()]; ok {
		return id
	}
	return None
}

// Legals returns the legal propositions of the i-th role ordered by sentence.
func (n *PropNet) Legals(role int) []ID {
	return n.legals[role]
}

// Goals returns the goal propositions of the i-th role ordered by value.
func (n *PropNet) Goals(role int) []ID {
	return n.goals[role]
}

func (n *PropNet) GoalValue(id ID) int {
	return n.goalValues[id]
}

// InputFor returns the input proposition matching a legal proposition, or
// None when the move can never be played.
func (n *PropNet) InputFor(legal ID) ID {
	if id, ok := n.legalInput[legal]; ok {
		return id
	}
	return None
}

func (n *PropNet) Terminal() ID {
	return n.terminal
}

// Init returns the init proposition, or None.
func (n *PropNet) Init() ID {
	return n.init
}

// Census counts live components per kind.
func (n *PropNet) Census() map[Kind]int {
	census := make(map[Kind]int)
	n.Each(func(_ ID, c *Component) {
		census[c.Kind]++
	})
	return census
}

// Size is the number of live components.
func (n *PropNet) Size() int {
	size := 0
	n.Each(func(ID, *Component) {
		size++
	})
	return size
}

// Reindex rebuilds the role indices from the live propositions.
func (n *PropNet) Reindex() {
	n.bases = make(map[string]ID)
	n.inputs = make(map[string]ID)
	n.baseOrder, n.inputOrder = nil, nil
	n.legals = make([][]ID, len(n.roles))
	n.goals = make([][]ID, len(n.roles))
	n.goalValues = make(map[ID]int)
	n.legalInput = make(map[ID]ID)
	n.terminal, n.init = None, None

	n.Each(func(id ID, c *Component) {
		if c.Kind != Proposition {
			return
		}
		switch c.Role {
		case RoleBase:
			n.bases[c.Name.Unwrap().String()] = id
			n.baseOrder = append(n.baseOrder, id)
		case RoleInput:
			n.inputs[c.Name.String()] = id
			n.inputOrder = append(n.inputOrder, id)
		case RoleLegal:
			if r := n.RoleIndex(c.Name.Args[0]); r >= 0 {
				n.legals[r] = append(n.legals[r], id)
			}
		case RoleGoal:
			if r := n.RoleIndex(c.Name.Args[0]); r >= 0 {
				n.goals[r] = append(n.goals[r], id)
				v, _ := strconv.Atoi(c.Name.Args[1].Name)
				n.goalValues[id] = v
			}
		case RoleTerminal:
			n.terminal = id
		case RoleInit:
			n.init = id
		}
	})

	byName := func(a, b ID) int {
		return compareText(n.components[a].Name.String(), n.components[b].Name.String())
	}
	slices.SortFunc(n.baseOrder, byName)
	n.baseIndex = make(map[ID]int, len(n.baseOrder))
	for i, id := range n.baseOrder {
		n.baseIndex[id] = i
	}
	slices.SortFunc(n.inputOrder, byName)
	for r := range n.roles {
		slices.SortFunc(n.legals[r], byName)
		slices.SortStableFunc(n.goals[r], func(a, b ID) int {
			if d := n.goalValues[a] - n.goalValues[b]; d != 0 {
				return d
			}
			return byName(a, b)
		})
		for _, l := range n.legals[r] {
			does := gdl.NewSentence(gdl.Does, n.components[l].Name.Args...)
			if in, ok := n.inputs[does.String()]; ok {
				n.legalInput[l] = in
			}
		}
	}
}

func compareText(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
