package searcher

import (
	"sync"

	"ggp/statemachine"
)

// edge holds the statistics of one role's move in a node.
type edge struct {
	rewards float64
	visits  int
}

func (e *edge) applyLoss() {
	e.rewards += LOSS
	e.visits++
}

func (e *edge) reverseLoss() {
	e.rewards -= LOSS
	e.visits--
}

// decision is a state in the tree. Every role selects its own move from its
// own edges; the joint selection names the child.
type decision struct {
	sync.Mutex
	state    statemachine.State
	goals    []int // set for terminal and decided states
	moves    [][]statemachine.Move
	edges    [][]edge
	children map[int]*decision
	visits   int
}

func newDecision(m *statemachine.Machine, state statemachine.State, evaluate Evaluate) *decision {
	d := &decision{state: state}
	if m.Terminal(state) {
		d.goals = m.Goals(state)
		return d
	}
	if goals, ok := evaluate(state); ok {
		d.goals = goals
		return d
	}

	roles := len(m.Roles())
	d.moves = make([][]statemachine.Move, roles)
	d.edges = make([][]edge, roles)
	for r := 0; r < roles; r++ {
		d.moves[r] = m.Legal(state, r)
		d.edges[r] = make([]edge, len(d.moves[r]))
	}
	d.children = make(map[int]*decision)
	return d
}

func (d *decision) terminal() bool {
	return d.goals != nil
}

// SelectOrExpand picks a move per role, applies a virtual loss on each, and
// returns the child they lead to. added is set when the child is new.
func (d *decision) SelectOrExpand(m *statemachine.Machine, evaluate Evaluate) (child *decision, choice []int, added bool) {
	d.Lock()
	defer d.Unlock()

	choice = make([]int, len(d.edges))
	key, radix := 0, 1
	for r, edges := range d.edges {
		choice[r] = pick(edges)
		edges[choice[r]].applyLoss()
		key += choice[r] * radix
		radix *= len(edges)
	}

	if child, ok := d.children[key]; ok {
		return child, choice, false
	}

	joint := make([]statemachine.Move, len(choice))
	for r, i := range choice {
		joint[r] = d.moves[r][i]
	}
	child = newDecision(m, m.Next(d.state, joint), evaluate)
	d.children[key] = child
	return child, choice, true
}

// Backup replaces the virtual losses of choice with the rewards of goals.
func (d *decision) Backup(choice []int, goals []int) {
	d.Lock()
	defer d.Unlock()

	for r, i := range choice {
		e := &d.edges[r][i]
		e.reverseLoss()
		e.rewards += reward(goals[r])
		e.visits++
	}
	d.visits++
}

func (d *decision) Value() int {
	d.Lock()
	defer d.Unlock()

	return d.visits
}

// findBestMove returns the most visited move of role.
func (d *decision) findBestMove(role int) statemachine.Move {
	d.Lock()
	defer d.Unlock()

	edges := d.edges[role]
	if len(edges) == 0 {
		panic("node has no moves")
	}

	bestIndex := 0
	for i, e := range edges {
		if e.visits > edges[bestIndex].visits {
			bestIndex = i
		}
	}
	return d.moves[role][bestIndex]
}

// policy returns the share of visits of each move of role.
func (d *decision) policy(role int) map[string]float64 {
	d.Lock()
	defer d.Unlock()

	total := 0
	for _, e := range d.edges[role] {
		total += e.visits
	}
	policy := make(map[string]float64, len(d.edges[role]))
	for i, e := range d.edges[role] {
		if total > 0 {
			policy[d.moves[role][i].String()] = float64(e.visits) / float64(total)
		}
	}
	return policy
}
