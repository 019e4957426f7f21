// Package statemachine plays games on a compiled propnet: initial state,
// legal moves, successor states, goals and termination.
package statemachine

import (
	"fmt"

	"ggp/evaluator"
	"ggp/gdl"
	"ggp/propnet"
	"ggp/stats"

	"golang.org/x/exp/rand"
)

// Move is one role's action, identified by its legal proposition.
type Move struct {
	Role  int
	Legal propnet.ID
	Input propnet.ID
	// Action is the move term, such as (mark 1 1).
	Action gdl.Term
}

func (m Move) String() string {
	return m.Action.String()
}

type Option func(m *Machine)

func WithStats(collector stats.Collector) Option {
	return func(m *Machine) {
		if collector != nil {
			m.stats = collector
		}
	}
}

// Machine is single-writer; use Clone for every goroutine.
type Machine struct {
	net   *propnet.PropNet
	eval  *evaluator.Evaluator
	stats stats.Collector

	bases []propnet.ID
	// next is where each base's value for the following turn is read: its
	// transition's input, or the base itself when it is computed.
	next   []propnet.ID
	stored []bool

	current State
	joint   []propnet.ID
}

func New(net *propnet.PropNet, options ...Option) (*Machine, error) {
	m := &Machine{net: net, stats: stats.NewDummyCollector()}
	for _, option := range options {
		option(m)
	}
	eval, err := evaluator.New(net, evaluator.WithStats(m.stats))
	if err != nil {
		return nil, err
	}
	m.eval = eval

	m.bases = net.Bases()
	m.next = make([]propnet.ID, len(m.bases))
	m.stored = make([]bool, len(m.bases))
	for i, b := range m.bases {
		m.next[i] = b
		if net.Stored(b) {
			m.stored[i] = true
			m.next[i] = net.Inputs(net.Inputs(b)[0])[0]
		}
	}
	m.current = newState(net)
	return m, nil
}

func (m *Machine) Net() *propnet.PropNet {
	return m.net
}

func (m *Machine) Evaluator() *evaluator.Evaluator {
	return m.eval
}

func (m *Machine) Roles() []gdl.Term {
	return m.net.Roles()
}

// Initial computes the initial state: the init facts among the stored bases,
// and the constant value of every computed base.
func (m *Machine) Initial() State {
	m.eval.Reset(true)
	m.current = newState(m.net)
	m.joint = m.joint[:0]

	s := newState(m.net)
	for i, b := range m.bases {
		if m.stored[i] {
			s.set(i, m.net.Component(b).Initial)
		} else {
			s.set(i, m.eval.Value(b))
		}
	}
	return s
}

// read collects the value every base will have in the next turn.
func (m *Machine) read() State {
	s := newState(m.net)
	for i, id := range m.next {
		s.set(i, m.eval.Value(id))
	}
	return s
}

// load writes the stored bases of s that differ from the current ones and
// clears the previous joint move.
func (m *Machine) load(s State) {
	for _, in := range m.joint {
		m.eval.SetValue(in, false)
	}
	m.joint = m.joint[:0]

	for i, b := range m.bases {
		if !m.stored[i] {
			continue
		}
		if v := s.Has(i); v != m.current.Has(i) {
			m.eval.SetValue(b, v)
			m.current.set(i, v)
		}
	}
}

func (m *Machine) Legal(s State, role int) []Move {
	m.load(s)
	var moves []Move
	for _, l := range m.net.Legals(role) {
		if m.eval.Value(l) {
			moves = append(moves, m.move(role, l))
		}
	}
	return moves
}

func (m *Machine) move(role int, legal propnet.ID) Move {
	return Move{
		Role:   role,
		Legal:  legal,
		Input:  m.net.InputFor(legal),
		Action: m.net.Component(legal).Name.Args[1],
	}
}

// LegalJoint returns every combination of legal moves, one per role.
func (m *Machine) LegalJoint(s State) [][]Move {
	joints := [][]Move{nil}
	for r := range m.Roles() {
		var expanded [][]Move
		for _, mv := range m.Legal(s, r) {
			for _, j := range joints {
				expanded = append(expanded, append(append([]Move(nil), j...), mv))
			}
		}
		joints = expanded
	}
	return joints
}

// Next plays a joint move, one move per role in role order.
func (m *Machine) Next(s State, joint []Move) State {
	if len(joint) != len(m.Roles()) {
		panic(fmt.Sprintf("statemachine: joint move has %d moves for %d roles", len(joint), len(m.Roles())))
	}
	m.load(s)
	for r, mv := range joint {
		if mv.Role != r || mv.Legal == propnet.None {
			panic(fmt.Sprintf("statemachine: role %s has no legal move %v", m.Roles()[r], mv))
		}
		if mv.Input == propnet.None {
			continue
		}
		m.eval.SetValue(mv.Input, true)
		m.joint = append(m.joint, mv.Input)
	}
	return m.read()
}

func (m *Machine) Terminal(s State) bool {
	m.load(s)
	return m.eval.Value(m.net.Terminal())
}

// Goal returns the value of the first true goal of role, or 0.
func (m *Machine) Goal(s State, role int) int {
	m.load(s)
	for _, g := range m.net.Goals(role) {
		if m.eval.Value(g) {
			return m.net.GoalValue(g)
		}
	}
	return 0
}

func (m *Machine) Goals(s State) []int {
	goals := make([]int, len(m.Roles()))
	for r := range goals {
		goals[r] = m.Goal(s, r)
	}
	return goals
}

// RandomJoint picks a uniformly random legal move for every role.
func (m *Machine) RandomJoint(s State, rng *rand.Rand) []Move {
	joint := make([]Move, len(m.Roles()))
	for r := range joint {
		moves := m.Legal(s, r)
		if len(moves) == 0 {
			panic(fmt.Sprintf("statemachine: role %s has no legal move in %s", m.Roles()[r], s))
		}
		joint[r] = moves[rng.Intn(len(moves))]
	}
	return joint
}

// Playout plays random joint moves until a terminal state and returns it with
// the goals and the number of moves played.
func (m *Machine) Playout(s State, rng *rand.Rand) (State, []int, int) {
	depth := 0
	for !m.Terminal(s) {
		s = m.Next(s, m.RandomJoint(s, rng))
		depth++
	}
	goals := m.Goals(s)

	m.stats.Add(stats.Playouts, 1)
	m.stats.Add(stats.PlayoutMoves, int64(depth))
	m.eval.Flush()
	return s, goals, depth
}

// OptimizeInputOrder reorders gate inputs by how often they decided them.
func (m *Machine) OptimizeInputOrder() {
	m.eval.OptimizeInputOrder()
}

// Clone returns a machine over the same net with its own evaluator.
func (m *Machine) Clone() *Machine {
	return &Machine{
		net:     m.net,
		eval:    m.eval.Clone(),
		stats:   m.stats,
		bases:   m.bases,
		next:    m.next,
		stored:  m.stored,
		current: m.current.Clone(),
		joint:   append([]propnet.ID(nil), m.joint...),
	}
}
