package engine

import (
	"ggp/searcher"
	"ggp/statemachine"
	"ggp/stats"

	"golang.org/x/exp/rand"
)

const MaxMoves = 10000

type Engine interface {
	// Run plays a game till a terminal state or a max number of moves is reached
	Run() stats.MatchRecord
}

// Agent chooses the move of one role.
type Agent interface {
	Name() string
	FindMove(state statemachine.State, role int) statemachine.Move
}

type randomAgent struct {
	machine *statemachine.Machine
	rng     *rand.Rand
}

// NewRandomAgent plays uniformly random legal moves on its own clone of m.
func NewRandomAgent(m *statemachine.Machine, seed uint64) Agent {
	return &randomAgent{machine: m.Clone(), rng: rand.New(rand.NewSource(seed))}
}

func (a *randomAgent) Name() string {
	return "random"
}

func (a *randomAgent) FindMove(state statemachine.State, role int) statemachine.Move {
	moves := a.machine.Legal(state, role)
	return moves[a.rng.Intn(len(moves))]
}

type searchAgent struct {
	mcts *searcher.MCTS
	name string
}

// NewSearchAgent plays the most visited move of a search from every state.
func NewSearchAgent(name string, mcts *searcher.MCTS) Agent {
	return &searchAgent{mcts: mcts, name: name}
}

func (a *searchAgent) Name() string {
	return a.name
}

func (a *searchAgent) FindMove(state statemachine.State, role int) statemachine.Move {
	moves, _ := a.mcts.Search(state)
	return moves[role]
}
