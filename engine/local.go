package engine

import (
	"time"

	"ggp/statemachine"
	"ggp/stats"

	"github.com/rs/zerolog/log"
)

type LocalEngine struct {
	game    string
	machine *statemachine.Machine
	agents  []Agent
}

// NewLocalEngine plays game on m with one agent per role, in role order.
func NewLocalEngine(game string, m *statemachine.Machine, agents []Agent) *LocalEngine {
	if len(agents) != len(m.Roles()) {
		panic("number of roles does not match number of agents")
	}

	return &LocalEngine{
		game:    game,
		machine: m,
		agents:  agents,
	}
}

// Run executes the entire game loop until a terminal state is reached.
func (e *LocalEngine) Run() stats.MatchRecord {
	record := stats.MatchRecord{
		Game:      e.game,
		StartTime: time.Now(),
	}
	for _, a := range e.agents {
		record.Agents = append(record.Agents, a.Name())
	}

	state := e.machine.Initial()
	for !e.machine.Terminal(state) && record.Moves < MaxMoves {
		joint := make([]statemachine.Move, len(e.agents))
		for role, a := range e.agents {
			joint[role] = e.findMove(a, state, role)
		}
		log.Debug().Msgf("move %d: %v", record.Moves+1, joint)

		state = e.machine.Next(state, joint)
		record.Moves++
	}

	if !e.machine.Terminal(state) {
		log.Warn().Msgf("stopped after %d moves (no terminal state yet)", MaxMoves)
	}

	record.Goals = e.machine.Goals(state)
	record.Duration = time.Since(record.StartTime)
	return record
}

// findMove asks a only when role has a choice, and replaces an illegal answer
// by the first legal move.
func (e *LocalEngine) findMove(a Agent, state statemachine.State, role int) statemachine.Move {
	moves := e.machine.Legal(state, role)
	if len(moves) == 0 {
		panic("No legal moves at all!")
	}
	if len(moves) == 1 {
		return moves[0]
	}

	candidate := a.FindMove(state, role)
	for _, mv := range moves {
		if mv.Legal == candidate.Legal {
			return mv
		}
	}
	log.Warn().Msgf("agent %s returned illegal move %v for role %d => forcing %v", a.Name(), candidate, role, moves[0])
	return moves[0]
}
