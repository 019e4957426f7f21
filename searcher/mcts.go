// Package searcher plays any compiled game with tree-parallel UCT. Roles
// select their moves independently at every node, so simultaneous and
// turn-taking games share one search.
package searcher

import (
	"sync"
	"sync/atomic"
	"time"

	"ggp/statemachine"
	"ggp/stats"
	"ggp/tristate"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

type Option func(mcts *MCTS)

// Evaluate reports the final goals of a state when they are already decided.
type Evaluate func(state statemachine.State) ([]int, bool)

// SearchMetric describes one search.
type SearchMetric struct {
	StartTime  time.Time
	Duration   time.Duration
	Goroutines int
	Episodes   int64
}

type MCTS struct {
	goroutines int
	duration   time.Duration
	episodes   int
	cutoff     int
	seed       uint64
	evaluate   Evaluate
	root       *decision
	machines   []*statemachine.Machine
	count      atomic.Int64
	stats      stats.Collector
}

func WithDuration(duration time.Duration) Option {
	return func(u *MCTS) {
		if duration > 0 {
			u.duration = duration
		}
	}
}

func WithEpisodes(episodes int) Option {
	return func(u *MCTS) {
		if episodes > 0 {
			u.episodes = episodes
		}
	}
}

func WithCutoff(depth int) Option {
	return func(u *MCTS) {
		if depth > 0 {
			u.cutoff = depth
		}
	}
}

func WithSeed(seed uint64) Option {
	return func(m *MCTS) {
		m.seed = seed
	}
}

// WithLatches ends playouts as soon as latched goals fix every role's score.
func WithLatches(latches *tristate.Latches) Option {
	return func(m *MCTS) {
		if latches != nil {
			m.evaluate = latchedGoals(latches)
		}
	}
}

func WithStats(collector stats.Collector) Option {
	return func(m *MCTS) {
		m.stats = stats.OrDummy(collector)
	}
}

// NewMCTS searches with one clone of machine per goroutine.
func NewMCTS(machine *statemachine.Machine, goroutines int, options ...Option) *MCTS {
	m := &MCTS{ // Default values
		goroutines: goroutines,
		cutoff:     MaxCutoff,
		seed:       1,
		evaluate:   undecided,
		stats:      stats.NewDummyCollector(),
	}
	for _, option := range options {
		option(m)
	}
	if m.goroutines <= 0 {
		panic("Must search with at least one goroutine")
	}
	if m.episodes <= 0 && m.duration <= 0 {
		panic("Must specify search episodes or duration")
	}

	m.machines = make([]*statemachine.Machine, m.goroutines)
	for i := range m.machines {
		m.machines[i] = machine.Clone()
	}
	return m
}

// Search runs episodes from state and returns the most visited move of every
// role.
func (m *MCTS) Search(state statemachine.State) ([]statemachine.Move, SearchMetric) {
	metric := SearchMetric{StartTime: time.Now(), Goroutines: m.goroutines}
	m.root = newDecision(m.machines[0], state, undecided)
	if m.root.terminal() {
		panic("Cannot search from a terminal state")
	}
	m.count.Store(0)

	// Run simulations to collect statistics
	if m.episodes > 0 {
		m.iterate()
	} else {
		m.countdown()
	}
	metric.Duration = time.Since(metric.StartTime)
	metric.Episodes = m.count.Load()
	log.Debug().Msgf("search: %d episodes on %d goroutines in %v", metric.Episodes, m.goroutines, metric.Duration)

	moves := make([]statemachine.Move, len(m.root.edges))
	for r := range moves {
		moves[r] = m.root.findBestMove(r)
	}
	return moves, metric
}

// Policy returns the visit share of every root move of role after Search.
func (m *MCTS) Policy(role int) map[string]float64 {
	if m.root == nil {
		return nil
	}
	return m.root.policy(role)
}

func (m *MCTS) iterate() {
	task := make(chan any, m.episodes)
	for i := 0; i < m.episodes; i++ {
		task <- nil
	}
	close(task)

	var wg sync.WaitGroup
	for i := 0; i < m.goroutines; i++ {
		wg.Add(1)
		go func(machine *statemachine.Machine, rng *rand.Rand) {
			defer wg.Done()

			for range task {
				m.simulate(machine, rng)
			}
		}(m.machines[i], m.rng(i))
	}

	wg.Wait()
}

func (m *MCTS) countdown() {
	done := make(chan any)

	var wg sync.WaitGroup
	for i := 0; i < m.goroutines; i++ {
		wg.Add(1)
		go func(machine *statemachine.Machine, rng *rand.Rand) {
			defer wg.Done()

			for {
				select {
				case <-done:
					return
				default:
					m.simulate(machine, rng)
				}
			}
		}(m.machines[i], m.rng(i))
	}

	<-time.After(m.duration)
	close(done)
	wg.Wait()
}

func (m *MCTS) rng(i int) *rand.Rand {
	return rand.New(rand.NewSource(m.seed + uint64(i)))
}

type step struct {
	node   *decision
	choice []int
}

func (m *MCTS) simulate(machine *statemachine.Machine, rng *rand.Rand) {
	path, leaf := selectThenExpand(m.root, machine, m.evaluate)
	goals := leaf.goals
	if goals == nil {
		goals = rollout(machine, leaf.state, m.cutoff, m.evaluate, rng, m.stats)
	}
	backup(path, goals)

	machine.Evaluator().Flush()
	m.count.Add(1)
	m.stats.Add(stats.Episodes, 1)
}

func selectThenExpand(root *decision, machine *statemachine.Machine, evaluate Evaluate) ([]step, *decision) {
	var path []step
	node := root
	for !node.terminal() {
		child, choice, added := node.SelectOrExpand(machine, evaluate)
		path = append(path, step{node: node, choice: choice})
		node = child
		if added {
			break
		}
	}
	return path, node
}

func rollout(machine *statemachine.Machine, state statemachine.State, cutoff int, evaluate Evaluate, rng *rand.Rand, collector stats.Collector) []int {
	depth := 0
	defer func() {
		collector.Add(stats.Playouts, 1)
		collector.Add(stats.PlayoutMoves, int64(depth))
	}()

	// Rollout till game over, a decided state, or cutoff number of moves
	for depth < cutoff && !machine.Terminal(state) {
		if goals, ok := evaluate(state); ok {
			return goals
		}
		state = machine.Next(state, machine.RandomJoint(state, rng)) // Random rollout policy
		depth++
	}
	return machine.Goals(state)
}

func backup(path []step, goals []int) {
	for i := len(path) - 1; i >= 0; i-- {
		path[i].node.Backup(path[i].choice, goals)
	}
}

func undecided(statemachine.State) ([]int, bool) {
	return nil, false
}

func latchedGoals(latches *tristate.Latches) Evaluate {
	roles := len(latches.Net().Roles())
	return func(state statemachine.State) ([]int, bool) {
		goals := make([]int, roles)
		for r := range goals {
			lo, _, fixed := latches.ScoreRange(r, state.Holds)
			if !fixed {
				return nil, false
			}
			goals[r] = lo
		}
		return goals, true
	}
}
