package searcher

import (
	"bytes"
	"context"
	"testing"
	"time"

	"ggp/compiler"
	"ggp/games"
	"ggp/rulemodel"
	"ggp/statemachine"
	"ggp/stats"
	"ggp/tristate"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func machine(t *testing.T, name string) *statemachine.Machine {
	t.Helper()
	g, err := rulemodel.Build(games.MustLoad(name))
	require.NoError(t, err)
	net, err := compiler.Compile(context.Background(), g)
	require.NoError(t, err)
	m, err := statemachine.New(net)
	require.NoError(t, err)
	return m
}

// play applies one action per role, by name.
func play(t *testing.T, m *statemachine.Machine, s statemachine.State, actions ...string) statemachine.State {
	t.Helper()
	joint := make([]statemachine.Move, len(actions))
	for r, action := range actions {
		found := false
		for _, mv := range m.Legal(s, r) {
			if mv.String() == action {
				joint[r] = mv
				found = true
			}
		}
		require.True(t, found, "%s should be legal for role %d in %s", action, r, s)
	}
	return m.Next(s, joint)
}

func TestSearch(t *testing.T) {
	t.Run("an immediate win is found", func(t *testing.T) {
		m := machine(t, games.TicTacToe)
		s := m.Initial()
		s = play(t, m, s, "(mark 1 1)", "noop")
		s = play(t, m, s, "noop", "(mark 2 1)")
		s = play(t, m, s, "(mark 1 2)", "noop")
		s = play(t, m, s, "noop", "(mark 2 2)")
		mcts := NewMCTS(m, 4, WithEpisodes(3000))

		moves, metric := mcts.Search(s)

		require.Equal(t, "(mark 1 3)", moves[0].String(), "x should complete the top row")
		require.Equal(t, "noop", moves[1].String())
		require.EqualValues(t, 3000, metric.Episodes)
		require.Equal(t, 4, metric.Goroutines)
	})

	t.Run("every episode is backed up once", func(t *testing.T) {
		m := machine(t, games.TicTacToe)
		collector := stats.NewCollector()
		mcts := NewMCTS(m, 8, WithEpisodes(500), WithStats(collector))

		mcts.Search(m.Initial())

		require.Equal(t, 500, mcts.root.Value())
		for r := range m.Roles() {
			visits := 0
			rewards := 0.0
			for _, e := range mcts.root.edges[r] {
				visits += e.visits
				rewards += e.rewards
			}
			require.Equal(t, 500, visits, "Virtual losses of role %d should be reversed", r)
			require.LessOrEqual(t, rewards, 500.0)

			share := 0.0
			for _, p := range mcts.Policy(r) {
				share += p
			}
			require.InDelta(t, 1.0, share, 1e-9)
		}
		require.EqualValues(t, 500, collector.Snapshot().Get(stats.Episodes))
		require.LessOrEqual(t, collector.Snapshot().Get(stats.Playouts), int64(500))
	})

	t.Run("a search can be bounded by time", func(t *testing.T) {
		m := machine(t, games.Bridges)
		mcts := NewMCTS(m, 2, WithDuration(20*time.Millisecond))

		moves, metric := mcts.Search(m.Initial())

		require.Len(t, moves, 1)
		require.Positive(t, metric.Episodes)
		require.GreaterOrEqual(t, metric.Duration, 20*time.Millisecond)
	})

	t.Run("a search logs its episodes", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.Logger
		log.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)
		defer func() { log.Logger = logger }()
		m := machine(t, games.Buttons)
		mcts := NewMCTS(m, 2, WithEpisodes(100))

		mcts.Search(m.Initial())

		require.Contains(t, buf.String(), "search: 100 episodes on 2 goroutines")
	})

	t.Run("a search needs a budget", func(t *testing.T) {
		m := machine(t, games.Buttons)

		require.Panics(t, func() { NewMCTS(m, 1) })
		require.Panics(t, func() { NewMCTS(m, 0, WithEpisodes(10)) })
	})

	t.Run("a terminal state cannot be searched", func(t *testing.T) {
		m := machine(t, games.Buttons)
		s := m.Initial()
		for _, action := range []string{"a", "b", "a", "c"} {
			s = play(t, m, s, action)
		}
		mcts := NewMCTS(m, 1, WithEpisodes(10))

		require.Panics(t, func() { mcts.Search(s) })
	})
}

func TestLatchedGoals(t *testing.T) {
	m := machine(t, games.Buttons)
	a, err := tristate.New(m.Net())
	require.NoError(t, err)
	latches, err := a.Analyze(context.Background())
	require.NoError(t, err)
	evaluate := latchedGoals(latches)

	s := m.Initial()
	_, ok := evaluate(s)
	require.False(t, ok, "Nothing is decided before r is lit")

	for _, action := range []string{"a", "b", "a", "c"} {
		s = play(t, m, s, action)
	}
	goals, ok := evaluate(s)
	require.True(t, ok)
	require.Equal(t, []int{100}, goals)

	t.Run("searching with latches", func(t *testing.T) {
		collector := stats.NewCollector()
		mcts := NewMCTS(m, 2, WithEpisodes(300), WithLatches(latches), WithStats(collector), WithSeed(7))

		moves, metric := mcts.Search(m.Initial())

		require.Len(t, moves, 1)
		require.EqualValues(t, 300, metric.Episodes)
		require.Equal(t, 300, mcts.root.Value())
	})
}
