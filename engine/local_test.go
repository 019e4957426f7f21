package engine

import (
	"context"
	"testing"

	"ggp/compiler"
	"ggp/games"
	"ggp/propnet"
	"ggp/rulemodel"
	"ggp/searcher"
	"ggp/statemachine"

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

type illegalAgent struct{}

func (illegalAgent) Name() string { return "illegal" }

func (illegalAgent) FindMove(statemachine.State, int) statemachine.Move {
	return statemachine.Move{Legal: propnet.None, Input: propnet.None}
}

func TestLocalEngine(t *testing.T) {
	t.Run("random agents finish a game", func(t *testing.T) {
		m := machine(t, games.TicTacToe)
		e := NewLocalEngine(games.TicTacToe, m, []Agent{NewRandomAgent(m, 1), NewRandomAgent(m, 2)})

		record := e.Run()

		require.Equal(t, games.TicTacToe, record.Game)
		require.Equal(t, []string{"random", "random"}, record.Agents)
		require.GreaterOrEqual(t, record.Moves, 5)
		require.LessOrEqual(t, record.Moves, 9)
		require.Len(t, record.Goals, 2)
		require.Equal(t, 100, record.Goals[0]+record.Goals[1], "Tic-tac-toe is constant sum")
	})

	t.Run("a searching agent solves buttons", func(t *testing.T) {
		m := machine(t, games.Buttons)
		mcts := searcher.NewMCTS(m, 2, searcher.WithEpisodes(2000))
		e := NewLocalEngine(games.Buttons, m, []Agent{NewSearchAgent("mcts", mcts)})

		record := e.Run()

		require.Equal(t, []int{100}, record.Goals)
		require.Equal(t, []string{"mcts"}, record.Agents)
	})

	t.Run("an illegal move is replaced", func(t *testing.T) {
		m := machine(t, games.Bridges)
		e := NewLocalEngine(games.Bridges, m, []Agent{illegalAgent{}})

		record := e.Run()

		require.Equal(t, 4, record.Moves, "One bridge alone never links the banks")
		require.Equal(t, []int{0}, record.Goals)
	})

	t.Run("every role needs an agent", func(t *testing.T) {
		m := machine(t, games.TicTacToe)

		require.Panics(t, func() { NewLocalEngine(games.TicTacToe, m, []Agent{NewRandomAgent(m, 1)}) })
	})
}
