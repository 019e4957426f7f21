package evaluator

import (
	"context"
	"testing"

	"ggp/compiler"
	"ggp/games"
	"ggp/gdl"
	"ggp/propnet"
	"ggp/rulemodel"
	"ggp/stats"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func compile(t *testing.T, name string, options ...compiler.Option) *propnet.PropNet {
	t.Helper()
	g, err := rulemodel.Build(games.MustLoad(name))
	require.NoError(t, err)
	net, err := compiler.Compile(context.Background(), g, options...)
	require.NoError(t, err)
	return net
}

func storedIDs(e *Evaluator) []propnet.ID {
	var ids []propnet.ID
	for i := 0; i < e.Net().Len(); i++ {
		if e.Stored(propnet.ID(i)) {
			ids = append(ids, propnet.ID(i))
		}
	}
	return ids
}

// requireConsistent checks every value of e against a full evaluation.
func requireConsistent(t *testing.T, e *Evaluator) {
	t.Helper()
	want := Full(e.Net(), e.Value)
	for i, v := range want {
		require.Equal(t, v, e.Value(propnet.ID(i)), "Value of %s", e.Net().Component(propnet.ID(i)))
	}
}

func TestConsistency(t *testing.T) {
	for _, name := range games.Names() {
		for _, optimize := range []bool{true, false} {
			net := compile(t, name, compiler.WithOptimization(optimize))

			t.Run(name, func(t *testing.T) {
				e, err := New(net)
				require.NoError(t, err)
				stored := storedIDs(e)
				rng := rand.New(rand.NewSource(uint64(len(stored))))
				requireConsistent(t, e)

				for round := 0; round < 200; round++ {
					for k := rng.Intn(6); k >= 0; k-- {
						e.SetValue(stored[rng.Intn(len(stored))], rng.Intn(2) == 0)
					}
					if round%3 == 0 {
						// Flip a proposition and back within one move.
						id := stored[rng.Intn(len(stored))]
						v := e.Value(id)
						e.SetValue(id, !v)
						e.SetValue(id, v)
					}
					if round%4 == 0 {
						// Leave most of the net dirty for the next round.
						for k := 0; k < 5; k++ {
							e.Value(propnet.ID(rng.Intn(net.Len())))
						}
						continue
					}
					requireConsistent(t, e)
				}
				requireConsistent(t, e)
			})
		}
	}
}

func TestIncrementality(t *testing.T) {
	net := compile(t, games.TicTacToe)

	t.Run("reading twice recomputes nothing", func(t *testing.T) {
		collector := stats.NewCollector()
		e, err := New(net, WithStats(collector))
		require.NoError(t, err)
		requireConsistent(t, e)
		e.Flush()

		before := collector.Snapshot()
		for i := 0; i < net.Len(); i++ {
			e.Value(propnet.ID(i))
		}
		e.Flush()
		delta := collector.Snapshot().Sub(before)

		require.Zero(t, delta.Get(stats.Recomputes))
		require.Equal(t, int64(net.Len()), delta.Get(stats.CacheHits))
	})

	t.Run("a write of the current value marks nothing", func(t *testing.T) {
		collector := stats.NewCollector()
		e, err := New(net, WithStats(collector))
		require.NoError(t, err)
		requireConsistent(t, e)
		id := storedIDs(e)[0]

		e.SetValue(id, e.Value(id))
		e.Flush()

		snapshot := collector.Snapshot()
		require.Equal(t, int64(1), snapshot.Get(stats.Writes))
		require.Equal(t, int64(1), snapshot.Get(stats.NoopWrites))
		require.Zero(t, snapshot.Get(stats.DirtyMarks))
	})

	t.Run("a write marks its outputs", func(t *testing.T) {
		e, err := New(net)
		require.NoError(t, err)
		requireConsistent(t, e)
		base := net.BaseOf(gdl.MustSentence("(control xplayer)"))

		e.SetValue(base, true)

		marked := false
		for _, out := range net.Outputs(base) {
			marked = marked || e.Dirty(out)
		}
		require.True(t, marked, "Some output of the written proposition should be dirty")
		requireConsistent(t, e)
	})

	t.Run("writing a computed component panics", func(t *testing.T) {
		e, err := New(net)
		require.NoError(t, err)

		require.Panics(t, func() { e.SetValue(net.Terminal(), true) })
	})

	t.Run("an unfrozen net is rejected", func(t *testing.T) {
		_, err := New(propnet.New([]gdl.Term{gdl.Atom("robot")}))

		require.ErrorIs(t, err, propnet.ErrNotFrozen)
	})
}

func TestReset(t *testing.T) {
	net := compile(t, games.Buttons)
	e, err := New(net)
	require.NoError(t, err)
	stored := storedIDs(e)
	for _, id := range stored {
		e.SetValue(id, true)
	}
	requireConsistent(t, e)

	e.Reset(false)
	for _, id := range stored {
		require.True(t, e.Value(id), "Reset without clear keeps stored values")
	}
	requireConsistent(t, e)

	e.Reset(true)
	for _, id := range stored {
		require.False(t, e.Value(id))
	}
	requireConsistent(t, e)
}

func TestClone(t *testing.T) {
	net := compile(t, games.TicTacToe)
	e, err := New(net)
	require.NoError(t, err)
	stored := storedIDs(e)
	rng := rand.New(rand.NewSource(3))

	t.Run("clones evolve independently", func(t *testing.T) {
		for _, id := range stored[:len(stored)/2] {
			e.SetValue(id, true)
		}
		requireConsistent(t, e)
		c := e.Clone()

		for k := 0; k < 50; k++ {
			c.SetValue(stored[rng.Intn(len(stored))], rng.Intn(2) == 0)
		}
		requireConsistent(t, c)

		for i, id := range stored {
			require.Equal(t, i < len(stored)/2, e.Value(id), "The original should keep its values")
		}
		requireConsistent(t, e)
	})

	t.Run("reordering inputs keeps values", func(t *testing.T) {
		c := e.Clone()
		var gate propnet.ID = propnet.None
		for i := 0; i < net.Len(); i++ {
			id := propnet.ID(i)
			if k := net.Kind(id); (k == propnet.And || k == propnet.Or) && len(net.Inputs(id)) > 2 {
				gate = id
				break
			}
		}
		require.NotEqual(t, propnet.None, gate, "tic-tac-toe has large gates")
		original := append([]propnet.ID(nil), c.Inputs(gate)...)

		for round := 0; round < 100; round++ {
			e.SetValue(stored[rng.Intn(len(stored))], rng.Intn(2) == 0)
			requireConsistent(t, e)
		}
		e.OptimizeInputOrder()
		requireConsistent(t, e)

		require.ElementsMatch(t, original, e.Inputs(gate))
		require.Equal(t, original, c.Inputs(gate), "A clone should keep its own input order")
		require.Equal(t, original, net.Inputs(gate), "The net should not be reordered")

		for round := 0; round < 100; round++ {
			e.SetValue(stored[rng.Intn(len(stored))], rng.Intn(2) == 0)
			requireConsistent(t, e)
		}
		requireConsistent(t, c)
	})
}

func TestFullDetectsCycles(t *testing.T) {
	net := propnet.New([]gdl.Term{gdl.Atom("robot")})
	a := net.Add(propnet.And)
	o := net.Add(propnet.Or)
	net.Link(a, o)
	net.Link(o, a)

	require.Panics(t, func() { Full(net, func(propnet.ID) bool { return false }) })
}
