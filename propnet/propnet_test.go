package propnet

import (
	"bytes"
	"testing"

	"ggp/gdl"

	"github.com/stretchr/testify/require"
)

var robot = gdl.Atom("robot")

// latch builds (next p) <= (does robot a) or (true p), (legal robot a),
// terminal <= (true p), goal 100 <= (true p).
func latch(t *testing.T) (*PropNet, map[string]ID) {
	t.Helper()
	n := New([]gdl.Term{robot})
	ids := map[string]ID{
		"p":        n.AddProposition(gdl.MustSentence("(true p)")),
		"does":     n.AddProposition(gdl.MustSentence("(does robot a)")),
		"legal":    n.AddProposition(gdl.MustSentence("(legal robot a)")),
		"terminal": n.AddProposition(gdl.MustSentence("terminal")),
		"goal":     n.AddProposition(gdl.MustSentence("(goal robot 100)")),
		"or":       n.Add(Or),
		"next":     n.AddProposition(gdl.MustSentence("(next p)")),
		"trans":    n.Add(Transition),
		"true":     n.AddConstant(true),
	}
	n.Link(ids["does"], ids["or"])
	n.Link(ids["p"], ids["or"])
	n.Link(ids["or"], ids["next"])
	n.Link(ids["next"], ids["trans"])
	n.Link(ids["trans"], ids["p"])
	n.Link(ids["true"], ids["legal"])
	n.Link(ids["p"], ids["terminal"])
	n.Link(ids["p"], ids["goal"])
	return n, ids
}

func TestMutation(t *testing.T) {
	t.Run("roles follow from names", func(t *testing.T) {
		n, ids := latch(t)

		require.Equal(t, RoleBase, n.Component(ids["p"]).Role)
		require.Equal(t, RoleInput, n.Component(ids["does"]).Role)
		require.Equal(t, RoleLegal, n.Component(ids["legal"]).Role)
		require.Equal(t, RoleGoal, n.Component(ids["goal"]).Role)
		require.Equal(t, RoleTerminal, n.Component(ids["terminal"]).Role)
		require.Equal(t, RoleNone, n.Component(ids["next"]).Role)
	})

	t.Run("links are not duplicated", func(t *testing.T) {
		n, ids := latch(t)

		n.Link(ids["p"], ids["or"])

		require.Equal(t, []ID{ids["does"], ids["p"]}, n.Inputs(ids["or"]))
	})

	t.Run("redirect keeps the input position", func(t *testing.T) {
		n, ids := latch(t)
		q := n.AddProposition(gdl.MustSentence("q"))

		n.Redirect(ids["does"], q)

		require.Equal(t, []ID{q, ids["p"]}, n.Inputs(ids["or"]))
		require.Empty(t, n.Outputs(ids["does"]))
		require.Equal(t, []ID{ids["or"]}, n.Outputs(q))
	})

	t.Run("redirect onto an existing input drops the duplicate", func(t *testing.T) {
		n, ids := latch(t)

		n.Redirect(ids["does"], ids["p"])

		require.Equal(t, []ID{ids["p"]}, n.Inputs(ids["or"]))
	})

	t.Run("remove disconnects both sides", func(t *testing.T) {
		n, ids := latch(t)

		n.Remove(ids["or"])

		require.False(t, n.Alive(ids["or"]))
		require.Empty(t, n.Inputs(ids["next"]))
		require.NotContains(t, n.Outputs(ids["p"]), ids["or"])
		require.NotContains(t, n.Outputs(ids["does"]), ids["or"])
	})

	t.Run("stored propositions", func(t *testing.T) {
		n, ids := latch(t)

		require.True(t, n.Stored(ids["p"]), "Bases fed by a transition are stored")
		require.True(t, n.Stored(ids["does"]), "Propositions without inputs are stored")
		require.False(t, n.Stored(ids["terminal"]))
		require.False(t, n.Stored(ids["or"]))
	})
}

func TestCrystallize(t *testing.T) {
	t.Run("compacting renumbers and indexes", func(t *testing.T) {
		n, ids := latch(t)
		junk := n.Add(And)
		n.Link(ids["p"], junk)
		n.Remove(junk)
		before := n.Len()

		require.NoError(t, n.Crystallize())

		require.Equal(t, before-1, n.Len(), "Removed components should be dropped")
		require.True(t, n.Frozen())
		require.Len(t, n.Bases(), 1)
		require.Equal(t, "(true p)", n.Component(n.BaseOf(gdl.MustSentence("p"))).Name.String())
		require.Len(t, n.Legals(0), 1)
		require.Len(t, n.Goals(0), 1)
		require.Equal(t, 100, n.GoalValue(n.Goals(0)[0]))
		require.Equal(t, "terminal", n.Component(n.Terminal()).String())
		require.Equal(t, None, n.Init())
		require.Equal(t,
			n.InputOf(gdl.MustSentence("(does robot a)")),
			n.InputFor(n.Legals(0)[0]),
			"Legal propositions should map to their input")
		for id := 0; id < n.Len(); id++ {
			for _, in := range n.Inputs(ID(id)) {
				require.Contains(t, n.Outputs(in), ID(id), "Edges should stay symmetric after renumbering")
			}
		}
	})

	t.Run("mutating a frozen net panics", func(t *testing.T) {
		n, ids := latch(t)
		require.NoError(t, n.Crystallize())

		require.PanicsWithValue(t, ErrGraphFrozen, func() {
			n.Link(ids["p"], ids["or"])
		})
		require.ErrorIs(t, n.Crystallize(), ErrGraphFrozen, "Crystallizing twice should fail")
	})

	t.Run("the initial mark survives renumbering", func(t *testing.T) {
		n, ids := latch(t)
		n.Remove(n.Add(And))
		n.MarkInitial(ids["p"])
		require.NoError(t, n.Crystallize())

		require.True(t, n.Component(n.BaseOf(gdl.MustSentence("p"))).Initial)
		require.True(t, n.Clone().Component(n.BaseOf(gdl.MustSentence("p"))).Initial)
		require.PanicsWithValue(t, ErrGraphFrozen, func() { n.MarkInitial(n.Bases()[0]) })
	})

	t.Run("rejecting a same turn cycle", func(t *testing.T) {
		n, ids := latch(t)
		n.Unlink(ids["trans"], ids["p"])
		n.Link(ids["next"], ids["p"])

		require.ErrorIs(t, n.Crystallize(), ErrMalformedNet)
	})

	t.Run("rejecting a missing terminal", func(t *testing.T) {
		n, ids := latch(t)
		n.Remove(ids["terminal"])

		require.ErrorIs(t, n.Crystallize(), ErrMalformedNet)
	})

	t.Run("rejecting a not with two inputs", func(t *testing.T) {
		n, ids := latch(t)
		not := n.Add(Not)
		n.Link(ids["p"], not)
		n.Link(ids["does"], not)

		require.ErrorIs(t, n.Crystallize(), ErrMalformedNet)
	})

	t.Run("clones are independent and unfrozen", func(t *testing.T) {
		n, ids := latch(t)
		require.NoError(t, n.Crystallize())

		c := n.Clone()
		c.Remove(ids["or"])

		require.False(t, c.Frozen())
		require.NotEmpty(t, n.Inputs(ids["next"]), "The original should keep its edges")
		require.Equal(t, n.Census()[Or]-1, c.Census()[Or])
	})
}

func TestWriteDot(t *testing.T) {
	n, _ := latch(t)
	require.NoError(t, n.Crystallize())

	var buf bytes.Buffer
	require.NoError(t, n.WriteDot(&buf))

	out := buf.String()
	require.Contains(t, out, "digraph propnet {")
	require.Contains(t, out, `label="(true p)\nbase"`)
	require.Contains(t, out, "[style=dashed]", "Transition edges should be dashed")
}
