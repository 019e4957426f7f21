package rulemodel

import (
	"testing"

	"ggp/games"
	"ggp/gdl"

	"github.com/stretchr/testify/require"
)

func buildGame(t *testing.T, name string) *Game {
	t.Helper()
	g, err := Build(games.MustLoad(name))
	require.NoError(t, err)
	return g
}

func TestBuild(t *testing.T) {
	t.Run("domains of noughts and crosses", func(t *testing.T) {
		g := buildGame(t, games.TicTacToe)

		require.Len(t, g.Domain(Form{gdl.True, 1}), 9*3+2,
			"Every cell can hold b, x or o and control can name either role")
		require.Len(t, g.Domain(Form{gdl.Does, 2}), 2*(9+1),
			"Each role can mark any cell or noop")
		require.Contains(t, g.Domain(Form{"line", 1}), gdl.MustSentence("(line x)"))
	})

	t.Run("constant forms", func(t *testing.T) {
		g := buildGame(t, games.Buttons)

		require.True(t, g.Constant(Form{"succ", 2}))
		require.True(t, g.Constant(Form{gdl.Legal, 2}), "Legal facts never depend on the state")
		require.True(t, g.Constant(Form{gdl.Init, 1}))
		require.False(t, g.Constant(Form{gdl.Next, 1}))
		require.False(t, g.Constant(Form{gdl.Goal, 2}))
		require.False(t, g.Constant(Form{gdl.True, 1}))
		require.Len(t, g.TrueSentences(Form{"succ", 2}), 6)
		require.True(t, g.Holds(gdl.MustSentence("(succ 3 4)")))
		require.False(t, g.Holds(gdl.MustSentence("(succ 4 3)")))
	})

	t.Run("dependencies", func(t *testing.T) {
		g := buildGame(t, games.TicTacToe)

		require.ElementsMatch(t,
			[]Form{{"row", 2}, {"column", 2}, {"diagonal", 1}},
			g.Dependencies(Form{"line", 1}))
		require.ElementsMatch(t,
			[]Form{{"line", 1}, {"open", 0}},
			g.Dependencies(Form{gdl.Goal, 2}))
	})

	t.Run("panics when asking for the truth of a variable form", func(t *testing.T) {
		g := buildGame(t, games.TicTacToe)

		require.Panics(t, func() {
			g.TrueSentences(Form{"line", 1})
		}, "Should panic for a form that depends on the state")
	})

	t.Run("rejecting descriptions without roles or with unsafe rules", func(t *testing.T) {
		for _, text := range []string{
			`(init p) (<= (next p) (true p))`,
			`(role r) (<= (next ?x) (true p))`,
		} {
			d, err := gdl.ParseString(text)
			require.NoError(t, err)

			_, err = Build(d)

			require.ErrorIs(t, err, ErrMalformedRule, text)
		}
	})
}

func TestAssignments(t *testing.T) {
	g := buildGame(t, games.TicTacToe)
	legal := g.Rules(Form{gdl.Legal, 2})[0]
	require.Equal(t, "(legal ?w (mark ?x ?y))", legal.Head.String())

	count := func(e Enumerator, skip []string) int {
		n := 0
		for _, ok := e.Next(); ok; _, ok = e.Next() {
			n++
			if skip != nil {
				e.Skip(skip)
			}
		}
		return n
	}

	t.Run("enumerating every assignment", func(t *testing.T) {
		require.Equal(t, 9*2, count(g.Assignments(legal), nil),
			"Every blank cell pairs with every control value")
	})

	t.Run("skipping assignments that share a failed binding", func(t *testing.T) {
		require.Equal(t, 9, count(g.Assignments(legal), []string{"?x", "?y"}),
			"Skipping on the cell should visit each cell once")
	})

	t.Run("skipping on a ground literal ends enumeration", func(t *testing.T) {
		e := g.Assignments(legal)
		_, ok := e.Next()
		require.True(t, ok)

		e.Skip(nil)
		_, ok = e.Next()

		require.False(t, ok, "No assignment can satisfy a false ground literal")
	})

	t.Run("distinct filters assignments", func(t *testing.T) {
		var keep gdl.Rule
		for _, r := range g.Rules(Form{gdl.Next, 1}) {
			if r.Head.String() == "(next (cell ?m ?n ?w))" {
				keep = r
			}
		}

		e := g.Assignments(keep)
		n := 0
		for b, ok := e.Next(); ok; b, ok = e.Next() {
			require.NotEqual(t, "b", b["?w"].Name, "distinct ?w b should filter blanks")
			n++
		}
		require.Equal(t, 9*2, n)
	})

	t.Run("rules without positive literals have one assignment", func(t *testing.T) {
		var rule gdl.Rule
		for _, r := range g.Rules(Form{gdl.Terminal, 0}) {
			if r.Body[0].Kind == gdl.Negative {
				rule = r
			}
		}

		require.Equal(t, 1, count(g.Assignments(rule), nil))
	})
}
