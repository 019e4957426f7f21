package gdl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const counter = `
	(role player)
	(init (count 0))
	(succ 0 1)
	(succ 1 2)
	(legal player inc)
	(legal player stay)
	(<= (next (count ?y)) (does player inc) (true (count ?x)) (succ ?x ?y))
	(<= (next (count ?x)) (does player stay) (true (count ?x)))
	(<= (reached ?x) (true (count ?x)))
	(<= (reached ?x) (true (count ?y)) (succ ?x ?y))
	(<= (reached ?x) (true (count ?z)) (succ ?y ?z) (reached ?y) (succ ?x ?y))
	(<= terminal (true (count 2)))
	(<= (goal player 100) (true (count 2)))
	(<= (goal player 0) (not (true (count 2))))
`

func TestNormalize(t *testing.T) {
	t.Run("expanding disjunctions", func(t *testing.T) {
		d, err := ParseString(`(<= (p ?x) (or (q ?x) (r ?x)) (s ?x) (or (distinct ?x a) (distinct ?x b)))`)
		require.NoError(t, err)

		rules, err := Normalize(d.Rules)

		require.NoError(t, err)
		require.Len(t, rules, 4, "Two binary disjunctions should expand into four rules")
		for _, r := range rules {
			require.Equal(t, Positive, r.Body[0].Kind, "Positive literals should come first")
			require.Equal(t, Positive, r.Body[1].Kind, "Positive literals should come first")
			require.Equal(t, Distinct, r.Body[2].Kind)
		}
	})

	t.Run("rejecting unsafe rules", func(t *testing.T) {
		unsafe := []string{
			`(<= (p ?x) (q ?y))`,
			`(<= p (q ?x) (not (r ?y)))`,
			`(<= p (q ?x) (distinct ?x ?z))`,
		}
		for _, text := range unsafe {
			d, err := ParseString(text)
			require.NoError(t, err)

			_, err = Normalize(d.Rules)

			require.ErrorIs(t, err, ErrUnsafeRule, text)
		}
	})
}

func TestStratify(t *testing.T) {
	t.Run("negated relations are computed in an earlier stratum", func(t *testing.T) {
		d, err := ParseString(`(<= p (q ?x) (not (r ?x))) (<= (r ?x) (q ?x) (s ?x))`)
		require.NoError(t, err)

		strata, err := Stratify(d.Rules)

		require.NoError(t, err)
		require.Len(t, strata, 2)
		require.Equal(t, "r", strata[0][0].Head.Name)
		require.Equal(t, "p", strata[1][0].Head.Name)
	})

	t.Run("rejecting negation through recursion", func(t *testing.T) {
		d, err := ParseString(`(<= (p ?x) (q ?x) (not (p ?x)))`)
		require.NoError(t, err)

		_, err = Stratify(d.Rules)

		require.ErrorIs(t, err, ErrUnstratified)
	})
}

func TestProver(t *testing.T) {
	d, err := ParseString(counter)
	require.NoError(t, err)
	p, err := NewProver(d)
	require.NoError(t, err)
	player := Atom("player")

	t.Run("initial state", func(t *testing.T) {
		require.Equal(t, []Sentence{MustSentence("(true (count 0))")}, p.Initial())
	})

	t.Run("legal moves, goals and terminal", func(t *testing.T) {
		facts := p.Evaluate(p.Initial()...)

		require.Len(t, facts.Legal(player), 2)
		require.False(t, facts.Terminal())
		goal, ok := facts.Goal(player)
		require.True(t, ok, "Exactly one goal should hold")
		require.Equal(t, 0, goal)
	})

	t.Run("next state", func(t *testing.T) {
		facts := p.Evaluate(MustSentence("(true (count 1))"), MustSentence("(does player inc)"))

		require.Equal(t, []Sentence{MustSentence("(true (count 2))")}, facts.Next())
	})

	t.Run("recursive relations reach their fixpoint", func(t *testing.T) {
		facts := p.Evaluate(MustSentence("(true (count 2))"))

		for _, x := range []string{"0", "1", "2"} {
			require.True(t, facts.Has(NewSentence("reached", Atom(x))), "count 2 should reach %s", x)
		}
		require.True(t, facts.Terminal())
		goal, _ := facts.Goal(player)
		require.Equal(t, 100, goal)
	})
}
