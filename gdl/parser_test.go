package gdl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("reading facts and rules", func(t *testing.T) {
		d, err := ParseString(`
			; a comment
			(ROLE xplayer)
			(init (cell 1 1 b))
			(<= (legal ?w (mark ?x ?y))
			    (true (cell ?x ?y b)) ; trailing comment
			    (true (control ?w)))
			(<= terminal (not open))
		`)

		require.NoError(t, err)
		require.Len(t, d.Rules, 4, "Should read every top level expression")
		require.Equal(t, "(role xplayer)", d.Rules[0].Head.String(), "Symbols should be lower cased")
		require.True(t, d.Rules[1].IsFact(), "A sentence outside <= should be a fact")
		require.Equal(t, "(legal ?w (mark ?x ?y))", d.Rules[2].Head.String())
		require.Len(t, d.Rules[2].Body, 2)
		require.Equal(t, Negative, d.Rules[3].Body[0].Kind)
		require.Equal(t, "open", d.Rules[3].Body[0].Sentence.String(), "Zero arity sentences should be atoms")
	})

	t.Run("reading distinct and or literals", func(t *testing.T) {
		d, err := ParseString(`(<= (p ?x) (q ?x ?y) (or (distinct ?x ?y) (not (r ?y))))`)

		require.NoError(t, err)
		body := d.Rules[0].Body
		require.Equal(t, Disjunction, body[1].Kind)
		require.Equal(t, Distinct, body[1].Disjuncts[0].Kind)
		require.Equal(t, "(or (distinct ?x ?y) (not (r ?y)))", body[1].String(),
			"Literals should print back as KIF")
	})

	t.Run("roles in declaration order", func(t *testing.T) {
		d, err := ParseString(`(role white) (init (cell a)) (role black)`)

		require.NoError(t, err)
		require.Equal(t, []Term{Atom("white"), Atom("black")}, d.Roles())
	})

	t.Run("rejecting malformed input", func(t *testing.T) {
		inputs := map[string]string{
			"unbalanced":        `(role x`,
			"stray paren":       `)`,
			"variable sentence": `(<= ?x (p ?x))`,
			"non ground fact":   `(cell ?x)`,
			"bad not":           `(<= p (not q r))`,
			"bad distinct":      `(<= (p ?x) (q ?x) (distinct ?x))`,
			"empty list":        `(<= p ())`,
		}
		for name, input := range inputs {
			_, err := ParseString(input)
			require.Error(t, err, name)
			require.True(t, errors.Is(err, ErrSyntax), "%s should be a syntax error", name)
		}
	})
}

func TestParseSentence(t *testing.T) {
	t.Run("round trip through String", func(t *testing.T) {
		s := MustSentence("(true (cell 1 2 x))")

		require.Equal(t, "(true (cell 1 2 x))", s.String())
		require.Equal(t, "(cell 1 2 x)", s.Unwrap().String())
		require.True(t, s.Equal(Wrap(True, s.Unwrap())), "Wrap should invert Unwrap")
	})

	t.Run("rejecting several sentences", func(t *testing.T) {
		_, err := ParseSentence("p q")

		require.ErrorIs(t, err, ErrSyntax)
	})
}

func TestBindings(t *testing.T) {
	t.Run("matching binds free variables and checks bound ones", func(t *testing.T) {
		b := Bindings{}
		bound, ok := b.Match(MustSentence("(cell ?x ?x ?w)"), MustSentence("(cell 1 1 b)"))

		require.True(t, ok)
		require.ElementsMatch(t, []string{"?x", "?w"}, bound)
		require.Equal(t, "(line b)", b.Sentence(MustSentence("(line ?w)")).String())
	})

	t.Run("failed match leaves bindings untouched", func(t *testing.T) {
		b := Bindings{"?y": Atom("2")}
		_, ok := b.Match(MustSentence("(cell ?x ?x)"), MustSentence("(cell 1 2)"))

		require.False(t, ok)
		require.Equal(t, Bindings{"?y": Atom("2")}, b, "Partial bindings should be undone")
	})
}
