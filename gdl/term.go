// Package gdl holds the Game Description Language data model: terms, sentences,
// literals and rules, a KIF reader, and a small stratified prover that evaluates
// a description directly. The prover is the reference the compiled propnets are
// checked against.
package gdl

import "strings"

// Reserved relation names.
const (
	Role     = "role"
	Init     = "init"
	True     = "true"
	Next     = "next"
	Legal    = "legal"
	Does     = "does"
	Goal     = "goal"
	Terminal = "terminal"
	Base     = "base"
	Input    = "input"
)

// Term is a constant, a variable (name starting with '?') or a function term.
type Term struct {
	Name string
	Args []Term
}

func Atom(name string) Term {
	return Term{Name: name}
}

func Func(name string, args ...Term) Term {
	return Term{Name: name, Args: args}
}

func (t Term) IsVar() bool {
	return strings.HasPrefix(t.Name, "?")
}

func (t Term) IsGround() bool {
	if t.IsVar() {
		return false
	}
	for _, a := range t.Args {
		if !a.IsGround() {
			return false
		}
	}
	return true
}

func (t Term) Equal(o Term) bool {
	if t.Name != o.Name || len(t.Args) != len(o.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

func (t Term) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t Term) write(sb *strings.Builder) {
	if len(t.Args) == 0 {
		sb.WriteString(t.Name)
		return
	}
	sb.WriteByte('(')
	sb.WriteString(t.Name)
	for _, a := range t.Args {
		sb.WriteByte(' ')
		a.write(sb)
	}
	sb.WriteByte(')')
}

// Vars appends the variables of t to dst, without duplicates.
func (t Term) Vars(dst []string) []string {
	if t.IsVar() {
		return appendUnique(dst, t.Name)
	}
	for _, a := range t.Args {
		dst = a.Vars(dst)
	}
	return dst
}

// Sentence is a relation over terms. A ground sentence names a proposition.
type Sentence struct {
	Name string
	Args []Term
}

func NewSentence(name string, args ...Term) Sentence {
	return Sentence{Name: name, Args: args}
}

// ParseSentence reads a single sentence such as "(cell 1 1 b)" or "terminal".
func ParseSentence(text string) (Sentence, error) {
	items, err := readAll(text)
	if err != nil {
		return Sentence{}, err
	}
	if len(items) != 1 {
		return Sentence{}, syntaxErrorf("expected one sentence, got %d expressions", len(items))
	}
	return toSentence(items[0])
}

// MustSentence is ParseSentence for literals known to be well formed.
func MustSentence(text string) Sentence {
	s, err := ParseSentence(text)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Sentence) Arity() int {
	return len(s.Args)
}

func (s Sentence) IsGround() bool {
	for _, a := range s.Args {
		if !a.IsGround() {
			return false
		}
	}
	return true
}

func (s Sentence) Equal(o Sentence) bool {
	return Term(s).Equal(Term(o))
}

// String renders s in KIF. Ground sentences use it as their identity.
func (s Sentence) String() string {
	return Term(s).String()
}

func (s Sentence) Vars(dst []string) []string {
	return Term(s).Vars(dst)
}

// Unwrap turns the single argument of a wrapper relation such as true, next or
// init into a sentence: (true (cell 1 1 b)) -> (cell 1 1 b).
func (s Sentence) Unwrap() Sentence {
	if len(s.Args) != 1 {
		panic("sentence " + s.String() + " does not wrap a single term")
	}
	return Sentence(s.Args[0])
}

// Wrap is the inverse of Unwrap: Wrap("true", (cell 1 1 b)) = (true (cell 1 1 b)).
func Wrap(name string, s Sentence) Sentence {
	return Sentence{Name: name, Args: []Term{Term(s)}}
}

func appendUnique(dst []string, name string) []string {
	for _, v := range dst {
		if v == name {
			return dst
		}
	}
	return append(dst, name)
}
