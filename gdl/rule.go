package gdl

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSyntax is returned for KIF text that does not describe a GDL rule set.
	ErrSyntax = errors.New("gdl syntax error")
	// ErrUnsafeRule is returned for a rule with a variable that no positive
	// body literal binds.
	ErrUnsafeRule = errors.New("unsafe rule")
	// ErrUnstratified is returned when negation is used through recursion.
	ErrUnstratified = errors.New("rules are not stratified")
)

type LiteralKind uint8

const (
	Positive LiteralKind = iota
	Negative
	Distinct
	Disjunction
)

type Literal struct {
	Kind      LiteralKind
	Sentence  Sentence  // Positive and Negative
	Left      Term      // Distinct
	Right     Term      // Distinct
	Disjuncts []Literal // Disjunction
}

func Pos(s Sentence) Literal {
	return Literal{Kind: Positive, Sentence: s}
}

func Neg(s Sentence) Literal {
	return Literal{Kind: Negative, Sentence: s}
}

func Diff(l, r Term) Literal {
	return Literal{Kind: Distinct, Left: l, Right: r}
}

func (l Literal) Vars(dst []string) []string {
	switch l.Kind {
	case Positive, Negative:
		return l.Sentence.Vars(dst)
	case Distinct:
		return l.Right.Vars(l.Left.Vars(dst))
	default:
		for _, d := range l.Disjuncts {
			dst = d.Vars(dst)
		}
		return dst
	}
}

// Substitute grounds l under b.
func (l Literal) Substitute(b Bindings) Literal {
	switch l.Kind {
	case Positive, Negative:
		return Literal{Kind: l.Kind, Sentence: b.Sentence(l.Sentence)}
	case Distinct:
		return Literal{Kind: Distinct, Left: b.Substitute(l.Left), Right: b.Substitute(l.Right)}
	default:
		ds := make([]Literal, len(l.Disjuncts))
		for i, d := range l.Disjuncts {
			ds[i] = d.Substitute(b)
		}
		return Literal{Kind: Disjunction, Disjuncts: ds}
	}
}

func (l Literal) String() string {
	switch l.Kind {
	case Positive:
		return l.Sentence.String()
	case Negative:
		return "(not " + l.Sentence.String() + ")"
	case Distinct:
		return "(distinct " + l.Left.String() + " " + l.Right.String() + ")"
	default:
		parts := make([]string, len(l.Disjuncts))
		for i, d := range l.Disjuncts {
			parts[i] = d.String()
		}
		return "(or " + strings.Join(parts, " ") + ")"
	}
}

// Rule is a Horn clause with negation. Facts have an empty body.
type Rule struct {
	Head Sentence
	Body []Literal
}

func (r Rule) IsFact() bool {
	return len(r.Body) == 0
}

func (r Rule) String() string {
	if r.IsFact() {
		return r.Head.String()
	}
	parts := make([]string, 0, len(r.Body)+2)
	parts = append(parts, "(<=", r.Head.String())
	for _, l := range r.Body {
		parts = append(parts, l.String())
	}
	return strings.Join(parts, " ") + ")"
}

// Vars returns every variable of the rule, head first.
func (r Rule) Vars() []string {
	vars := r.Head.Vars(nil)
	for _, l := range r.Body {
		vars = l.Vars(vars)
	}
	return vars
}

// Description is a complete game: its rules and facts in source order.
type Description struct {
	Rules []Rule
}

// Roles lists the role facts in declaration order.
func (d *Description) Roles() []Term {
	var roles []Term
	for _, r := range d.Rules {
		if r.IsFact() && r.Head.Name == Role && len(r.Head.Args) == 1 {
			roles = append(roles, r.Head.Args[0])
		}
	}
	return roles
}

// Normalize expands disjunctions into separate rules, moves positive literals
// to the front of every body and checks that each rule is safe.
func Normalize(rules []Rule) ([]Rule, error) {
	var out []Rule
	for _, r := range rules {
		for _, body := range expand(r.Body) {
			n := Rule{Head: r.Head, Body: orderBody(body)}
			if err := CheckSafety(n); err != nil {
				return nil, err
			}
			out = append(out, n)
		}
	}
	return out, nil
}

// expand distributes every disjunction of body, returning the alternatives.
func expand(body []Literal) [][]Literal {
	bodies := [][]Literal{nil}
	for _, l := range body {
		var alts []Literal
		if l.Kind == Disjunction {
			for _, d := range l.Disjuncts {
				if d.Kind == Disjunction {
					for _, inner := range expand([]Literal{d}) {
						alts = append(alts, inner...)
					}
					continue
				}
				alts = append(alts, d)
			}
		} else {
			alts = []Literal{l}
		}
		next := make([][]Literal, 0, len(bodies)*len(alts))
		for _, b := range bodies {
			for _, a := range alts {
				nb := make([]Literal, len(b), len(b)+1)
				copy(nb, b)
				next = append(next, append(nb, a))
			}
		}
		bodies = next
	}
	return bodies
}

func orderBody(body []Literal) []Literal {
	out := make([]Literal, 0, len(body))
	for _, l := range body {
		if l.Kind == Positive {
			out = append(out, l)
		}
	}
	for _, l := range body {
		if l.Kind != Positive {
			out = append(out, l)
		}
	}
	return out
}

// CheckSafety reports ErrUnsafeRule when a variable of the head, of a negated
// literal or of a distinct does not occur in a positive body literal.
func CheckSafety(r Rule) error {
	var bound []string
	for _, l := range r.Body {
		if l.Kind == Positive {
			bound = l.Vars(bound)
		}
	}
	check := r.Head.Vars(nil)
	for _, l := range r.Body {
		if l.Kind != Positive {
			check = l.Vars(check)
		}
	}
	for _, v := range check {
		if !contains(bound, v) {
			return fmt.Errorf("%w: variable %s in %s", ErrUnsafeRule, v, r)
		}
	}
	return nil
}

func contains(vars []string, v string) bool {
	for _, x := range vars {
		if x == v {
			return true
		}
	}
	return false
}
