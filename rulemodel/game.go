package rulemodel

import (
	"fmt"

	"ggp/gdl"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/slices"
)

// MaxDomainSize bounds the domain fixpoint for descriptions whose function
// terms would otherwise grow forever.
const MaxDomainSize = 1 << 20

// Game is the Model of one game description.
type Game struct {
	roles     []gdl.Term
	forms     []Form
	rules     map[Form][]gdl.Rule
	domains   map[Form][]gdl.Sentence
	deps      map[Form][]Form
	constant  map[Form]bool
	constants *gdl.Facts
}

var _ Model = (*Game)(nil)

// Build normalizes the rules of d and computes domains, dependencies and the
// constant forms.
func Build(d *gdl.Description) (*Game, error) {
	rules, err := gdl.Normalize(d.Rules)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRule, err)
	}
	if len(d.Roles()) == 0 {
		return nil, fmt.Errorf("%w: no roles", ErrMalformedRule)
	}

	g := &Game{
		roles:    d.Roles(),
		rules:    make(map[Form][]gdl.Rule),
		deps:     make(map[Form][]Form),
		constant: make(map[Form]bool),
	}
	for _, r := range rules {
		f := FormOf(r.Head)
		g.rules[f] = append(g.rules[f], r)
	}

	possible, err := domains(rules)
	if err != nil {
		return nil, err
	}
	g.domains = group(possible)
	g.forms = formsOf(rules, g.domains)
	g.dependencies(rules)
	g.classify()

	prover, err := gdl.NewProver(&gdl.Description{Rules: rules})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRule, err)
	}
	g.constants = prover.Evaluate()

	log.Debug().Msgf("rule model: %d rules, %d forms, %d possible sentences", len(rules), len(g.forms), possible.Len())
	return g, nil
}

// domains computes every sentence that can hold in some state, ignoring
// negation. true sentences come from init and next, does sentences from legal.
func domains(rules []gdl.Rule) (*gdl.Facts, error) {
	bodies := make([][]gdl.Literal, len(rules))
	for i, r := range rules {
		for _, l := range r.Body {
			if l.Kind != gdl.Negative {
				bodies[i] = append(bodies[i], l)
			}
		}
	}

	possible := gdl.NewFacts()
	for changed := true; changed; {
		changed = false
		var derived []gdl.Sentence
		for i, r := range rules {
			b := gdl.Bindings{}
			gdl.Solve(bodies[i], b, possible, func() {
				derived = append(derived, b.Sentence(r.Head))
			})
		}
		for _, s := range derived {
			switch s.Name {
			case gdl.Init, gdl.Next:
				if len(s.Args) == 1 && possible.Add(gdl.Wrap(gdl.True, s.Unwrap())) {
					changed = true
				}
			case gdl.Legal:
				if len(s.Args) == 2 && possible.Add(gdl.NewSentence(gdl.Does, s.Args...)) {
					changed = true
				}
			}
			if possible.Add(s) {
				changed = true
			}
		}
		if possible.Len() > MaxDomainSize {
			return nil, fmt.Errorf("%w: sentence domains exceed %d sentences", ErrMalformedRule, MaxDomainSize)
		}
	}
	return possible, nil
}

func group(possible *gdl.Facts) map[Form][]gdl.Sentence {
	out := make(map[Form][]gdl.Sentence)
	for _, name := range possible.Names() {
		for _, s := range possible.Select(name) {
			f := FormOf(s)
			out[f] = append(out[f], s)
		}
	}
	return out
}

func formsOf(rules []gdl.Rule, domains map[Form][]gdl.Sentence) []Form {
	set := make(map[Form]bool)
	for f := range domains {
		set[f] = true
	}
	for _, r := range rules {
		set[FormOf(r.Head)] = true
		for _, l := range r.Body {
			if l.Kind == gdl.Positive || l.Kind == gdl.Negative {
				set[FormOf(l.Sentence)] = true
			}
		}
	}
	forms := make([]Form, 0, len(set))
	for f := range set {
		forms = append(forms, f)
	}
	slices.SortFunc(forms, func(a, b Form) int {
		if a.Name != b.Name {
			if a.Name < b.Name {
				return -1
			}
			return 1
		}
		return a.Arity - b.Arity
	})
	return forms
}

func (g *Game) dependencies(rules []gdl.Rule) {
	for _, r := range rules {
		h := FormOf(r.Head)
		for _, l := range r.Body {
			if l.Kind != gdl.Positive && l.Kind != gdl.Negative {
				continue
			}
			f := FormOf(l.Sentence)
			if !slices.Contains(g.deps[h], f) {
				g.deps[h] = append(g.deps[h], f)
			}
		}
	}
}

// classify marks every form that depends, directly or not, on true or does as
// non-constant.
func (g *Game) classify() {
	dependents := make(map[Form][]Form)
	for h, fs := range g.deps {
		for _, f := range fs {
			dependents[f] = append(dependents[f], h)
		}
	}

	variable := make(map[Form]bool)
	var queue []Form
	for _, f := range g.forms {
		if f.Name == gdl.True || f.Name == gdl.Does {
			variable[f] = true
			queue = append(queue, f)
		}
	}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		for _, h := range dependents[f] {
			if !variable[h] {
				variable[h] = true
				queue = append(queue, h)
			}
		}
	}

	for _, f := range g.forms {
		g.constant[f] = !variable[f]
	}
}

func (g *Game) Roles() []gdl.Term {
	return g.roles
}

func (g *Game) Forms() []Form {
	return g.forms
}

func (g *Game) Rules(f Form) []gdl.Rule {
	return g.rules[f]
}

func (g *Game) Domain(f Form) []gdl.Sentence {
	return g.domains[f]
}

func (g *Game) Dependencies(f Form) []Form {
	return g.deps[f]
}

func (g *Game) Constant(f Form) bool {
	return g.constant[f]
}

func (g *Game) TrueSentences(f Form) []gdl.Sentence {
	if !g.constant[f] {
		panic(fmt.Sprintf("form %s is not constant", f))
	}
	var out []gdl.Sentence
	for _, s := range g.constants.Select(f.Name) {
		if len(s.Args) == f.Arity {
			out = append(out, s)
		}
	}
	return out
}

func (g *Game) Holds(s gdl.Sentence) bool {
	if !g.constant[FormOf(s)] {
		panic(fmt.Sprintf("sentence %s does not have a constant form", s))
	}
	return g.constants.Has(s)
}

func (g *Game) Assignments(r gdl.Rule) Enumerator {
	return newEnumerator(r, g.Domain)
}
