package gdl

import (
	"fmt"
	"strconv"

	"golang.org/x/exp/slices"
)

// Prover evaluates a description bottom-up, stratum by stratum. It is slow
// and exact: every propnet built from the same description must agree with it.
type Prover struct {
	roles  []Term
	strata [][]Rule
}

func NewProver(d *Description) (*Prover, error) {
	rules, err := Normalize(d.Rules)
	if err != nil {
		return nil, err
	}
	strata, err := Stratify(rules)
	if err != nil {
		return nil, err
	}
	return &Prover{roles: d.Roles(), strata: strata}, nil
}

// Stratify groups rules so that every negated relation is fully computed by an
// earlier group.
func Stratify(rules []Rule) ([][]Rule, error) {
	level := make(map[string]int)
	for _, r := range rules {
		level[r.Head.Name] = 0
	}
	limit := len(level) + 1

	for changed := true; changed; {
		changed = false
		for _, r := range rules {
			h := r.Head.Name
			for _, l := range r.Body {
				need := 0
				switch l.Kind {
				case Positive:
					need = level[l.Sentence.Name]
				case Negative:
					need = level[l.Sentence.Name] + 1
				default:
					continue
				}
				if level[h] < need {
					if need > limit {
						return nil, fmt.Errorf("%w: %s depends negatively on itself", ErrUnstratified, h)
					}
					level[h] = need
					changed = true
				}
			}
		}
	}

	top := 0
	for _, lv := range level {
		top = max(top, lv)
	}
	strata := make([][]Rule, top+1)
	for _, r := range rules {
		lv := level[r.Head.Name]
		strata[lv] = append(strata[lv], r)
	}
	return strata, nil
}

func (p *Prover) Roles() []Term {
	return p.roles
}

// Evaluate derives every sentence that follows from the given ground input
// sentences, typically the (true ...) sentences of a state and the (does ...)
// sentences of a joint move.
func (p *Prover) Evaluate(input ...Sentence) *Facts {
	facts := NewFacts()
	for _, s := range input {
		facts.Add(s)
	}

	for _, stratum := range p.strata {
		for {
			var derived []Sentence
			for _, r := range stratum {
				b := Bindings{}
				Solve(r.Body, b, facts, func() {
					derived = append(derived, b.Sentence(r.Head))
				})
			}
			added := false
			for _, s := range derived {
				if facts.Add(s) {
					added = true
				}
			}
			if !added {
				break
			}
		}
	}
	return facts
}

// Initial returns the (true ...) sentences of the initial state.
func (p *Prover) Initial() []Sentence {
	facts := p.Evaluate()
	var state []Sentence
	for _, s := range facts.Select(Init) {
		state = append(state, Wrap(True, s.Unwrap()))
	}
	return state
}

// Solve enumerates every extension of b that satisfies body against facts,
// calling yield once per solution with b holding the bindings. Positive
// literals are expected before the others, as Normalize arranges them.
func Solve(body []Literal, b Bindings, facts *Facts, yield func()) {
	if len(body) == 0 {
		yield()
		return
	}
	l := body[0]
	if l.Kind != Positive {
		if Holds(l.Substitute(b), facts) {
			Solve(body[1:], b, facts, yield)
		}
		return
	}
	for _, g := range facts.byName[l.Sentence.Name] {
		bound, ok := b.Match(l.Sentence, g)
		if !ok {
			continue
		}
		Solve(body[1:], b, facts, yield)
		b.Unbind(bound)
	}
}

// Holds evaluates a ground literal.
func Holds(l Literal, facts *Facts) bool {
	switch l.Kind {
	case Positive:
		return facts.Has(l.Sentence)
	case Negative:
		return !facts.Has(l.Sentence)
	case Distinct:
		return !l.Left.Equal(l.Right)
	default:
		for _, d := range l.Disjuncts {
			if Holds(d, facts) {
				return true
			}
		}
		return false
	}
}

// Facts is a set of ground sentences indexed by relation name.
type Facts struct {
	set    map[string]Sentence
	byName map[string][]Sentence
}

func NewFacts() *Facts {
	return &Facts{
		set:    make(map[string]Sentence),
		byName: make(map[string][]Sentence),
	}
}

// Add inserts s and reports whether it was new.
func (f *Facts) Add(s Sentence) bool {
	key := s.String()
	if _, ok := f.set[key]; ok {
		return false
	}
	f.set[key] = s
	f.byName[s.Name] = append(f.byName[s.Name], s)
	return true
}

func (f *Facts) Has(s Sentence) bool {
	_, ok := f.set[s.String()]
	return ok
}

func (f *Facts) Len() int {
	return len(f.set)
}

// Select returns the sentences of one relation sorted by their text.
func (f *Facts) Select(name string) []Sentence {
	out := slices.Clone(f.byName[name])
	slices.SortFunc(out, func(a, b Sentence) int {
		return compareText(a.String(), b.String())
	})
	return out
}

// Names returns the relation names present, sorted.
func (f *Facts) Names() []string {
	names := make([]string, 0, len(f.byName))
	for name := range f.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (f *Facts) Terminal() bool {
	return f.Has(NewSentence(Terminal))
}

// Legal returns the (legal role move) sentences of one role.
func (f *Facts) Legal(role Term) []Sentence {
	var out []Sentence
	for _, s := range f.Select(Legal) {
		if len(s.Args) == 2 && s.Args[0].Equal(role) {
			out = append(out, s)
		}
	}
	return out
}

// Next returns the successor state as (true ...) sentences.
func (f *Facts) Next() []Sentence {
	var out []Sentence
	for _, s := range f.Select(Next) {
		out = append(out, Wrap(True, s.Unwrap()))
	}
	return out
}

// Goal returns the goal value of role, if the rules define exactly one.
func (f *Facts) Goal(role Term) (int, bool) {
	value, found := 0, false
	for _, s := range f.byName[Goal] {
		if len(s.Args) != 2 || !s.Args[0].Equal(role) {
			continue
		}
		v, err := strconv.Atoi(s.Args[1].Name)
		if err != nil || found {
			return 0, false
		}
		value, found = v, true
	}
	return value, found
}

func compareText(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
