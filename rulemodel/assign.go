package rulemodel

import (
	"ggp/gdl"
)

// enumerator walks the positive literals of a rule body depth first. Level i
// binds literal i against its form's domain; distinct literals are checked as
// soon as their variables are bound.
type enumerator struct {
	lits   []gdl.Literal
	cands  [][]gdl.Sentence
	checks [][]gdl.Literal
	pre    []gdl.Literal
	pos    []int
	bound  [][]string
	b      gdl.Bindings

	started bool
	done    bool
	resume  int
}

func newEnumerator(r gdl.Rule, domain func(Form) []gdl.Sentence) *enumerator {
	e := &enumerator{b: gdl.Bindings{}, resume: -1}

	firstLevel := make(map[string]int)
	for _, l := range r.Body {
		if l.Kind != gdl.Positive {
			continue
		}
		level := len(e.lits)
		for _, v := range l.Vars(nil) {
			if _, ok := firstLevel[v]; !ok {
				firstLevel[v] = level
			}
		}
		e.lits = append(e.lits, l)
		e.cands = append(e.cands, domain(FormOf(l.Sentence)))
	}

	e.checks = make([][]gdl.Literal, len(e.lits))
	for _, l := range r.Body {
		if l.Kind != gdl.Distinct {
			continue
		}
		level := -1
		for _, v := range l.Vars(nil) {
			level = max(level, firstLevel[v])
		}
		if level < 0 {
			e.pre = append(e.pre, l)
		} else {
			e.checks[level] = append(e.checks[level], l)
		}
	}

	e.pos = make([]int, len(e.lits))
	e.bound = make([][]string, len(e.lits))
	return e
}

func (e *enumerator) Next() (gdl.Bindings, bool) {
	if e.done {
		return nil, false
	}
	if !e.started {
		e.started = true
		for _, l := range e.pre {
			if !gdl.Holds(l, nil) {
				e.done = true
				return nil, false
			}
		}
		if len(e.lits) == 0 {
			e.done = true
			return e.b, true
		}
		e.pos[0] = -1
		return e.search(0)
	}

	level := len(e.lits) - 1
	if e.resume >= 0 {
		level = e.resume
		e.resume = -1
	}
	return e.search(level)
}

// search moves level to its next consistent candidate, then fills the deeper
// levels, backtracking when a level runs out of candidates.
func (e *enumerator) search(level int) (gdl.Bindings, bool) {
	for level >= 0 {
		e.b.Unbind(e.bound[level])
		e.bound[level] = nil

		found := false
		for e.pos[level]++; e.pos[level] < len(e.cands[level]); e.pos[level]++ {
			bound, ok := e.b.Match(e.lits[level].Sentence, e.cands[level][e.pos[level]])
			if !ok {
				continue
			}
			if !e.checksHold(level) {
				e.b.Unbind(bound)
				continue
			}
			e.bound[level] = bound
			found = true
			break
		}

		if !found {
			level--
			continue
		}
		if level == len(e.lits)-1 {
			return e.b, true
		}
		level++
		e.pos[level] = -1
	}
	e.done = true
	return nil, false
}

func (e *enumerator) checksHold(level int) bool {
	for _, l := range e.checks[level] {
		if !gdl.Holds(l.Substitute(e.b), nil) {
			return false
		}
	}
	return true
}

// Skip drops every assignment sharing the current values of vars by advancing
// the deepest level that binds one of them.
func (e *enumerator) Skip(vars []string) {
	if e.done || !e.started {
		return
	}
	level := -1
	for i, bound := range e.bound {
		for _, v := range bound {
			for _, w := range vars {
				if v == w {
					level = max(level, i)
				}
			}
		}
	}
	if level < 0 {
		// The failing literal is ground: no assignment can satisfy it.
		e.done = true
		return
	}
	for i := len(e.lits) - 1; i > level; i-- {
		e.b.Unbind(e.bound[i])
		e.bound[i] = nil
	}
	e.resume = level
}
