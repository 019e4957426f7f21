package gdl

// Bindings maps variable names to ground terms.
type Bindings map[string]Term

// Substitute replaces every bound variable of t.
func (b Bindings) Substitute(t Term) Term {
	if t.IsVar() {
		if v, ok := b[t.Name]; ok {
			return v
		}
		return t
	}
	if len(t.Args) == 0 {
		return t
	}
	args := make([]Term, len(t.Args))
	for i, a := range t.Args {
		args[i] = b.Substitute(a)
	}
	return Term{Name: t.Name, Args: args}
}

func (b Bindings) Sentence(s Sentence) Sentence {
	return Sentence(b.Substitute(Term(s)))
}

// Match unifies pattern against a ground sentence, binding free variables of
// pattern in place. It returns the variables it bound so the caller can undo
// them with Unbind. On failure b is left unchanged.
func (b Bindings) Match(pattern, ground Sentence) ([]string, bool) {
	var bound []string
	if !b.match(Term(pattern), Term(ground), &bound) {
		b.Unbind(bound)
		return nil, false
	}
	return bound, true
}

func (b Bindings) match(p, g Term, bound *[]string) bool {
	if p.IsVar() {
		if v, ok := b[p.Name]; ok {
			return v.Equal(g)
		}
		b[p.Name] = g
		*bound = append(*bound, p.Name)
		return true
	}
	if p.Name != g.Name || len(p.Args) != len(g.Args) {
		return false
	}
	for i := range p.Args {
		if !b.match(p.Args[i], g.Args[i], bound) {
			return false
		}
	}
	return true
}

func (b Bindings) Unbind(vars []string) {
	for _, v := range vars {
		delete(b, v)
	}
}

func (b Bindings) Bound(vars []string) bool {
	for _, v := range vars {
		if _, ok := b[v]; !ok {
			return false
		}
	}
	return true
}

func (b Bindings) Clone() Bindings {
	c := make(Bindings, len(b))
	for k, v := range b {
		c[k] = v
	}
	return c
}
