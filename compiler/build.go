package compiler

import (
	"fmt"

	"ggp/gdl"
	"ggp/propnet"
	"ggp/rulemodel"

	"github.com/rs/zerolog/log"
)

var (
	trueForm     = rulemodel.Form{Name: gdl.True, Arity: 1}
	doesForm     = rulemodel.Form{Name: gdl.Does, Arity: 2}
	initForm     = rulemodel.Form{Name: gdl.Init, Arity: 1}
	nextForm     = rulemodel.Form{Name: gdl.Next, Arity: 1}
	terminalForm = rulemodel.Form{Name: gdl.Terminal, Arity: 0}
)

// keepsConstants reports whether the sentences of a constant form still need
// propositions, because the state machine reads them or they feed a base.
func keepsConstants(f rulemodel.Form) bool {
	switch f {
	case nextForm, terminalForm:
		return true
	}
	return (f.Name == gdl.Legal || f.Name == gdl.Goal) && f.Arity == 2
}

func (c *compiler) build() error {
	steps, err := order(c.model)
	if err != nil {
		return err
	}
	if err := c.checkpoint(); err != nil {
		return err
	}

	for _, s := range c.model.Domain(trueForm) {
		c.proposition(s)
	}
	for _, s := range c.model.Domain(doesForm) {
		c.proposition(s)
	}

	for _, s := range steps {
		f := s.form
		switch {
		case f == trueForm || f == doesForm || f == initForm:
		case c.model.Constant(f):
			if keepsConstants(f) {
				for _, sentence := range c.model.TrueSentences(f) {
					c.net.Link(c.constant(true), c.proposition(sentence))
				}
			}
		default:
			if err := c.compileForm(f, s.recursive); err != nil {
				return err
			}
		}
		if err := c.checkpoint(); err != nil {
			return err
		}
	}

	if err := c.transitions(); err != nil {
		return err
	}
	if _, ok := c.lookup(gdl.NewSentence(gdl.Terminal)); !ok {
		log.Warn().Msg("compiler: the rules never define terminal")
		c.net.Link(c.constant(false), c.proposition(gdl.NewSentence(gdl.Terminal)))
	}
	return nil
}

// layer maps the ground heads of one form to the component computing them.
type layer struct {
	heads map[string]gdl.Sentence
	value map[string]propnet.ID
	order []string
}

// compileForm builds the rules of f. A recursive form is unrolled: layer k
// holds the heads derivable in at most k recursive steps, layer 0 derives
// nothing. A minimal derivation never repeats a head, so the unrolling stops
// once no new head appears and it is as deep as the number of heads.
func (c *compiler) compileForm(f rulemodel.Form, recursive bool) error {
	if !recursive {
		l, err := c.buildLayer(f, nil)
		if err != nil {
			return err
		}
		c.attach(l)
		return nil
	}

	start := c.net.Len()
	prev := &layer{value: map[string]propnet.ID{}}
	for depth := 1; ; depth++ {
		cur, err := c.buildLayer(f, prev)
		if err != nil {
			return err
		}
		if c.net.Len()-start > c.opts.RecursionLimit {
			return fmt.Errorf("%w: unrolling %s exceeds %d components", ErrUnsupportedStructure, f, c.opts.RecursionLimit)
		}
		stable := len(cur.order) == len(prev.order)
		prev = cur
		if stable && depth >= len(cur.order) {
			break
		}
	}
	log.Debug().Msgf("compiler: unrolled %s to %d heads", f, len(prev.order))
	c.attach(prev)
	return nil
}

// attach feeds every head proposition from its layer component.
func (c *compiler) attach(l *layer) {
	for _, key := range l.order {
		c.net.Link(l.value[key], c.proposition(l.heads[key]))
	}
}

// buildLayer compiles every rule of f once. Literals of f itself read prev,
// which is nil for a form that does not depend on itself.
func (c *compiler) buildLayer(f rulemodel.Form, prev *layer) (*layer, error) {
	l := &layer{
		heads: make(map[string]gdl.Sentence),
		value: make(map[string]propnet.ID),
	}
	instances := make(map[string][]propnet.ID)
	always := make(map[string]bool)

	for _, r := range c.model.Rules(f) {
		e := c.model.Assignments(r)
		for b, ok := e.Next(); ok; b, ok = e.Next() {
			if err := c.tick(); err != nil {
				return nil, err
			}
			head := b.Sentence(r.Head)
			key := head.String()
			if always[key] {
				continue
			}

			var inputs []propnet.ID
			holds := true
			for _, lit := range r.Body {
				id, v, err := c.literal(lit, b, f, prev)
				if err != nil {
					return nil, err
				}
				if id != propnet.None {
					inputs = append(inputs, id)
				} else if !v {
					e.Skip(lit.Vars(nil))
					holds = false
					break
				}
			}
			if !holds {
				continue
			}

			if _, seen := l.heads[key]; !seen {
				l.heads[key] = head
				l.order = append(l.order, key)
			}
			if len(inputs) == 0 {
				always[key] = true
				continue
			}
			instances[key] = append(instances[key], c.andify(inputs))
		}
	}

	for _, key := range l.order {
		if always[key] {
			l.value[key] = c.constant(true)
			continue
		}
		l.value[key] = c.orify(instances[key])
	}
	return l, nil
}

// literal resolves one body literal under b. It returns the component whose
// value is the literal's, or None and the literal's constant value.
func (c *compiler) literal(lit gdl.Literal, b gdl.Bindings, self rulemodel.Form, prev *layer) (propnet.ID, bool, error) {
	switch lit.Kind {
	case gdl.Distinct:
		return propnet.None, gdl.Holds(lit.Substitute(b), nil), nil
	case gdl.Positive:
		id, v := c.resolve(b.Sentence(lit.Sentence), self, prev)
		return id, v, nil
	case gdl.Negative:
		s := b.Sentence(lit.Sentence)
		if rulemodel.FormOf(s) == self {
			return propnet.None, false, fmt.Errorf("%w: %s depends on its own negation", ErrUnsupportedStructure, self)
		}
		id, v := c.resolve(s, self, prev)
		if id == propnet.None {
			return propnet.None, !v, nil
		}
		return c.not(id), false, nil
	default:
		return propnet.None, false, fmt.Errorf("%w: literal %s", ErrUnsupportedStructure, lit)
	}
}

// resolve finds the component of a ground sentence, or its constant value
// when there is none.
func (c *compiler) resolve(s gdl.Sentence, self rulemodel.Form, prev *layer) (propnet.ID, bool) {
	f := rulemodel.FormOf(s)
	if f == self {
		if id, ok := prev.value[s.String()]; ok {
			return id, false
		}
		return propnet.None, false
	}
	if c.model.Constant(f) {
		return propnet.None, c.model.Holds(s)
	}
	if id, ok := c.lookup(s); ok {
		return id, false
	}
	return propnet.None, false
}

func (c *compiler) andify(inputs []propnet.ID) propnet.ID {
	if len(inputs) == 1 {
		return inputs[0]
	}
	and := c.net.Add(propnet.And)
	for _, in := range inputs {
		c.net.Link(in, and)
	}
	return and
}

func (c *compiler) orify(inputs []propnet.ID) propnet.ID {
	if len(inputs) == 1 {
		return inputs[0]
	}
	or := c.net.Add(propnet.Or)
	for _, in := range inputs {
		c.net.Link(in, or)
	}
	return or
}

// transitions connects every next proposition to its base through a
// transition, merges INIT into the transitions of the initial bases and feeds
// bases that nothing produces with FALSE.
func (c *compiler) transitions() error {
	for _, s := range c.model.Domain(nextForm) {
		next, ok := c.lookup(s)
		if !ok {
			continue
		}
		base := c.proposition(gdl.Wrap(gdl.True, s.Unwrap()))
		t := c.net.Add(propnet.Transition)
		c.net.Link(next, t)
		c.net.Link(t, base)
	}

	var inits []gdl.Sentence
	if len(c.model.Rules(initForm)) > 0 {
		if !c.model.Constant(initForm) {
			return fmt.Errorf("%w: init depends on the game state", ErrUnsupportedStructure)
		}
		inits = c.model.TrueSentences(initForm)
	}
	if len(inits) > 0 {
		init := c.proposition(propnet.InitName)
		for _, s := range inits {
			base := c.proposition(gdl.Wrap(gdl.True, s.Unwrap()))
			c.net.MarkInitial(base)
			if in := c.net.Inputs(base); len(in) == 1 {
				t := in[0]
				next := c.net.Inputs(t)[0]
				or := c.net.Add(propnet.Or)
				c.net.Unlink(next, t)
				c.net.Link(next, or)
				c.net.Link(init, or)
				c.net.Link(or, t)
				continue
			}
			t := c.net.Add(propnet.Transition)
			c.net.Link(init, t)
			c.net.Link(t, base)
		}
	}

	for _, s := range c.model.Domain(trueForm) {
		base, _ := c.lookup(s)
		if len(c.net.Inputs(base)) == 0 {
			c.net.Link(c.constant(false), base)
		}
	}
	return nil
}
