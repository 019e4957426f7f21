// Package rulemodel describes a game's rules the way the propnet compiler
// consumes them: sentence forms with their ground domains, the dependency graph
// between forms, an oracle for forms whose truth never depends on the game
// state, and lazy enumeration of the variable assignments of a rule.
package rulemodel

import (
	"errors"
	"fmt"

	"ggp/gdl"
)

// ErrMalformedRule is returned for rule sets the model cannot be built from.
var ErrMalformedRule = errors.New("malformed rule")

// Form identifies a sentence form by relation name and arity.
type Form struct {
	Name  string
	Arity int
}

func FormOf(s gdl.Sentence) Form {
	return Form{Name: s.Name, Arity: len(s.Args)}
}

func (f Form) String() string {
	return fmt.Sprintf("%s/%d", f.Name, f.Arity)
}

// Model is what the compiler needs to know about a rule set.
type Model interface {
	Roles() []gdl.Term
	// Forms lists every sentence form in a stable order.
	Forms() []Form
	// Rules returns the normalized rules whose head has form f.
	Rules(f Form) []gdl.Rule
	// Domain returns every ground sentence of form f that may ever hold.
	Domain(f Form) []gdl.Sentence
	// Dependencies returns the forms used in the bodies of f's rules.
	Dependencies(f Form) []Form
	// Constant reports whether f's truth is independent of the game state.
	Constant(f Form) bool
	// TrueSentences returns the sentences of a constant form that hold.
	TrueSentences(f Form) []gdl.Sentence
	// Holds reports whether a ground sentence of a constant form holds.
	Holds(s gdl.Sentence) bool
	// Assignments enumerates the assignments of r's variables that ground
	// every positive literal within its domain and satisfy every distinct.
	Assignments(r gdl.Rule) Enumerator
}

// Enumerator yields variable assignments one at a time. The bindings returned
// by Next are only valid until the following call.
type Enumerator interface {
	Next() (gdl.Bindings, bool)
	// Skip abandons every remaining assignment that agrees with the current
	// one on vars.
	Skip(vars []string)
}
