package gdl

import (
	"fmt"
	"io"
	"strings"
	"unicode"
)

type tokenType int

const (
	tokLParen tokenType = iota
	tokRParen
	tokSymbol
	tokEOF
)

type token struct {
	typ  tokenType
	text string
	line int
}

type tokenizer struct {
	input []rune
	pos   int
	line  int
}

func newTokenizer(input string) *tokenizer {
	return &tokenizer{input: []rune(input), line: 1}
}

func (t *tokenizer) peek() rune {
	if t.pos >= len(t.input) {
		return 0
	}
	return t.input[t.pos]
}

func (t *tokenizer) advance() rune {
	if t.pos >= len(t.input) {
		return 0
	}
	r := t.input[t.pos]
	t.pos++
	if r == '\n' {
		t.line++
	}
	return r
}

func (t *tokenizer) skipWhitespace() {
	for t.pos < len(t.input) {
		c := t.peek()
		if c == ';' {
			for t.pos < len(t.input) && t.peek() != '\n' {
				t.advance()
			}
		} else if unicode.IsSpace(c) {
			t.advance()
		} else {
			break
		}
	}
}

func (t *tokenizer) next() token {
	t.skipWhitespace()
	if t.pos >= len(t.input) {
		return token{typ: tokEOF, line: t.line}
	}

	switch t.peek() {
	case '(':
		t.advance()
		return token{typ: tokLParen, line: t.line}
	case ')':
		t.advance()
		return token{typ: tokRParen, line: t.line}
	}

	line := t.line
	var sb strings.Builder
	for t.pos < len(t.input) {
		c := t.peek()
		if unicode.IsSpace(c) || c == '(' || c == ')' || c == ';' {
			break
		}
		sb.WriteRune(unicode.ToLower(t.advance()))
	}
	return token{typ: tokSymbol, text: sb.String(), line: line}
}

// sexpr is either a symbol or a list.
type sexpr struct {
	symbol string
	list   []sexpr
	isList bool
	line   int
}

func (e sexpr) String() string {
	if !e.isList {
		return e.symbol
	}
	parts := make([]string, len(e.list))
	for i, x := range e.list {
		parts[i] = x.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

type reader struct {
	tokenizer *tokenizer
	current   token
}

func readAll(input string) ([]sexpr, error) {
	r := &reader{tokenizer: newTokenizer(input)}
	r.current = r.tokenizer.next()

	var exprs []sexpr
	for r.current.typ != tokEOF {
		e, err := r.read()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

func (r *reader) advance() token {
	tok := r.current
	r.current = r.tokenizer.next()
	return tok
}

func (r *reader) read() (sexpr, error) {
	switch r.current.typ {
	case tokLParen:
		open := r.advance()
		var items []sexpr
		for r.current.typ != tokRParen {
			if r.current.typ == tokEOF {
				return sexpr{}, syntaxErrorf("line %d: unbalanced parenthesis", open.line)
			}
			item, err := r.read()
			if err != nil {
				return sexpr{}, err
			}
			items = append(items, item)
		}
		r.advance()
		return sexpr{list: items, isList: true, line: open.line}, nil
	case tokRParen:
		return sexpr{}, syntaxErrorf("line %d: unexpected ')'", r.current.line)
	default:
		tok := r.advance()
		return sexpr{symbol: tok.text, line: tok.line}, nil
	}
}

// Parse reads a KIF game description.
func Parse(r io.Reader) (*Description, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read description: %w", err)
	}
	return ParseString(string(data))
}

func ParseString(text string) (*Description, error) {
	exprs, err := readAll(text)
	if err != nil {
		return nil, err
	}

	d := &Description{Rules: make([]Rule, 0, len(exprs))}
	for _, e := range exprs {
		rule, err := toRule(e)
		if err != nil {
			return nil, err
		}
		d.Rules = append(d.Rules, rule)
	}
	return d, nil
}

func toRule(e sexpr) (Rule, error) {
	if e.isList && len(e.list) > 0 && !e.list[0].isList && e.list[0].symbol == "<=" {
		if len(e.list) < 2 {
			return Rule{}, syntaxErrorf("line %d: rule without head", e.line)
		}
		head, err := toSentence(e.list[1])
		if err != nil {
			return Rule{}, err
		}
		body := make([]Literal, 0, len(e.list)-2)
		for _, item := range e.list[2:] {
			l, err := toLiteral(item)
			if err != nil {
				return Rule{}, err
			}
			body = append(body, l)
		}
		return Rule{Head: head, Body: body}, nil
	}

	head, err := toSentence(e)
	if err != nil {
		return Rule{}, err
	}
	if !head.IsGround() {
		return Rule{}, syntaxErrorf("line %d: fact %s is not ground", e.line, head)
	}
	return Rule{Head: head}, nil
}

func toLiteral(e sexpr) (Literal, error) {
	if e.isList && len(e.list) > 0 && !e.list[0].isList {
		switch e.list[0].symbol {
		case "not":
			if len(e.list) != 2 {
				return Literal{}, syntaxErrorf("line %d: not takes one argument", e.line)
			}
			s, err := toSentence(e.list[1])
			if err != nil {
				return Literal{}, err
			}
			return Neg(s), nil
		case "distinct":
			if len(e.list) != 3 {
				return Literal{}, syntaxErrorf("line %d: distinct takes two arguments", e.line)
			}
			l, err := toTerm(e.list[1])
			if err != nil {
				return Literal{}, err
			}
			r, err := toTerm(e.list[2])
			if err != nil {
				return Literal{}, err
			}
			return Diff(l, r), nil
		case "or":
			ds := make([]Literal, 0, len(e.list)-1)
			for _, item := range e.list[1:] {
				d, err := toLiteral(item)
				if err != nil {
					return Literal{}, err
				}
				ds = append(ds, d)
			}
			return Literal{Kind: Disjunction, Disjuncts: ds}, nil
		}
	}

	s, err := toSentence(e)
	if err != nil {
		return Literal{}, err
	}
	return Pos(s), nil
}

func toSentence(e sexpr) (Sentence, error) {
	t, err := toTerm(e)
	if err != nil {
		return Sentence{}, err
	}
	if t.IsVar() {
		return Sentence{}, syntaxErrorf("line %d: variable %s used as a sentence", e.line, t.Name)
	}
	return Sentence(t), nil
}

func toTerm(e sexpr) (Term, error) {
	if !e.isList {
		return Atom(e.symbol), nil
	}
	if len(e.list) == 0 {
		return Term{}, syntaxErrorf("line %d: empty list", e.line)
	}
	if e.list[0].isList {
		return Term{}, syntaxErrorf("line %d: %s does not start with a name", e.line, e)
	}
	args := make([]Term, 0, len(e.list)-1)
	for _, item := range e.list[1:] {
		a, err := toTerm(item)
		if err != nil {
			return Term{}, err
		}
		args = append(args, a)
	}
	return Func(e.list[0].symbol, args...), nil
}

func syntaxErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSyntax, fmt.Sprintf(format, args...))
}
