// Package compiler turns a rule model into a crystallized propnet.
//
// Forms are compiled in dependency order. Each ground rule instance becomes an
// And over its body literals and the instances of one head are joined by an
// Or. next sentences reach their base propositions through transitions, with
// the INIT proposition merged into the transitions of the initial state. The
// result is then optimized until no pass changes it.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ggp/gdl"
	"ggp/propnet"
	"ggp/rulemodel"
	"ggp/stats"

	"github.com/rs/zerolog/log"
)

var (
	// ErrUnsupportedStructure is returned for rule sets the compiler cannot
	// represent, such as recursion through more than one form.
	ErrUnsupportedStructure = errors.New("unsupported rule structure")

	// ErrInterrupted is returned when the context ends during compilation.
	ErrInterrupted = errors.New("compilation interrupted")
)

const (
	DefaultLargeGateThreshold = 5
	DefaultRecursionLimit     = 1 << 17

	// checkEvery is how many steps run between context checks.
	checkEvery = 1024
)

type Options struct {
	Optimize           bool
	Reachability       bool
	Factoring          bool
	LargeGateThreshold int
	RecursionLimit     int // components one recursive form may unroll to
	Stats              stats.Collector
}

func DefaultOptions() Options {
	return Options{
		Optimize:           true,
		Reachability:       true,
		Factoring:          true,
		LargeGateThreshold: DefaultLargeGateThreshold,
		RecursionLimit:     DefaultRecursionLimit,
		Stats:              stats.NewDummyCollector(),
	}
}

type Option func(o *Options)

// WithOptimization turns every optimization pass on or off.
func WithOptimization(enabled bool) Option {
	return func(o *Options) {
		o.Optimize = enabled
	}
}

func WithReachability(enabled bool) Option {
	return func(o *Options) {
		o.Reachability = enabled
	}
}

func WithFactoring(enabled bool) Option {
	return func(o *Options) {
		o.Factoring = enabled
	}
}

func WithLargeGateThreshold(inputs int) Option {
	return func(o *Options) {
		if inputs > 0 {
			o.LargeGateThreshold = inputs
		}
	}
}

func WithRecursionLimit(components int) Option {
	return func(o *Options) {
		if components > 0 {
			o.RecursionLimit = components
		}
	}
}

func WithStats(collector stats.Collector) Option {
	return func(o *Options) {
		if collector != nil {
			o.Stats = collector
		}
	}
}

// Compile builds the propnet of m. It returns a crystallized net, or nil and
// an error wrapping ErrUnsupportedStructure or ErrInterrupted.
func Compile(ctx context.Context, m rulemodel.Model, options ...Option) (*propnet.PropNet, error) {
	opts := DefaultOptions()
	for _, option := range options {
		option(&opts)
	}

	start := time.Now()
	c := newCompiler(ctx, m, opts)
	if err := c.build(); err != nil {
		return nil, err
	}
	log.Debug().Msgf("compiler: built %d components %v", c.net.Size(), c.net.Census())

	if opts.Optimize {
		if err := c.optimize(); err != nil {
			return nil, err
		}
	}
	if err := c.checkpoint(); err != nil {
		return nil, err
	}
	if err := c.net.Crystallize(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedStructure, err)
	}

	elapsed := time.Since(start)
	opts.Stats.Add(stats.CompileNanos, elapsed.Nanoseconds())
	log.Info().Msgf("compiler: %d components (%d bases, %d inputs) in %v",
		c.net.Len(), len(c.net.Bases()), len(c.net.InputProps()), elapsed)
	return c.net, nil
}

type compiler struct {
	ctx   context.Context
	model rulemodel.Model
	opts  Options
	net   *propnet.PropNet

	props  map[string]propnet.ID
	nots   map[propnet.ID]propnet.ID
	consts [2]propnet.ID

	steps int
}

func newCompiler(ctx context.Context, m rulemodel.Model, opts Options) *compiler {
	return &compiler{
		ctx:    ctx,
		model:  m,
		opts:   opts,
		net:    propnet.New(m.Roles()),
		props:  make(map[string]propnet.ID),
		nots:   make(map[propnet.ID]propnet.ID),
		consts: [2]propnet.ID{propnet.None, propnet.None},
	}
}

func (c *compiler) checkpoint() error {
	if err := c.ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInterrupted, err)
	}
	return nil
}

// tick counts one unit of work and checks the context every checkEvery units.
func (c *compiler) tick() error {
	c.steps++
	if c.steps%checkEvery == 0 {
		return c.checkpoint()
	}
	return nil
}

// constant returns the shared constant of value v.
func (c *compiler) constant(v bool) propnet.ID {
	i := 0
	if v {
		i = 1
	}
	if id := c.consts[i]; id == propnet.None || !c.net.Alive(id) {
		c.consts[i] = c.net.AddConstant(v)
	}
	return c.consts[i]
}

// constValue reports whether id is a constant and its value.
func (c *compiler) constValue(id propnet.ID) (value, ok bool) {
	comp := c.net.Component(id)
	return comp.Value, comp.Kind == propnet.Constant
}

func (c *compiler) proposition(s gdl.Sentence) propnet.ID {
	key := s.String()
	if id, ok := c.props[key]; ok {
		return id
	}
	id := c.net.AddProposition(s)
	c.props[key] = id
	return id
}

func (c *compiler) lookup(s gdl.Sentence) (propnet.ID, bool) {
	id, ok := c.props[s.String()]
	return id, ok
}

// not returns a Not gate over id, reusing an existing one.
func (c *compiler) not(id propnet.ID) propnet.ID {
	if n, ok := c.nots[id]; ok {
		return n
	}
	n := c.net.Add(propnet.Not)
	c.net.Link(id, n)
	c.nots[id] = n
	return n
}
