package tristate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"ggp/propnet"

	"github.com/rs/zerolog/log"
)

// ErrInterrupted is returned when the context ends during Analyze.
var ErrInterrupted = errors.New("latch analysis interrupted")

// GoalLatch records that a goal proposition keeps Value for the rest of the
// game once Base has Polarity.
type GoalLatch struct {
	Base     propnet.ID
	Polarity bool
	Role     int
	Goal     propnet.ID
	Value    bool
}

// Latches is the result of Analyze. It is read-only and safe to share.
type Latches struct {
	net      *propnet.PropNet
	positive map[propnet.ID]bool
	negative map[propnet.ID]bool
	goals    []GoalLatch
}

func (l *Latches) Net() *propnet.PropNet {
	return l.net
}

func (l *Latches) IsLatch(base propnet.ID, polarity bool) bool {
	if polarity {
		return l.positive[base]
	}
	return l.negative[base]
}

// Bases returns the latches of one polarity in base order.
func (l *Latches) Bases(polarity bool) []propnet.ID {
	var out []propnet.ID
	for _, b := range l.net.Bases() {
		if l.IsLatch(b, polarity) {
			out = append(out, b)
		}
	}
	return out
}

func (l *Latches) Goals() []GoalLatch {
	return l.goals
}

// ScoreRange bounds the final score of role in a state, given which bases
// hold in it. fixed is set when a latched goal decides the score.
func (l *Latches) ScoreRange(role int, holds func(base propnet.ID) bool) (lo, hi int, fixed bool) {
	excluded := make(map[propnet.ID]bool)
	for _, g := range l.goals {
		if g.Role != role || holds(g.Base) != g.Polarity {
			continue
		}
		if g.Value {
			v := l.net.GoalValue(g.Goal)
			return v, v, true
		}
		excluded[g.Goal] = true
	}

	lo, hi = math.MaxInt, math.MinInt
	for _, g := range l.net.Goals(role) {
		if excluded[g] {
			continue
		}
		lo = min(lo, l.net.GoalValue(g))
		hi = max(hi, l.net.GoalValue(g))
	}
	if lo > hi {
		return 0, 0, false
	}
	return lo, hi, false
}

// Analyze tests every base proposition in both polarities, then looks for the
// goals each latch decides.
func (a *Analyzer) Analyze(ctx context.Context) (*Latches, error) {
	start := time.Now()
	l := &Latches{
		net:      a.net,
		positive: make(map[propnet.ID]bool),
		negative: make(map[propnet.ID]bool),
	}

	for _, b := range a.net.Bases() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInterrupted, err)
		}
		for _, polarity := range []bool{true, false} {
			if !a.IsLatch(b, polarity) {
				continue
			}
			if polarity {
				l.positive[b] = true
			} else {
				l.negative[b] = true
			}
			l.goals = append(l.goals, a.goalLatches(b, polarity)...)
		}
	}

	log.Info().Msgf("tristate: %d positive and %d negative latches, %d goal latches in %v",
		len(l.positive), len(l.negative), len(l.goals), time.Since(start))
	return l, nil
}

// goalLatches returns the goals decided in any turn where base has polarity.
func (a *Analyzer) goalLatches(base propnet.ID, polarity bool) []GoalLatch {
	a.Reset()
	if a.assume(base, 0, valueOf(polarity)) != proceed {
		return nil
	}

	var out []GoalLatch
	for r := range a.net.Roles() {
		for _, g := range a.net.Goals(r) {
			if v := a.Value(g, 0); v != Unknown {
				out = append(out, GoalLatch{Base: base, Polarity: polarity, Role: r, Goal: g, Value: v == True})
			}
		}
	}
	return out
}
