package experiments

import (
	"context"
	"fmt"
	"time"

	"ggp/propnet"
	"ggp/statemachine"
	"ggp/stats"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

// Throughput plays random games from the initial state on one machine per
// worker for duration, and counts what the evaluators did.
func Throughput(ctx context.Context, game string, net *propnet.PropNet, workers int, duration time.Duration, seed uint64) (stats.ThroughputRecord, error) {
	collector := stats.NewCollector()
	m, err := statemachine.New(net, statemachine.WithStats(collector))
	if err != nil {
		return stats.ThroughputRecord{}, fmt.Errorf("failed to create state machine: %w", err)
	}
	initial := m.Initial()

	machines := make([]*statemachine.Machine, workers)
	for i := range machines {
		machines[i] = m.Clone()
	}

	timed, cancel := context.WithTimeout(ctx, duration)
	defer cancel()
	g, gctx := errgroup.WithContext(timed)

	start := time.Now()
	for i, machine := range machines {
		machine := machine
		rng := rand.New(rand.NewSource(seed + uint64(i)))
		g.Go(func() error {
			for gctx.Err() == nil {
				machine.Playout(initial, rng)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats.ThroughputRecord{}, err
	}
	if err := ctx.Err(); err != nil {
		return stats.ThroughputRecord{}, fmt.Errorf("throughput interrupted: %w", err)
	}

	snapshot := collector.Snapshot()
	record := stats.ThroughputRecord{
		Game:     game,
		Workers:  workers,
		Duration: time.Since(start),
		Playouts: snapshot.Get(stats.Playouts),
		Moves:    snapshot.Get(stats.PlayoutMoves),
		Snapshot: snapshot,
	}
	log.Info().Msgf("%d workers played %d games of %s (%.1f per second)", workers, record.Playouts, game, record.PlayoutsPerSecond())
	return record, nil
}
