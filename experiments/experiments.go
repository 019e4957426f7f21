package experiments

import (
	"context"
	"fmt"

	"ggp/config"
	"ggp/engine"
	"ggp/propnet"
	"ggp/searcher"
	"ggp/statemachine"
	"ggp/stats"
	"ggp/tristate"

	"github.com/rs/zerolog/log"
)

// Run runs the throughput experiment for every worker count, then the
// configured matches, and stores every record under cfg.Experiments.Output.
// latches may be nil.
func Run(ctx context.Context, game string, net *propnet.PropNet, latches *tristate.Latches, cfg config.Config) error {
	throughput, err := runThroughput(ctx, game, net, cfg.Experiments)
	if err != nil {
		return err
	}
	matches, err := runMatches(ctx, game, net, latches, cfg)
	if err != nil {
		return err
	}

	writer, err := stats.NewWriter(cfg.Experiments.Output)
	if err != nil {
		return fmt.Errorf("failed to create experiment writer: %w", err)
	}

	if err := writer.WriteThroughput(throughput); err != nil {
		return fmt.Errorf("failed to write throughput records: %w", err)
	}
	log.Info().Msg("stored throughput records")

	if err := writer.WriteMatches(matches); err != nil {
		return fmt.Errorf("failed to write match records: %w", err)
	}
	log.Info().Msg("stored match records")

	if latches != nil {
		if err := writer.WriteLatches(LatchRecords(game, latches)); err != nil {
			return fmt.Errorf("failed to write latch records: %w", err)
		}
		log.Info().Msg("stored latch records")
	}

	log.Info().Msgf("stored experiment results in %s", writer.Dir())
	return nil
}

func runThroughput(ctx context.Context, game string, net *propnet.PropNet, cfg config.ExperimentConfig) ([]stats.ThroughputRecord, error) {
	log.Info().Msgf("starting throughput experiment on %s...", game)

	records := make([]stats.ThroughputRecord, 0, len(cfg.Workers))
	for i, workers := range cfg.Workers {
		record, err := Throughput(ctx, game, net, workers, cfg.Duration, cfg.Seed)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
		log.Info().Msgf("completed run %d of %d", i+1, len(cfg.Workers))
	}

	log.Info().Msg("completed throughput experiment")
	return records, nil
}

func runMatches(ctx context.Context, game string, net *propnet.PropNet, latches *tristate.Latches, cfg config.Config) ([]stats.MatchRecord, error) {
	if len(cfg.Experiments.Agents) == 0 || cfg.Experiments.Matches <= 0 {
		return nil, nil
	}
	log.Info().Msgf("starting %d matches of %s...", cfg.Experiments.Matches, game)

	records := make([]stats.MatchRecord, 0, cfg.Experiments.Matches)
	for i := 0; i < cfg.Experiments.Matches; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("matches interrupted: %w", err)
		}

		m, err := statemachine.New(net)
		if err != nil {
			return nil, fmt.Errorf("failed to create state machine: %w", err)
		}
		seed := cfg.Experiments.Seed + uint64(i)*uint64(len(m.Roles()))
		agents := make([]engine.Agent, len(m.Roles()))
		for r := range agents {
			agents[r] = createAgent(cfg.Experiments.Agents[r%len(cfg.Experiments.Agents)], m, latches, cfg.Search, seed+uint64(r))
		}

		record := engine.NewLocalEngine(game, m, agents).Run()
		record.ID = i + 1
		records = append(records, record)

		log.Info().Msgf("completed match %d of %d with goals %v", i+1, cfg.Experiments.Matches, record.Goals)
	}

	log.Info().Msg("completed matches")
	return records, nil
}

func createAgent(name string, m *statemachine.Machine, latches *tristate.Latches, cfg config.SearchConfig, seed uint64) engine.Agent {
	switch name {
	case "random":
		return engine.NewRandomAgent(m, seed)
	case "mcts":
		options := cfg.Options()
		options = append(options, searcher.WithSeed(seed))
		if cfg.UseLatches {
			options = append(options, searcher.WithLatches(latches))
		}
		return engine.NewSearchAgent(name, searcher.NewMCTS(m, cfg.Goroutines, options...))
	default:
		panic(fmt.Sprintf("unknown agent %q", name))
	}
}

// LatchRecords lists every latch, with the goals it decides.
func LatchRecords(game string, latches *tristate.Latches) []stats.LatchRecord {
	net := latches.Net()
	var records []stats.LatchRecord
	for _, polarity := range []bool{true, false} {
		for _, b := range latches.Bases(polarity) {
			records = append(records, stats.LatchRecord{
				Game:     game,
				Base:     net.Component(b).Name.String(),
				Polarity: polarity,
			})
		}
	}
	for _, g := range latches.Goals() {
		records = append(records, stats.LatchRecord{
			Game:     game,
			Base:     net.Component(g.Base).Name.String(),
			Polarity: g.Polarity,
			Goal:     net.Component(g.Goal).Name.String(),
			Value:    g.Value,
		})
	}
	return records
}
