package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"ggp/compiler"
	"ggp/config"
	"ggp/experiments"
	"ggp/games"
	"ggp/gdl"
	"ggp/propnet"
	"ggp/rulemodel"
	"ggp/sat"
	"ggp/stats"
	"ggp/tristate"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/slices"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config")
	gameName := flag.String("game", "", "Embedded game name or rule file, overrides the config")
	dotPath := flag.String("dot", "", "Write the compiled propnet as graphviz to this path")
	run := flag.Bool("experiments", true, "Run the configured experiments")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load config")
		}
	}
	if *gameName != "" {
		cfg.Game = *gameName
	}
	zerolog.SetGlobalLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := runGame(ctx, cfg, *dotPath, *run); err != nil {
		log.Fatal().Err(err).Msgf("failed to run %s", cfg.Game)
	}
}

func runGame(ctx context.Context, cfg config.Config, dotPath string, run bool) error {
	collector := stats.NewCollector()
	if cfg.Prometheus {
		var err error
		collector, err = stats.NewPrometheusCollector(prometheus.NewRegistry())
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	d, err := loadGame(cfg.Game)
	if err != nil {
		return err
	}
	model, err := rulemodel.Build(d)
	if err != nil {
		return fmt.Errorf("failed to build rule model: %w", err)
	}

	options := append(cfg.Compiler.Options(), compiler.WithStats(collector))
	net, err := compiler.Compile(ctx, model, options...)
	if err != nil {
		return err
	}
	log.Info().Msgf("compiled %s: %d components %v", cfg.Game, net.Size(), net.Census())

	if dotPath != "" {
		if err := writeDot(net, dotPath); err != nil {
			return err
		}
	}

	var latches *tristate.Latches
	if cfg.Latches.Enabled {
		latches, err = analyzeLatches(ctx, net, cfg.Latches)
		if err != nil {
			return err
		}
	}

	if run {
		if err := experiments.Run(ctx, cfg.Game, net, latches, cfg); err != nil {
			return err
		}
	}

	snapshot := collector.Snapshot()
	for c := stats.Counter(0); c < stats.NumCounters; c++ {
		if v := snapshot.Get(c); v != 0 {
			log.Debug().Msgf("%s: %d", c, v)
		}
	}
	return nil
}

// loadGame reads an embedded game, or a rule file when no game has the name.
func loadGame(name string) (*gdl.Description, error) {
	if slices.Contains(games.Names(), name) {
		return games.Load(name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open game %s: %w", name, err)
	}
	defer f.Close()

	d, err := gdl.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse game %s: %w", name, err)
	}
	return d, nil
}

func writeDot(net *propnet.PropNet, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := net.WriteDot(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	log.Info().Msgf("wrote propnet to %s", path)
	return nil
}

func analyzeLatches(ctx context.Context, net *propnet.PropNet, cfg config.LatchConfig) (*tristate.Latches, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	a, err := tristate.New(net)
	if err != nil {
		return nil, err
	}
	latches, err := a.Analyze(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.Confirm {
		for _, polarity := range []bool{true, false} {
			for _, b := range latches.Bases(polarity) {
				ok, err := sat.ConfirmLatch(net, b, polarity)
				if err != nil {
					return nil, err
				}
				if !ok {
					log.Warn().Msgf("latch %s (%v) is not confirmed by the solver", net.Component(b).Name, polarity)
				}
			}
		}
		log.Info().Msg("confirmed latches")
	}
	return latches, nil
}
