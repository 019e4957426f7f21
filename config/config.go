// Package config loads the YAML configuration of a run.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"ggp/compiler"
	"ggp/searcher"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Game is an embedded game name or a path to a rule file.
	Game     string `yaml:"game"`
	LogLevel string `yaml:"log_level"`

	// Prometheus exports the statistics on a registry gathered at the end.
	Prometheus bool `yaml:"prometheus"`

	Compiler    CompilerConfig   `yaml:"compiler"`
	Latches     LatchConfig      `yaml:"latches"`
	Search      SearchConfig     `yaml:"search"`
	Experiments ExperimentConfig `yaml:"experiments"`
}

type CompilerConfig struct {
	Optimize           bool `yaml:"optimize"`
	Reachability       bool `yaml:"reachability"`
	Factoring          bool `yaml:"factoring"`
	LargeGateThreshold int  `yaml:"large_gate_threshold"`
	RecursionLimit     int  `yaml:"recursion_limit"`
}

type LatchConfig struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`

	// Confirm checks every latch with the SAT solver.
	Confirm bool `yaml:"confirm"`
}

type SearchConfig struct {
	Goroutines int           `yaml:"goroutines"`
	Duration   time.Duration `yaml:"duration"`
	Episodes   int           `yaml:"episodes"`
	Cutoff     int           `yaml:"cutoff"`
	Seed       uint64        `yaml:"seed"`

	// UseLatches ends playouts once latched goals decide them.
	UseLatches bool `yaml:"use_latches"`
}

type ExperimentConfig struct {
	Workers  []int         `yaml:"workers"`
	Duration time.Duration `yaml:"duration"`
	Seed     uint64        `yaml:"seed"`
	Matches  int           `yaml:"matches"`
	Output   string        `yaml:"output"`

	// Agents names the agent of every role: "mcts" or "random".
	Agents []string `yaml:"agents"`
}

func Default() Config {
	return Config{
		Game:     "tictactoe",
		LogLevel: "info",
		Compiler: CompilerConfig{
			Optimize:           true,
			Reachability:       true,
			Factoring:          true,
			LargeGateThreshold: compiler.DefaultLargeGateThreshold,
			RecursionLimit:     compiler.DefaultRecursionLimit,
		},
		Latches: LatchConfig{
			Enabled: true,
			Timeout: 10 * time.Second,
		},
		Search: SearchConfig{
			Goroutines: 4,
			Duration:   100 * time.Millisecond,
			Cutoff:     searcher.MaxCutoff,
			UseLatches: true,
			Seed:       1,
		},
		Experiments: ExperimentConfig{
			Workers:  []int{1, 2, 4, 8},
			Duration: time.Second,
			Seed:     1,
			Matches:  10,
			Output:   "results",
		},
	}
}

// Load reads path over the defaults. Unknown keys are an error.
func Load(path string) (Config, error) {
	config := Default()

	f, err := os.Open(path)
	if err != nil {
		return config, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

func (c Config) Validate() error {
	if c.Game == "" {
		return fmt.Errorf("game must be set")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.Compiler.LargeGateThreshold < 2 {
		return fmt.Errorf("large_gate_threshold must be >= 2")
	}
	if c.Compiler.RecursionLimit < 1 {
		return fmt.Errorf("recursion_limit must be >= 1")
	}
	if c.Search.Goroutines < 1 {
		return fmt.Errorf("search goroutines must be >= 1")
	}
	if c.Search.Episodes <= 0 && c.Search.Duration <= 0 {
		return fmt.Errorf("search needs episodes or a duration")
	}
	for _, w := range c.Experiments.Workers {
		if w < 1 {
			return fmt.Errorf("experiment workers must be >= 1, got %d", w)
		}
	}
	for _, a := range c.Experiments.Agents {
		if a != "mcts" && a != "random" {
			return fmt.Errorf("unknown agent %q", a)
		}
	}
	return nil
}

func (c CompilerConfig) Options() []compiler.Option {
	return []compiler.Option{
		compiler.WithOptimization(c.Optimize),
		compiler.WithReachability(c.Reachability),
		compiler.WithFactoring(c.Factoring),
		compiler.WithLargeGateThreshold(c.LargeGateThreshold),
		compiler.WithRecursionLimit(c.RecursionLimit),
	}
}

func (c SearchConfig) Options() []searcher.Option {
	options := []searcher.Option{searcher.WithSeed(c.Seed)}

	if c.Episodes > 0 {
		options = append(options, searcher.WithEpisodes(c.Episodes))
	}
	if c.Duration > 0 {
		options = append(options, searcher.WithDuration(c.Duration))
	}
	if c.Cutoff > 0 {
		options = append(options, searcher.WithCutoff(c.Cutoff))
	}
	return options
}

func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
