package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("keys override the defaults", func(t *testing.T) {
		path := write(t, `
game: buttons
log_level: debug
compiler:
  factoring: false
  recursion_limit: 64
search:
  episodes: 500
  duration: 0s
experiments:
  workers: [1, 16]
  duration: 250ms
  agents: [mcts]
`)

		config, err := Load(path)

		require.NoError(t, err)
		require.Equal(t, "buttons", config.Game)
		require.Equal(t, zerolog.DebugLevel, config.Level())
		require.False(t, config.Compiler.Factoring)
		require.True(t, config.Compiler.Optimize, "Missing keys should keep their defaults")
		require.Equal(t, 64, config.Compiler.RecursionLimit)
		require.Equal(t, 500, config.Search.Episodes)
		require.Equal(t, time.Duration(0), config.Search.Duration)
		require.Equal(t, []int{1, 16}, config.Experiments.Workers)
		require.Equal(t, 250*time.Millisecond, config.Experiments.Duration)
		require.Equal(t, []string{"mcts"}, config.Experiments.Agents)
	})

	t.Run("an empty file is the default", func(t *testing.T) {
		config, err := Load(write(t, ""))

		require.NoError(t, err)
		require.Equal(t, Default(), config)
	})

	t.Run("unknown keys are rejected", func(t *testing.T) {
		_, err := Load(write(t, "gmae: buttons\n"))

		require.Error(t, err)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		for _, text := range []string{
			"log_level: loud\n",
			"search: {goroutines: 0}\n",
			"search: {episodes: 0, duration: 0s}\n",
			"experiments: {workers: [0]}\n",
			"experiments: {agents: [human]}\n",
			"compiler: {large_gate_threshold: 1}\n",
		} {
			_, err := Load(write(t, text))
			require.Error(t, err, "%q should be invalid", text)
		}
	})

	t.Run("a missing file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestOptions(t *testing.T) {
	config := Default()

	require.Len(t, config.Compiler.Options(), 5)
	require.Len(t, config.Search.Options(), 3, "Seed, duration and cutoff")
	require.NoError(t, config.Validate())
}
