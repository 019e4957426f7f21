// Package games embeds the KIF descriptions used by tests and experiments.
package games

import (
	"embed"
	"fmt"
	"strings"

	"ggp/gdl"
)

const (
	TicTacToe = "tictactoe"
	Buttons   = "buttons"
	Bridges   = "bridges"
	Switch    = "switch"
)

//go:embed *.kif
var files embed.FS

// Load parses an embedded game by name.
func Load(name string) (*gdl.Description, error) {
	data, err := files.ReadFile(name + ".kif")
	if err != nil {
		return nil, fmt.Errorf("failed to read game %s: %w", name, err)
	}
	d, err := gdl.ParseString(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse game %s: %w", name, err)
	}
	return d, nil
}

func MustLoad(name string) *gdl.Description {
	d, err := Load(name)
	if err != nil {
		panic(err)
	}
	return d
}

// Names lists the embedded games.
func Names() []string {
	entries, err := files.ReadDir(".")
	if err != nil {
		panic(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".kif"))
	}
	return names
}
