package source

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

//go:embed seed.yaml
var builtinSeed []byte

// DefaultSeed returns the built-in starter project
func DefaultSeed() State {
	seed, err := ParseSeed(builtinSeed)
	if err != nil {
		// The embedded document is part of the binary; failing here is a build defect.
		panic(fmt.Sprintf("source: invalid embedded seed: %v", err))
	}
	return seed
}

// ParseSeed decodes a YAML seed document with html, css and javascript keys.
// Missing keys become empty fragments.
func ParseSeed(data []byte) (State, error) {
	var seed State
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return State{}, fmt.Errorf("failed to parse seed: %w", err)
	}
	return seed, nil
}

// LoadSeed reads a seed file from disk. An empty path yields the built-in seed.
func LoadSeed(path string) (State, error) {
	if path == "" {
		return DefaultSeed(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}, fmt.Errorf("failed to read seed %s: %w", path, err)
	}
	return ParseSeed(data)
}
