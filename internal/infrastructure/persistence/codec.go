package persistence

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/playground/internal/domain/source"
)

// Codec converts the fragment record to and from bytes
type Codec interface {
	Name() string
	Marshal(state source.State) ([]byte, error)
	Unmarshal(data []byte, state *source.State) error
}

// JSON encodes records with sonic
type JSON struct{}

func (JSON) Name() string { return "json" }

func (JSON) Marshal(state source.State) ([]byte, error) {
	return sonic.ConfigStd.MarshalIndent(state, "", "  ")
}

func (JSON) Unmarshal(data []byte, state *source.State) error {
	return sonic.ConfigStd.Unmarshal(data, state)
}

// YAML encodes records with goccy/go-yaml. Multi-line fragments are written
// as literal blocks so the file stays editable by hand.
type YAML struct{}

func (YAML) Name() string { return "yaml" }

func (YAML) Marshal(state source.State) ([]byte, error) {
	return yaml.MarshalWithOptions(state, yaml.UseLiteralStyleIfMultiline(true))
}

func (YAML) Unmarshal(data []byte, state *source.State) error {
	return yaml.Unmarshal(data, state)
}

// TOML encodes records with go-toml
type TOML struct{}

func (TOML) Name() string { return "toml" }

func (TOML) Marshal(state source.State) ([]byte, error) {
	return toml.Marshal(state)
}

func (TOML) Unmarshal(data []byte, state *source.State) error {
	return toml.Unmarshal(data, state)
}

// CodecFor picks the codec for a file path by extension. Paths without an
// extension use JSON.
func CodecFor(path string) (Codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", "":
		return JSON{}, nil
	case ".yaml", ".yml":
		return YAML{}, nil
	case ".toml":
		return TOML{}, nil
	default:
		return nil, fmt.Errorf("unsupported record format %q", filepath.Ext(path))
	}
}
