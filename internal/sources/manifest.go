package sources

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"jokebox/internal/store"
)

//go:embed sources.yaml
var manifestYAML []byte

type manifest struct {
	Sources []manifestEntry `yaml:"sources"`
}

type manifestEntry struct {
	ID         string     `yaml:"id"`
	Name       string     `yaml:"name"`
	Enabled    bool       `yaml:"enabled"`
	Languages  []string   `yaml:"languages"`
	Extraction Extraction `yaml:"extraction"`
}

// BuiltinSources parses the embedded manifest into source records.
func BuiltinSources() ([]*store.Source, error) {
	var parsed manifest
	if err := yaml.Unmarshal(manifestYAML, &parsed); err != nil {
		return nil, fmt.Errorf("parse builtin manifest: %w", err)
	}

	builtins := make([]*store.Source, 0, len(parsed.Sources))
	for _, entry := range parsed.Sources {
		if entry.ID == "" {
			return nil, fmt.Errorf("builtin manifest entry %q has no id", entry.Name)
		}
		encoded, err := entry.Extraction.WithDefaults().Encode()
		if err != nil {
			return nil, fmt.Errorf("builtin %s: %w", entry.ID, err)
		}
		builtins = append(builtins, &store.Source{
			ID:                 entry.ID,
			Kind:               store.KindBuiltin,
			Name:               entry.Name,
			Enabled:            entry.Enabled,
			SupportedLanguages: normalizeLanguages(entry.Languages),
			ExtractionJSON:     encoded,
		})
	}
	return builtins, nil
}

// Bootstrap wipes all builtin sources and reloads them from the embedded
// manifest. Returns the number of sources installed.
func Bootstrap(ctx context.Context, st *store.Store) (int, error) {
	builtins, err := BuiltinSources()
	if err != nil {
		return 0, err
	}
	if err := st.ReplaceBuiltins(ctx, builtins); err != nil {
		return 0, err
	}
	return len(builtins), nil
}
