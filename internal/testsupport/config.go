package testsupport

import (
	"path/filepath"
	"testing"

	"jokebox/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithAgeTier overrides the target age tier on the test config.
func WithAgeTier(tier int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Content.AgeTier = tier
	}
}

// WithLanguage overrides the content language on the test config.
func WithLanguage(language string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Content.Language = language
	}
}

// WithNearDupThreshold overrides the near-duplicate Hamming threshold.
func WithNearDupThreshold(threshold int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Process.NearDupThreshold = threshold
	}
}
