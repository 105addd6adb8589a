package testsupport

import (
	"path/filepath"
	"testing"

	"dawpresence/internal/catalog"
	"dawpresence/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "data", "logs")
	cfgVal.Paths.CatalogPath = filepath.Join(base, "data", "daws.json")
	cfgVal.Paths.SettingsPath = filepath.Join(base, "data", "settings.db")
	cfgVal.Paths.SocketPath = filepath.Join(base, "data", "dawpresence.sock")
	cfgVal.Platform.VersionProbeEnabled = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithPollInterval overrides the default reconciliation interval.
func WithPollInterval(ms int64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Defaults.PollIntervalMS = ms
	}
}

// WithCatalog writes entries to the config's catalog path.
func WithCatalog(entries ...catalog.Entry) ConfigOption {
	return func(b *configBuilder) {
		WriteCatalog(b.t, b.cfg.Paths.CatalogPath, entries)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
