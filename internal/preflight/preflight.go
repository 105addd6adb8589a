package preflight

import (
	"context"

	"dawpresence/internal/config"
	"dawpresence/internal/discord"
	"dawpresence/internal/platform"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// Failed reports whether the result should fail the overall run.
func (r Result) Failed() bool {
	return !r.Passed && !r.Optional
}

// Options overrides the probes RunAll uses.
type Options struct {
	Dial         discord.DialFunc
	WindowTitles func() (string, error)
}

// RunAll executes every readiness check for the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}
	if opts.WindowTitles == nil {
		opts.WindowTitles = platform.WindowTitleSupport
	}

	return []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckCatalog(cfg.Paths.CatalogPath),
		CheckSettingsStore(ctx, cfg.Paths.SettingsPath),
		CheckDiscord(ctx, opts.Dial),
		CheckWindowTitles(opts.WindowTitles),
	}
}

// AnyFailed reports whether a required check failed.
func AnyFailed(results []Result) bool {
	for _, r := range results {
		if r.Failed() {
			return true
		}
	}
	return false
}
