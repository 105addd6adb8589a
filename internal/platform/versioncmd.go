package platform

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"dawpresence/internal/logging"
)

var versionFlags = []string{"--version", "-v", "-V"}

// versionReader runs an executable with common version flags and scans the
// combined output for a version token, falling back to the path. Results are
// kept per executable path for the life of the process.
type versionReader struct {
	runner  commandRunner
	timeout time.Duration
	enabled bool
	logger  *slog.Logger

	mu    sync.Mutex
	cache map[string]string
}

func (p *versionReader) read(ctx context.Context, exePath string) string {
	if exePath == "" {
		return UnknownVersion
	}
	p.mu.Lock()
	v, ok := p.cache[exePath]
	p.mu.Unlock()
	if ok {
		return v
	}

	v = p.lookup(ctx, exePath)
	if ctx.Err() != nil {
		return v
	}
	p.mu.Lock()
	if p.cache == nil {
		p.cache = make(map[string]string)
	}
	p.cache[exePath] = v
	p.mu.Unlock()
	return v
}

func (p *versionReader) lookup(ctx context.Context, exePath string) string {
	if p.enabled {
		for _, flag := range versionFlags {
			if v, ok := p.run(ctx, exePath, flag); ok {
				return v
			}
		}
	}
	return VersionFromPath(exePath)
}

func (p *versionReader) run(ctx context.Context, exePath, flag string) (string, bool) {
	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	output, err := p.runner.CombinedOutput(runCtx, exePath, flag)
	if runCtx.Err() != nil {
		p.logger.Debug("version command timed out", logging.String("path", exePath), logging.String("flag", flag))
		return "", false
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		p.logger.Debug("version command failed", logging.String("path", exePath), logging.Error(err))
		return "", false
	}
	return VersionFromText(string(output))
}
