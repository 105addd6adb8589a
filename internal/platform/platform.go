package platform

import (
	"context"
	"log/slog"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"dawpresence/internal/logging"
)

// UnknownVersion is reported when an executable's version cannot be determined.
const UnknownVersion = "0.0.0"

const defaultVersionTimeout = 500 * time.Millisecond

// Provider answers per-process questions that need native APIs. Both methods
// are best-effort: failures return the empty title or UnknownVersion.
type Provider interface {
	WindowTitle(ctx context.Context, pid int32) string
	ProcessVersion(ctx context.Context, exePath string) string
}

// Options configures the OS provider returned by New.
type Options struct {
	// VersionProbeTimeout bounds each `--version` style invocation.
	VersionProbeTimeout time.Duration
	// VersionProbeEnabled allows executing the DAW binary to read its version.
	VersionProbeEnabled bool
	Logger              *slog.Logger
}

// New returns the provider for the running operating system.
func New(opts Options) Provider {
	if opts.VersionProbeTimeout <= 0 {
		opts.VersionProbeTimeout = defaultVersionTimeout
	}
	opts.Logger = logging.NewComponentLogger(opts.Logger, "platform")
	return newProvider(opts)
}

// WindowTitleSupport reports how window titles are read on this system, or
// why they cannot be.
func WindowTitleSupport() (string, error) {
	return windowTitleSupport()
}

// Static is a fixed Provider, used when no native lookup is wanted.
type Static struct {
	Title   string
	Version string
}

func (s Static) WindowTitle(context.Context, int32) string { return s.Title }

func (s Static) ProcessVersion(context.Context, string) string {
	if strings.TrimSpace(s.Version) == "" {
		return UnknownVersion
	}
	return s.Version
}

var versionPattern = regexp.MustCompile(`\d+(?:\.\d+)+`)

// VersionFromText returns the first dotted version token in text.
func VersionFromText(text string) (string, bool) {
	match := versionPattern.FindString(text)
	return match, match != ""
}

// VersionFromPath looks for a version token in the file name, then the full path.
func VersionFromPath(exePath string) string {
	if exePath == "" {
		return UnknownVersion
	}
	if v, ok := VersionFromText(filepath.Base(exePath)); ok {
		return v
	}
	if v, ok := VersionFromText(exePath); ok {
		return v
	}
	return UnknownVersion
}

type commandRunner interface {
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execCommandRunner struct{}

func (execCommandRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}
