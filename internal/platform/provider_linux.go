//go:build linux

package platform

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"dawpresence/internal/logging"
)

// x11Window is one managed top-level window.
type x11Window struct {
	pid   int32
	title string
}

// windowLister enumerates the window manager's client list.
type windowLister interface {
	ClientWindows() ([]x11Window, error)
}

// linuxProvider reads window titles from the X11 client list and runs the
// executable to learn its version.
type linuxProvider struct {
	windows  windowLister
	getenv   func(string) string
	versions versionReader
	logger   *slog.Logger
	warnedX  bool
}

func newProvider(opts Options) Provider {
	return &linuxProvider{
		windows: &x11Display{},
		getenv:  os.Getenv,
		versions: versionReader{
			runner:  execCommandRunner{},
			timeout: opts.VersionProbeTimeout,
			enabled: opts.VersionProbeEnabled,
			logger:  opts.Logger,
		},
		logger: opts.Logger,
	}
}

func (p *linuxProvider) ProcessVersion(ctx context.Context, exePath string) string {
	return p.versions.read(ctx, exePath)
}

// WindowTitle returns the title of the first client window whose _NET_WM_PID
// is pid.
func (p *linuxProvider) WindowTitle(_ context.Context, pid int32) string {
	if p.getenv("DISPLAY") == "" {
		if p.getenv("WAYLAND_DISPLAY") != "" && !p.warnedX {
			p.warnedX = true
			p.logger.Debug("wayland session without X11; window titles unavailable")
		}
		return ""
	}

	windows, err := p.windows.ClientWindows()
	if err != nil {
		if !p.warnedX {
			p.warnedX = true
			p.logger.Debug("x11 client list unavailable", logging.Error(err))
		}
		return ""
	}
	for _, w := range windows {
		if w.pid != pid {
			continue
		}
		if title := strings.TrimSpace(w.title); title != "" {
			return title
		}
	}
	return ""
}
