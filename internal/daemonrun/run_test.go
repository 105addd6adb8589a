package daemonrun

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"dawpresence/internal/catalog"
	"dawpresence/internal/logging"
	"dawpresence/internal/testsupport"
)

func TestBuildWiresRuntime(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithPollInterval(4000),
		testsupport.WithCatalog(
			catalog.Entry{ProcessName: "Ableton Live 12", DisplayText: "Ableton Live", TitleRegex: `^(.*?)\s+-\s+Ableton`, ClientID: "1111"},
			catalog.Entry{ProcessName: "reaper", DisplayText: "REAPER", TitleRegex: `^(.*?)\s+-\s+REAPER`, ClientID: "2222"},
		),
	)

	rt, err := Build(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(rt.Close)

	if rt.Catalog.Len() != 2 {
		t.Fatalf("expected 2 catalog entries, got %d", rt.Catalog.Len())
	}
	if rt.Store == nil {
		t.Fatal("expected settings store opened")
	}
	if got := rt.Settings.Snapshot().PollIntervalMS; got != 4000 {
		t.Fatalf("expected interval from config defaults, got %d", got)
	}
	status := rt.Daemon.Status()
	if status.Running {
		t.Fatal("expected daemon idle until started")
	}
	if status.CatalogEntries != 2 {
		t.Fatalf("unexpected catalog entries %d", status.CatalogEntries)
	}
	if rt.Channel.State().Connected {
		t.Fatal("expected channel disconnected after build")
	}
	if rt.Ntfy != nil {
		t.Fatal("expected ntfy sink disabled without a topic")
	}
}

func TestBuildWiresNtfySink(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = "http://127.0.0.1:1/studio"

	rt, err := Build(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rt.Ntfy == nil {
		t.Fatal("expected ntfy sink when a topic is configured")
	}
	rt.Close()
}

func TestBuildToleratesMissingCatalog(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	rt, err := Build(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(rt.Close)
	if rt.Catalog.Len() != 0 {
		t.Fatalf("expected empty catalog, got %d", rt.Catalog.Len())
	}
}

func TestBuildRequiresConfig(t *testing.T) {
	if _, err := Build(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestNewLoggerHonorsOverride(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	logger, err := NewLogger(cfg, Options{LogLevel: "debug"})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if !logger.Enabled(context.Background(), -4) {
		t.Fatal("expected debug level enabled")
	}
	if _, err := os.Stat(cfg.LogPath()); err != nil {
		t.Fatalf("expected log file created: %v", err)
	}
}

func TestWritePIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dawpresence.pid")
	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pid file: %v", err)
	}
	if strings.TrimSpace(string(data)) != strconv.Itoa(os.Getpid()) {
		t.Fatalf("unexpected pid file contents %q", data)
	}
}
