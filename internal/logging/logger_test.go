package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dawpresence/internal/config"
	"dawpresence/internal/logging"
	"dawpresence/internal/services"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("daemon started")

	if content := readLog(t, cfg.LogPath()); !strings.Contains(content, "daemon started") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerRendersComponentAndFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "reconciler").Info("presence updated",
		logging.String(logging.FieldDAW, "FL Studio"),
		logging.String("project", "My Beat"),
	)

	content := readLog(t, logPath)
	if !strings.Contains(content, "[reconciler] presence updated") {
		t.Fatalf("expected component prefix, got %q", content)
	}
	if !strings.Contains(content, `daw="FL Studio"`) || !strings.Contains(content, `project="My Beat"`) {
		t.Fatalf("expected quoted fields, got %q", content)
	}
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information at info level, got %q", content)
	}
}

func TestConsoleLoggerFiltersBelowLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "warn", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")

	content := readLog(t, logPath)
	if strings.Contains(content, "hidden") || !strings.Contains(content, "shown") {
		t.Fatalf("unexpected filtering result %q", content)
	}
}

func TestJSONLoggerUsesShortKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "trace", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Log(context.Background(), logging.LevelTrace, "tick", logging.Error(errors.New("boom")))

	line := strings.TrimSpace(readLog(t, logPath))
	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("decode json line %q: %v", line, err)
	}
	if payload["level"] != "trace" {
		t.Fatalf("expected trace level, got %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key in %v", payload)
	}
	if payload["error"] != "boom" {
		t.Fatalf("expected error field, got %v", payload["error"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsTickAndClientID(t *testing.T) {
	ctx := services.WithTick(context.Background(), 7)
	ctx = services.WithClientID(ctx, "123")

	fields := logging.ContextFields(ctx)
	got := map[string]string{}
	for _, f := range fields {
		got[f.Key] = f.Value.String()
	}
	if got[logging.FieldTick] != "7" || got[logging.FieldClientID] != "123" {
		t.Fatalf("unexpected context fields %v", got)
	}
	if logging.WithContext(context.Background(), nil) == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "scan failed", "scan_failed")

	content := readLog(t, logPath)
	for _, key := range []string{logging.FieldEventType, logging.FieldErrorHint, logging.FieldImpact} {
		if !strings.Contains(content, `"`+key+`"`) {
			t.Fatalf("expected %s in %q", key, content)
		}
	}
	if (logging.NoopHandler{}).Enabled(context.Background(), slog.LevelError) {
		t.Fatal("noop handler must be disabled")
	}
}
