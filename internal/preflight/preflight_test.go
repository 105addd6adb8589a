package preflight

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"dawpresence/internal/catalog"
	"dawpresence/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckCatalog(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "valid.json")
	testsupport.WriteCatalog(t, valid, []catalog.Entry{{
		ProcessName: "Ableton Live 12 Suite",
		DisplayText: "Ableton Live",
		ClientID:    "1111",
		TitleRegex:  `^(.*?)\s*\[`,
	}})
	if result := CheckCatalog(valid); !result.Passed || result.Detail != "1 entries" {
		t.Fatalf("expected valid catalog, got %+v", result)
	}

	broken := filepath.Join(dir, "broken.json")
	testsupport.WriteCatalog(t, broken, []catalog.Entry{{ProcessName: "FL64", DisplayText: "FL Studio"}})
	if result := CheckCatalog(broken); result.Passed {
		t.Fatalf("expected catalog with empty ClientID to fail, got %+v", result)
	}

	if result := CheckCatalog(filepath.Join(dir, "missing.json")); result.Passed || result.Optional {
		t.Fatalf("expected missing catalog to fail, got %+v", result)
	}
}

func TestCheckSettingsStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")
	if result := CheckSettingsStore(context.Background(), path); !result.Passed {
		t.Fatalf("expected settings store check to pass, got %+v", result)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected database created: %v", err)
	}
}

func TestCheckDiscordIsOptional(t *testing.T) {
	result := CheckDiscord(context.Background(), func(context.Context) (net.Conn, error) {
		return nil, errors.New("no discord-ipc socket found")
	})
	if result.Passed || !result.Optional || result.Failed() {
		t.Fatalf("expected optional failure, got %+v", result)
	}

	server, client := net.Pipe()
	defer server.Close()
	result = CheckDiscord(context.Background(), func(context.Context) (net.Conn, error) {
		return client, nil
	})
	if !result.Passed {
		t.Fatalf("expected discord check to pass, got %+v", result)
	}
}

func TestCheckWindowTitlesIsOptional(t *testing.T) {
	result := CheckWindowTitles(func() (string, error) {
		return "", errors.New("DISPLAY not set; window titles unavailable")
	})
	if result.Passed || !result.Optional || result.Failed() {
		t.Fatalf("expected optional failure, got %+v", result)
	}
	if result.Detail != "DISPLAY not set; window titles unavailable" {
		t.Fatalf("unexpected detail %q", result.Detail)
	}

	result = CheckWindowTitles(func() (string, error) { return "X11 :0", nil })
	if !result.Passed || result.Detail != "X11 :0" {
		t.Fatalf("expected window title check to pass, got %+v", result)
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCatalog(catalog.Entry{
		ProcessName: "Reaper",
		DisplayText: "REAPER",
		ClientID:    "3333",
	}))
	results := RunAll(context.Background(), cfg, Options{
		Dial:         func(context.Context) (net.Conn, error) { return nil, errors.New("offline") },
		WindowTitles: func() (string, error) { return "", errors.New("no display") },
	})
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d: %+v", len(results), results)
	}
	if AnyFailed(results) {
		t.Fatalf("expected no required failures, got %+v", results)
	}
	if RunAll(context.Background(), nil, Options{}) != nil {
		t.Fatal("expected nil results for nil config")
	}
}
