package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"dawpresence/internal/catalog"
	"dawpresence/internal/config"
	"dawpresence/internal/daemonrun"
	"dawpresence/internal/ipc"
	"dawpresence/internal/logging"
	"dawpresence/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	runtime    *daemonrun.Runtime
	server     *ipc.Server
	socketPath string
	configPath string
	shutdowns  atomic.Int32
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	cfg := testsupport.NewConfig(t, testsupport.WithCatalog(
		catalog.Entry{ProcessName: "Ableton Live 12", DisplayText: "Ableton Live", TitleRegex: `^(.*?)\s+-\s+Ableton`, ClientID: "1111"},
		catalog.Entry{ProcessName: "reaper", DisplayText: "REAPER", TitleRegex: `^(.*?)\s+-\s+REAPER`, ClientID: "2222"},
	))
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	rt, err := daemonrun.Build(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemonrun.Build: %v", err)
	}

	env := &cliTestEnv{
		cfg:        cfg,
		runtime:    rt,
		socketPath: cfg.Paths.SocketPath,
		configPath: configPath,
	}
	srv, err := ipc.NewServer(context.Background(), cfg.Paths.SocketPath, rt.Daemon, func() {
		env.shutdowns.Add(1)
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	env.server = srv

	t.Cleanup(func() {
		srv.Close()
		rt.Close()
	})
	return env
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if socket != "" {
		flags = append(flags, "--socket", socket)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
