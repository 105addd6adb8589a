package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"dawpresence/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory locations used by the daemon.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	LogDir       string `toml:"log_dir"`
	CatalogPath  string `toml:"catalog_path" env:"DAWPRESENCE_CATALOG"`
	SettingsPath string `toml:"settings_path"`
	SocketPath   string `toml:"socket_path" env:"DAWPRESENCE_SOCKET"`
}

// Presence contains settings for the Discord rich presence broadcast.
type Presence struct {
	LargeImage        string `toml:"large_image"`
	LargeText         string `toml:"large_text"`
	IPCTimeoutSeconds int    `toml:"ipc_timeout_seconds"`
}

// Defaults seeds the persisted user settings the first time the daemon runs.
type Defaults struct {
	HideProjectName bool  `toml:"hide_project_name"`
	HideSystemUsage bool  `toml:"hide_system_usage"`
	PollIntervalMS  int64 `toml:"poll_interval_ms"`
}

// Platform contains tuning for the best-effort window and version lookups.
type Platform struct {
	VersionProbeTimeoutMS int  `toml:"version_probe_timeout_ms"`
	VersionProbeEnabled   bool `toml:"version_probe_enabled"`
}

// Notifications contains optional ntfy push settings.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic" env:"DAWPRESENCE_NTFY_TOPIC"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format" env:"DAWPRESENCE_LOG_FORMAT"`
	Level  string `toml:"level" env:"DAWPRESENCE_LOG"`
}

// Config encapsulates all configuration values for DAWPresence.
//
// Configuration sections by subsystem:
//   - Paths: data, log, catalog, settings database and control socket locations
//   - Presence: Discord asset keys and IPC call timeout
//   - Defaults: initial user settings before anything was persisted
//   - Platform: window title and version probe tuning
//   - Notifications: optional ntfy push of DAW open/close events
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Presence      Presence      `toml:"presence"`
	Defaults      Defaults      `toml:"defaults"`
	Platform      Platform      `toml:"platform"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and environment overrides applied.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("dawpresence.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DataDir,
		c.Paths.LogDir,
		filepath.Dir(c.Paths.SettingsPath),
		filepath.Dir(c.Paths.SocketPath),
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "dawpresence.lock")
}

// LogPath returns the daemon log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "dawpresence.log")
}

// IPCTimeout returns the per-call timeout applied to Discord IPC requests.
func (c *Config) IPCTimeout() time.Duration {
	return time.Duration(c.Presence.IPCTimeoutSeconds) * time.Second
}

// NtfyTimeout returns the per-request timeout for ntfy pushes.
func (c *Config) NtfyTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeoutSeconds) * time.Second
}

// VersionProbeTimeout returns how long an executable may take to print its version.
func (c *Config) VersionProbeTimeout() time.Duration {
	return time.Duration(c.Platform.VersionProbeTimeoutMS) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the annotated default configuration file.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if err := fileutil.WriteFileAtomic(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
