package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePresence()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	defaults := []struct {
		key   string
		value *string
		file  string
	}{
		{"paths.catalog_path", &c.Paths.CatalogPath, defaultCatalogFile},
		{"paths.settings_path", &c.Paths.SettingsPath, defaultSettingsFile},
		{"paths.socket_path", &c.Paths.SocketPath, defaultSocketFile},
	}
	for _, entry := range defaults {
		if strings.TrimSpace(*entry.value) == "" {
			*entry.value = filepath.Join(c.Paths.DataDir, entry.file)
		}
		if *entry.value, err = expandPath(strings.TrimSpace(*entry.value)); err != nil {
			return fmt.Errorf("%s: %w", entry.key, err)
		}
	}
	return nil
}

func (c *Config) normalizePresence() {
	c.Presence.LargeImage = strings.TrimSpace(c.Presence.LargeImage)
	if c.Presence.LargeImage == "" {
		c.Presence.LargeImage = defaultLargeImage
	}
	c.Presence.LargeText = strings.TrimSpace(c.Presence.LargeText)
	if c.Presence.LargeText == "" {
		c.Presence.LargeText = "DAWPresence v" + Version
	}
	if c.Platform.VersionProbeTimeoutMS <= 0 {
		c.Platform.VersionProbeTimeoutMS = defaultVersionProbeTimeoutMS
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
