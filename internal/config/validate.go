package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePresence(); err != nil {
		return err
	}
	if err := c.validateDefaults(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	parsed, err := url.Parse(topic)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", topic)
	}
	return nil
}

func (c *Config) validatePresence() error {
	if c.Presence.IPCTimeoutSeconds <= 0 {
		return errors.New("presence.ipc_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateDefaults() error {
	if err := ValidatePollInterval(c.Defaults.PollIntervalMS); err != nil {
		return fmt.Errorf("defaults.poll_interval_ms: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error", "trace":
	default:
		return fmt.Errorf("logging.level must be one of trace, debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}

// ValidatePollInterval reports whether ms lies within the accepted reconciliation range.
func ValidatePollInterval(ms int64) error {
	if ms < MinPollIntervalMS || ms > MaxPollIntervalMS {
		return fmt.Errorf("interval must be between %dms and %dms, got %dms", MinPollIntervalMS, MaxPollIntervalMS, ms)
	}
	return nil
}
