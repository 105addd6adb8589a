// Package config loads, normalizes, and validates DAWPresence configuration.
//
// Configuration is read from TOML (~/.config/dawpresence/config.toml or a
// local dawpresence.toml), overlaid with DAWPRESENCE_* environment variables,
// and then expanded so every path is absolute. Defaults live in defaults.go;
// range checks live in validate.go so the CLI and the daemon reject the same
// values.
//
// The [defaults] section only seeds the persisted user settings store; once a
// user changes a setting at runtime the stored value takes precedence.
package config
