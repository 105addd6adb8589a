package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// applyEnv overlays DAWPRESENCE_* environment variables onto the decoded file values.
// Unset variables leave the existing values untouched.
func applyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
