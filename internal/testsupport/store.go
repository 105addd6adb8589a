package testsupport

import (
	"context"
	"testing"

	"dawpresence/internal/config"
	"dawpresence/internal/settings"
)

// MustOpenSettings opens the settings store for cfg and registers cleanup.
func MustOpenSettings(t testing.TB, cfg *config.Config) *settings.Store {
	t.Helper()

	store, err := settings.Open(context.Background(), cfg.Paths.SettingsPath)
	if err != nil {
		t.Fatalf("settings.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
