package settings

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"dawpresence/internal/config"
	"dawpresence/internal/logging"
	"dawpresence/internal/services"
)

// Settings is the user-adjustable state read at the start of every tick.
type Settings struct {
	HideProjectName bool  `json:"hide_project_name"`
	HideSystemUsage bool  `json:"hide_system_usage"`
	PollIntervalMS  int64 `json:"poll_interval_ms"`
}

// FromConfig returns the configured defaults.
func FromConfig(cfg *config.Config) Settings {
	if cfg == nil {
		d := config.Default()
		cfg = &d
	}
	return Settings{
		HideProjectName: cfg.Defaults.HideProjectName,
		HideSystemUsage: cfg.Defaults.HideSystemUsage,
		PollIntervalMS:  cfg.Defaults.PollIntervalMS,
	}
}

// ValidateUpdateInterval accepts intervals from 1000 ms to 100,000,000 ms inclusive.
func ValidateUpdateInterval(ms int64) error {
	if ms < config.MinPollIntervalMS || ms > config.MaxPollIntervalMS {
		return services.Wrap(services.ErrValidation, "settings", "update interval",
			fmt.Sprintf("interval must be between 1000 ms and 100,000,000 ms, got %d ms", ms), nil)
	}
	return nil
}

type persister interface {
	Load(ctx context.Context, defaults Settings) (Settings, error)
	Save(ctx context.Context, value Settings) error
}

// ChangeFunc observes a settings change after it has been persisted.
type ChangeFunc func(previous, current Settings)

// Manager owns the cached settings snapshot. Writes are persisted before the
// cache is replaced, so a failed write leaves the previous value in effect.
type Manager struct {
	store  persister
	logger *slog.Logger

	writeMu  sync.Mutex
	mu       sync.RWMutex
	current  Settings
	onChange []ChangeFunc
}

// NewManager loads persisted settings over defaults. A nil store keeps
// settings in memory only. A failing store degrades to defaults with a warning.
func NewManager(ctx context.Context, store *Store, defaults Settings, logger *slog.Logger) *Manager {
	var p persister
	if store != nil {
		p = store
	}
	return newManager(ctx, p, defaults, logger)
}

func newManager(ctx context.Context, store persister, defaults Settings, logger *slog.Logger) *Manager {
	m := &Manager{
		store:   store,
		logger:  logging.NewComponentLogger(logger, "settings"),
		current: defaults,
	}
	if store == nil {
		return m
	}
	loaded, err := store.Load(ctx, defaults)
	if err != nil {
		logging.WarnWithContext(m.logger, "settings unreadable; using defaults", "settings_load_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the settings database"),
			logging.String(logging.FieldImpact, "changes may not survive a restart"),
		)
		return m
	}
	m.current = loaded
	return m
}

// OnChange registers fn to run after each successful change.
func (m *Manager) OnChange(fn ChangeFunc) {
	if fn == nil {
		return
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.onChange = append(m.onChange, fn)
}

// Snapshot returns the current settings.
func (m *Manager) Snapshot() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// SetUpdateInterval validates and stores a new reconciliation interval.
func (m *Manager) SetUpdateInterval(ctx context.Context, ms int64) error {
	if err := ValidateUpdateInterval(ms); err != nil {
		return err
	}
	_, err := m.update(ctx, func(s *Settings) { s.PollIntervalMS = ms })
	return err
}

// SetHideProjectName stores whether project names are hidden.
func (m *Manager) SetHideProjectName(ctx context.Context, hide bool) error {
	_, err := m.update(ctx, func(s *Settings) { s.HideProjectName = hide })
	return err
}

// SetHideSystemUsage stores whether CPU and RAM figures are hidden.
func (m *Manager) SetHideSystemUsage(ctx context.Context, hide bool) error {
	_, err := m.update(ctx, func(s *Settings) { s.HideSystemUsage = hide })
	return err
}

// ToggleHideProjectName flips the flag and returns the new value.
func (m *Manager) ToggleHideProjectName(ctx context.Context) (bool, error) {
	next, err := m.update(ctx, func(s *Settings) { s.HideProjectName = !s.HideProjectName })
	return next.HideProjectName, err
}

// ToggleHideSystemUsage flips the flag and returns the new value.
func (m *Manager) ToggleHideSystemUsage(ctx context.Context) (bool, error) {
	next, err := m.update(ctx, func(s *Settings) { s.HideSystemUsage = !s.HideSystemUsage })
	return next.HideSystemUsage, err
}

func (m *Manager) update(ctx context.Context, mutate func(*Settings)) (Settings, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	previous := m.Snapshot()
	next := previous
	mutate(&next)
	if next == previous {
		return previous, nil
	}

	if m.store != nil {
		if err := m.store.Save(ctx, next); err != nil {
			return previous, services.Wrap(services.ErrConfiguration, "settings", "save", "persist settings", err)
		}
	}

	m.mu.Lock()
	m.current = next
	m.mu.Unlock()

	m.logger.Info("settings changed",
		logging.Bool("hide_project_name", next.HideProjectName),
		logging.Bool("hide_system_usage", next.HideSystemUsage),
		logging.Int64("poll_interval_ms", next.PollIntervalMS),
	)
	for _, fn := range m.onChange {
		fn(previous, next)
	}
	return next, nil
}
