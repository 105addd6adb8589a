package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"dawpresence/internal/channel"
	"dawpresence/internal/config"
	"dawpresence/internal/logging"
	"dawpresence/internal/notifications"
	"dawpresence/internal/settings"
)

const shutdownTimeout = 2 * time.Second

// Daemon owns the reconciler and enforces single-instance execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	reconciler *Reconciler
	channel    PresenceChannel
	settings   *settings.Manager
	hub        *notifications.Hub
	catalogLen int

	lockPath string
	lock     *flock.Flock

	running   atomic.Bool
	startedAt time.Time
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool              `json:"running"`
	StartedAt      time.Time         `json:"started_at"`
	Presence       PublishedStatus   `json:"presence"`
	Channel        channel.State     `json:"channel"`
	Settings       settings.Settings `json:"settings"`
	CatalogEntries int               `json:"catalog_entries"`
	LockFilePath   string            `json:"lock_file_path"`
	LogPath        string            `json:"log_path"`
}

// Deps are the collaborators a Daemon coordinates.
type Deps struct {
	Reconciler     *Reconciler
	Channel        PresenceChannel
	Settings       *settings.Manager
	Hub            *notifications.Hub
	CatalogEntries int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, deps Deps) (*Daemon, error) {
	if cfg == nil || deps.Reconciler == nil || deps.Channel == nil || deps.Settings == nil {
		return nil, errors.New("daemon requires config, reconciler, channel, and settings")
	}
	if deps.Hub == nil {
		deps.Hub = notifications.NewHub(0)
	}
	d := &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		reconciler: deps.Reconciler,
		channel:    deps.Channel,
		settings:   deps.Settings,
		hub:        deps.Hub,
		catalogLen: deps.CatalogEntries,
		lockPath:   cfg.LockPath(),
		lock:       flock.New(cfg.LockPath()),
	}
	deps.Settings.OnChange(d.settingsChanged)
	return d, nil
}

// Start acquires the instance lock and launches the reconciler.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another dawpresence daemon instance is already running")
	}

	if err := d.reconciler.Start(ctx); err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("start reconciler: %w", err)
	}

	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("dawpresence daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("catalog_entries", d.catalogLen),
	)
	return nil
}

// Stop halts the reconciler, clears the presence and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.reconciler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	d.channel.Disconnect(ctx)

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("dawpresence daemon stopped")
}

// Status reports the current runtime snapshot.
func (d *Daemon) Status() Status {
	return Status{
		Running:        d.running.Load(),
		StartedAt:      d.startedAt,
		Presence:       d.reconciler.Status(),
		Channel:        d.channel.State(),
		Settings:       d.settings.Snapshot(),
		CatalogEntries: d.catalogLen,
		LockFilePath:   d.lockPath,
		LogPath:        d.cfg.LogPath(),
	}
}

// Settings returns the current settings snapshot.
func (d *Daemon) Settings() settings.Settings {
	return d.settings.Snapshot()
}

// SetUpdateInterval changes the polling interval.
func (d *Daemon) SetUpdateInterval(ctx context.Context, ms int64) error {
	return d.settings.SetUpdateInterval(ctx, ms)
}

// SetHideProjectName toggles project name hiding.
func (d *Daemon) SetHideProjectName(ctx context.Context, hide bool) error {
	return d.settings.SetHideProjectName(ctx, hide)
}

// SetHideSystemUsage toggles CPU/RAM hiding.
func (d *Daemon) SetHideSystemUsage(ctx context.Context, hide bool) error {
	return d.settings.SetHideSystemUsage(ctx, hide)
}

// Events returns notifications after since. A non-blocking read from the
// start returns the most recent limit events instead of the oldest.
func (d *Daemon) Events(ctx context.Context, since uint64, limit int, wait bool) ([]notifications.Event, uint64, error) {
	if since == 0 && !wait {
		events, next := d.hub.Tail(limit)
		return events, next, nil
	}
	return d.hub.Fetch(ctx, since, limit, wait)
}

// settingsChanged announces the change and re-runs reconciliation so hiding
// options show up without waiting for the full interval.
func (d *Daemon) settingsChanged(previous, current settings.Settings) {
	msg := "Settings updated"
	if previous.PollIntervalMS != current.PollIntervalMS {
		msg = fmt.Sprintf("Update interval set to %dms", current.PollIntervalMS)
	}
	d.hub.Publish(notifications.Event{Kind: notifications.KindSettingsChanged, Message: msg})
	if previous.HideProjectName != current.HideProjectName || previous.HideSystemUsage != current.HideSystemUsage {
		d.reconciler.Trigger()
	}
}
