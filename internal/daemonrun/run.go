package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"dawpresence/internal/catalog"
	"dawpresence/internal/channel"
	"dawpresence/internal/config"
	"dawpresence/internal/daemon"
	"dawpresence/internal/discord"
	"dawpresence/internal/fileutil"
	"dawpresence/internal/ipc"
	"dawpresence/internal/logging"
	"dawpresence/internal/monitor"
	"dawpresence/internal/notifications"
	"dawpresence/internal/platform"
	"dawpresence/internal/presence"
	"dawpresence/internal/settings"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Runtime holds every long-lived collaborator of a daemon process. It is
// built once and handed to the pieces that need it.
type Runtime struct {
	Config     *config.Config
	Logger     *slog.Logger
	Catalog    *catalog.Catalog
	Monitor    *monitor.Monitor
	Store      *settings.Store
	Settings   *settings.Manager
	Hub        *notifications.Hub
	Ntfy       *notifications.NtfySink
	Channel    *channel.Channel
	Reconciler *daemon.Reconciler
	Daemon     *daemon.Daemon
}

// NewLogger builds the process logger from cfg, honoring a level override.
func NewLogger(cfg *config.Config, opts Options) (*slog.Logger, error) {
	level := cfg.Logging.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", cfg.LogPath()},
		Development: opts.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// NewMonitor loads the catalog and builds the DAW monitor for cfg.
func NewMonitor(cfg *config.Config, logger *slog.Logger) (*monitor.Monitor, *catalog.Catalog) {
	cat := catalog.Load(cfg.Paths.CatalogPath, logger)
	provider := platform.New(platform.Options{
		VersionProbeTimeout: cfg.VersionProbeTimeout(),
		VersionProbeEnabled: cfg.Platform.VersionProbeEnabled,
		Logger:              logger,
	})
	return monitor.New(cat, provider, logger), cat
}

// Build wires a Runtime without starting anything.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	rt := &Runtime{Config: cfg, Logger: logger}
	rt.Monitor, rt.Catalog = NewMonitor(cfg, logger)
	for _, problem := range rt.Catalog.Validate() {
		logging.WarnWithContext(logger, "catalog entry problem", "catalog_invalid",
			logging.Error(problem),
			logging.String(logging.FieldImpact, "affected DAW may be misreported"),
			logging.String(logging.FieldErrorHint, "run dawpresence catalog validate"),
		)
	}

	store, err := settings.Open(ctx, cfg.Paths.SettingsPath)
	if err != nil {
		logging.WarnWithContext(logger, "settings database unavailable; keeping settings in memory", "settings_open_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "settings changes will not survive a restart"),
			logging.String(logging.FieldErrorHint, "check permissions on "+cfg.Paths.SettingsPath),
		)
	}
	rt.Store = store
	rt.Settings = settings.NewManager(ctx, store, settings.FromConfig(cfg), logger)

	rt.Hub = notifications.NewHub(0)
	rt.Hub.AddSink(notifications.NewLogSink(logger))
	if rt.Ntfy = notifications.NewNtfySink(cfg, logger); rt.Ntfy != nil {
		rt.Hub.AddSink(rt.Ntfy)
	}

	rt.Channel = channel.New(channel.DiscordDialer{
		Options: []discord.Option{discord.WithLogger(logger)},
	}, channel.Options{
		CallTimeout: cfg.IPCTimeout(),
		Logger:      logger,
	})

	rt.Reconciler, err = daemon.NewReconciler(daemon.ReconcilerDeps{
		Scanner:  rt.Monitor,
		Channel:  rt.Channel,
		Settings: rt.Settings,
		Events:   rt.Hub,
		Presence: presence.Options{
			LargeImage: cfg.Presence.LargeImage,
			LargeText:  cfg.Presence.LargeText,
		},
		Logger: logger,
	})
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("create reconciler: %w", err)
	}

	rt.Daemon, err = daemon.New(cfg, logger, daemon.Deps{
		Reconciler:     rt.Reconciler,
		Channel:        rt.Channel,
		Settings:       rt.Settings,
		Hub:            rt.Hub,
		CatalogEntries: rt.Catalog.Len(),
	})
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("create daemon: %w", err)
	}
	return rt, nil
}

// Close releases resources held by the runtime.
func (r *Runtime) Close() {
	if r.Daemon != nil {
		r.Daemon.Stop()
	}
	r.Ntfy.Close()
	if r.Store != nil {
		if err := r.Store.Close(); err != nil {
			r.Logger.Warn("close settings store", logging.Error(err))
		}
	}
}

// Run starts the dawpresence daemon and blocks until a signal or a Shutdown
// request arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return errors.New("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger, err := NewLogger(cfg, opts)
	if err != nil {
		return err
	}

	rt, err := Build(signalCtx, cfg, logger)
	if err != nil {
		logger.Error("build runtime", logging.Error(err))
		return err
	}
	defer rt.Close()

	if err := rt.Daemon.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	pidPath := filepath.Join(cfg.Paths.DataDir, "dawpresence.pid")
	if err := writePIDFile(pidPath); err != nil {
		logger.Warn("write pid file", logging.Error(err), logging.String("path", pidPath))
	}
	defer os.Remove(pidPath)

	ipcServer, err := ipc.NewServer(signalCtx, cfg.Paths.SocketPath, rt.Daemon, cancel, logger)
	if err != nil {
		logging.WarnWithContext(logger, "control socket unavailable", "ipc_start_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "status, settings and stop commands cannot reach this daemon"),
			logging.String(logging.FieldErrorHint, "remove a stale socket at "+cfg.Paths.SocketPath),
		)
	} else {
		defer ipcServer.Close()
		ipcServer.Serve()
	}

	logger.Info("dawpresence running",
		logging.String(logging.FieldEventType, "daemon_running"),
		logging.String("version", config.Version),
		logging.String("socket", cfg.Paths.SocketPath),
		logging.Int("catalog_entries", rt.Catalog.Len()),
	)

	<-signalCtx.Done()
	logger.Info("dawpresence shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return fileutil.WriteFileAtomic(path, []byte(value), 0o644)
}
