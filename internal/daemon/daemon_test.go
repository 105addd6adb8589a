package daemon

import (
	"context"
	"strings"
	"testing"
	"time"

	"dawpresence/internal/config"
	"dawpresence/internal/logging"
	"dawpresence/internal/notifications"
	"dawpresence/internal/settings"
	"dawpresence/internal/testsupport"
)

type daemonHarness struct {
	daemon   *Daemon
	channel  *fakeChannel
	scanner  *fakeScanner
	settings *settings.Manager
	hub      *notifications.Hub
}

func newDaemonHarness(t *testing.T, cfg *config.Config) *daemonHarness {
	t.Helper()
	ctx := context.Background()
	h := &daemonHarness{
		channel: &fakeChannel{},
		scanner: &fakeScanner{},
		hub:     notifications.NewHub(16),
	}
	store := testsupport.MustOpenSettings(t, cfg)
	h.settings = settings.NewManager(ctx, store, settings.FromConfig(cfg), logging.NewNop())

	reconciler, err := NewReconciler(ReconcilerDeps{
		Scanner:  h.scanner,
		Channel:  h.channel,
		Settings: h.settings,
		Events:   h.hub,
		Logger:   logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewReconciler: %v", err)
	}
	d, err := New(cfg, logging.NewNop(), Deps{
		Reconciler:     reconciler,
		Channel:        h.channel,
		Settings:       h.settings,
		Hub:            h.hub,
		CatalogEntries: 3,
	})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	h.daemon = d
	return h
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	h := newDaemonHarness(t, cfg)

	if err := h.daemon.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	status := h.daemon.Status()
	if !status.Running {
		t.Fatal("expected running status")
	}
	if status.LockFilePath != cfg.LockPath() {
		t.Fatalf("unexpected lock path %q", status.LockFilePath)
	}
	if status.CatalogEntries != 3 {
		t.Fatalf("unexpected catalog entries %d", status.CatalogEntries)
	}
	if status.Settings.PollIntervalMS != cfg.Defaults.PollIntervalMS {
		t.Fatalf("unexpected settings %+v", status.Settings)
	}

	h.daemon.Stop()
	if h.daemon.Status().Running {
		t.Fatal("expected stopped status")
	}
	if h.channel.disconnects == 0 {
		t.Fatal("expected Stop to disconnect the channel")
	}
	h.daemon.Stop()
}

func TestDaemonSingleInstanceLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first := newDaemonHarness(t, cfg)
	if err := first.daemon.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	t.Cleanup(first.daemon.Stop)

	second := newDaemonHarness(t, cfg)
	err := second.daemon.Start(context.Background())
	if err == nil {
		second.daemon.Stop()
		t.Fatal("expected second daemon to fail acquiring the lock")
	}
	if !strings.Contains(err.Error(), "already running") {
		t.Fatalf("unexpected error %v", err)
	}

	first.daemon.Stop()
	if err := second.daemon.Start(context.Background()); err != nil {
		t.Fatalf("expected lock available after first stop: %v", err)
	}
	second.daemon.Stop()
}

func TestDaemonSettingsChangePublishesEvent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	h := newDaemonHarness(t, cfg)
	ctx := context.Background()

	if err := h.daemon.SetUpdateInterval(ctx, 4000); err != nil {
		t.Fatalf("SetUpdateInterval: %v", err)
	}
	if got := h.daemon.Settings().PollIntervalMS; got != 4000 {
		t.Fatalf("expected interval 4000, got %d", got)
	}
	if err := h.daemon.SetHideProjectName(ctx, true); err != nil {
		t.Fatalf("SetHideProjectName: %v", err)
	}

	events, next, err := h.daemon.Events(ctx, 0, 10, false)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected two settings events, got %d", len(events))
	}
	if events[0].Kind != notifications.KindSettingsChanged || events[0].Message != "Update interval set to 4000ms" {
		t.Fatalf("unexpected first event %+v", events[0])
	}
	if events[1].Message != "Settings updated" {
		t.Fatalf("unexpected second event %+v", events[1])
	}
	if next != events[1].Sequence {
		t.Fatalf("expected cursor %d, got %d", events[1].Sequence, next)
	}
}

func TestDaemonEventsFromStartReturnsMostRecent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	h := newDaemonHarness(t, cfg)
	for _, kind := range []notifications.Kind{notifications.KindDawDetected, notifications.KindConnectionChanged, notifications.KindDawClosed} {
		h.hub.Publish(notifications.Event{Kind: kind})
	}

	events, next, err := h.daemon.Events(context.Background(), 0, 2, false)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 2 || events[0].Kind != notifications.KindConnectionChanged || events[1].Kind != notifications.KindDawClosed {
		t.Fatalf("expected the two latest events, got %+v", events)
	}
	if next != 3 {
		t.Fatalf("expected cursor 3, got %d", next)
	}

	events, _, err = h.daemon.Events(context.Background(), 1, 1, false)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 1 || events[0].Kind != notifications.KindConnectionChanged {
		t.Fatalf("expected resume after sequence 1, got %+v", events)
	}
}

func TestDaemonRejectsInvalidInterval(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	h := newDaemonHarness(t, cfg)

	if err := h.daemon.SetUpdateInterval(context.Background(), 500); err == nil {
		t.Fatal("expected validation error")
	}
	if got := h.daemon.Settings().PollIntervalMS; got != cfg.Defaults.PollIntervalMS {
		t.Fatalf("expected interval unchanged, got %d", got)
	}
	events, _, _ := h.daemon.Events(context.Background(), 0, 10, false)
	if len(events) != 0 {
		t.Fatalf("expected no events for rejected change, got %d", len(events))
	}
}

func TestDaemonSettingsSurviveRestart(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	h := newDaemonHarness(t, cfg)
	if err := h.daemon.SetHideSystemUsage(context.Background(), true); err != nil {
		t.Fatalf("SetHideSystemUsage: %v", err)
	}

	reopened := newDaemonHarness(t, cfg)
	if !reopened.daemon.Settings().HideSystemUsage {
		t.Fatal("expected persisted hide_system_usage after reopen")
	}
}

func TestDaemonStopClearsPresenceAfterRunningTick(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	h := newDaemonHarness(t, cfg)
	h.scanner.set(abletonStatus(), nil)

	if err := h.daemon.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, func() bool { return h.daemon.Status().Presence.Connected })
	if !h.daemon.Status().Channel.Connected {
		t.Fatal("expected channel state connected")
	}

	done := make(chan struct{})
	go func() {
		h.daemon.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop did not return")
	}
	if h.channel.State().Connected {
		t.Fatal("expected channel disconnected after Stop")
	}
}
