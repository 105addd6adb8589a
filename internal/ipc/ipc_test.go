package ipc_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dawpresence/internal/channel"
	"dawpresence/internal/daemon"
	"dawpresence/internal/ipc"
	"dawpresence/internal/logging"
	"dawpresence/internal/notifications"
	"dawpresence/internal/settings"
	"dawpresence/internal/testsupport"
)

type fakeController struct {
	mu       sync.Mutex
	settings settings.Settings
	hub      *notifications.Hub
}

func (f *fakeController) Status() daemon.Status {
	presence := daemon.DefaultStatus()
	presence.DawName = "FL Studio"
	presence.ProjectName = "Beat"
	presence.Connected = true
	return daemon.Status{
		Running:        true,
		Presence:       presence,
		Channel:        channel.State{Connected: true, ClientID: "2222"},
		Settings:       f.Settings(),
		CatalogEntries: 7,
		LockFilePath:   "/tmp/dawpresence.lock",
	}
}

func (f *fakeController) Settings() settings.Settings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings
}

func (f *fakeController) SetUpdateInterval(_ context.Context, ms int64) error {
	if err := settings.ValidateUpdateInterval(ms); err != nil {
		return err
	}
	f.mu.Lock()
	f.settings.PollIntervalMS = ms
	f.mu.Unlock()
	return nil
}

func (f *fakeController) SetHideProjectName(_ context.Context, hide bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings.HideProjectName = hide
	return nil
}

func (f *fakeController) SetHideSystemUsage(_ context.Context, hide bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings.HideSystemUsage = hide
	return nil
}

func (f *fakeController) Events(ctx context.Context, since uint64, limit int, wait bool) ([]notifications.Event, uint64, error) {
	return f.hub.Fetch(ctx, since, limit, wait)
}

func startServer(t *testing.T, ctrl ipc.Controller, shutdown func()) *ipc.Client {
	t.Helper()
	cfg := testsupport.NewConfig(t)

	srv, err := ipc.NewServer(context.Background(), cfg.Paths.SocketPath, ctrl, shutdown, logging.NewNop())
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() {
		srv.Close()
		if _, err := os.Stat(cfg.Paths.SocketPath); !os.IsNotExist(err) {
			t.Errorf("expected socket removed, stat err=%v", err)
		}
	})

	client, err := ipc.Dial(cfg.Paths.SocketPath)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})
	return client
}

func newController() *fakeController {
	return &fakeController{
		settings: settings.Settings{PollIntervalMS: 2500},
		hub:      notifications.NewHub(32),
	}
}

func TestIPCStatusAndSettings(t *testing.T) {
	ctrl := newController()
	client := startServer(t, ctrl, nil)
	ctx := context.Background()

	status, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !status.Running || !status.Connected {
		t.Fatalf("unexpected status %+v", status)
	}
	if status.DawName != "FL Studio" || status.ProjectName != "Beat" || status.ClientID != "2222" {
		t.Fatalf("unexpected presence fields %+v", status)
	}
	if status.CatalogEntries != 7 || status.PID != os.Getpid() {
		t.Fatalf("unexpected metadata %+v", status)
	}

	updated, err := client.SetUpdateInterval(ctx, 5000)
	if err != nil {
		t.Fatalf("SetUpdateInterval RPC failed: %v", err)
	}
	if updated.UpdateIntervalMS != 5000 {
		t.Fatalf("expected interval 5000, got %d", updated.UpdateIntervalMS)
	}

	if _, err := client.SetHideProjectName(ctx, true); err != nil {
		t.Fatalf("SetHideProjectName RPC failed: %v", err)
	}
	if _, err := client.SetHideSystemUsage(ctx, true); err != nil {
		t.Fatalf("SetHideSystemUsage RPC failed: %v", err)
	}
	current, err := client.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings RPC failed: %v", err)
	}
	if !current.HideProjectName || !current.HideSystemUsage || current.UpdateIntervalMS != 5000 {
		t.Fatalf("unexpected settings %+v", current)
	}
}

func TestIPCSetUpdateIntervalRejectsOutOfRange(t *testing.T) {
	client := startServer(t, newController(), nil)

	_, err := client.SetUpdateInterval(context.Background(), 10)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "between 1000 ms and 100,000,000 ms") {
		t.Fatalf("unexpected error text %q", err)
	}
}

func TestIPCEventsLongPoll(t *testing.T) {
	ctrl := newController()
	client := startServer(t, ctrl, nil)
	ctx := context.Background()

	ctrl.hub.Publish(notifications.Event{Kind: notifications.KindDawDetected, Message: "DAW detected: FL Studio | Project: Beat", DawName: "FL Studio"})

	resp, err := client.Events(ctx, ipc.EventsRequest{})
	if err != nil {
		t.Fatalf("Events RPC failed: %v", err)
	}
	if len(resp.Events) != 1 || resp.Events[0].Kind != "daw_detected" {
		t.Fatalf("unexpected events %+v", resp.Events)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		ctrl.hub.Publish(notifications.Event{Kind: notifications.KindDawClosed, Message: "closed"})
	}()
	resp, err = client.Events(ctx, ipc.EventsRequest{Since: resp.Next, WaitMillis: 2000})
	if err != nil {
		t.Fatalf("Events wait RPC failed: %v", err)
	}
	if len(resp.Events) != 1 || resp.Events[0].Kind != "daw_closed" {
		t.Fatalf("expected daw_closed after wait, got %+v", resp.Events)
	}

	resp, err = client.Events(ctx, ipc.EventsRequest{Since: resp.Next, WaitMillis: 50})
	if err != nil {
		t.Fatalf("Events timeout RPC failed: %v", err)
	}
	if len(resp.Events) != 0 {
		t.Fatalf("expected empty result after wait timeout, got %+v", resp.Events)
	}
}

func TestIPCShutdownRunsCallbackOnce(t *testing.T) {
	var calls atomic.Int32
	fired := make(chan struct{}, 2)
	client := startServer(t, newController(), func() {
		calls.Add(1)
		fired <- struct{}{}
	})

	for range 2 {
		resp, err := client.Shutdown(context.Background())
		if err != nil {
			t.Fatalf("Shutdown RPC failed: %v", err)
		}
		if !resp.Stopping {
			t.Fatal("expected Stopping=true")
		}
	}
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown callback never ran")
	}
	time.Sleep(200 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected shutdown callback once, got %d", got)
	}
}

func TestIPCClientHonorsContext(t *testing.T) {
	client := startServer(t, newController(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := client.Events(ctx, ipc.EventsRequest{WaitMillis: 1000})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestDialMissingSocket(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := ipc.Dial(cfg.Paths.SocketPath); err == nil {
		t.Fatal("expected dial error for missing socket")
	}
}
