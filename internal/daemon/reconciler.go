package daemon

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"dawpresence/internal/channel"
	"dawpresence/internal/config"
	"dawpresence/internal/logging"
	"dawpresence/internal/monitor"
	"dawpresence/internal/notifications"
	"dawpresence/internal/presence"
	"dawpresence/internal/services"
	"dawpresence/internal/settings"
)

// Scanner finds the running DAW, if any.
type Scanner interface {
	Scan(ctx context.Context, hideProjectName bool) (*monitor.Status, error)
}

// PresenceChannel is the connection the reconciler drives.
type PresenceChannel interface {
	Connect(ctx context.Context, clientID string) error
	UpdatePresence(ctx context.Context, activity presence.Activity) error
	Disconnect(ctx context.Context)
	State() channel.State
}

// SettingsSource supplies the settings snapshot taken at the start of a tick.
type SettingsSource interface {
	Snapshot() settings.Settings
}

// Publisher receives user-visible events.
type Publisher interface {
	Publish(notifications.Event)
}

// ReconcilerDeps wires the reconciler's collaborators.
type ReconcilerDeps struct {
	Scanner  Scanner
	Channel  PresenceChannel
	Settings SettingsSource
	Events   Publisher
	Presence presence.Options
	Logger   *slog.Logger
	Clock    func() time.Time
}

// Reconciler polls for a DAW and keeps the Discord presence in step with it.
// Ticks run strictly one after another on a single goroutine.
type Reconciler struct {
	scanner  Scanner
	channel  PresenceChannel
	settings SettingsSource
	events   Publisher
	opts     presence.Options
	logger   *slog.Logger
	now      func() time.Time
	wake     chan struct{}

	mu            sync.Mutex
	status        PublishedStatus
	lastKey       string
	lastConnected bool
	ticks         uint64
	running       bool
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// NewReconciler constructs an idle reconciler.
func NewReconciler(deps ReconcilerDeps) (*Reconciler, error) {
	if deps.Scanner == nil || deps.Channel == nil || deps.Settings == nil {
		return nil, errors.New("reconciler requires scanner, channel, and settings")
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Reconciler{
		scanner:  deps.Scanner,
		channel:  deps.Channel,
		settings: deps.Settings,
		events:   deps.Events,
		opts:     deps.Presence,
		logger:   logging.NewComponentLogger(deps.Logger, "reconciler"),
		now:      deps.Clock,
		wake:     make(chan struct{}, 1),
		status:   DefaultStatus(),
	}, nil
}

// Start launches the tick loop.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return errors.New("reconciler already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true
	r.wg.Add(1)
	go r.loop(runCtx)
	return nil
}

// Stop ends the loop and waits for the current tick to finish.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	cancel := r.cancel
	r.running = false
	r.cancel = nil
	r.mu.Unlock()

	cancel()
	r.wg.Wait()
}

// Trigger asks the loop to run the next tick now instead of waiting out the
// interval. It never blocks.
func (r *Reconciler) Trigger() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Status returns the last published status.
func (r *Reconciler) Status() PublishedStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Reconciler) loop(ctx context.Context) {
	defer r.wg.Done()
	for {
		interval := r.Tick(ctx)
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-r.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// Tick runs one reconciliation pass and returns the interval to wait before
// the next one, taken from the settings snapshot read at the start of the pass.
func (r *Reconciler) Tick(ctx context.Context) time.Duration {
	r.mu.Lock()
	r.ticks++
	seq := r.ticks
	r.mu.Unlock()

	ctx = services.WithTick(ctx, seq)
	logger := logging.WithContext(ctx, r.logger)
	logger.Log(ctx, logging.LevelTrace, "tick")

	snapshot := r.settings.Snapshot()
	interval := time.Duration(snapshot.PollIntervalMS) * time.Millisecond
	if floor := time.Duration(config.MinPollIntervalMS) * time.Millisecond; interval < floor {
		interval = floor
	}

	status, err := r.scanner.Scan(ctx, snapshot.HideProjectName)
	if err != nil {
		logging.WarnWithContext(logger, "DAW scan failed; keeping previous state", "scan_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, services.ErrorHint(err)),
			logging.String(logging.FieldImpact, "presence not refreshed this tick"),
		)
		return interval
	}

	if status == nil {
		r.channel.Disconnect(ctx)
		r.recordIdle(logger)
		return interval
	}

	activity := presence.Compose(*status, snapshot, r.opts)
	pushErr := r.channel.Connect(services.WithClientID(ctx, status.ClientID), status.ClientID)
	if pushErr == nil {
		pushErr = r.channel.UpdatePresence(ctx, activity)
	}
	if pushErr != nil {
		logging.WarnWithContext(logger, "presence update failed", "presence_update_failed",
			logging.String(logging.FieldDAW, status.DisplayName),
			logging.Error(pushErr),
			logging.String(logging.FieldErrorHint, services.ErrorHint(pushErr)),
			logging.String(logging.FieldImpact, "Discord shows stale or no presence until the next tick"),
		)
	}
	r.recordRunning(logger, *status, pushErr)
	return interval
}

func (r *Reconciler) recordIdle(logger *slog.Logger) {
	r.mu.Lock()
	hadDAW := r.lastKey != ""
	wasConnected := r.lastConnected
	r.lastKey = ""
	r.lastConnected = false
	r.status = DefaultStatus()
	r.status.UpdatedAt = r.now()
	r.mu.Unlock()

	if hadDAW {
		logger.Info("no DAW detected", logging.String(logging.FieldEventType, string(notifications.KindDawClosed)))
		r.publish(notifications.Event{Kind: notifications.KindDawClosed, Message: idleMessage})
	}
	if wasConnected {
		r.publish(notifications.Event{Kind: notifications.KindConnectionChanged, Message: "Disconnected from Discord"})
	}
}

func (r *Reconciler) recordRunning(logger *slog.Logger, status monitor.Status, err error) {
	published := runningStatus(status, err, r.now())
	key := status.IdentityKey()

	r.mu.Lock()
	changed := key != r.lastKey
	connChanged := published.Connected != r.lastConnected
	r.lastKey = key
	r.lastConnected = published.Connected
	r.status = published
	r.mu.Unlock()

	if changed {
		logger.Info("DAW detected",
			logging.String(logging.FieldDAW, status.DisplayName),
			logging.String("project", status.ProjectName),
			logging.Int(logging.FieldPID, int(status.PID)),
			logging.String(logging.FieldEventType, string(notifications.KindDawDetected)),
		)
		r.publish(notifications.Event{
			Kind:        notifications.KindDawDetected,
			Message:     "DAW detected: " + status.DisplayName + " | Project: " + status.ProjectName,
			DawName:     status.DisplayName,
			ProjectName: status.ProjectName,
			Connected:   published.Connected,
		})
	}
	if connChanged {
		r.publish(notifications.Event{
			Kind:      notifications.KindConnectionChanged,
			Message:   published.Message,
			DawName:   status.DisplayName,
			Connected: published.Connected,
		})
	}
}

func (r *Reconciler) publish(evt notifications.Event) {
	if r.events == nil {
		return
	}
	evt.Timestamp = r.now()
	r.events.Publish(evt)
}
