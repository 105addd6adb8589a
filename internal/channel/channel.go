package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"dawpresence/internal/logging"
	"dawpresence/internal/presence"
	"dawpresence/internal/services"
)

const defaultCallTimeout = 5 * time.Second

// Session is one open connection to the presence peer.
type Session interface {
	SetActivity(ctx context.Context, activity presence.Activity, start time.Time) error
	ClearActivity(ctx context.Context) error
	Reconnect(ctx context.Context) error
	Close() error
}

// Dialer opens sessions bound to a client id.
type Dialer interface {
	Open(ctx context.Context, clientID string) (Session, error)
}

// State is a snapshot of the channel connection.
type State struct {
	Connected bool      `json:"connected"`
	ClientID  string    `json:"client_id,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
}

func (s State) String() string {
	if !s.Connected {
		return "disconnected"
	}
	return "connected(" + s.ClientID + ")"
}

// Options configures a Channel.
type Options struct {
	// CallTimeout bounds every individual peer call.
	CallTimeout time.Duration
	Logger      *slog.Logger
	Clock       func() time.Time
}

// Channel keeps at most one session open and targets exactly one client id.
// Connect, UpdatePresence and Disconnect serialize on a single mutex; State
// reads a snapshot published at each transition and never waits on them.
type Channel struct {
	dialer  Dialer
	timeout time.Duration
	now     func() time.Time
	logger  *slog.Logger

	mu        sync.Mutex
	session   Session
	clientID  string
	startedAt time.Time

	state atomic.Pointer[State]
}

// New constructs a disconnected channel.
func New(dialer Dialer, opts Options) *Channel {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	c := &Channel{
		dialer:  dialer,
		timeout: opts.CallTimeout,
		now:     opts.Clock,
		logger:  logging.NewComponentLogger(opts.Logger, "channel"),
	}
	c.state.Store(&State{})
	return c
}

// State returns the last published connection snapshot.
func (c *Channel) State() State {
	return *c.state.Load()
}

func (c *Channel) publishLocked() {
	if c.session == nil {
		c.state.Store(&State{})
		return
	}
	c.state.Store(&State{Connected: true, ClientID: c.clientID, StartedAt: c.startedAt})
}

// Connect ensures a session bound to clientID is open. A session bound to a
// different id is torn down first.
func (c *Channel) Connect(ctx context.Context, clientID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil && c.clientID == clientID {
		return nil
	}
	logger := logging.WithContext(services.WithClientID(ctx, clientID), c.logger)
	if c.session != nil {
		logger.Debug("client id changed; replacing session", logging.String("previous_client_id", c.clientID))
		c.teardownLocked(ctx, true)
	}

	var session Session
	err := c.call(ctx, func(callCtx context.Context) error {
		var openErr error
		session, openErr = c.dialer.Open(callCtx, clientID)
		return openErr
	})
	if err != nil {
		return services.Wrap(services.ErrConnection, "channel", "connect", "open session for client "+clientID, err)
	}

	c.session = session
	c.clientID = clientID
	c.startedAt = c.now()
	c.publishLocked()
	logger.Info("connected to Discord", logging.String(logging.FieldEventType, "channel_connected"))
	return nil
}

// UpdatePresence pushes activity through the open session. It is a no-op when
// disconnected. A failed push triggers exactly one reconnect attempt.
func (c *Channel) UpdatePresence(ctx context.Context, activity presence.Activity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil
	}
	session, start := c.session, c.startedAt
	push := func(callCtx context.Context) error {
		return session.SetActivity(callCtx, activity, start)
	}

	pushErr := c.call(ctx, push)
	if pushErr == nil {
		return nil
	}
	logging.WarnWithContext(c.logger, "presence push failed; reconnecting", "presence_push_failed",
		logging.String(logging.FieldClientID, c.clientID),
		logging.Error(pushErr),
		logging.String(logging.FieldErrorHint, services.ErrorHint(services.ErrPresenceUpdate)),
	)

	if reErr := c.call(ctx, session.Reconnect); reErr != nil {
		c.teardownLocked(ctx, false)
		return services.Wrap(services.ErrPresenceUpdate, "channel", "update presence",
			"push and reconnect both failed", fmt.Errorf("push: %w; reconnect: %w", pushErr, reErr))
	}

	if retryErr := c.call(ctx, push); retryErr != nil {
		return services.Wrap(services.ErrPresenceUpdate, "channel", "update presence", "push failed after reconnect", retryErr)
	}
	c.logger.Info("reconnected to Discord", logging.String(logging.FieldClientID, c.clientID))
	return nil
}

// Disconnect clears and closes the session if one is open. It never fails.
func (c *Channel) Disconnect(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return
	}
	c.teardownLocked(ctx, true)
	c.logger.Debug("disconnected from Discord")
}

func (c *Channel) teardownLocked(ctx context.Context, clearActivity bool) {
	session := c.session
	c.session = nil
	c.clientID = ""
	c.startedAt = time.Time{}
	c.publishLocked()
	if session == nil {
		return
	}
	if clearActivity {
		if err := c.call(ctx, session.ClearActivity); err != nil {
			c.logger.Debug("clear activity failed", logging.Error(err))
		}
	}
	if err := session.Close(); err != nil {
		c.logger.Debug("close session failed", logging.Error(err))
	}
}

// call runs fn under the per-call timeout. A deadline hit is tagged ErrTimeout.
func (c *Channel) call(ctx context.Context, fn func(context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	err := fn(callCtx)
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded)) {
		return fmt.Errorf("%w: %w", services.ErrTimeout, err)
	}
	return err
}
