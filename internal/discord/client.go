package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"dawpresence/internal/logging"
)

// ErrNotConnected is returned by calls on a closed client.
var ErrNotConnected = errors.New("discord ipc client not connected")

// DialFunc opens the raw transport to the local Discord client.
type DialFunc func(ctx context.Context) (net.Conn, error)

// Client is one authenticated IPC session bound to a single application id.
type Client struct {
	clientID string
	dial     DialFunc
	pid      int
	nonce    func() string
	logger   *slog.Logger

	mu   sync.Mutex
	conn net.Conn
}

// Option customizes a Client.
type Option func(*Client)

// WithDialFunc replaces the platform socket lookup.
func WithDialFunc(dial DialFunc) Option {
	return func(c *Client) {
		if dial != nil {
			c.dial = dial
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "discord")
	}
}

// WithPID overrides the pid reported with activity updates.
func WithPID(pid int) Option {
	return func(c *Client) { c.pid = pid }
}

// Dial connects to the local Discord client and completes the handshake.
func Dial(ctx context.Context, clientID string, opts ...Option) (*Client, error) {
	c := &Client{
		clientID: clientID,
		dial:     dialIPC,
		pid:      os.Getpid(),
		nonce:    func() string { return uuid.NewString() },
		logger:   logging.NewComponentLogger(nil, "discord"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(ctx); err != nil {
		return nil, err
	}
	return c, nil
}


// SetActivity replaces the presence shown for this application.
func (c *Client) SetActivity(ctx context.Context, activity *Activity) error {
	return c.send(ctx, command{
		Cmd:  cmdSetActivity,
		Args: activityArgs{PID: c.pid, Activity: activity},
	})
}

// ClearActivity removes the presence for this application.
func (c *Client) ClearActivity(ctx context.Context) error {
	return c.SetActivity(ctx, nil)
}

// Reconnect drops the current socket and repeats the handshake.
func (c *Client) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
	return c.connectLocked(ctx)
}

// Close sends a CLOSE frame and releases the socket. It is safe to call twice.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(time.Second))
	_ = WriteFrame(c.conn, OpClose, []byte("{}"))
	err := c.conn.Close()
	c.conn = nil
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("close discord ipc: %w", err)
	}
	return nil
}

func (c *Client) connectLocked(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return fmt.Errorf("dial discord ipc: %w", err)
	}
	release := bindContext(ctx, conn)
	defer release()

	payload, err := json.Marshal(handshake{V: 1, ClientID: c.clientID})
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("encode handshake: %w", err)
	}
	if err := WriteFrame(conn, OpHandshake, payload); err != nil {
		_ = conn.Close()
		return err
	}
	resp, err := readResponse(conn)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("handshake: %w", err)
	}
	if resp.Evt == evtError {
		_ = conn.Close()
		return fmt.Errorf("handshake: %w", decodeError(resp.Data))
	}
	if resp.Cmd != cmdDispatch || resp.Evt != evtReady {
		_ = conn.Close()
		return fmt.Errorf("handshake: unexpected reply %s/%s", resp.Cmd, resp.Evt)
	}
	c.conn = conn
	c.logger.Debug("discord ipc handshake complete", logging.String(logging.FieldClientID, c.clientID))
	return nil
}

func (c *Client) closeLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) send(ctx context.Context, cmd command) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	release := bindContext(ctx, c.conn)
	defer release()

	cmd.Nonce = c.nonce()
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encode %s: %w", cmd.Cmd, err)
	}
	if err := WriteFrame(c.conn, OpFrame, payload); err != nil {
		return err
	}
	for {
		resp, err := readResponse(c.conn)
		if err != nil {
			return fmt.Errorf("%s: %w", cmd.Cmd, err)
		}
		if resp.Nonce != cmd.Nonce {
			continue
		}
		if resp.Evt == evtError {
			return fmt.Errorf("%s: %w", cmd.Cmd, decodeError(resp.Data))
		}
		return nil
	}
}

// readResponse returns the next FRAME payload, answering pings on the way.
// A CLOSE frame is reported as a ResponseError.
func readResponse(conn net.Conn) (response, error) {
	for {
		op, payload, err := ReadFrame(conn)
		if err != nil {
			return response{}, err
		}
		switch op {
		case OpPing:
			if err := WriteFrame(conn, OpPong, payload); err != nil {
				return response{}, err
			}
		case OpPong:
		case OpClose:
			return response{}, decodeError(payload)
		case OpFrame:
			var resp response
			if err := json.Unmarshal(payload, &resp); err != nil {
				return response{}, fmt.Errorf("decode frame: %w", err)
			}
			return resp, nil
		default:
			return response{}, fmt.Errorf("unexpected %s from discord", op)
		}
	}
}

// bindContext maps ctx's deadline and cancellation onto conn deadlines.
func bindContext(ctx context.Context, conn net.Conn) func() {
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	return func() {
		stop()
		_ = conn.SetDeadline(time.Time{})
	}
}
