package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"dawpresence/internal/daemon"
	"dawpresence/internal/logging"
	"dawpresence/internal/notifications"
	"dawpresence/internal/settings"
)

const (
	maxEventWait = 30 * time.Second
	// shutdownDelay lets the Shutdown reply reach the caller before the
	// daemon starts closing connections.
	shutdownDelay = 100 * time.Millisecond
)

// Controller is the daemon surface reachable over IPC.
type Controller interface {
	Status() daemon.Status
	Settings() settings.Settings
	SetUpdateInterval(ctx context.Context, ms int64) error
	SetHideProjectName(ctx context.Context, hide bool) error
	SetHideSystemUsage(ctx context.Context, hide bool) error
	Events(ctx context.Context, since uint64, limit int, wait bool) ([]notifications.Event, uint64, error)
}

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path. shutdown runs
// when a client requests the daemon to exit; it may be nil.
func NewServer(ctx context.Context, path string, ctrl Controller, shutdown func(), logger *slog.Logger) (*Server, error) {
	if ctrl == nil {
		return nil, errors.New("ipc server requires controller")
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	// Open connections end on Close, not when ctx ends.
	serverCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	rpcServer := rpc.NewServer()
	srv := &service{ctrl: ctrl, shutdown: shutdown, logger: logger, ctx: serverCtx}
	if err := rpcServer.RegisterName(ServiceName, srv); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Path returns the socket location.
func (s *Server) Path() string {
	return s.path
}

// Serve accepts RPC connections until Close is called.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"),
				)
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				stop := context.AfterFunc(s.ctx, func() { _ = c.Close() })
				defer stop()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server, drops open connections and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually"),
		)
	}
}

type service struct {
	ctrl     Controller
	shutdown func()
	logger   *slog.Logger
	ctx      context.Context
	once     sync.Once
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.ctrl.Status()
	resp.Running = status.Running
	resp.PID = os.Getpid()
	resp.StartedAt = status.StartedAt
	resp.DawName = status.Presence.DawName
	resp.ProjectName = status.Presence.ProjectName
	resp.CPUUsage = status.Presence.CPUUsage
	resp.RAMUsage = status.Presence.RAMUsage
	resp.Version = status.Presence.Version
	resp.Message = status.Presence.Message
	resp.Connected = status.Presence.Connected
	resp.ClientID = status.Channel.ClientID
	resp.UpdatedAt = status.Presence.UpdatedAt
	resp.Settings = settingsResponse(status.Settings)
	resp.CatalogEntries = status.CatalogEntries
	resp.LockPath = status.LockFilePath
	resp.LogPath = status.LogPath
	return nil
}

func (s *service) Settings(_ SettingsRequest, resp *SettingsResponse) error {
	*resp = settingsResponse(s.ctrl.Settings())
	return nil
}

func (s *service) SetUpdateInterval(req SetUpdateIntervalRequest, resp *SettingsResponse) error {
	if err := s.ctrl.SetUpdateInterval(s.ctx, req.IntervalMS); err != nil {
		return err
	}
	s.logger.Info("update interval changed via IPC",
		logging.String(logging.FieldEventType, "settings_interval"),
		logging.Int64("interval_ms", req.IntervalMS),
	)
	*resp = settingsResponse(s.ctrl.Settings())
	return nil
}

func (s *service) SetHideProjectName(req SetHideRequest, resp *SettingsResponse) error {
	if err := s.ctrl.SetHideProjectName(s.ctx, req.Hide); err != nil {
		return err
	}
	*resp = settingsResponse(s.ctrl.Settings())
	return nil
}

func (s *service) SetHideSystemUsage(req SetHideRequest, resp *SettingsResponse) error {
	if err := s.ctrl.SetHideSystemUsage(s.ctx, req.Hide); err != nil {
		return err
	}
	*resp = settingsResponse(s.ctrl.Settings())
	return nil
}

func (s *service) Events(req EventsRequest, resp *EventsResponse) error {
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait > maxEventWait {
		wait = maxEventWait
	}
	ctx := s.ctx
	if wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait)
		defer cancel()
	}
	events, next, err := s.ctrl.Events(ctx, req.Since, req.Limit, wait > 0)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			resp.Events = []Event{}
			resp.Next = next
			return nil
		}
		return err
	}
	resp.Events = convertEvents(events)
	resp.Next = next
	return nil
}

func (s *service) Shutdown(_ ShutdownRequest, resp *ShutdownResponse) error {
	s.logger.Info("shutdown requested via IPC", logging.String(logging.FieldEventType, "daemon_shutdown"))
	resp.Stopping = true
	if s.shutdown != nil {
		s.once.Do(func() { time.AfterFunc(shutdownDelay, s.shutdown) })
	}
	return nil
}

func settingsResponse(s settings.Settings) SettingsResponse {
	return SettingsResponse{
		HideProjectName:  s.HideProjectName,
		HideSystemUsage:  s.HideSystemUsage,
		UpdateIntervalMS: s.PollIntervalMS,
	}
}
