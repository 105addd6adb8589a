package ipc

import (
	"context"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

const dialTimeout = 2 * time.Second

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, dialTimeout)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status retrieves the daemon status.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call(ctx, "Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Settings retrieves the current settings.
func (c *Client) Settings(ctx context.Context) (*SettingsResponse, error) {
	var resp SettingsResponse
	if err := c.call(ctx, "Settings", SettingsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetUpdateInterval changes the polling interval.
func (c *Client) SetUpdateInterval(ctx context.Context, ms int64) (*SettingsResponse, error) {
	var resp SettingsResponse
	if err := c.call(ctx, "SetUpdateInterval", SetUpdateIntervalRequest{IntervalMS: ms}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetHideProjectName toggles project name hiding.
func (c *Client) SetHideProjectName(ctx context.Context, hide bool) (*SettingsResponse, error) {
	var resp SettingsResponse
	if err := c.call(ctx, "SetHideProjectName", SetHideRequest{Hide: hide}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetHideSystemUsage toggles CPU and RAM hiding.
func (c *Client) SetHideSystemUsage(ctx context.Context, hide bool) (*SettingsResponse, error) {
	var resp SettingsResponse
	if err := c.call(ctx, "SetHideSystemUsage", SetHideRequest{Hide: hide}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Events returns notifications after req.Since, waiting up to req.WaitMillis
// for one to arrive.
func (c *Client) Events(ctx context.Context, req EventsRequest) (*EventsResponse, error) {
	var resp EventsResponse
	if err := c.call(ctx, "Events", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Shutdown asks the daemon process to exit.
func (c *Client) Shutdown(ctx context.Context) (*ShutdownResponse, error) {
	var resp ShutdownResponse
	if err := c.call(ctx, "Shutdown", ShutdownRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) call(ctx context.Context, method string, args any, reply any) error {
	call := c.client.Go(ServiceName+"."+method, args, reply, make(chan *rpc.Call, 1))
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", method, ctx.Err())
	case done := <-call.Done:
		return done.Error
	}
}
