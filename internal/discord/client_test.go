package discord

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakePeer plays the Discord side of a net.Pipe.
type fakePeer struct {
	t        *testing.T
	mu       sync.Mutex
	commands []map[string]any
	refuse   bool
	failNext bool
	pingNext bool
	clientID string
}

func (p *fakePeer) dial(context.Context) (net.Conn, error) {
	client, server := net.Pipe()
	go p.serve(server)
	return client, nil
}

func (p *fakePeer) serve(conn net.Conn) {
	defer conn.Close()
	op, payload, err := ReadFrame(conn)
	if err != nil || op != OpHandshake {
		return
	}
	var hs handshake
	_ = json.Unmarshal(payload, &hs)
	p.mu.Lock()
	p.clientID = hs.ClientID
	p.mu.Unlock()
	if p.refuse {
		_ = WriteFrame(conn, OpClose, []byte(`{"code":4000,"message":"Invalid Client ID"}`))
		return
	}
	ready, _ := json.Marshal(map[string]any{"cmd": "DISPATCH", "evt": "READY", "data": map[string]any{"v": hs.V}})
	if err := WriteFrame(conn, OpFrame, ready); err != nil {
		return
	}

	for {
		op, payload, err := ReadFrame(conn)
		if err != nil {
			return
		}
		switch op {
		case OpClose:
			return
		case OpPong:
			continue
		case OpFrame:
		}
		var cmd map[string]any
		if err := json.Unmarshal(payload, &cmd); err != nil {
			p.t.Errorf("decode command: %v", err)
			return
		}
		p.mu.Lock()
		p.commands = append(p.commands, cmd)
		fail := p.failNext
		p.failNext = false
		ping := p.pingNext
		p.pingNext = false
		p.mu.Unlock()

		if ping {
			if err := WriteFrame(conn, OpPing, []byte(`{}`)); err != nil {
				return
			}
			if op, _, err := ReadFrame(conn); err != nil || op != OpPong {
				p.t.Errorf("expected pong, got %s err=%v", op, err)
				return
			}
		}
		// unrelated event first, must be skipped by nonce
		other, _ := json.Marshal(map[string]any{"cmd": "DISPATCH", "evt": "ACTIVITY_JOIN", "nonce": "other"})
		_ = WriteFrame(conn, OpFrame, other)

		reply := map[string]any{"cmd": cmd["cmd"], "nonce": cmd["nonce"], "data": map[string]any{}}
		if fail {
			reply["evt"] = "ERROR"
			reply["data"] = map[string]any{"code": 4002, "message": "bad activity"}
		}
		data, _ := json.Marshal(reply)
		if err := WriteFrame(conn, OpFrame, data); err != nil {
			return
		}
	}
}

func (p *fakePeer) lastCommand() map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.commands) == 0 {
		return nil
	}
	return p.commands[len(p.commands)-1]
}

func dialFake(t *testing.T, peer *fakePeer) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Dial(ctx, "123456", WithDialFunc(peer.dial), WithPID(77))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestDialHandshake(t *testing.T) {
	peer := &fakePeer{t: t}
	dialFake(t, peer)
	peer.mu.Lock()
	defer peer.mu.Unlock()
	if peer.clientID != "123456" {
		t.Fatalf("unexpected handshake client id %q", peer.clientID)
	}
}

func TestDialRefusedByPeer(t *testing.T) {
	_, err := Dial(context.Background(), "bad", WithDialFunc((&fakePeer{t: t, refuse: true}).dial))
	var re *ResponseError
	if !errors.As(err, &re) || re.Code != 4000 {
		t.Fatalf("expected ResponseError 4000, got %v", err)
	}
}

func TestSetActivitySendsPayload(t *testing.T) {
	peer := &fakePeer{t: t, pingNext: true}
	c := dialFake(t, peer)

	activity := &Activity{
		Details:    "Opening project: Beat",
		State:      "12.00% CPU, 1MB RAM",
		Timestamps: &Timestamps{Start: 1700000000},
		Assets:     &Assets{LargeImage: "icon", LargeText: "DAWPresence"},
	}
	if err := c.SetActivity(context.Background(), activity); err != nil {
		t.Fatalf("SetActivity: %v", err)
	}

	cmd := peer.lastCommand()
	if cmd["cmd"] != "SET_ACTIVITY" || cmd["nonce"] == "" {
		t.Fatalf("unexpected command %v", cmd)
	}
	args := cmd["args"].(map[string]any)
	if args["pid"].(float64) != 77 {
		t.Fatalf("unexpected pid %v", args["pid"])
	}
	sent := args["activity"].(map[string]any)
	if sent["details"] != "Opening project: Beat" {
		t.Fatalf("unexpected details %v", sent["details"])
	}
	if sent["timestamps"].(map[string]any)["start"].(float64) != 1700000000 {
		t.Fatalf("unexpected timestamps %v", sent["timestamps"])
	}
	if sent["assets"].(map[string]any)["large_image"] != "icon" {
		t.Fatalf("unexpected assets %v", sent["assets"])
	}
}

func TestClearActivitySendsNull(t *testing.T) {
	peer := &fakePeer{t: t}
	c := dialFake(t, peer)
	if err := c.ClearActivity(context.Background()); err != nil {
		t.Fatalf("ClearActivity: %v", err)
	}
	args := peer.lastCommand()["args"].(map[string]any)
	if v, ok := args["activity"]; !ok || v != nil {
		t.Fatalf("expected explicit null activity, got %v", args)
	}
}

func TestSetActivityErrorEvent(t *testing.T) {
	peer := &fakePeer{t: t, failNext: true}
	c := dialFake(t, peer)
	err := c.SetActivity(context.Background(), &Activity{Details: "x"})
	if err == nil || !strings.Contains(err.Error(), "bad activity") {
		t.Fatalf("expected peer error, got %v", err)
	}
}

func TestReconnectAndClose(t *testing.T) {
	peer := &fakePeer{t: t}
	c := dialFake(t, peer)
	if err := c.Reconnect(context.Background()); err != nil {
		t.Fatalf("Reconnect: %v", err)
	}
	if err := c.SetActivity(context.Background(), &Activity{Details: "after"}); err != nil {
		t.Fatalf("SetActivity after reconnect: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := c.SetActivity(context.Background(), &Activity{}); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestContextDeadlineBoundsCall(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	go func() {
		// accept the handshake and never answer
		_, _, _ = ReadFrame(server)
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := Dial(ctx, "1", WithDialFunc(func(context.Context) (net.Conn, error) { return client, nil }))
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("dial was not bounded by the context deadline")
	}
}
