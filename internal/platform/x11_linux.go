//go:build linux

package platform

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// maxPropertyWords caps a single GetProperty read, in 32-bit units.
const maxPropertyWords = 1 << 16

// x11Display keeps one connection to the X server and reopens it after a
// failed client list read.
type x11Display struct {
	mu    sync.Mutex
	conn  *xgb.Conn
	root  xproto.Window
	atoms map[string]xproto.Atom
}

func (d *x11Display) ClientWindows() ([]x11Window, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		conn, err := xgb.NewConn()
		if err != nil {
			return nil, fmt.Errorf("connect to X server: %w", err)
		}
		d.conn = conn
		d.root = xproto.Setup(conn).DefaultScreen(conn).Root
		d.atoms = make(map[string]xproto.Atom)
	}

	windows, err := d.clientsLocked()
	if err != nil {
		d.closeLocked()
		return nil, err
	}
	return windows, nil
}

func (d *x11Display) closeLocked() {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}

func (d *x11Display) clientsLocked() ([]x11Window, error) {
	clientList, err := d.atomLocked("_NET_CLIENT_LIST")
	if err != nil {
		return nil, err
	}
	if clientList == xproto.AtomNone {
		return nil, errors.New("window manager does not publish _NET_CLIENT_LIST")
	}
	reply, err := xproto.GetProperty(d.conn, false, d.root, clientList, xproto.AtomWindow, 0, maxPropertyWords).Reply()
	if err != nil {
		return nil, fmt.Errorf("read _NET_CLIENT_LIST: %w", err)
	}
	ids := decodeWindows(reply.Format, reply.Value)

	pidAtom, err := d.atomLocked("_NET_WM_PID")
	if err != nil {
		return nil, err
	}
	if pidAtom == xproto.AtomNone {
		return nil, nil
	}
	netNameAtom, err := d.atomLocked("_NET_WM_NAME")
	if err != nil {
		return nil, err
	}

	// Queue every request before reading replies so the walk costs one round trip.
	type pending struct {
		pid, netName, wmName xproto.GetPropertyCookie
	}
	cookies := make([]pending, len(ids))
	for i, id := range ids {
		cookies[i].pid = xproto.GetProperty(d.conn, false, id, pidAtom, xproto.AtomCardinal, 0, 1)
		if netNameAtom != xproto.AtomNone {
			cookies[i].netName = xproto.GetProperty(d.conn, false, id, netNameAtom, xproto.GetPropertyTypeAny, 0, maxPropertyWords)
		}
		cookies[i].wmName = xproto.GetProperty(d.conn, false, id, xproto.AtomWmName, xproto.GetPropertyTypeAny, 0, maxPropertyWords)
	}

	windows := make([]x11Window, 0, len(ids))
	for _, c := range cookies {
		var netTitle, wmTitle string
		if netNameAtom != xproto.AtomNone {
			netTitle = propertyText(c.netName.Reply())
		}
		wmTitle = propertyText(c.wmName.Reply())
		// BadWindow for clients that closed between the list and the query.
		pidReply, err := c.pid.Reply()
		if err != nil || pidReply == nil {
			continue
		}
		pid, ok := decodeCardinal(pidReply.Format, pidReply.Value)
		if !ok {
			continue
		}
		windows = append(windows, x11Window{pid: pid, title: pickTitle(netTitle, wmTitle)})
	}
	return windows, nil
}

func propertyText(reply *xproto.GetPropertyReply, err error) string {
	if err != nil || reply == nil || reply.Format != 8 {
		return ""
	}
	return string(reply.Value)
}

func (d *x11Display) atomLocked(name string) (xproto.Atom, error) {
	if atom, ok := d.atoms[name]; ok {
		return atom, nil
	}
	reply, err := xproto.InternAtom(d.conn, true, uint16(len(name)), name).Reply()
	if err != nil {
		return xproto.AtomNone, fmt.Errorf("intern %s: %w", name, err)
	}
	if reply.Atom != xproto.AtomNone {
		d.atoms[name] = reply.Atom
	}
	return reply.Atom, nil
}

// decodeWindows reads a format-32 WINDOW list.
func decodeWindows(format byte, value []byte) []xproto.Window {
	if format != 32 {
		return nil
	}
	ids := make([]xproto.Window, 0, len(value)/4)
	for i := 0; i+4 <= len(value); i += 4 {
		ids = append(ids, xproto.Window(xgb.Get32(value[i:])))
	}
	return ids
}

// decodeCardinal reads the first format-32 CARDINAL.
func decodeCardinal(format byte, value []byte) (int32, bool) {
	if format != 32 || len(value) < 4 {
		return 0, false
	}
	return int32(xgb.Get32(value)), true
}

// pickTitle prefers the UTF-8 _NET_WM_NAME over the legacy WM_NAME.
func pickTitle(netName, wmName string) string {
	if title := strings.TrimSpace(strings.TrimRight(netName, "\x00")); title != "" {
		return title
	}
	return strings.TrimSpace(strings.TrimRight(wmName, "\x00"))
}

// windowTitleSupport connects to the X server named by DISPLAY.
func windowTitleSupport() (string, error) {
	display := os.Getenv("DISPLAY")
	if display == "" {
		if os.Getenv("WAYLAND_DISPLAY") != "" {
			return "", errors.New("wayland session without X11; window titles unavailable")
		}
		return "", errors.New("DISPLAY not set; window titles unavailable")
	}
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return "", fmt.Errorf("connect to X server %s: %w", display, err)
	}
	defer conn.Close()
	return "X11 " + display, nil
}
