//go:build windows

package platform

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

type windowsProvider struct {
	logger *slog.Logger
}

func newProvider(opts Options) Provider {
	return &windowsProvider{logger: opts.Logger}
}

func windowTitleSupport() (string, error) {
	return "top-level window enumeration", nil
}

var (
	enumOnce     sync.Once
	enumCallback uintptr
	enumMu       sync.Mutex
	enumTarget   uint32
	enumTitles   []string
)

// WindowTitle returns the longest visible window title owned by pid. The main
// window normally carries the project name while tool windows are short.
func (p *windowsProvider) WindowTitle(_ context.Context, pid int32) string {
	enumOnce.Do(func() {
		enumCallback = windows.NewCallback(func(hwnd windows.HWND, _ uintptr) uintptr {
			var owner uint32
			if _, err := windows.GetWindowThreadProcessId(hwnd, &owner); err != nil || owner != enumTarget {
				return 1
			}
			if !windows.IsWindowVisible(hwnd) {
				return 1
			}
			buf := make([]uint16, 512)
			n, err := windows.GetWindowText(hwnd, &buf[0], int32(len(buf)))
			if err != nil || n == 0 {
				return 1
			}
			if title := windows.UTF16ToString(buf[:n]); strings.TrimSpace(title) != "" {
				enumTitles = append(enumTitles, title)
			}
			return 1
		})
	})

	enumMu.Lock()
	defer enumMu.Unlock()
	enumTarget = uint32(pid)
	enumTitles = nil
	_ = windows.EnumWindows(enumCallback, nil)

	best := ""
	for _, title := range enumTitles {
		if len(title) > len(best) {
			best = title
		}
	}
	if best == "" {
		p.logger.Debug("no window titles found", slog.Int("pid", int(pid)))
	}
	return best
}

// ProcessVersion reads ProductVersion from the executable's version resource.
func (p *windowsProvider) ProcessVersion(_ context.Context, exePath string) string {
	if exePath == "" {
		return UnknownVersion
	}
	var zero windows.Handle
	size, err := windows.GetFileVersionInfoSize(exePath, &zero)
	if err != nil || size == 0 {
		return UnknownVersion
	}
	data := make([]byte, size)
	if err := windows.GetFileVersionInfo(exePath, 0, size, unsafe.Pointer(&data[0])); err != nil {
		return UnknownVersion
	}

	var (
		translation unsafe.Pointer
		length      uint32
	)
	if err := windows.VerQueryValue(unsafe.Pointer(&data[0]), `\VarFileInfo\Translation`, unsafe.Pointer(&translation), &length); err != nil || length < 4 || translation == nil {
		return UnknownVersion
	}
	pair := (*[2]uint16)(translation)
	query := fmt.Sprintf(`\StringFileInfo\%04X%04X\ProductVersion`, pair[0], pair[1])

	var value unsafe.Pointer
	if err := windows.VerQueryValue(unsafe.Pointer(&data[0]), query, unsafe.Pointer(&value), &length); err != nil || value == nil || length == 0 {
		return UnknownVersion
	}
	version := strings.TrimSpace(windows.UTF16PtrToString((*uint16)(value)))
	if version == "" {
		return UnknownVersion
	}
	return version
}
