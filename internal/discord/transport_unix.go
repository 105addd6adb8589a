//go:build !windows

package discord

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
)

var socketSubdirs = []string{
	"",
	"app/com.discordapp.Discord",
	"snap.discord",
	".flatpak/com.discordapp.Discord/xdg-run",
}

// socketCandidates lists every path a Discord client may listen on, in
// preference order.
func socketCandidates(getenv func(string) string) []string {
	var bases []string
	for _, key := range []string{"XDG_RUNTIME_DIR", "TMPDIR", "TMP", "TEMP"} {
		if v := getenv(key); v != "" {
			bases = append(bases, v)
		}
	}
	bases = append(bases, "/tmp")

	seen := map[string]struct{}{}
	var paths []string
	for _, base := range bases {
		for _, sub := range socketSubdirs {
			for i := 0; i < 10; i++ {
				p := filepath.Join(base, sub, fmt.Sprintf("discord-ipc-%d", i))
				if _, ok := seen[p]; ok {
					continue
				}
				seen[p] = struct{}{}
				paths = append(paths, p)
			}
		}
	}
	return paths
}

func dialIPC(ctx context.Context) (net.Conn, error) {
	var dialer net.Dialer
	var lastErr error
	for _, path := range socketCandidates(os.Getenv) {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		conn, err := dialer.DialContext(ctx, "unix", path)
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no discord-ipc socket found")
	}
	return nil, lastErr
}
