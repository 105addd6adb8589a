package discord

import (
	"context"
	"fmt"
)

// Probe opens and immediately closes a connection to the local Discord IPC
// endpoint, returning the address it reached. A nil dial uses the platform
// transport.
func Probe(ctx context.Context, dial DialFunc) (string, error) {
	if dial == nil {
		dial = dialIPC
	}
	conn, err := dial(ctx)
	if err != nil {
		return "", fmt.Errorf("discord ipc unreachable: %w", err)
	}
	defer conn.Close()
	return conn.RemoteAddr().String(), nil
}
