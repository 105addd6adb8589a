package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"dawpresence/internal/catalog"
	"dawpresence/internal/discord"
	"dawpresence/internal/settings"
)

const probeTimeout = 3 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := checkAccess(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCatalog reads the DAW catalog and reports parse failures and entry problems.
func CheckCatalog(path string) Result {
	const name = "DAW catalog"
	cat, skipped, err := catalog.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if problems := cat.Validate(); len(problems) > 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%d entries, %d problem(s); run dawpresence catalog validate", cat.Len(), len(problems))}
	}
	detail := fmt.Sprintf("%d entries", cat.Len())
	if skipped > 0 {
		detail += fmt.Sprintf(", %d skipped without a process name", skipped)
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckSettingsStore opens the settings database and applies pending migrations.
func CheckSettingsStore(ctx context.Context, path string) Result {
	const name = "Settings database"
	store, err := settings.Open(ctx, path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if err := store.Close(); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: close: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckDiscord verifies a Discord client is listening for rich presence. It
// is optional; the daemon retries until one appears.
func CheckDiscord(ctx context.Context, dial discord.DialFunc) Result {
	const name = "Discord IPC"
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	addr, err := discord.Probe(probeCtx, dial)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: "not reachable (is the Discord desktop client running?)"}
	}
	return Result{Name: name, Passed: true, Optional: true, Detail: addr}
}

// CheckWindowTitles reports whether project names can be read from window
// titles. It is optional; without it projects show as unknown.
func CheckWindowTitles(support func() (string, error)) Result {
	const name = "Window titles"
	detail, err := support()
	if err != nil {
		return Result{Name: name, Optional: true, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Optional: true, Detail: detail}
}
