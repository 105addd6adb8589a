package settings

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

const (
	keyHideProjectName = "hide_project_name"
	keyHideSystemUsage = "hide_system_usage"
	keyPollIntervalMS  = "update_interval_ms"
)

// Store persists settings as key/value rows in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the settings database at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure settings directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load overlays persisted rows onto defaults. Missing or unparsable rows keep
// the default value.
func (s *Store) Load(ctx context.Context, defaults Settings) (Settings, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return defaults, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	out := defaults
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return defaults, fmt.Errorf("scan setting: %w", err)
		}
		switch key {
		case keyHideProjectName:
			if b, err := strconv.ParseBool(value); err == nil {
				out.HideProjectName = b
			}
		case keyHideSystemUsage:
			if b, err := strconv.ParseBool(value); err == nil {
				out.HideSystemUsage = b
			}
		case keyPollIntervalMS:
			if n, err := strconv.ParseInt(value, 10, 64); err == nil && ValidateUpdateInterval(n) == nil {
				out.PollIntervalMS = n
			}
		}
	}
	if err := rows.Err(); err != nil {
		return defaults, fmt.Errorf("iterate settings: %w", err)
	}
	return out, nil
}

// Save writes every field of s in a single transaction.
func (s *Store) Save(ctx context.Context, value Settings) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settings tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	rows := [][2]string{
		{keyHideProjectName, strconv.FormatBool(value.HideProjectName)},
		{keyHideSystemUsage, strconv.FormatBool(value.HideSystemUsage)},
		{keyPollIntervalMS, strconv.FormatInt(value.PollIntervalMS, 10)},
	}
	for _, row := range rows {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
             ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			row[0], row[1], now,
		); err != nil {
			return fmt.Errorf("save setting %s: %w", row[0], err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings: %w", err)
	}
	return nil
}
