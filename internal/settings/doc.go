// Package settings persists the user-adjustable options (hide project name,
// hide system usage, update interval) in a SQLite database and serves a
// validated in-memory snapshot to the reconciler.
package settings
