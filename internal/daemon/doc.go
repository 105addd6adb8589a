// Package daemon runs the reconciliation loop that mirrors the detected DAW
// into a Discord presence.
//
// The Reconciler owns a single goroutine. Each tick reads the settings
// snapshot, scans for a DAW, composes the activity and drives the presence
// channel, then publishes a status for observers. Notifications are emitted
// only when the DAW identity or the connection state changes.
//
// Daemon wraps the reconciler with a flock-based single-instance lock and
// best-effort presence teardown on shutdown. It also serves as the backend for
// the control socket.
package daemon
