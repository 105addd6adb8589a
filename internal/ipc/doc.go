// Package ipc exposes the daemon over JSON-RPC on a Unix domain socket and
// ships the matching client used by the CLI.
//
// The server owns the socket file for its lifetime. Request and response DTOs
// live in types.go so the CLI never depends on daemon internals.
package ipc
