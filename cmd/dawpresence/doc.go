// Package main hosts the dawpresence CLI entrypoint and command graph.
//
// `dawpresence run` is the daemon itself. The remaining commands either talk
// to a running daemon over the control socket (status, events, stop,
// settings) or work directly on local files (scan, catalog, config, doctor,
// logs).
package main
