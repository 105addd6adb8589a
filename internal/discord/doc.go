// Package discord speaks the local Discord RPC protocol: length-prefixed JSON
// frames over a unix socket (or a named pipe on Windows).
//
// A Client is bound to one application id. Dial performs the handshake and
// waits for READY; SetActivity and ClearActivity send SET_ACTIVITY with a
// fresh nonce and wait for the matching reply. Context deadlines are applied
// to the underlying connection.
package discord
