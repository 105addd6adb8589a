// Package services defines shared utilities consumed by the reconciler, the
// presence channel and the platform probes.
//
// Key responsibilities:
//   - Context helpers that stamp tick numbers and Discord client ids for logging.
//   - Structured error markers plus the Wrap helper so failures can be
//     classified (connection, timeout, validation) and mapped to operator hints.
package services
