// Package notifications carries background events (DAW detected or closed,
// connection changes, settings changes) to whatever presentation layer is
// attached. The reconciler publishes; consumers poll by sequence number.
//
// Sinks observe every event as it is published. LogSink writes them to the
// daemon log and NtfySink pushes DAW open and close events to an ntfy topic.
package notifications
