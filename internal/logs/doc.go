// Package logs reads the daemon log file for `dawpresence logs`.
//
// Last returns the final lines of the file along with the byte offset where
// reading stopped; Follow resumes from that offset and delivers complete lines
// as the daemon appends them. A file that shrinks below the offset is treated
// as truncated and re-read from the start.
package logs
