// Package platform wraps the native lookups the monitor needs for a matched
// process: its main window title and its executable version.
//
// New picks the implementation for the running OS. Linux walks the X11 client
// list over a single github.com/jezek/xgb connection and runs the executable
// with common version flags, remembering the answer per path.
// Windows enumerates top-level windows and reads the version resource through
// golang.org/x/sys/windows. Other systems report nothing.
package platform
