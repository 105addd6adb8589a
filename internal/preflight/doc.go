// Package preflight provides readiness checks for the filesystem paths,
// files and local services dawpresence depends on.
//
// The CLI "dawpresence doctor" command runs RunAll and renders each Result.
// Optional checks (Discord, window titles) never fail the run because the
// daemon degrades without them.
package preflight
