// Package catalog loads the ordered list of recognizable DAWs from daws.json.
//
// The catalog is read once at startup and never mutated. Matching is
// first-match-wins in file order, comparing names through Normalize.
package catalog
