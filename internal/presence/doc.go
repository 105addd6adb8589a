// Package presence turns a detected DAW status and the current settings into
// the text shown on the Discord profile.
package presence
