// Package channel owns the single presence connection. It opens a session for
// the detected DAW's client id, replaces it when the id changes, pushes
// activities with a start time fixed per connection, and recovers from a
// failed push with one reconnect.
package channel
