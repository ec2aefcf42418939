// Package audit is the engine's structured log stream: every gate decision
// becomes an Event, dispatched asynchronously to a caller-supplied Sink so
// hot paths never block on log I/O.
//
// Events carry the internal distinction between failing gates; callers
// decide how much of that reaches end users.
package audit
