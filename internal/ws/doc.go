// Package ws owns the single duplex event-channel connection.
//
// Manager wraps the websocket transport behind a small state machine
// (Idle, Connecting, Connected, Disconnected) and an emit/listen surface.
// It performs a single-attempt handshake and never retries on its own;
// reconnection is policy-driven from outside, see CredentialPolicy.
//
// Exactly one handler is registered per event kind, so calling Connect
// repeatedly can never cause duplicate delivery. Failures are reported as
// state transitions and events, never by panicking.
package ws
