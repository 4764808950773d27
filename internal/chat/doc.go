// Package chat owns the active conversation state.
//
// Coordinator is the single writer of session state: it joins and leaves
// chat rooms, appends user messages optimistically before the network
// emit, validates server-pushed events, reconciles authoritative history
// pages with unconfirmed local sends, and maintains the AI-thinking flag.
// Readers consume immutable snapshots through Subscribe/Snapshot.
//
// TypingSignal turns raw text-change events into edge-triggered,
// debounced typing notifications.
package chat
