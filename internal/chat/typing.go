package chat

import (
	"strings"
	"sync"
	"time"
)

// DefaultTypingWindow is the quiescence window after which a burst of
// input is considered finished.
const DefaultTypingWindow = 300 * time.Millisecond

type typingState int

const (
	typingIdle typingState = iota
	typingPending // typing=true scheduled but not yet emitted
	typingActive  // typing=true emitted, quiescence timer running
)

// TypingSignal rate-limits outgoing typing notifications. It emits at most
// one typing=true per continuous burst of input and exactly one
// typing=false once input stops for the quiescence window, or immediately
// on Flush (submit/blur/clear). Emissions are edge-triggered and never run
// synchronously inside the caller's input handler.
type TypingSignal struct {
	mu     sync.Mutex
	state  typingState
	window time.Duration
	emit   func(isTyping bool)
	start  *time.Timer // deferred typing=true
	quiet  *time.Timer // quiescence typing=false

	// emitMu serializes emissions. Timer callbacks take it before
	// re-checking state, so a Flush that lands between a state
	// transition and its emission cannot end up ordered after a stale
	// typing=true.
	emitMu sync.Mutex
}

// NewTypingSignal creates a signal emitting through emit. A window of 0
// uses DefaultTypingWindow.
func NewTypingSignal(window time.Duration, emit func(isTyping bool)) *TypingSignal {
	if window <= 0 {
		window = DefaultTypingWindow
	}
	return &TypingSignal{window: window, emit: emit}
}

// Observe consumes one raw text-change event with the input's current
// content. Non-empty content (re)arms the burst; cleared content forces an
// immediate typing=false.
func (t *TypingSignal) Observe(text string) {
	if strings.TrimSpace(text) == "" {
		t.Flush()
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case typingIdle:
		t.state = typingPending
		// Deferred so the emission never runs inside the input handler.
		t.start = time.AfterFunc(0, t.fireStart)
	case typingPending, typingActive:
		// Steady repeats within a burst are not re-emitted.
	}
	t.armQuietLocked()
}

// Flush forces an immediate typing=false, canceling any pending timers so
// a stale typing=true cannot arrive after submission. Safe to call at any
// time; a no-op when nothing was emitted.
func (t *TypingSignal) Flush() {
	t.mu.Lock()
	state := t.state
	t.cancelLocked()
	t.state = typingIdle
	t.mu.Unlock()

	if state != typingActive {
		return
	}
	t.emitMu.Lock()
	t.emit(false)
	t.emitMu.Unlock()
}

// Stop cancels all timers without emitting. For teardown.
func (t *TypingSignal) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	t.state = typingIdle
}

func (t *TypingSignal) fireStart() {
	t.emitMu.Lock()
	defer t.emitMu.Unlock()

	t.mu.Lock()
	if t.state != typingPending {
		// Flushed or stopped since the timer was armed.
		t.mu.Unlock()
		return
	}
	t.state = typingActive
	t.mu.Unlock()
	t.emit(true)
}

func (t *TypingSignal) fireQuiet() {
	t.emitMu.Lock()
	defer t.emitMu.Unlock()

	t.mu.Lock()
	state := t.state
	t.state = typingIdle
	t.mu.Unlock()

	// typing=false is only a transition if typing=true ever went out.
	if state == typingActive {
		t.emit(false)
	}
}

// armQuietLocked restarts the quiescence timer. Caller must hold mu.
func (t *TypingSignal) armQuietLocked() {
	if t.quiet != nil {
		t.quiet.Stop()
	}
	t.quiet = time.AfterFunc(t.window, t.fireQuiet)
}

// cancelLocked stops both timers. Caller must hold mu.
func (t *TypingSignal) cancelLocked() {
	if t.start != nil {
		t.start.Stop()
		t.start = nil
	}
	if t.quiet != nil {
		t.quiet.Stop()
		t.quiet = nil
	}
}
