package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while the breaker rejects calls outright.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerState represents the circuit breaker state.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerHalfOpen
	BreakerOpen
)

// String returns the string representation of the state.
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerHalfOpen:
		return "half-open"
	case BreakerOpen:
		return "open"
	default:
		return "unknown"
	}
}

// BreakerSettings configures the circuit breaker behavior.
type BreakerSettings struct {
	// FailureThreshold is the consecutive-failure count that trips the
	// breaker while closed.
	FailureThreshold int
	// Cooldown is the open period before a probe call is allowed.
	Cooldown time.Duration
	// OnStateChange is called whenever the state changes.
	OnStateChange func(from, to BreakerState)
}

// Breaker implements a consecutive-failure circuit breaker. While open it
// fails fast with ErrCircuitOpen; after the cooldown a single probe call
// is let through, and its outcome closes or re-opens the circuit.
type Breaker struct {
	settings BreakerSettings

	mu       sync.Mutex
	state    BreakerState
	failures int
	openedAt time.Time
	probing  bool
}

// NewBreaker creates a breaker. Zero settings get sane defaults.
func NewBreaker(settings BreakerSettings) *Breaker {
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = 5
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = 30 * time.Second
	}
	return &Breaker{settings: settings, state: BreakerClosed}
}

// State returns the current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentState(time.Now())
}

// Execute runs fn if the breaker accepts the call.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.before(); err != nil {
		return err
	}
	err := fn()
	b.after(err == nil)
	return err
}

func (b *Breaker) before() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentState(time.Now()) {
	case BreakerOpen:
		return ErrCircuitOpen
	case BreakerHalfOpen:
		if b.probing {
			return ErrCircuitOpen
		}
		b.probing = true
	}
	return nil
}

func (b *Breaker) after(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	state := b.currentState(now)
	b.probing = false

	if success {
		b.failures = 0
		if state != BreakerClosed {
			b.setState(state, BreakerClosed, now)
		}
		return
	}

	b.failures++
	if state == BreakerHalfOpen || b.failures >= b.settings.FailureThreshold {
		b.setState(state, BreakerOpen, now)
	}
}

// currentState folds cooldown expiry into the stored state. Caller must
// hold mu.
func (b *Breaker) currentState(now time.Time) BreakerState {
	if b.state == BreakerOpen && now.Sub(b.openedAt) >= b.settings.Cooldown {
		b.setState(BreakerOpen, BreakerHalfOpen, now)
	}
	return b.state
}

// setState transitions and notifies. Caller must hold mu.
func (b *Breaker) setState(from, to BreakerState, now time.Time) {
	if from == to {
		return
	}
	b.state = to
	if to == BreakerOpen {
		b.openedAt = now
	}
	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(from, to)
	}
}
