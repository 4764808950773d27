package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/akvekariya/aichatbot-reactnative/internal/logging"
	"github.com/akvekariya/aichatbot-reactnative/internal/monitoring"
	"github.com/akvekariya/aichatbot-reactnative/internal/types"
)

// ErrNotConnected is returned when an emit is attempted with no live
// connection. The action is not queued or retried.
var ErrNotConnected = errors.New("not connected")

// State is the connection lifecycle state.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateDisconnected
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Handler consumes the data payload of one inbound event kind.
type Handler func(data json.RawMessage)

// StatusFunc observes state transitions. reason is empty except for
// Disconnected.
type StatusFunc func(state State, reason string)

// Conn is one live duplex channel.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteJSON(v interface{}) error
	Close() error
}

// Transport dials new connections authenticated by a bearer token.
type Transport interface {
	Dial(ctx context.Context, url, token string) (Conn, error)
}

// Manager owns at most one live connection at a time.
type Manager struct {
	url       string
	transport Transport
	log       *logging.Logger
	metrics   *monitoring.Metrics

	mu         sync.Mutex
	state      State
	lastErr    string
	conn       Conn
	generation uint64
	attempts   int
	handlers   map[string]Handler
	onStatus   []StatusFunc
}

// NewManager creates a manager for the given channel URL. Handlers must be
// registered before the first Connect.
func NewManager(url string, transport Transport, log *logging.Logger, metrics *monitoring.Metrics) *Manager {
	return &Manager{
		url:       url,
		transport: transport,
		log:       log.Named("ws"),
		metrics:   metrics,
		state:     StateIdle,
		handlers:  make(map[string]Handler),
	}
}

// On registers the handler for an event kind, replacing any previous one.
// One handler per kind keeps repeated Connect calls from duplicating
// delivery.
func (m *Manager) On(event string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = h
}

// OnStatus registers a state-transition observer.
func (m *Manager) OnStatus(fn StatusFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStatus = append(m.onStatus, fn)
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connected reports whether a live connection exists.
func (m *Manager) Connected() bool {
	return m.State() == StateConnected
}

// LastError returns the most recent transport error message, if any.
func (m *Manager) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Connect opens a new connection authenticated with token. A no-op if a
// connection is already live or being established. The handshake is a
// single attempt; on failure the manager moves to Disconnected and the
// caller decides whether and when to call Connect again.
func (m *Manager) Connect(ctx context.Context, token string) error {
	m.mu.Lock()
	if m.state == StateConnected || m.state == StateConnecting {
		m.mu.Unlock()
		return nil
	}
	m.state = StateConnecting
	m.attempts++
	if m.attempts > 1 && m.metrics != nil {
		m.metrics.Reconnects.Inc()
	}
	notify := m.statusFuncs()
	m.mu.Unlock()

	fire(notify, StateConnecting, "")

	conn, err := m.transport.Dial(ctx, m.url, token)
	if err != nil {
		m.mu.Lock()
		m.state = StateDisconnected
		m.lastErr = err.Error()
		notify = m.statusFuncs()
		m.mu.Unlock()

		if m.metrics != nil {
			m.metrics.TransportErrors.Inc()
		}
		m.log.Warn("handshake failed", zap.Error(err))
		fire(notify, StateDisconnected, err.Error())
		return fmt.Errorf("handshake failed: %w", err)
	}

	m.mu.Lock()
	if m.state != StateConnecting {
		// Disconnect raced the handshake; drop the fresh connection.
		m.mu.Unlock()
		conn.Close()
		return nil
	}
	m.conn = conn
	m.state = StateConnected
	m.lastErr = ""
	m.generation++
	gen := m.generation
	notify = m.statusFuncs()
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.ConnectionUp.Set(1)
	}
	m.log.Info("connected", zap.String("url", m.url))
	fire(notify, StateConnected, "")

	go m.readLoop(conn, gen)
	return nil
}

// Disconnect closes the live connection if any. Idempotent.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	if m.state != StateConnected && m.state != StateConnecting {
		m.mu.Unlock()
		return
	}
	conn := m.conn
	m.conn = nil
	m.state = StateDisconnected
	m.lastErr = ""
	m.generation++ // invalidates any running read loop
	notify := m.statusFuncs()
	m.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if m.metrics != nil {
		m.metrics.ConnectionUp.Set(0)
	}
	m.log.Info("disconnected")
	fire(notify, StateDisconnected, "local disconnect")
}

// Emit sends one event over the live connection.
func (m *Manager) Emit(event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateConnected || m.conn == nil {
		return ErrNotConnected
	}
	if err := m.conn.WriteJSON(types.Envelope{Event: event, Data: data}); err != nil {
		return fmt.Errorf("emit %s: %w", event, err)
	}
	if m.metrics != nil {
		m.metrics.ChannelEvents.WithLabelValues("out", event).Inc()
	}
	return nil
}

// readLoop dispatches inbound events until the connection drops. gen ties
// the loop to the connection that spawned it so a stale loop can never
// clobber a newer connection's state.
func (m *Manager) readLoop(conn Conn, gen uint64) {
	for {
		raw, err := conn.ReadMessage()
		if err != nil {
			m.dropped(gen, err)
			return
		}

		var env types.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			m.log.Warn("malformed envelope discarded", zap.Error(err))
			continue
		}
		if env.Event == "" {
			m.log.Warn("envelope without event name discarded")
			continue
		}

		m.mu.Lock()
		if m.generation != gen {
			m.mu.Unlock()
			return
		}
		handler := m.handlers[env.Event]
		m.mu.Unlock()

		if m.metrics != nil {
			m.metrics.ChannelEvents.WithLabelValues("in", env.Event).Inc()
		}
		if handler == nil {
			m.log.Debug("no handler for event", zap.String("event", env.Event))
			continue
		}
		handler(env.Data)
	}
}

// dropped records a remote close or mid-session error.
func (m *Manager) dropped(gen uint64, err error) {
	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		return
	}
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	m.state = StateDisconnected
	m.lastErr = err.Error()
	notify := m.statusFuncs()
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.ConnectionUp.Set(0)
		m.metrics.TransportErrors.Inc()
	}
	m.log.Warn("connection dropped", zap.Error(err))
	fire(notify, StateDisconnected, err.Error())
}

// statusFuncs returns a copy of the observers. Caller must hold mu.
func (m *Manager) statusFuncs() []StatusFunc {
	return append([]StatusFunc(nil), m.onStatus...)
}

func fire(fns []StatusFunc, state State, reason string) {
	for _, fn := range fns {
		fn(state, reason)
	}
}
