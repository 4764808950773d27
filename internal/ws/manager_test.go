package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akvekariya/aichatbot-reactnative/internal/auth"
	"github.com/akvekariya/aichatbot-reactnative/internal/logging"
	"github.com/akvekariya/aichatbot-reactnative/internal/monitoring"
	"github.com/akvekariya/aichatbot-reactnative/internal/types"
)

// fakeConn is a scriptable duplex channel backed by a frame channel.
type fakeConn struct {
	mu     sync.Mutex
	frames chan []byte
	sent   []types.Envelope
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{frames: make(chan []byte, 16)}
}

func (c *fakeConn) push(event string, data interface{}) {
	raw, _ := json.Marshal(data)
	frame, _ := json.Marshal(types.Envelope{Event: event, Data: raw})
	c.frames <- frame
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	frame, ok := <-c.frames
	if !ok {
		return nil, errors.New("connection reset by peer")
	}
	return frame, nil
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, v.(types.Envelope))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.frames)
	}
	return nil
}

func (c *fakeConn) sentEnvelopes() []types.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.Envelope(nil), c.sent...)
}

// fakeTransport counts handshakes and hands out scripted connections.
type fakeTransport struct {
	mu    sync.Mutex
	conns []*fakeConn
	err   error
	dials int
	token string
}

func (t *fakeTransport) Dial(_ context.Context, _ string, token string) (Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dials++
	t.token = token
	if t.err != nil {
		return nil, t.err
	}
	conn := newFakeConn()
	t.conns = append(t.conns, conn)
	return conn, nil
}

func (t *fakeTransport) dialCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dials
}

func newTestManager(t *fakeTransport) *Manager {
	return NewManager("ws://test/socket", t, logging.NewNop(), monitoring.NewMetrics())
}

func TestConnectLifecycle(t *testing.T) {
	transport := &fakeTransport{}
	manager := newTestManager(transport)

	var transitions []State
	var mu sync.Mutex
	manager.OnStatus(func(state State, _ string) {
		mu.Lock()
		transitions = append(transitions, state)
		mu.Unlock()
	})

	require.Equal(t, StateIdle, manager.State())
	require.NoError(t, manager.Connect(context.Background(), "tok"))

	assert.Equal(t, StateConnected, manager.State())
	assert.True(t, manager.Connected())
	assert.Equal(t, "tok", transport.token)

	mu.Lock()
	assert.Equal(t, []State{StateConnecting, StateConnected}, transitions)
	mu.Unlock()

	manager.Disconnect()
	assert.Equal(t, StateDisconnected, manager.State())
	assert.False(t, manager.Connected())
}

func TestConnectWhileLiveIsNoOp(t *testing.T) {
	transport := &fakeTransport{}
	manager := newTestManager(transport)

	delivered := make(chan json.RawMessage, 4)
	manager.On(types.EventMessage, func(data json.RawMessage) {
		delivered <- data
	})

	require.NoError(t, manager.Connect(context.Background(), "tok"))
	require.NoError(t, manager.Connect(context.Background(), "tok"))

	// No second handshake.
	assert.Equal(t, 1, transport.dialCount())

	// One inbound event yields exactly one delivery.
	transport.conns[0].push(types.EventMessage, types.MessageEvent{
		Message: types.Message{MessageID: "m1", Text: "hi", Sender: types.SenderAI},
	})

	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("event never delivered")
	}
	select {
	case <-delivered:
		t.Fatal("event delivered twice")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHandshakeFailure(t *testing.T) {
	transport := &fakeTransport{err: errors.New("dial tcp: connection refused")}
	manager := newTestManager(transport)

	err := manager.Connect(context.Background(), "tok")
	require.Error(t, err)

	assert.Equal(t, StateDisconnected, manager.State())
	assert.Contains(t, manager.LastError(), "connection refused")

	// The manager never retries on its own; the caller may.
	assert.Equal(t, 1, transport.dialCount())
	transport.err = nil
	require.NoError(t, manager.Connect(context.Background(), "tok"))
	assert.Equal(t, StateConnected, manager.State())
}

func TestRemoteCloseMovesToDisconnected(t *testing.T) {
	transport := &fakeTransport{}
	manager := newTestManager(transport)

	status := make(chan State, 8)
	manager.OnStatus(func(state State, _ string) {
		status <- state
	})

	require.NoError(t, manager.Connect(context.Background(), "tok"))
	<-status // connecting
	<-status // connected

	transport.conns[0].Close()

	select {
	case state := <-status:
		assert.Equal(t, StateDisconnected, state)
	case <-time.After(time.Second):
		t.Fatal("disconnect never observed")
	}
	assert.Contains(t, manager.LastError(), "connection reset")
}

func TestDisconnectIdempotent(t *testing.T) {
	transport := &fakeTransport{}
	manager := newTestManager(transport)

	manager.Disconnect() // never connected
	assert.Equal(t, StateIdle, manager.State())

	require.NoError(t, manager.Connect(context.Background(), "tok"))
	manager.Disconnect()
	manager.Disconnect()
	assert.Equal(t, StateDisconnected, manager.State())
}

func TestEmitRequiresConnection(t *testing.T) {
	transport := &fakeTransport{}
	manager := newTestManager(transport)

	err := manager.Emit(types.EventMessage, types.OutgoingMessage{Text: "hi", ChatID: "c1"})
	assert.ErrorIs(t, err, ErrNotConnected)

	require.NoError(t, manager.Connect(context.Background(), "tok"))
	require.NoError(t, manager.Emit(types.EventMessage, types.OutgoingMessage{Text: "hi", ChatID: "c1"}))

	sent := transport.conns[0].sentEnvelopes()
	require.Len(t, sent, 1)
	assert.Equal(t, types.EventMessage, sent[0].Event)
}

func TestOnReplacesHandler(t *testing.T) {
	transport := &fakeTransport{}
	manager := newTestManager(transport)

	first := make(chan struct{}, 1)
	second := make(chan struct{}, 1)
	manager.On(types.EventAIThinking, func(json.RawMessage) { first <- struct{}{} })
	manager.On(types.EventAIThinking, func(json.RawMessage) { second <- struct{}{} })

	require.NoError(t, manager.Connect(context.Background(), "tok"))
	transport.conns[0].push(types.EventAIThinking, struct{}{})

	select {
	case <-second:
	case <-time.After(time.Second):
		t.Fatal("replacement handler never ran")
	}
	select {
	case <-first:
		t.Fatal("replaced handler still registered")
	default:
	}
}

func TestCredentialPolicy(t *testing.T) {
	transport := &fakeTransport{}
	manager := newTestManager(transport)
	creds := auth.NewCredentials()

	NewCredentialPolicy(manager, logging.NewNop()).Bind(creds)
	assert.Equal(t, 0, transport.dialCount())

	creds.Set("tok-1")
	assert.Equal(t, 1, transport.dialCount())
	assert.Equal(t, StateConnected, manager.State())

	// Refresh reconnects under the new credential.
	creds.Set("tok-2")
	assert.Equal(t, 2, transport.dialCount())
	assert.Equal(t, "tok-2", transport.token)

	creds.Clear()
	assert.Equal(t, StateDisconnected, manager.State())
	assert.Equal(t, 2, transport.dialCount())
}
