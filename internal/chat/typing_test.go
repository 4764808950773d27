package chat

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type typingRecorder struct {
	mu    sync.Mutex
	edges []bool
}

func (r *typingRecorder) record(isTyping bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edges = append(r.edges, isTyping)
}

func (r *typingRecorder) snapshot() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.edges...)
}

func (r *typingRecorder) waitLen(t *testing.T, n int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if len(r.snapshot()) >= n {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("expected %d emissions, got %v", n, r.snapshot())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestBurstEmitsSingleEdgePair(t *testing.T) {
	recorder := &typingRecorder{}
	signal := NewTypingSignal(60*time.Millisecond, recorder.record)
	defer signal.Stop()

	// Five keystrokes within the window.
	text := ""
	for _, r := range "hello" {
		text += string(r)
		signal.Observe(text)
		time.Sleep(5 * time.Millisecond)
	}

	// Exactly one typing=true for the burst.
	recorder.waitLen(t, 1)
	assert.Equal(t, []bool{true}, recorder.snapshot())

	// Exactly one typing=false after the quiescence window.
	recorder.waitLen(t, 2)
	assert.Equal(t, []bool{true, false}, recorder.snapshot())

	// Silence afterwards produces nothing further.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []bool{true, false}, recorder.snapshot())
}

func TestFlushForcesImmediateFalse(t *testing.T) {
	recorder := &typingRecorder{}
	signal := NewTypingSignal(200*time.Millisecond, recorder.record)
	defer signal.Stop()

	signal.Observe("h")
	signal.Observe("hi")
	recorder.waitLen(t, 1)
	require.Equal(t, []bool{true}, recorder.snapshot())

	// Submit mid-burst: immediate false, pending timer suppressed.
	signal.Flush()
	assert.Equal(t, []bool{true, false}, recorder.snapshot())

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, []bool{true, false}, recorder.snapshot())
}

func TestClearedInputForcesFalse(t *testing.T) {
	recorder := &typingRecorder{}
	signal := NewTypingSignal(200*time.Millisecond, recorder.record)
	defer signal.Stop()

	signal.Observe("x")
	recorder.waitLen(t, 1)

	signal.Observe("")
	assert.Equal(t, []bool{true, false}, recorder.snapshot())
}

func TestFlushWithoutBurstEmitsNothing(t *testing.T) {
	recorder := &typingRecorder{}
	signal := NewTypingSignal(50*time.Millisecond, recorder.record)
	defer signal.Stop()

	signal.Flush()
	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, recorder.snapshot())
}

func TestNewBurstAfterQuiescence(t *testing.T) {
	recorder := &typingRecorder{}
	signal := NewTypingSignal(40*time.Millisecond, recorder.record)
	defer signal.Stop()

	signal.Observe("a")
	recorder.waitLen(t, 2) // true, then quiescence false

	signal.Observe("ab")
	recorder.waitLen(t, 3)
	assert.Equal(t, []bool{true, false, true}, recorder.snapshot())
}

func TestFlushNeverTrailedByStaleTrue(t *testing.T) {
	recorder := &typingRecorder{}
	signal := NewTypingSignal(time.Millisecond, recorder.record)
	defer signal.Stop()

	// Race the deferred typing=true against Flush repeatedly. Whatever
	// interleaving wins, once Flush has returned and the timers have
	// drained, the recorded sequence must not end on typing=true.
	for i := 0; i < 500; i++ {
		signal.Observe("racing input")
		signal.Flush()
	}
	time.Sleep(20 * time.Millisecond)

	edges := recorder.snapshot()
	for i, edge := range edges {
		if edge {
			require.Less(t, i+1, len(edges), "typing=true after the final flush: %v", edges)
			assert.False(t, edges[i+1], "typing=true must be followed by typing=false: %v", edges)
		}
	}
}
