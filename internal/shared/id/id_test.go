package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessageID(t *testing.T) {
	msgID := NewMessageID()

	assert.True(t, strings.HasPrefix(msgID.String(), "msg_"))
	assert.True(t, IsValid(strings.TrimPrefix(msgID.String(), "msg_")))
}

func TestPrefixesAreDisjoint(t *testing.T) {
	assert.True(t, strings.HasPrefix(NewChatID().String(), "chat_"))
	assert.True(t, strings.HasPrefix(NewRequestID().String(), "req_"))
}

func TestGenerateUnique(t *testing.T) {
	seen := make(map[MessageID]bool)
	for i := 0; i < 1000; i++ {
		msgID := NewMessageID()
		assert.False(t, seen[msgID], "duplicate id %s", msgID)
		seen[msgID] = true
	}
}

func TestGenerateSortable(t *testing.T) {
	gen := NewGenerator(strings.NewReader(strings.Repeat("entropy-bytes-for-ulids", 100)))

	// A tight loop mints many ids inside the same millisecond; monotonic
	// entropy must keep those ordered too.
	prev := gen.Generate()
	for i := 0; i < 1000; i++ {
		next := gen.Generate()
		assert.GreaterOrEqual(t, next, prev)
		prev = next
	}
}

func TestTimestamp(t *testing.T) {
	raw := Default().Generate()

	ts, err := Timestamp(raw)
	require.NoError(t, err)
	assert.False(t, ts.IsZero())

	_, err = Timestamp("not-a-ulid")
	assert.Error(t, err)
}
