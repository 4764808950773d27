// Package id provides prefixed ULID generation for client-originated ids.
//
// Client-generated ids carry a type prefix (msg_*, chat_*, req_*) so they
// are structurally disjoint from server-assigned ids and readable in logs.
// ULIDs are lexicographically sortable by creation time, which keeps
// optimistic messages ordered without extra timestamps.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// MessageID identifies a locally created optimistic message.
type MessageID string

// ChatID identifies a locally created chat before server adoption.
type ChatID string

// RequestID correlates a single API request in logs.
type RequestID string

const (
	MessagePrefix = "msg"
	ChatPrefix    = "chat"
	RequestPrefix = "req"
)

// Generator generates ULIDs with optional prefixes.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the shared generator instance.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator(rand.Reader)
	})
	return defaultGenerator
}

// NewGenerator creates a generator with the given entropy source.
// Tests can pass a deterministic reader. Entropy is made monotonic so ids
// minted within the same millisecond still sort in creation order.
func NewGenerator(entropy io.Reader) *Generator {
	return &Generator{entropy: ulid.Monotonic(entropy, 0)}
}

// Generate creates a new ULID string.
func (g *Generator) Generate() string {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}

// GenerateWithPrefix creates a prefixed ULID string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate())
}

// NewMessageID generates an id for an optimistic local message.
func NewMessageID() MessageID {
	return MessageID(Default().GenerateWithPrefix(MessagePrefix))
}

// NewChatID generates a local chat id.
func NewChatID() ChatID {
	return ChatID(Default().GenerateWithPrefix(ChatPrefix))
}

// NewRequestID generates an API request correlation id.
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

func (id MessageID) String() string { return string(id) }
func (id ChatID) String() string    { return string(id) }
func (id RequestID) String() string { return string(id) }

// IsValid checks if an id string is a valid bare ULID.
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Timestamp extracts the creation time from a bare ULID string.
func Timestamp(id string) (time.Time, error) {
	parsed, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
