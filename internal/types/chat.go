package types

import "time"

// Sender identifies which party authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Valid reports whether s is a known sender value.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAI
}

// Message is a single chat message. Messages are immutable once created;
// they are only removed when the whole session is cleared or replaced.
type Message struct {
	MessageID string `json:"messageId"`
	Text      string `json:"text"`
	Sender    Sender `json:"sender"`
	Timestamp string `json:"timestamp"`
	AIModel   string `json:"aiModel,omitempty"`
}

// Chat is a conversation between the user and the AI.
type Chat struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Topics        []string  `json:"topics"`
	Messages      []Message `json:"messages"`
	MessageCount  int       `json:"messageCount"`
	CreatedAt     string    `json:"createdAt"`
	UpdatedAt     string    `json:"updatedAt"`
	LastMessageAt *string   `json:"lastMessageAt"`
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing the coordinator's internal slice.
func (c *Chat) Clone() *Chat {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Topics = append([]string(nil), c.Topics...)
	cp.Messages = append([]Message(nil), c.Messages...)
	if c.LastMessageAt != nil {
		at := *c.LastMessageAt
		cp.LastMessageAt = &at
	}
	return &cp
}

// Now returns the current time in the wire timestamp format.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// User is the authenticated account behind the credential.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Picture   string `json:"picture,omitempty"`
	IsActive  bool   `json:"isActive"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Profile is the user-editable profile attached to an account.
type Profile struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Age            int    `json:"age"`
	AdditionalInfo string `json:"additionalInfo,omitempty"`
	UserID         string `json:"userId"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}
