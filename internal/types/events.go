package types

import "encoding/json"

// Duplex channel event names. The history name is intentionally shared by
// the outbound page request and the inbound page response; the server
// routes by direction.
const (
	EventJoinChat   = "join_chat"
	EventLeaveChat  = "leave_chat"
	EventJoinedChat = "joined_chat"
	EventLeftChat   = "left_chat"
	EventMessage    = "message"
	EventTyping     = "typing"
	EventUserTyping = "user_typing"
	EventAIThinking = "ai_thinking"
	EventHistory    = "history"
)

// Envelope frames every event on the duplex channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// RoomRequest subscribes to or unsubscribes from a chat's room.
type RoomRequest struct {
	ChatID string `json:"chatId"`
}

// OutgoingMessage is the payload the client emits when sending text.
type OutgoingMessage struct {
	Text   string `json:"text"`
	ChatID string `json:"chatId"`
}

// TypingNotice is the edge-triggered typing-state payload.
type TypingNotice struct {
	ChatID   string `json:"chatId"`
	IsTyping bool   `json:"isTyping"`
}

// HistoryRequest asks for a bounded page of the most recent messages.
type HistoryRequest struct {
	ChatID string `json:"chatId"`
	Limit  int    `json:"limit"`
}

// MessageEvent wraps an inbound server-pushed message.
type MessageEvent struct {
	Message Message `json:"message"`
}

// HistoryEvent carries the server-authoritative message page.
type HistoryEvent struct {
	Messages []Message `json:"messages"`
}
