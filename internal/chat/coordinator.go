package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/akvekariya/aichatbot-reactnative/internal/logging"
	"github.com/akvekariya/aichatbot-reactnative/internal/monitoring"
	"github.com/akvekariya/aichatbot-reactnative/internal/shared/id"
	"github.com/akvekariya/aichatbot-reactnative/internal/types"
	"github.com/akvekariya/aichatbot-reactnative/internal/validate"
	"github.com/akvekariya/aichatbot-reactnative/internal/ws"
)

// ErrNoCurrentChat is returned when a session-scoped action runs with no
// active chat.
var ErrNoCurrentChat = errors.New("no current chat")

// DefaultHistoryLimit bounds a history page when the caller passes none.
const DefaultHistoryLimit = 50

// Channel is the duplex-channel surface the coordinator depends on. The
// coordinator never touches the transport directly; *ws.Manager implements
// this.
type Channel interface {
	On(event string, h ws.Handler)
	OnStatus(fn ws.StatusFunc)
	Emit(event string, payload interface{}) error
	Connected() bool
}

// ChatsAPI is the request/response collaborator for chat identities.
type ChatsAPI interface {
	StartChat(ctx context.Context, topics []string, title string) (*types.Chat, error)
	ListChats(ctx context.Context, limit int, search string) (types.ChatListData, error)
	GetChat(ctx context.Context, chatID string) (*types.Chat, error)
	DeleteChat(ctx context.Context, chatID string) error
	UpdateChatTitle(ctx context.Context, chatID, title string) (types.TitleUpdateData, error)
}

// Snapshot is an immutable view of coordinator state for the UI.
type Snapshot struct {
	CurrentChat *types.Chat
	ChatList    []types.Chat
	Connected   bool
	AIThinking  bool
	LastError   string
}

// Coordinator tracks the active chat identity and reconciles server-pushed
// events with locally optimistic state. All mutation goes through its
// methods; readers subscribe for change notifications and call Snapshot.
type Coordinator struct {
	channel Channel
	api     ChatsAPI
	log     *logging.Logger
	metrics *monitoring.Metrics

	mu          sync.Mutex
	current     *types.Chat
	chatList    []types.Chat
	connected   bool
	aiThinking  bool
	lastErr     string
	pending     []types.Message // optimistic sends awaiting server confirmation
	subscribers []func()
}

// NewCoordinator wires the coordinator to its collaborators and registers
// its event handlers. Handlers are registered exactly once, here, before
// the channel is ever connected.
func NewCoordinator(channel Channel, api ChatsAPI, log *logging.Logger, metrics *monitoring.Metrics) *Coordinator {
	c := &Coordinator{
		channel: channel,
		api:     api,
		log:     log.Named("chat"),
		metrics: metrics,
	}

	channel.On(types.EventMessage, c.handleMessage)
	channel.On(types.EventAIThinking, c.handleAIThinking)
	channel.On(types.EventHistory, c.handleHistory)
	channel.On(types.EventJoinedChat, c.handleJoined)
	channel.On(types.EventLeftChat, c.handleLeft)
	channel.On(types.EventUserTyping, c.handleUserTyping)
	channel.OnStatus(c.handleStatus)

	return c
}

// Subscribe registers a change listener. Listeners run outside the
// coordinator's lock, after every state mutation.
func (c *Coordinator) Subscribe(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// Snapshot returns a copy of the current state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		CurrentChat: c.current.Clone(),
		ChatList:    append([]types.Chat(nil), c.chatList...),
		Connected:   c.connected,
		AIThinking:  c.aiThinking,
		LastError:   c.lastErr,
	}
}

// StartNewChat requests a new chat identity from the server, adopts it as
// the current session with an empty message list, and joins its room if a
// connection is live.
func (c *Coordinator) StartNewChat(ctx context.Context, topics []string, title string) (*types.Chat, error) {
	if err := validate.Topics(topics); err != nil {
		return nil, err
	}
	if err := validate.ChatTitle(title); err != nil {
		return nil, err
	}

	chat, err := c.api.StartChat(ctx, topics, title)
	if err != nil {
		return nil, fmt.Errorf("start chat: %w", err)
	}
	if chat.Messages == nil {
		chat.Messages = []types.Message{}
	}

	c.mu.Lock()
	if c.current != nil && c.connected {
		// Leave the old room before adopting the new identity.
		c.emitLocked(types.EventLeaveChat, types.RoomRequest{ChatID: c.current.ID})
	}
	c.current = chat.Clone()
	c.pending = nil
	c.aiThinking = false
	c.upsertListLocked(*chat)
	c.mu.Unlock()
	c.notify()

	if c.channel.Connected() {
		if err := c.JoinChat(chat.ID); err != nil {
			c.log.Warn("join after start failed", zap.String("chat_id", chat.ID), zap.Error(err))
		}
	}
	return chat.Clone(), nil
}

// OpenChat fetches an existing chat, adopts it as the current session,
// joins its room, and requests a history page.
func (c *Coordinator) OpenChat(ctx context.Context, chatID string) (*types.Chat, error) {
	chat, err := c.api.GetChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}
	if chat.Messages == nil {
		chat.Messages = []types.Message{}
	}

	c.mu.Lock()
	if c.current != nil && c.current.ID != chatID && c.connected {
		c.emitLocked(types.EventLeaveChat, types.RoomRequest{ChatID: c.current.ID})
	}
	c.current = chat.Clone()
	c.pending = nil
	c.aiThinking = false
	c.mu.Unlock()
	c.notify()

	if c.channel.Connected() {
		if err := c.JoinChat(chatID); err != nil {
			return chat.Clone(), err
		}
		if err := c.LoadHistory(chatID, 0); err != nil {
			return chat.Clone(), err
		}
	}
	return chat.Clone(), nil
}

// JoinChat subscribes to a chat's room. Reported, not fatal, when no
// connection is live.
func (c *Coordinator) JoinChat(chatID string) error {
	return c.channel.Emit(types.EventJoinChat, types.RoomRequest{ChatID: chatID})
}

// LeaveChat unsubscribes from a chat's room. Must be issued before
// switching chats or on teardown so events for a stale room stop arriving.
func (c *Coordinator) LeaveChat(chatID string) error {
	return c.channel.Emit(types.EventLeaveChat, types.RoomRequest{ChatID: chatID})
}

// LoadHistory requests a bounded page of the most recent messages. The
// response replaces the session's message list wholesale; unconfirmed
// optimistic sends are re-appended by id during reconciliation.
func (c *Coordinator) LoadHistory(chatID string, limit int) error {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return c.channel.Emit(types.EventHistory, types.HistoryRequest{ChatID: chatID, Limit: limit})
}

// SendMessage validates text, appends an optimistic user message to the
// current session, sets the AI-thinking flag, and emits. The local append
// always precedes the network emit. With no live connection nothing is
// appended and ErrNotConnected is returned.
func (c *Coordinator) SendMessage(text string) error {
	trimmed := strings.TrimSpace(text)
	if err := validate.Message(trimmed); err != nil {
		return err
	}

	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return ErrNoCurrentChat
	}
	if !c.connected {
		c.mu.Unlock()
		return ws.ErrNotConnected
	}

	msg := types.Message{
		MessageID: id.NewMessageID().String(),
		Text:      trimmed,
		Sender:    types.SenderUser,
		Timestamp: types.Now(),
	}
	c.appendLocked(msg)
	c.pending = append(c.pending, msg)
	c.aiThinking = true
	chatID := c.current.ID
	c.mu.Unlock()
	c.notify()

	if c.metrics != nil {
		c.metrics.MessagesSent.Inc()
	}
	return c.channel.Emit(types.EventMessage, types.OutgoingMessage{Text: trimmed, ChatID: chatID})
}

// SendTyping forwards an edge-triggered typing transition.
func (c *Coordinator) SendTyping(isTyping bool) error {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return ErrNoCurrentChat
	}
	chatID := c.current.ID
	c.mu.Unlock()

	return c.channel.Emit(types.EventTyping, types.TypingNotice{ChatID: chatID, IsTyping: isTyping})
}

// RefreshChatList replaces the chat list from the server.
func (c *Coordinator) RefreshChatList(ctx context.Context, limit int, search string) error {
	page, err := c.api.ListChats(ctx, limit, search)
	if err != nil {
		return fmt.Errorf("list chats: %w", err)
	}

	c.mu.Lock()
	c.chatList = page.Chats
	c.mu.Unlock()
	c.notify()
	return nil
}

// DeleteChat removes a chat. If it is the current session, the session is
// cleared; messages of other chats are untouched.
func (c *Coordinator) DeleteChat(ctx context.Context, chatID string) error {
	if err := c.api.DeleteChat(ctx, chatID); err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}

	c.mu.Lock()
	filtered := c.chatList[:0]
	for _, chat := range c.chatList {
		if chat.ID != chatID {
			filtered = append(filtered, chat)
		}
	}
	c.chatList = filtered
	if c.current != nil && c.current.ID == chatID {
		if c.connected {
			c.emitLocked(types.EventLeaveChat, types.RoomRequest{ChatID: chatID})
		}
		c.current = nil
		c.pending = nil
		c.aiThinking = false
	}
	c.mu.Unlock()
	c.notify()
	return nil
}

// UpdateChatTitle renames a chat and merges the updated fields into the
// list entry and, if affected, the current session without disturbing its
// messages.
func (c *Coordinator) UpdateChatTitle(ctx context.Context, chatID, title string) error {
	if err := validate.ChatTitle(title); err != nil {
		return err
	}
	updated, err := c.api.UpdateChatTitle(ctx, chatID, title)
	if err != nil {
		return fmt.Errorf("update chat title: %w", err)
	}

	c.mu.Lock()
	for i := range c.chatList {
		if c.chatList[i].ID == updated.ID {
			c.chatList[i].Title = updated.Title
			c.chatList[i].UpdatedAt = updated.UpdatedAt
		}
	}
	if c.current != nil && c.current.ID == updated.ID {
		c.current.Title = updated.Title
		c.current.UpdatedAt = updated.UpdatedAt
	}
	c.mu.Unlock()
	c.notify()
	return nil
}

// ClearSession drops the current session, leaving its room first when
// connected. Used on logout and teardown.
func (c *Coordinator) ClearSession() {
	c.mu.Lock()
	if c.current != nil && c.connected {
		c.emitLocked(types.EventLeaveChat, types.RoomRequest{ChatID: c.current.ID})
	}
	c.current = nil
	c.pending = nil
	c.aiThinking = false
	c.mu.Unlock()
	c.notify()
}

// Reset clears all coordinator state. Used on logout.
func (c *Coordinator) Reset() {
	c.ClearSession()
	c.mu.Lock()
	c.chatList = nil
	c.lastErr = ""
	c.mu.Unlock()
	c.notify()
}

// ---- inbound event handlers -------------------------------------------

func (c *Coordinator) handleMessage(data json.RawMessage) {
	var event types.MessageEvent
	if err := json.Unmarshal(data, &event); err != nil {
		c.discard("undecodable message event", zap.Error(err))
		return
	}
	msg := event.Message
	if msg.MessageID == "" || msg.Text == "" {
		c.discard("message event missing id or text",
			zap.String("message_id", msg.MessageID), zap.String("sender", string(msg.Sender)))
		return
	}

	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		c.log.Debug("message for no active session dropped", zap.String("message_id", msg.MessageID))
		return
	}

	if msg.Sender == types.SenderUser && c.confirmPendingLocked(msg) {
		// Server echo of our own optimistic send; reconciled in place.
		c.mu.Unlock()
		c.notify()
		return
	}

	c.appendLocked(msg)
	if msg.Sender == types.SenderAI {
		c.aiThinking = false
	}
	c.mu.Unlock()
	c.notify()

	if c.metrics != nil {
		c.metrics.MessagesReceived.Inc()
	}
}

func (c *Coordinator) handleAIThinking(json.RawMessage) {
	// The server may originate this signal independently of local sends.
	c.mu.Lock()
	c.aiThinking = true
	c.mu.Unlock()
	c.notify()
}

func (c *Coordinator) handleHistory(data json.RawMessage) {
	var event types.HistoryEvent
	if err := json.Unmarshal(data, &event); err != nil {
		c.discard("undecodable history event", zap.Error(err))
		return
	}

	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		c.log.Debug("history for no active session dropped")
		return
	}

	// The server's ordering is authoritative: replace, never merge. Then
	// re-append unconfirmed optimistic sends the page does not contain so
	// a message sent while the request was in flight is not dropped.
	messages := append([]types.Message(nil), event.Messages...)
	present := make(map[string]bool, len(messages))
	for _, msg := range messages {
		present[msg.MessageID] = true
	}
	var stillPending []types.Message
	for _, msg := range c.pending {
		if !present[msg.MessageID] {
			messages = append(messages, msg)
			stillPending = append(stillPending, msg)
		}
	}
	c.pending = stillPending

	c.current.Messages = messages
	c.current.MessageCount = len(messages)
	if len(messages) > 0 {
		at := messages[len(messages)-1].Timestamp
		c.current.LastMessageAt = &at
	} else {
		c.current.LastMessageAt = nil
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Coordinator) handleJoined(data json.RawMessage) {
	c.log.Debug("joined room", zap.ByteString("ack", data))
}

func (c *Coordinator) handleLeft(data json.RawMessage) {
	c.log.Debug("left room", zap.ByteString("ack", data))
}

func (c *Coordinator) handleUserTyping(data json.RawMessage) {
	// Informational; a multi-party UI would surface this.
	c.log.Debug("peer typing", zap.ByteString("data", data))
}

func (c *Coordinator) handleStatus(state ws.State, reason string) {
	c.mu.Lock()
	c.connected = state == ws.StateConnected
	if state == ws.StateDisconnected && reason != "" && reason != "local disconnect" {
		c.lastErr = reason
	}
	c.mu.Unlock()
	c.notify()
}

// ---- internals ---------------------------------------------------------

// appendLocked appends a message to the current session and maintains the
// derived fields. Caller must hold mu and have checked current != nil.
func (c *Coordinator) appendLocked(msg types.Message) {
	c.current.Messages = append(c.current.Messages, msg)
	c.current.MessageCount++
	at := msg.Timestamp
	c.current.LastMessageAt = &at
}

// confirmPendingLocked matches a server echo against the oldest
// unconfirmed optimistic send with the same text. On a match the
// optimistic entry adopts the server identity in place and true is
// returned; the caller must not append the echo.
func (c *Coordinator) confirmPendingLocked(echo types.Message) bool {
	for i, pending := range c.pending {
		if pending.Text != echo.Text {
			continue
		}
		for j := range c.current.Messages {
			if c.current.Messages[j].MessageID == pending.MessageID {
				c.current.Messages[j].MessageID = echo.MessageID
				c.current.Messages[j].Timestamp = echo.Timestamp
				break
			}
		}
		c.pending = append(c.pending[:i], c.pending[i+1:]...)
		return true
	}
	return false
}

// emitLocked fires an event while mu is held, logging instead of failing.
// Used for best-effort room bookkeeping inside state transitions.
func (c *Coordinator) emitLocked(event string, payload interface{}) {
	if err := c.channel.Emit(event, payload); err != nil {
		c.log.Warn("emit failed", zap.String("event", event), zap.Error(err))
	}
}

// upsertListLocked prepends a chat to the list if absent.
func (c *Coordinator) upsertListLocked(chat types.Chat) {
	for _, existing := range c.chatList {
		if existing.ID == chat.ID {
			return
		}
	}
	c.chatList = append([]types.Chat{chat}, c.chatList...)
}

// discard logs and counts a malformed inbound payload. Session state is
// never touched and the client never crashes on bad input.
func (c *Coordinator) discard(msg string, fields ...zap.Field) {
	c.log.Warn(msg, fields...)
	if c.metrics != nil {
		c.metrics.MessagesRejected.Inc()
	}
}

func (c *Coordinator) notify() {
	c.mu.Lock()
	subs := append([]func(){}, c.subscribers...)
	c.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}
