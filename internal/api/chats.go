package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/akvekariya/aichatbot-reactnative/internal/types"
)

type startChatRequest struct {
	Topics []string `json:"topics"`
	Title  string   `json:"title,omitempty"`
}

type updateTitleRequest struct {
	Title string `json:"title"`
}

// StartChat creates a new chat identity on the server.
func (c *Client) StartChat(ctx context.Context, topics []string, title string) (*types.Chat, error) {
	var out types.ChatResponse
	err := c.call(ctx, http.MethodPost, "/api/chats/start", "chats.start",
		startChatRequest{Topics: topics, Title: title}, &out, nil)
	if err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// ListChats returns a page of the user's chats, optionally filtered by a
// search term. limit <= 0 leaves paging to the server.
func (c *Client) ListChats(ctx context.Context, limit int, search string) (types.ChatListData, error) {
	query := map[string]string{}
	if limit > 0 {
		query["limit"] = strconv.Itoa(limit)
	}
	if search != "" {
		query["search"] = search
	}

	var out types.ChatListResponse
	err := c.call(ctx, http.MethodGet, "/api/chats", "chats.list", nil, &out, query)
	if err != nil {
		return types.ChatListData{}, err
	}
	return out.Data, nil
}

// GetChat fetches one chat with its full message history.
func (c *Client) GetChat(ctx context.Context, chatID string) (*types.Chat, error) {
	var out types.ChatResponse
	err := c.call(ctx, http.MethodGet, "/api/chats/"+chatID, "chats.get", nil, &out, nil)
	if err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// DeleteChat removes a chat and all its messages.
func (c *Client) DeleteChat(ctx context.Context, chatID string) error {
	var out types.DeleteChatResponse
	return c.call(ctx, http.MethodDelete, "/api/chats/"+chatID, "chats.delete", nil, &out, nil)
}

// UpdateChatTitle renames a chat.
func (c *Client) UpdateChatTitle(ctx context.Context, chatID, title string) (types.TitleUpdateData, error) {
	var out types.TitleUpdateResponse
	err := c.call(ctx, http.MethodPut, "/api/chats/"+chatID+"/title", "chats.title",
		updateTitleRequest{Title: title}, &out, nil)
	if err != nil {
		return types.TitleUpdateData{}, err
	}
	return out.Data, nil
}
