package types

// Envelope shared by every request/response endpoint.
type APIStatus struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// ChatResponse wraps a single chat payload.
type ChatResponse struct {
	APIStatus
	Data Chat `json:"data"`
}

// ChatListData is the paged chat-list payload.
type ChatListData struct {
	Chats   []Chat `json:"chats"`
	Total   int    `json:"total"`
	HasMore bool   `json:"hasMore"`
}

// ChatListResponse wraps the chat-list payload.
type ChatListResponse struct {
	APIStatus
	Data ChatListData `json:"data"`
}

// DeleteChatData acknowledges a deletion.
type DeleteChatData struct {
	Deleted   bool   `json:"deleted"`
	ChatID    string `json:"chatId"`
	Timestamp string `json:"timestamp"`
}

// DeleteChatResponse wraps a deletion acknowledgment.
type DeleteChatResponse struct {
	APIStatus
	Data DeleteChatData `json:"data"`
}

// TitleUpdateData is the partial chat returned by a title update.
type TitleUpdateData struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	UpdatedAt string `json:"updatedAt"`
}

// TitleUpdateResponse wraps a title update.
type TitleUpdateResponse struct {
	APIStatus
	Data TitleUpdateData `json:"data"`
}

// AuthData is returned by the identity-provider exchange and by refresh.
type AuthData struct {
	Token     string `json:"token"`
	User      User   `json:"user"`
	ExpiresIn string `json:"expiresIn"`
}

// AuthResponse wraps a token grant.
type AuthResponse struct {
	APIStatus
	Data AuthData `json:"data"`
}

// UserResponse wraps the current-user payload.
type UserResponse struct {
	APIStatus
	Data User `json:"data"`
}

// ProfileResponse wraps a profile payload.
type ProfileResponse struct {
	APIStatus
	Data Profile `json:"data"`
}
