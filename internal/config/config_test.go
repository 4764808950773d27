package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "http://localhost:3000", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)

	assert.Equal(t, "ws://localhost:3000/socket", cfg.Socket.URL)
	assert.Equal(t, 20*time.Second, cfg.Socket.HandshakeTimeout)

	assert.Equal(t, 50, cfg.Chat.HistoryLimit)
	assert.Equal(t, 300*time.Millisecond, cfg.Chat.TypingWindow)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, time.Second, cfg.Retry.Delay)
	assert.True(t, cfg.Retry.Exponential)
}

func TestLoadOrDefault(t *testing.T) {
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:3000", cfg.API.BaseURL)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"API_BASE_URL":       "https://chat.example.com",
		"API_TIMEOUT":        "30s",
		"SOCKET_URL":         "wss://chat.example.com/socket",
		"CHAT_HISTORY_LIMIT": "100",
		"CHAT_TYPING_WINDOW": "500ms",
		"LOG_LEVEL":          "debug",
		"LOG_DEV":            "true",
		"RETRY_MAX":          "5",
		"RETRY_EXPONENTIAL":  "false",
	}

	for key, value := range envVars {
		err := os.Setenv(key, value)
		require.NoError(t, err)
		defer os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://chat.example.com", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, "wss://chat.example.com/socket", cfg.Socket.URL)
	assert.Equal(t, 100, cfg.Chat.HistoryLimit)
	assert.Equal(t, 500*time.Millisecond, cfg.Chat.TypingWindow)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.False(t, cfg.Retry.Exponential)
}
