package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all client configuration.
type Config struct {
	API     APIConfig
	Socket  SocketConfig
	Chat    ChatConfig
	Logging LogConfig
	Retry   RetryConfig
}

// APIConfig holds request/response backend settings.
type APIConfig struct {
	BaseURL string        `envconfig:"API_BASE_URL" default:"http://localhost:3000"`
	Timeout time.Duration `envconfig:"API_TIMEOUT" default:"10s"`
}

// SocketConfig holds duplex-channel settings.
type SocketConfig struct {
	URL              string        `envconfig:"SOCKET_URL" default:"ws://localhost:3000/socket"`
	HandshakeTimeout time.Duration `envconfig:"SOCKET_HANDSHAKE_TIMEOUT" default:"20s"`
}

// ChatConfig holds chat behavior settings.
type ChatConfig struct {
	HistoryLimit int           `envconfig:"CHAT_HISTORY_LIMIT" default:"50"`
	TypingWindow time.Duration `envconfig:"CHAT_TYPING_WINDOW" default:"300ms"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RetryConfig holds network retry policy.
type RetryConfig struct {
	MaxRetries  int           `envconfig:"RETRY_MAX" default:"3"`
	Delay       time.Duration `envconfig:"RETRY_DELAY" default:"1s"`
	Exponential bool          `envconfig:"RETRY_EXPONENTIAL" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:3000",
			Timeout: 10 * time.Second,
		},
		Socket: SocketConfig{
			URL:              "ws://localhost:3000/socket",
			HandshakeTimeout: 20 * time.Second,
		},
		Chat: ChatConfig{
			HistoryLimit: 50,
			TypingWindow: 300 * time.Millisecond,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Retry: RetryConfig{
			MaxRetries:  3,
			Delay:       time.Second,
			Exponential: true,
		},
	}
}
