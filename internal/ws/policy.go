package ws

import (
	"context"

	"go.uber.org/zap"

	"github.com/akvekariya/aichatbot-reactnative/internal/auth"
	"github.com/akvekariya/aichatbot-reactnative/internal/logging"
)

// channel is the narrow Manager surface the policy needs.
type channel interface {
	Connect(ctx context.Context, token string) error
	Disconnect()
}

// CredentialPolicy is the reconnection policy: the manager itself never
// retries, so this type re-invokes Connect whenever the credential becomes
// present and tears the connection down when it becomes absent. A token
// replacement (refresh) reconnects under the new credential.
type CredentialPolicy struct {
	channel channel
	log     *logging.Logger
}

// NewCredentialPolicy creates the policy around a channel manager.
func NewCredentialPolicy(ch channel, log *logging.Logger) *CredentialPolicy {
	return &CredentialPolicy{channel: ch, log: log.Named("ws.policy")}
}

// Bind subscribes the policy to credential transitions and applies the
// current credential state immediately.
func (p *CredentialPolicy) Bind(creds *auth.Credentials) {
	creds.Subscribe(p.apply)
	p.apply(creds.Token())
}

func (p *CredentialPolicy) apply(token string) {
	if token == "" {
		p.channel.Disconnect()
		return
	}
	// Drop any connection still keyed to the previous credential before
	// dialing with the new one.
	p.channel.Disconnect()
	if err := p.channel.Connect(context.Background(), token); err != nil {
		p.log.Warn("reconnect failed", zap.Error(err))
	}
}
