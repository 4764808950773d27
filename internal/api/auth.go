package api

import (
	"context"
	"net/http"

	"github.com/akvekariya/aichatbot-reactnative/internal/types"
)

type googleLoginRequest struct {
	IDToken string `json:"idToken"`
}

// LoginWithGoogle exchanges an identity-provider id token for a backend
// bearer token. On success the credential store is updated, which in turn
// drives the duplex-channel reconnection policy.
func (c *Client) LoginWithGoogle(ctx context.Context, idToken string) (types.AuthData, error) {
	var out types.AuthResponse
	err := c.call(ctx, http.MethodPost, "/api/auth/google", "auth.google",
		googleLoginRequest{IDToken: idToken}, &out, nil)
	if err != nil {
		return types.AuthData{}, err
	}
	c.tokens.Set(out.Data.Token)
	return out.Data, nil
}

// CurrentUser returns the account behind the current credential.
func (c *Client) CurrentUser(ctx context.Context) (types.User, error) {
	var out types.UserResponse
	err := c.call(ctx, http.MethodGet, "/api/auth/me", "auth.me", nil, &out, nil)
	if err != nil {
		return types.User{}, err
	}
	return out.Data, nil
}

// Logout clears the credential. Purely client-side; the backend keeps no
// session state beyond the token.
func (c *Client) Logout() {
	c.tokens.Clear()
}

// Health probes the backend.
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/api/health", "health", nil, nil, nil)
}
