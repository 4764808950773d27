// Package auth owns the bearer credential. Presence of a token implies
// "authenticated"; the rest of the client only reads it.
package auth

import "sync"

// Credentials holds the bearer token and notifies subscribers on every
// transition. The token is set on successful login, replaced on refresh,
// and cleared on logout or unrecoverable auth failure.
type Credentials struct {
	mu          sync.RWMutex
	token       string
	subscribers []func(token string)
}

// NewCredentials creates an empty credential store.
func NewCredentials() *Credentials {
	return &Credentials{}
}

// Token returns the current bearer token, or "" when unauthenticated.
func (c *Credentials) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Authenticated reports whether a credential is present.
func (c *Credentials) Authenticated() bool {
	return c.Token() != ""
}

// Set stores a new token and notifies subscribers if it changed.
func (c *Credentials) Set(token string) {
	c.mu.Lock()
	if c.token == token {
		c.mu.Unlock()
		return
	}
	c.token = token
	subs := append([]func(string){}, c.subscribers...)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(token)
	}
}

// Clear removes the token. Equivalent to Set("").
func (c *Credentials) Clear() {
	c.Set("")
}

// Subscribe registers a callback invoked on every token transition.
// The callback runs outside the store's lock.
func (c *Credentials) Subscribe(fn func(token string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}
