package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentialsLifecycle(t *testing.T) {
	creds := NewCredentials()
	assert.False(t, creds.Authenticated())
	assert.Empty(t, creds.Token())

	creds.Set("tok-1")
	assert.True(t, creds.Authenticated())
	assert.Equal(t, "tok-1", creds.Token())

	creds.Clear()
	assert.False(t, creds.Authenticated())
}

func TestSubscribeNotifiedOnTransitionsOnly(t *testing.T) {
	creds := NewCredentials()

	var seen []string
	creds.Subscribe(func(token string) {
		seen = append(seen, token)
	})

	creds.Set("tok-1")
	creds.Set("tok-1") // no transition
	creds.Set("tok-2")
	creds.Clear()
	creds.Clear() // no transition

	assert.Equal(t, []string{"tok-1", "tok-2", ""}, seen)
}
