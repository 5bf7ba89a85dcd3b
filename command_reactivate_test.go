package auth_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-tours-auth"
)

func deactivated(t *testing.T, h *harness, email, password string) *auth.AuthResult {
	t.Helper()
	registered := h.register(t, "Alice", email, password)
	require.NoError(t, h.lifecycle.Deactivate(h.ctx, registered.Account, auth.DeactivateMessage{Password: password}))
	return registered
}

func TestReactivate_WrongPasswordLeavesAccountInactive(t *testing.T) {
	h := newHarness(t)
	deactivated(t, h, "a@x.com", "secret123")

	result, err := h.lifecycle.Reactivate(h.ctx, auth.ReactivateMessage{Email: "a@x.com", Password: "wrong-password"})
	assert.Nil(t, result)
	requireCode(t, err, auth.TextCodeInvalidCredentials)

	account := h.reload(t, "a@x.com")
	assert.False(t, account.Active)
	assert.Equal(t, auth.AccountStateDeactivated, account.State())
}

func TestReactivate_Success(t *testing.T) {
	h := newHarness(t)
	deactivated(t, h, "a@x.com", "secret123")

	result, err := h.lifecycle.Reactivate(h.ctx, auth.ReactivateMessage{Email: "A@x.com", Password: "secret123"})
	require.NoError(t, err)

	account := h.reload(t, "a@x.com")
	assert.True(t, account.Active)
	assert.True(t, account.EmailConfirmed)

	authenticated, err := h.guard.Authenticate(h.ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, authenticated.ID)

	_, err = h.lifecycle.Login(h.ctx, auth.LoginMessage{Email: "a@x.com", Password: "secret123"})
	assert.NoError(t, err)
}

func TestReactivate_RestoresEarlierTokens(t *testing.T) {
	h := newHarness(t)
	registered := deactivated(t, h, "a@x.com", "secret123")

	_, err := h.guard.Authenticate(h.ctx, registered.Token)
	requireCode(t, err, auth.TextCodeUnauthenticated)

	_, err = h.lifecycle.Reactivate(h.ctx, auth.ReactivateMessage{Email: "a@x.com", Password: "secret123"})
	require.NoError(t, err)

	// deactivation does not revoke tokens, it only hides the account
	account, err := h.guard.Authenticate(h.ctx, registered.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.Account.ID, account.ID)
}

func TestReactivate_UnknownEmail(t *testing.T) {
	h := newHarness(t)

	_, err := h.lifecycle.Reactivate(h.ctx, auth.ReactivateMessage{Email: "nobody@x.com", Password: "secret123"})
	requireCode(t, err, auth.TextCodeInvalidCredentials)

	_, err = h.lifecycle.Reactivate(h.ctx, auth.ReactivateMessage{Email: "nobody@x.com"})
	requireCode(t, err, auth.TextCodeBadRequest)
}

func TestReactivate_ActiveAccount(t *testing.T) {
	h := newHarness(t)
	h.register(t, "Alice", "a@x.com", "secret123")

	result, err := h.lifecycle.Reactivate(h.ctx, auth.ReactivateMessage{Email: "a@x.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	h.signup(t, "Bob", "b@x.com", "secret123")
	_, err = h.lifecycle.Reactivate(h.ctx, auth.ReactivateMessage{Email: "b@x.com", Password: "secret123"})
	requireCode(t, err, auth.TextCodeEmailNotConfirmed)
}

func TestReactivate_ConcurrentAttempts(t *testing.T) {
	h := newHarness(t)
	deactivated(t, h, "a@x.com", "secret123")

	passwords := []string{"secret123", "wrong-password", "secret123", "wrong-password"}
	errs := make([]error, len(passwords))

	var wg sync.WaitGroup
	for i, password := range passwords {
		wg.Add(1)
		go func(i int, password string) {
			defer wg.Done()
			_, errs[i] = h.lifecycle.Reactivate(h.ctx, auth.ReactivateMessage{Email: "a@x.com", Password: password})
		}(i, password)
	}
	wg.Wait()

	for i, password := range passwords {
		if password == "secret123" {
			assert.NoError(t, errs[i])
			continue
		}
		assert.True(t, auth.HasTextCode(errs[i], auth.TextCodeInvalidCredentials))
	}

	account := h.reload(t, "a@x.com")
	assert.True(t, account.Active)
	assert.True(t, account.EmailConfirmed)
}
