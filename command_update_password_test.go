package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-tours-auth"
)

func TestUpdatePassword_Success(t *testing.T) {
	h := newHarness(t)
	registered := h.register(t, "Alice", "a@x.com", "secret123")

	h.clock.Advance(2 * time.Second)

	account, err := h.guard.Authenticate(h.ctx, registered.Token)
	require.NoError(t, err)

	result, err := h.lifecycle.UpdatePassword(h.ctx, account, auth.UpdatePasswordMessage{
		CurrentPassword:    "secret123",
		NewPassword:        "brandnew123",
		NewPasswordConfirm: "brandnew123",
	})
	require.NoError(t, err)

	_, err = h.guard.Authenticate(h.ctx, result.Token)
	assert.NoError(t, err)

	_, err = h.guard.Authenticate(h.ctx, registered.Token)
	requireCode(t, err, auth.TextCodeUnauthenticated)

	_, err = h.lifecycle.Login(h.ctx, auth.LoginMessage{Email: "a@x.com", Password: "brandnew123"})
	assert.NoError(t, err)

	assert.Contains(t, h.sink.types(), auth.ActivityEventPasswordUpdated)
}

func TestUpdatePassword_RevokesTokenFromSameSecond(t *testing.T) {
	h := newHarness(t)
	registered := h.register(t, "Alice", "a@x.com", "secret123")

	h.clock.Advance(300 * time.Millisecond)

	result, err := h.lifecycle.UpdatePassword(h.ctx, registered.Account, auth.UpdatePasswordMessage{
		CurrentPassword:    "secret123",
		NewPassword:        "brandnew123",
		NewPasswordConfirm: "brandnew123",
	})
	require.NoError(t, err)

	_, err = h.guard.Authenticate(h.ctx, registered.Token)
	requireCode(t, err, auth.TextCodeUnauthenticated)

	// minted in the same millisecond as the change
	_, err = h.guard.Authenticate(h.ctx, result.Token)
	assert.NoError(t, err)
}

func TestUpdatePassword_WrongCurrentPassword(t *testing.T) {
	h := newHarness(t)
	registered := h.register(t, "Alice", "a@x.com", "secret123")
	before := h.reload(t, "a@x.com")

	_, err := h.lifecycle.UpdatePassword(h.ctx, registered.Account, auth.UpdatePasswordMessage{
		CurrentPassword:    "not-my-password",
		NewPassword:        "brandnew123",
		NewPasswordConfirm: "brandnew123",
	})
	requireCode(t, err, auth.TextCodeInvalidCredentials)

	after := h.reload(t, "a@x.com")
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
	assert.Nil(t, after.PasswordChangedAt)
}

func TestUpdatePassword_SamePassword(t *testing.T) {
	h := newHarness(t)
	registered := h.register(t, "Alice", "a@x.com", "secret123")
	before := h.reload(t, "a@x.com")

	_, err := h.lifecycle.UpdatePassword(h.ctx, registered.Account, auth.UpdatePasswordMessage{
		CurrentPassword:    "secret123",
		NewPassword:        "secret123",
		NewPasswordConfirm: "secret123",
	})
	requireCode(t, err, auth.TextCodeSamePassword)

	after := h.reload(t, "a@x.com")
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
	assert.Nil(t, after.PasswordChangedAt)

	// the original token is still good
	_, err = h.guard.Authenticate(h.ctx, registered.Token)
	assert.NoError(t, err)
}

func TestUpdatePassword_Validation(t *testing.T) {
	h := newHarness(t)
	registered := h.register(t, "Alice", "a@x.com", "secret123")

	_, err := h.lifecycle.UpdatePassword(h.ctx, nil, auth.UpdatePasswordMessage{
		CurrentPassword: "secret123", NewPassword: "brandnew123", NewPasswordConfirm: "brandnew123",
	})
	requireCode(t, err, auth.TextCodeUnauthenticated)

	_, err = h.lifecycle.UpdatePassword(h.ctx, registered.Account, auth.UpdatePasswordMessage{
		CurrentPassword: "secret123", NewPassword: "short", NewPasswordConfirm: "short",
	})
	requireCode(t, err, auth.TextCodeBadRequest)

	_, err = h.lifecycle.UpdatePassword(h.ctx, registered.Account, auth.UpdatePasswordMessage{
		CurrentPassword: "secret123", NewPassword: "brandnew123", NewPasswordConfirm: "brandnew321",
	})
	requireCode(t, err, auth.TextCodeBadRequest)

	_, err = h.lifecycle.UpdatePassword(h.ctx, registered.Account, auth.UpdatePasswordMessage{
		CurrentPassword: "secret123", NewPassword: longPassword, NewPasswordConfirm: longPassword,
	})
	requireCode(t, err, auth.TextCodeBadRequest)

	_, err = h.lifecycle.Login(h.ctx, auth.LoginMessage{Email: "a@x.com", Password: "secret123"})
	assert.NoError(t, err)
}
