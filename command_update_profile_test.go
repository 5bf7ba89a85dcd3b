package auth_test

import (
	"testing"

	"github.com/goliatone/go-repository-bun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-tours-auth"
)

func TestUpdateProfile_NameAndEmail(t *testing.T) {
	h := newHarness(t)
	registered := h.register(t, "Alice", "a@x.com", "secret123")

	updated, err := h.lifecycle.UpdateProfile(h.ctx, registered.Account, auth.UpdateProfileMessage{
		Name:  "  Alice Smith ",
		Email: " Alice.Smith@Example.COM",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", updated.Name)
	assert.Equal(t, "alice.smith@example.com", updated.Email)
	assert.Equal(t, registered.Account.ID, updated.ID)

	_, err = h.repo.Accounts().FindByEmail(h.ctx, "a@x.com", true)
	assert.True(t, repository.IsRecordNotFound(err))

	stored := h.reload(t, "alice.smith@example.com")
	assert.Equal(t, "Alice Smith", stored.Name)
	assert.True(t, stored.EmailConfirmed)

	// the session survives a profile change
	_, err = h.guard.Authenticate(h.ctx, registered.Token)
	assert.NoError(t, err)

	_, err = h.lifecycle.Login(h.ctx, auth.LoginMessage{Email: "alice.smith@example.com", Password: "secret123"})
	assert.NoError(t, err)

	assert.Contains(t, h.sink.types(), auth.ActivityEventProfileUpdated)
}

func TestUpdateProfile_NameOnly(t *testing.T) {
	h := newHarness(t)
	registered := h.register(t, "Alice", "a@x.com", "secret123")

	updated, err := h.lifecycle.UpdateProfile(h.ctx, registered.Account, auth.UpdateProfileMessage{Name: "Ally"})
	require.NoError(t, err)
	assert.Equal(t, "Ally", updated.Name)
	assert.Equal(t, "a@x.com", updated.Email)
	assert.Equal(t, "Ally", h.reload(t, "a@x.com").Name)
}

func TestUpdateProfile_DuplicateEmail(t *testing.T) {
	h := newHarness(t)
	alice := h.register(t, "Alice", "a@x.com", "secret123")
	bob := h.register(t, "Bob", "b@x.com", "secret123")

	_, err := h.lifecycle.UpdateProfile(h.ctx, alice.Account, auth.UpdateProfileMessage{Email: "B@x.com"})
	requireCode(t, err, auth.TextCodeDuplicateEmail)

	// deactivated accounts keep their email
	require.NoError(t, h.lifecycle.Deactivate(h.ctx, bob.Account, auth.DeactivateMessage{Password: "secret123"}))
	_, err = h.lifecycle.UpdateProfile(h.ctx, alice.Account, auth.UpdateProfileMessage{Email: "b@x.com"})
	requireCode(t, err, auth.TextCodeDuplicateEmail)

	assert.Equal(t, "a@x.com", h.reload(t, "a@x.com").Email)
	assert.NotContains(t, h.sink.types(), auth.ActivityEventProfileUpdated)
}

func TestUpdateProfile_OwnEmailIsNoop(t *testing.T) {
	h := newHarness(t)
	registered := h.register(t, "Alice", "a@x.com", "secret123")

	updated, err := h.lifecycle.UpdateProfile(h.ctx, registered.Account, auth.UpdateProfileMessage{
		Name:  "Alice",
		Email: "A@X.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", updated.Email)
	assert.NotContains(t, h.sink.types(), auth.ActivityEventProfileUpdated)
}

func TestUpdateProfile_Validation(t *testing.T) {
	h := newHarness(t)
	registered := h.register(t, "Alice", "a@x.com", "secret123")

	_, err := h.lifecycle.UpdateProfile(h.ctx, nil, auth.UpdateProfileMessage{Name: "Ally"})
	requireCode(t, err, auth.TextCodeUnauthenticated)

	for _, msg := range []auth.UpdateProfileMessage{
		{},
		{Name: "   "},
		{Email: "not-an-email"},
		{Name: "Ally", Email: "not-an-email"},
	} {
		_, err = h.lifecycle.UpdateProfile(h.ctx, registered.Account, msg)
		requireCode(t, err, auth.TextCodeBadRequest)
	}

	assert.Equal(t, "Alice", h.reload(t, "a@x.com").Name)
}
