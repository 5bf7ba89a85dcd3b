package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	auth "github.com/goliatone/go-tours-auth"
)

func TestAccount_State(t *testing.T) {
	tests := []struct {
		name      string
		active    bool
		confirmed bool
		want      auth.AccountState
	}{
		{name: "new signup", active: true, confirmed: false, want: auth.AccountStateUnconfirmed},
		{name: "confirmed", active: true, confirmed: true, want: auth.AccountStateActive},
		{name: "deactivated", active: false, confirmed: false, want: auth.AccountStateDeactivated},
		{name: "inactive wins", active: false, confirmed: true, want: auth.AccountStateDeactivated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account := &auth.Account{Active: tt.active, EmailConfirmed: tt.confirmed}
			assert.Equal(t, tt.want, account.State())
		})
	}
}

func TestAccount_HasPendingConfirmation(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	expires := now.Add(10 * time.Minute)

	account := &auth.Account{ConfirmTokenHash: "hash", ConfirmTokenExpiresAt: &expires}
	assert.True(t, account.HasPendingConfirmation(now))
	assert.True(t, account.HasPendingConfirmation(expires.Add(-time.Nanosecond)))
	assert.False(t, account.HasPendingConfirmation(expires))
	assert.False(t, account.HasPendingConfirmation(now.Add(11*time.Minute)))

	assert.False(t, (&auth.Account{ConfirmTokenExpiresAt: &expires}).HasPendingConfirmation(now))
	assert.False(t, (&auth.Account{ConfirmTokenHash: "hash"}).HasPendingConfirmation(now))
}

func TestAccount_PasswordChangedAfter(t *testing.T) {
	changed := time.Date(2024, 5, 1, 10, 0, 5, 700_400_000, time.UTC)
	account := &auth.Account{PasswordChangedAt: &changed}

	assert.True(t, account.PasswordChangedAfter(changed.Add(-time.Minute)))
	assert.True(t, account.PasswordChangedAfter(time.Date(2024, 5, 1, 10, 0, 4, 0, time.UTC)))
	// earlier in the same second is stale too
	assert.True(t, account.PasswordChangedAfter(time.Date(2024, 5, 1, 10, 0, 5, 0, time.UTC)))
	assert.True(t, account.PasswordChangedAfter(time.Date(2024, 5, 1, 10, 0, 5, 699_000_000, time.UTC)))
	// a token signed in the millisecond of the change stays valid
	assert.False(t, account.PasswordChangedAfter(time.UnixMilli(changed.UnixMilli())))
	assert.False(t, account.PasswordChangedAfter(changed.Add(time.Minute)))

	assert.False(t, (&auth.Account{}).PasswordChangedAfter(changed))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "alice@example.com", auth.NormalizeEmail("  Alice@Example.COM "))
	assert.Equal(t, "", auth.NormalizeEmail("   "))
}

func TestNewIdentityFromAccount(t *testing.T) {
	assert.Nil(t, auth.NewIdentityFromAccount(nil))

	account := &auth.Account{Email: "alice@example.com", Role: auth.RoleGuide}
	identity := auth.NewIdentityFromAccount(account)
	assert.Equal(t, account.ID.String(), identity.ID())
	assert.Equal(t, "alice@example.com", identity.Email())
	assert.Equal(t, "guide", identity.Role())
}
