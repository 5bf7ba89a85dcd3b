package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountState is the lifecycle state derived from the persisted flags
type AccountState string

const (
	AccountStateUnconfirmed AccountState = "unconfirmed"
	AccountStateActive      AccountState = "active"
	AccountStateDeactivated AccountState = "deactivated"
)

// Account is the account model
type Account struct {
	bun.BaseModel         `bun:"table:accounts,alias:acc"`
	ID                    uuid.UUID   `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name                  string      `bun:"name,notnull" json:"name,omitempty"`
	Email                 string      `bun:"email,notnull,unique" json:"email,omitempty"`
	Role                  AccountRole `bun:"role,notnull" json:"role,omitempty"`
	PasswordHash          string      `bun:"password_hash,notnull" json:"-"`
	PasswordChangedAt     *time.Time  `bun:"password_changed_at,nullzero" json:"-"`
	EmailConfirmed        bool        `bun:"email_confirmed,notnull" json:"-"`
	ConfirmTokenHash      string      `bun:"confirm_token_hash,nullzero" json:"-"`
	ConfirmTokenExpiresAt *time.Time  `bun:"confirm_token_expires_at,nullzero" json:"-"`
	ResetTokenHash        string      `bun:"reset_token_hash,nullzero" json:"-"`
	ResetTokenExpiresAt   *time.Time  `bun:"reset_token_expires_at,nullzero" json:"-"`
	Active                bool        `bun:"active,notnull" json:"-"`
	CreatedAt             *time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt             *time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// State derives the lifecycle state from the active and confirmation flags
func (a *Account) State() AccountState {
	switch {
	case !a.Active:
		return AccountStateDeactivated
	case !a.EmailConfirmed:
		return AccountStateUnconfirmed
	default:
		return AccountStateActive
	}
}

// HasPendingConfirmation reports whether a confirmation token is still redeemable at now
func (a *Account) HasPendingConfirmation(now time.Time) bool {
	return a.ConfirmTokenHash != "" &&
		a.ConfirmTokenExpiresAt != nil &&
		now.Before(*a.ConfirmTokenExpiresAt)
}

// PasswordChangedAfter reports whether the password changed after a token
// with the given issue time was signed. Issue times carry millisecond
// precision, so a token signed in the same millisecond as the change
// stays valid.
func (a *Account) PasswordChangedAfter(issuedAt time.Time) bool {
	if a.PasswordChangedAt == nil {
		return false
	}
	return issuedAt.Before(a.PasswordChangedAt.Truncate(time.Millisecond))
}

func (a *Account) clearConfirmToken() {
	a.ConfirmTokenHash = ""
	a.ConfirmTokenExpiresAt = nil
}

func (a *Account) clearResetToken() {
	a.ResetTokenHash = ""
	a.ResetTokenExpiresAt = nil
}

// NormalizeEmail lower cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleStandard
	}

	record.Email = NormalizeEmail(record.Email)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
