package auth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
)

// UpdatePasswordMessage changes the password of a logged in account
type UpdatePasswordMessage struct {
	CurrentPassword    string `json:"currentPassword"`
	NewPassword        string `json:"newPassword"`
	NewPasswordConfirm string `json:"newPasswordConfirm"`
}

func (m UpdatePasswordMessage) Type() string { return "account.update_password" }

func (m UpdatePasswordMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.CurrentPassword, validation.Required),
		validation.Field(&m.NewPassword, validation.Required, passwordLength()),
		validation.Field(
			&m.NewPasswordConfirm,
			validation.Required,
			validation.By(ValidateStringEquals(m.NewPassword)),
		),
	)
}

// UpdatePassword replaces the password after checking the current one
// and returns a fresh token. Older tokens stop authenticating.
func (l *Lifecycle) UpdatePassword(ctx context.Context, account *Account, msg UpdatePasswordMessage) (*AuthResult, error) {
	if err := checkContext(ctx, "password update"); err != nil {
		return nil, err
	}

	if account == nil {
		return nil, NewUnauthenticatedError("you aren't logged in, please login first")
	}

	if err := msg.Validate(); err != nil {
		return nil, validationError(err)
	}

	if err := l.verifyPassword(msg.CurrentPassword, account.PasswordHash); err != nil {
		return nil, err
	}

	if msg.NewPassword == msg.CurrentPassword {
		return nil, NewSamePasswordError()
	}

	hash, err := l.hashPassword(msg.NewPassword)
	if err != nil {
		return nil, err
	}

	now := l.now()
	account.PasswordHash = hash
	account.PasswordChangedAt = &now

	if err := l.accounts().UpdateColumns(ctx, account, "password_hash", "password_changed_at"); err != nil {
		return nil, internalError(err, "failed to update password")
	}

	l.record(ctx, ActivityEventPasswordUpdated, account, nil)

	return l.issue(account)
}
