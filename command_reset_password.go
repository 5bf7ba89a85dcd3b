package auth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-repository-bun"
)

// ResetPasswordMessage sets a new password using an emailed reset token
type ResetPasswordMessage struct {
	Token           string `json:"-"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

func (m ResetPasswordMessage) Type() string { return "account.reset_password" }

func (m ResetPasswordMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Password, validation.Required, passwordLength()),
		validation.Field(
			&m.PasswordConfirm,
			validation.Required,
			validation.By(ValidateStringEquals(m.Password)),
		),
	)
}

// ResetPassword redeems a reset token, replaces the password and logs
// the account in. Tokens issued before the reset stop authenticating.
func (l *Lifecycle) ResetPassword(ctx context.Context, msg ResetPasswordMessage) (*AuthResult, error) {
	if err := checkContext(ctx, "password reset"); err != nil {
		return nil, err
	}

	if err := msg.Validate(); err != nil {
		return nil, validationError(err)
	}

	if msg.Token == "" {
		return nil, NewTokenInvalidOrExpiredError()
	}

	account, err := l.accounts().FindByResetTokenHash(ctx, HashSecureToken(msg.Token))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, NewTokenInvalidOrExpiredError()
		}
		return nil, internalError(err, "could not retrieve password reset request")
	}

	now := l.now()
	if account.ResetTokenExpiresAt == nil || !now.Before(*account.ResetTokenExpiresAt) {
		return nil, NewTokenInvalidOrExpiredError()
	}

	hash, err := l.hashPassword(msg.Password)
	if err != nil {
		return nil, err
	}

	account.PasswordHash = hash
	account.PasswordChangedAt = &now
	account.clearResetToken()

	if err := l.accounts().UpdateColumns(ctx, account,
		"password_hash",
		"password_changed_at",
		"reset_token_hash",
		"reset_token_expires_at",
	); err != nil {
		return nil, internalError(err, "failed to reset password")
	}

	l.record(ctx, ActivityEventPasswordResetSuccess, account, nil)

	return l.issue(account)
}
