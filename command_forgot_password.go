package auth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-repository-bun"
)

// ForgotPasswordMessage requests a reset link
type ForgotPasswordMessage struct {
	Email string `json:"email" example:"alice@example.com"`
}

func (m ForgotPasswordMessage) Type() string { return "account.forgot_password" }

func (m ForgotPasswordMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Email, validation.Required),
	)
}

// ForgotPassword stores a reset token and emails its link. The stored
// token is cleared again when the email cannot be delivered.
func (l *Lifecycle) ForgotPassword(ctx context.Context, msg ForgotPasswordMessage) error {
	if err := checkContext(ctx, "password reset request"); err != nil {
		return err
	}

	if err := msg.Validate(); err != nil {
		return validationError(err)
	}

	account, err := l.accounts().FindByEmail(ctx, msg.Email, false)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return NewNoSuchUserError()
		}
		return internalError(err, "failed to retrieve account for password reset")
	}

	token, err := l.secureTokens.Generate()
	if err != nil {
		return err
	}

	account.ResetTokenHash = token.Hash
	account.ResetTokenExpiresAt = &token.ExpiresAt

	if err := l.accounts().UpdateColumns(ctx, account, "reset_token_hash", "reset_token_expires_at"); err != nil {
		return internalError(err, "failed to store password reset token")
	}

	err = dispatchOrCompensate(ctx, l.logger,
		func(ctx context.Context) error {
			return l.notifier.SendPasswordReset(ctx, account, token.Plaintext)
		},
		func(ctx context.Context) error {
			account.clearResetToken()
			return l.accounts().UpdateColumns(ctx, account, "reset_token_hash", "reset_token_expires_at")
		},
	)
	if err != nil {
		l.record(ctx, ActivityEventEmailDeliveryRolledBack, account, map[string]any{"operation": "forgot_password"})
		return err
	}

	l.record(ctx, ActivityEventPasswordResetRequested, account, nil)

	return nil
}
