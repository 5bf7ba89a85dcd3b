package auth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-repository-bun"
)

// ConfirmEmailMessage carries the token from the confirmation link
type ConfirmEmailMessage struct {
	Token string `json:"token"`
}

func (m ConfirmEmailMessage) Type() string { return "account.confirm_email" }

func (m ConfirmEmailMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Token, validation.Required),
	)
}

// ConfirmEmail redeems a confirmation token, activates the account and
// logs it in.
func (l *Lifecycle) ConfirmEmail(ctx context.Context, msg ConfirmEmailMessage) (*AuthResult, error) {
	if err := checkContext(ctx, "email confirmation"); err != nil {
		return nil, err
	}

	if err := msg.Validate(); err != nil {
		return nil, NewTokenInvalidOrExpiredError()
	}

	account, err := l.accounts().FindByConfirmTokenHash(ctx, HashSecureToken(msg.Token))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, NewTokenInvalidOrExpiredError()
		}
		return nil, internalError(err, "failed to retrieve account for confirmation")
	}

	if !account.HasPendingConfirmation(l.now()) {
		return nil, NewTokenInvalidOrExpiredError()
	}

	_, err = l.machine.Transition(ctx, ActorRef{ID: account.ID.String(), Type: "account"}, account, AccountStateActive,
		func(ctx context.Context, account *Account) error {
			return l.accounts().UpdateColumns(ctx, account,
				"email_confirmed",
				"active",
				"confirm_token_hash",
				"confirm_token_expires_at",
			)
		},
		WithTransitionReason("email confirmed"),
	)
	if err != nil {
		return nil, internalError(err, "failed to confirm account")
	}

	return l.issue(account)
}
