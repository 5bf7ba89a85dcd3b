package auth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
)

// DeactivateMessage confirms a self-service deactivation
type DeactivateMessage struct {
	Password string `json:"password"`
}

func (m DeactivateMessage) Type() string { return "account.deactivate" }

func (m DeactivateMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Password, validation.Required),
	)
}

// Deactivate soft deletes the account. Its tokens stop authenticating
// right away since the guard only resolves active accounts.
func (l *Lifecycle) Deactivate(ctx context.Context, account *Account, msg DeactivateMessage) error {
	if err := checkContext(ctx, "deactivation"); err != nil {
		return err
	}

	if account == nil {
		return NewUnauthenticatedError("you aren't logged in, please login first")
	}

	if err := msg.Validate(); err != nil {
		return NewInvalidCredentialsError()
	}

	if err := l.verifyPassword(msg.Password, account.PasswordHash); err != nil {
		return err
	}

	_, err := l.machine.Transition(ctx, ActorRef{ID: account.ID.String(), Type: "account"}, account, AccountStateDeactivated,
		func(ctx context.Context, account *Account) error {
			return l.accounts().UpdateColumns(ctx, account, "active", "email_confirmed")
		},
		WithTransitionReason("deactivated by owner"),
	)
	if err != nil {
		return internalError(err, "failed to deactivate account")
	}

	return nil
}
