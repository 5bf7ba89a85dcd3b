package auth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-repository-bun"
)

// ReactivateMessage holds the credentials of a deactivated account
type ReactivateMessage struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (m ReactivateMessage) Type() string { return "account.reactivate" }

func (m ReactivateMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Email, validation.Required),
		validation.Field(&m.Password, validation.Required),
	)
}

// Reactivate restores a deactivated account after verifying its password
// and logs it in. The password is checked before anything is written, the
// account is then flipped with a conditional update so a wrong password
// never leaves it active.
func (l *Lifecycle) Reactivate(ctx context.Context, msg ReactivateMessage) (*AuthResult, error) {
	if err := checkContext(ctx, "reactivation"); err != nil {
		return nil, err
	}

	if err := msg.Validate(); err != nil {
		return nil, NewBadRequestError("please provide us with your email and password")
	}

	account, err := l.accounts().FindByEmail(ctx, msg.Email, true)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, l.missPassword(msg.Password)
		}
		return nil, internalError(err, "failed to retrieve account for reactivation")
	}

	if err := l.verifyPassword(msg.Password, account.PasswordHash); err != nil {
		l.record(ctx, ActivityEventLoginFailure, account, map[string]any{"reason": "reactivation password mismatch"})
		return nil, err
	}

	if account.Active {
		if !account.EmailConfirmed {
			return nil, NewEmailNotConfirmedError()
		}
		return l.issue(account)
	}

	_, err = l.machine.Transition(ctx, ActorRef{ID: account.ID.String(), Type: "account"}, account, AccountStateActive,
		func(ctx context.Context, account *Account) error {
			activated, err := l.accounts().ActivateIfInactive(ctx, account.ID)
			if err != nil {
				return err
			}
			if !activated {
				l.logger.Debug("account %s was reactivated concurrently", account.ID)
			}
			return nil
		},
		WithTransitionReason("reactivated by owner"),
	)
	if err != nil {
		return nil, internalError(err, "failed to reactivate account")
	}

	return l.issue(account)
}
