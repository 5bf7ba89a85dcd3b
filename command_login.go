package auth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-repository-bun"
)

// LoginMessage holds the login credentials
type LoginMessage struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (m LoginMessage) Type() string { return "account.login" }

func (m LoginMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Email, validation.Required),
		validation.Field(&m.Password, validation.Required),
	)
}

// Login verifies the credentials of a confirmed, active account. Unknown
// emails and wrong passwords fail the same way.
func (l *Lifecycle) Login(ctx context.Context, msg LoginMessage) (*AuthResult, error) {
	if err := checkContext(ctx, "login"); err != nil {
		return nil, err
	}

	if err := msg.Validate(); err != nil {
		return nil, NewBadRequestError("please provide us with your email and password")
	}

	account, err := l.accounts().FindByEmail(ctx, msg.Email, false)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			l.record(ctx, ActivityEventLoginFailure, nil, map[string]any{"reason": "unknown email"})
			return nil, l.missPassword(msg.Password)
		}
		return nil, internalError(err, "failed to retrieve account for login")
	}

	if err := l.verifyPassword(msg.Password, account.PasswordHash); err != nil {
		l.record(ctx, ActivityEventLoginFailure, account, map[string]any{"reason": "password mismatch"})
		return nil, err
	}

	if !account.EmailConfirmed {
		l.record(ctx, ActivityEventLoginFailure, account, map[string]any{"reason": "email not confirmed"})
		return nil, NewEmailNotConfirmedError()
	}

	result, err := l.issue(account)
	if err != nil {
		return nil, err
	}

	l.record(ctx, ActivityEventLoginSuccess, account, nil)

	return result, nil
}
