package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
)

// SignupMessage is the self-service registration payload
type SignupMessage struct {
	Name            string `json:"name" example:"Alice"`
	Email           string `json:"email" example:"alice@example.com"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
	Role            string `json:"role,omitempty" example:"guide"`
}

func (m SignupMessage) Type() string { return "account.signup" }

func (m SignupMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&m.Email, validation.Required, is.Email),
		validation.Field(&m.Password, validation.Required, passwordLength()),
		validation.Field(
			&m.PasswordConfirm,
			validation.Required,
			validation.By(ValidateStringEquals(m.Password)),
		),
		validation.Field(&m.Role, validation.By(func(value any) error {
			if _, ok := SignupRole(value.(string)); !ok {
				return goerrors.New("unknown role", goerrors.CategoryValidation)
			}
			return nil
		})),
	)
}

// Signup creates an unconfirmed account and emails its confirmation link.
// If the email cannot be delivered the account is removed again.
func (l *Lifecycle) Signup(ctx context.Context, msg SignupMessage) (*PendingConfirmation, error) {
	if err := checkContext(ctx, "signup"); err != nil {
		return nil, err
	}

	if err := msg.Validate(); err != nil {
		return nil, validationError(err)
	}

	role, _ := SignupRole(msg.Role)
	email := NormalizeEmail(msg.Email)
	now := l.now()

	existing, err := l.accounts().FindByEmail(ctx, email, true)
	switch {
	case err == nil:
		if err := l.resolveExistingSignup(ctx, existing, now); err != nil {
			return nil, err
		}
	case !repository.IsRecordNotFound(err):
		return nil, internalError(err, "failed to look up account")
	}

	hash, err := l.hashPassword(msg.Password)
	if err != nil {
		return nil, err
	}

	token, err := l.secureTokens.Generate()
	if err != nil {
		return nil, err
	}

	account := &Account{
		Name:                  msg.Name,
		Email:                 email,
		Role:                  role,
		PasswordHash:          hash,
		Active:                true,
		EmailConfirmed:        false,
		ConfirmTokenHash:      token.Hash,
		ConfirmTokenExpiresAt: &token.ExpiresAt,
	}

	if l.useHashIDs {
		if id, err := hashid.NewUUID(email); err == nil {
			account.ID = id
		}
	}

	created, err := l.accounts().Create(ctx, account)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, NewDuplicateEmailError()
		}
		return nil, internalError(err, "could not create account")
	}

	err = dispatchOrCompensate(ctx, l.logger,
		func(ctx context.Context) error {
			return l.notifier.SendConfirmation(ctx, created, token.Plaintext)
		},
		func(ctx context.Context) error {
			return l.accounts().DeleteByID(ctx, created.ID)
		},
	)
	if err != nil {
		l.record(ctx, ActivityEventEmailDeliveryRolledBack, created, map[string]any{"operation": "signup"})
		return nil, err
	}

	l.record(ctx, ActivityEventSignup, created, map[string]any{"role": created.Role.String()})

	return &PendingConfirmation{
		Email:     created.Email,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

// resolveExistingSignup decides whether a previous account with the same
// email blocks the signup. Stale unconfirmed accounts are purged.
func (l *Lifecycle) resolveExistingSignup(ctx context.Context, existing *Account, now time.Time) error {
	switch {
	case existing.EmailConfirmed:
		return NewDuplicateEmailError()
	case existing.HasPendingConfirmation(now):
		return NewConfirmationPendingError()
	case existing.Active || existing.ConfirmTokenHash != "":
		l.logger.Info("purging unconfirmed account %s with expired confirmation", existing.ID)
		if err := l.accounts().DeleteByID(ctx, existing.ID); err != nil {
			return internalError(err, "failed to purge unconfirmed account")
		}
		return nil
	default:
		// deactivated, must reactivate instead
		return NewDuplicateEmailError()
	}
}
