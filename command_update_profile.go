package auth

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-repository-bun"
)

// UpdateProfileMessage changes the name and/or email of a logged in account.
// Empty fields are left untouched.
type UpdateProfileMessage struct {
	Name  string `json:"name,omitempty" example:"Alice"`
	Email string `json:"email,omitempty" example:"alice@example.com"`
}

func (m UpdateProfileMessage) Type() string { return "account.update_profile" }

func (m UpdateProfileMessage) Validate() error {
	nameRules := []validation.Rule{}
	if strings.TrimSpace(m.Email) == "" {
		nameRules = append(nameRules, validation.Required.Error("name or email is required"))
	}
	nameRules = append(nameRules, validation.Length(1, 200))

	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, nameRules...),
		validation.Field(&m.Email, is.Email),
	)
}

// UpdateProfile renames the account or moves it to another email. The
// new email must not belong to any other account, active or not.
func (l *Lifecycle) UpdateProfile(ctx context.Context, account *Account, msg UpdateProfileMessage) (*Account, error) {
	if err := checkContext(ctx, "profile update"); err != nil {
		return nil, err
	}

	if account == nil {
		return nil, NewUnauthenticatedError("you aren't logged in, please login first")
	}

	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	if err := msg.Validate(); err != nil {
		return nil, validationError(err)
	}

	updated := *account
	columns := []string{}

	if msg.Name != "" && msg.Name != account.Name {
		updated.Name = msg.Name
		columns = append(columns, "name")
	}

	if email := NormalizeEmail(msg.Email); email != "" && email != account.Email {
		existing, err := l.accounts().FindByEmail(ctx, email, true)
		switch {
		case err == nil && existing.ID != account.ID:
			return nil, NewDuplicateEmailError()
		case err != nil && !repository.IsRecordNotFound(err):
			return nil, internalError(err, "failed to look up account")
		}
		updated.Email = email
		columns = append(columns, "email")
	}

	if len(columns) == 0 {
		return account, nil
	}

	if err := l.accounts().UpdateColumns(ctx, &updated, columns...); err != nil {
		if IsUniqueViolation(err) {
			return nil, NewDuplicateEmailError()
		}
		return nil, internalError(err, "failed to update profile")
	}

	l.record(ctx, ActivityEventProfileUpdated, &updated, map[string]any{"fields": columns})

	return &updated, nil
}
