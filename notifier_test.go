package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-tours-auth"
)

func TestNotifier_URLs(t *testing.T) {
	n := auth.NewNotifier(nil, "https://tours.example.com/", nopLogger{})

	assert.Equal(t, "https://tours.example.com/api/v1/users/confirmEmail/abc", n.ConfirmationURL("abc"))
	assert.Equal(t, "https://tours.example.com/api/v1/users/resetPassword/abc", n.ResetURL("abc"))
}

func TestNotifier_SendConfirmation(t *testing.T) {
	mailer := &captureMailer{}
	n := auth.NewNotifier(mailer, testPublicURL, nopLogger{})

	account := &auth.Account{Name: "Alice", Email: "a@x.com"}
	require.NoError(t, n.SendConfirmation(context.Background(), account, "tok123"))

	email := mailer.last(t)
	assert.Equal(t, "a@x.com", email.Address)
	assert.Equal(t, auth.ConfirmEmailSubject, email.Subject)
	assert.Contains(t, email.Body, "Hi Alice")
	assert.Contains(t, email.Body, n.ConfirmationURL("tok123"))
	assert.Contains(t, email.Body, "10 minutes")
}

func TestNotifier_SendPasswordReset(t *testing.T) {
	mailer := &captureMailer{}
	n := auth.NewNotifier(mailer, testPublicURL, nopLogger{})

	account := &auth.Account{Name: "Alice", Email: "a@x.com"}
	require.NoError(t, n.SendPasswordReset(context.Background(), account, "tok456"))

	email := mailer.last(t)
	assert.Equal(t, auth.ResetPasswordSubject, email.Subject)
	assert.Contains(t, email.Body, n.ResetURL("tok456"))
}

func TestNotifier_DeliveryFailures(t *testing.T) {
	account := &auth.Account{Name: "Alice", Email: "a@x.com"}

	unconfigured := auth.NewNotifier(nil, testPublicURL, nopLogger{})
	requireCode(t, unconfigured.SendConfirmation(context.Background(), account, "tok"), auth.TextCodeEmailDeliveryFailed)

	failing := auth.NewNotifier(auth.MailerFunc(func(ctx context.Context, address, subject, htmlBody string) error {
		return errors.New("connection refused")
	}), testPublicURL, nopLogger{})
	requireCode(t, failing.SendPasswordReset(context.Background(), account, "tok"), auth.TextCodeEmailDeliveryFailed)
}
