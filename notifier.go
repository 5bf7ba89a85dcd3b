package auth

import (
	"context"
	"strings"

	"github.com/flosch/pongo2/v6"
	goerrors "github.com/goliatone/go-errors"
)

const (
	ConfirmEmailSubject  = "Your Email confirm token, valid for 10 minutes"
	ResetPasswordSubject = "Your password reset token, valid for 10 minutes"

	confirmEmailPath  = "/api/v1/users/confirmEmail/"
	resetPasswordPath = "/api/v1/users/resetPassword/"
)

var confirmEmailTemplate = pongo2.Must(pongo2.FromString(
	`<h1>Open this url to confirm your email</h1>
<p>Hi {{ name }},</p>
<p><a href="{{ url }}">Click Here</a></p>
<p>The link expires in {{ minutes }} minutes.</p>`))

var resetPasswordTemplate = pongo2.Must(pongo2.FromString(
	`<p>Forgot your password? Submit a PATCH request with your new password and passwordConfirm to: <a href="{{ url }}">{{ url }}</a></p>
<p>The link expires in {{ minutes }} minutes.</p>
<p>If you didn't forget your password please ignore this email.</p>`))

// Notifier renders lifecycle emails and hands them to the Mailer
type Notifier struct {
	mailer    Mailer
	publicURL string
	logger    Logger
}

// NewNotifier returns a notifier building links against publicURL
func NewNotifier(mailer Mailer, publicURL string, logger Logger) *Notifier {
	if logger == nil {
		logger = defLogger{}
	}
	return &Notifier{
		mailer:    mailer,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
	}
}

// ConfirmationURL is the link embedded in the confirmation email
func (n *Notifier) ConfirmationURL(token string) string {
	return n.publicURL + confirmEmailPath + token
}

// ResetURL is the link embedded in the password reset email
func (n *Notifier) ResetURL(token string) string {
	return n.publicURL + resetPasswordPath + token
}

// SendConfirmation emails the confirmation link for a new account
func (n *Notifier) SendConfirmation(ctx context.Context, account *Account, token string) error {
	body, err := confirmEmailTemplate.Execute(pongo2.Context{
		"name":    account.Name,
		"url":     n.ConfirmationURL(token),
		"minutes": int(SecureTokenTTL.Minutes()),
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to render confirmation email")
	}
	return n.send(ctx, account.Email, ConfirmEmailSubject, body)
}

// SendPasswordReset emails the reset link
func (n *Notifier) SendPasswordReset(ctx context.Context, account *Account, token string) error {
	body, err := resetPasswordTemplate.Execute(pongo2.Context{
		"url":     n.ResetURL(token),
		"minutes": int(SecureTokenTTL.Minutes()),
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to render password reset email")
	}
	return n.send(ctx, account.Email, ResetPasswordSubject, body)
}

func (n *Notifier) send(ctx context.Context, address, subject, body string) error {
	if n.mailer == nil {
		return NewEmailDeliveryFailedError(goerrors.New("mailer not configured", goerrors.CategoryInternal))
	}

	if err := n.mailer.SendEmail(ctx, address, subject, body); err != nil {
		n.logger.Error("email delivery to %s failed: %v", address, err)
		return NewEmailDeliveryFailedError(err)
	}

	return nil
}

// dispatchOrCompensate runs send and, if it fails, runs rollback. A
// rollback failure is logged and the send error is returned unchanged.
func dispatchOrCompensate(ctx context.Context, logger Logger, send func(context.Context) error, rollback func(context.Context) error) error {
	err := send(ctx)
	if err == nil {
		return nil
	}

	if rollback != nil {
		if rerr := rollback(context.WithoutCancel(ctx)); rerr != nil {
			logger.Error("rollback after failed email delivery: %v", rerr)
		}
	}

	return err
}
