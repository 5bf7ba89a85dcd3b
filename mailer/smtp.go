// Package mailer delivers the HTML emails rendered by auth.Notifier.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	auth "github.com/goliatone/go-tours-auth"
)

type SMTPSettings struct {
	Host      string
	Port      int
	Username  string
	Password  string
	TLSMode   string
	FromName  string
	FromEmail string
	Timeout   time.Duration
}

// SMTPMailer sends one message per connection
type SMTPMailer struct {
	settings SMTPSettings
	now      func() time.Time
}

var _ auth.Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(settings SMTPSettings) *SMTPMailer {
	if settings.Timeout <= 0 {
		settings.Timeout = 10 * time.Second
	}
	return &SMTPMailer{
		settings: settings,
		now:      time.Now,
	}
}

func (m *SMTPMailer) SendEmail(ctx context.Context, address, subject, htmlBody string) error {
	ctx, cancel := context.WithTimeout(ctx, m.settings.Timeout)
	defer cancel()

	client, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if m.settings.Username != "" {
		smtpAuth := smtp.PlainAuth("", m.settings.Username, m.settings.Password, m.settings.Host)
		if err := client.Auth(smtpAuth); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "smtp auth")
		}
	}

	if err := client.Mail(m.settings.FromEmail); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "smtp from")
	}
	if err := client.Rcpt(address); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "smtp rcpt")
	}

	writer, err := client.Data()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "smtp data")
	}

	from := m.settings.FromEmail
	if m.settings.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", m.settings.FromName), m.settings.FromEmail)
	}

	body := BuildMessage(from, address, subject, htmlBody, m.now())
	if _, err := writer.Write([]byte(body)); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "smtp write")
	}
	if err := writer.Close(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "smtp close")
	}
	if err := client.Quit(); err != nil && !strings.Contains(err.Error(), "use of closed network connection") {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "smtp quit")
	}
	return nil
}

func (m *SMTPMailer) connect(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(m.settings.Host, fmt.Sprint(m.settings.Port))
	tlsConfig := &tls.Config{ServerName: m.settings.Host, MinVersion: tls.VersionTLS12}
	dialer := &net.Dialer{}

	tlsMode := m.settings.TLSMode
	if tlsMode == "" {
		tlsMode = "starttls"
	}

	switch tlsMode {
	case "tls":
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: tlsConfig}
		conn, err := tlsDialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "smtp tls dial")
		}
		client, err := smtp.NewClient(conn, m.settings.Host)
		if err != nil {
			_ = conn.Close()
			return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "smtp client")
		}
		return client, nil
	default:
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "smtp dial")
		}
		client, err := smtp.NewClient(conn, m.settings.Host)
		if err != nil {
			_ = conn.Close()
			return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "smtp client")
		}
		if tlsMode == "starttls" {
			if err := client.StartTLS(tlsConfig); err != nil {
				_ = client.Close()
				return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "smtp starttls")
			}
		}
		return client, nil
	}
}

// BuildMessage renders the RFC 5322 message for an HTML body
func BuildMessage(from, to, subject, htmlBody string, date time.Time) string {
	lines := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"Date: " + date.Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=utf-8",
		"",
		htmlBody,
	}
	return strings.Join(lines, "\r\n")
}
