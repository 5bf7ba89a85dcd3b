package auth

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated account
type Identity interface {
	ID() string
	Email() string
	Role() string
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	// GetTokenExpiration is the access token lifetime in hours
	GetTokenExpiration() int
	GetCookieName() string
	// GetCookieExpiration is the token cookie lifetime in days
	GetCookieExpiration() int
	GetSecureCookie() bool
	GetTokenLookup() string
	GetAuthScheme() string
	GetPublicURL() string
}

// Mailer is the external email collaborator
type Mailer interface {
	SendEmail(ctx context.Context, address, subject, htmlBody string) error
}

// MailerFunc adapts a function into a Mailer.
type MailerFunc func(ctx context.Context, address, subject, htmlBody string) error

// SendEmail satisfies the Mailer interface.
func (f MailerFunc) SendEmail(ctx context.Context, address, subject, htmlBody string) error {
	return f(ctx, address, subject, htmlBody)
}

// PasswordAuthenticator hashes and compares passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

type bcryptAuthenticator struct{}

func (bcryptAuthenticator) HashPassword(password string) (string, error) {
	return HashPassword(password)
}

func (bcryptAuthenticator) ComparePasswordAndHash(password, hash string) error {
	return ComparePasswordAndHash(password, hash)
}

// Clock returns the current time
type Clock func() time.Time

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
