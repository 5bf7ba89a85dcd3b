package mailer

import (
	"context"
	"sync"

	auth "github.com/goliatone/go-tours-auth"
)

// SentEmail is a message captured by LogMailer
type SentEmail struct {
	Address string
	Subject string
	Body    string
}

// LogMailer logs emails instead of sending them, for local development
type LogMailer struct {
	logger auth.Logger
	mu     sync.Mutex
	sent   []SentEmail
}

var _ auth.Mailer = (*LogMailer)(nil)

func NewLogMailer(logger auth.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendEmail(ctx context.Context, address, subject, htmlBody string) error {
	m.mu.Lock()
	m.sent = append(m.sent, SentEmail{Address: address, Subject: subject, Body: htmlBody})
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info("email to=%s subject=%q\n%s", address, subject, htmlBody)
	}
	return nil
}

// Sent returns a copy of every captured email
func (m *LogMailer) Sent() []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentEmail, len(m.sent))
	copy(out, m.sent)
	return out
}
