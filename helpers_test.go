package auth_test

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/goliatone/go-tours-auth"
	"github.com/goliatone/go-tours-auth/persistence"
)

const (
	testSecret    = "test-signing-secret-with-enough-entropy-0123456789"
	testIssuer    = "tours-test"
	testPublicURL = "http://localhost:3000"
)

var (
	confirmLinkRe = regexp.MustCompile(`/api/v1/users/confirmEmail/([0-9a-f]{64})`)
	resetLinkRe   = regexp.MustCompile(`/api/v1/users/resetPassword/([0-9a-f]{64})`)
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 5, 1, 10, 0, 0, 500_000_000, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fastHasher is bcrypt at its minimum cost
type fastHasher struct{}

func (fastHasher) HashPassword(password string) (string, error) {
	if password == "" {
		return "", auth.ErrNoEmptyString
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(h), err
}

func (fastHasher) ComparePasswordAndHash(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return auth.ErrMismatchedHashAndPassword
	}
	return err
}

type sentEmail struct {
	Address string
	Subject string
	Body    string
}

type captureMailer struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
	// hook runs before delivery, a non nil return fails the send
	hook func(ctx context.Context, address string) error
}

func (m *captureMailer) SendEmail(ctx context.Context, address, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.hook != nil {
		if err := m.hook(ctx, address); err != nil {
			return err
		}
	}
	m.sent = append(m.sent, sentEmail{Address: address, Subject: subject, Body: htmlBody})
	return nil
}

func (m *captureMailer) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *captureMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *captureMailer) last(t *testing.T) sentEmail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no email was sent")
	return m.sent[len(m.sent)-1]
}

type captureSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (s *captureSink) Record(ctx context.Context, event auth.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) types() []auth.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]auth.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}

func openTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := persistence.Open(persistence.Options{DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, persistence.Migrate(context.Background(), db))
	return db
}

type harness struct {
	ctx       context.Context
	db        *bun.DB
	clock     *testClock
	repo      auth.RepositoryManager
	tokens    auth.TokenService
	mailer    *captureMailer
	sink      *captureSink
	notifier  *auth.Notifier
	lifecycle *auth.Lifecycle
	guard     *auth.Guard
}

func newHarness(t *testing.T, opts ...auth.LifecycleOption) *harness {
	t.Helper()

	h := &harness{
		ctx:    context.Background(),
		db:     openTestDB(t),
		clock:  newTestClock(),
		mailer: &captureMailer{},
		sink:   &captureSink{},
	}

	h.repo = auth.NewRepositoryManager(h.db, auth.WithAccountsClock(h.clock.Now))
	h.tokens = auth.NewTokenService([]byte(testSecret), 2160, testIssuer, nopLogger{}, auth.WithTokenClock(h.clock.Now))
	h.notifier = auth.NewNotifier(h.mailer, testPublicURL, nopLogger{})

	base := []auth.LifecycleOption{
		auth.WithLifecycleClock(h.clock.Now),
		auth.WithLifecycleLogger(nopLogger{}),
		auth.WithLifecycleActivitySink(h.sink),
		auth.WithPasswordAuthenticator(fastHasher{}),
	}
	h.lifecycle = auth.NewLifecycle(h.repo, h.tokens, h.notifier, append(base, opts...)...)
	h.guard = auth.NewGuard(h.tokens, h.repo.Accounts(), nopLogger{})

	return h
}

func (h *harness) signup(t *testing.T, name, email, password string) *auth.PendingConfirmation {
	t.Helper()
	pending, err := h.lifecycle.Signup(h.ctx, auth.SignupMessage{
		Name:            name,
		Email:           email,
		Password:        password,
		PasswordConfirm: password,
	})
	require.NoError(t, err)
	return pending
}

func (h *harness) lastConfirmToken(t *testing.T) string {
	t.Helper()
	m := confirmLinkRe.FindStringSubmatch(h.mailer.last(t).Body)
	require.Len(t, m, 2, "confirmation link not found in email")
	return m[1]
}

func (h *harness) lastResetToken(t *testing.T) string {
	t.Helper()
	m := resetLinkRe.FindStringSubmatch(h.mailer.last(t).Body)
	require.Len(t, m, 2, "reset link not found in email")
	return m[1]
}

// register signs up and confirms an account, returning its login result
func (h *harness) register(t *testing.T, name, email, password string) *auth.AuthResult {
	t.Helper()
	h.signup(t, name, email, password)
	result, err := h.lifecycle.ConfirmEmail(h.ctx, auth.ConfirmEmailMessage{Token: h.lastConfirmToken(t)})
	require.NoError(t, err)
	return result
}

func (h *harness) reload(t *testing.T, email string) *auth.Account {
	t.Helper()
	account, err := h.repo.Accounts().FindByEmail(h.ctx, email, true)
	require.NoError(t, err)
	return account
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, auth.HasTextCode(err, code), "expected %s, got %v", code, err)
}
