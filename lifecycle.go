package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// AuthResult is returned by every operation that logs the account in
type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Account   *Account  `json:"-"`
}

// PendingConfirmation acknowledges a signup awaiting email confirmation
type PendingConfirmation struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Lifecycle owns the account state transitions and their side effects
type Lifecycle struct {
	repo         RepositoryManager
	tokens       TokenService
	notifier     *Notifier
	hasher       PasswordAuthenticator
	secureTokens *SecureTokenGenerator
	machine      AccountStateMachine
	activity     activityRecorder
	logger       Logger
	now          Clock
	useHashIDs   bool
	dummyOnce    sync.Once
	dummyHash    string
}

// LifecycleOption configures a Lifecycle
type LifecycleOption func(*Lifecycle)

// WithLifecycleClock injects a custom clock (useful for tests).
func WithLifecycleClock(clock Clock) LifecycleOption {
	return func(l *Lifecycle) {
		if clock != nil {
			l.now = clock
		}
	}
}

func WithLifecycleLogger(logger Logger) LifecycleOption {
	return func(l *Lifecycle) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithLifecycleActivitySink publishes lifecycle events to sink
func WithLifecycleActivitySink(sink ActivitySink) LifecycleOption {
	return func(l *Lifecycle) {
		l.activity.sink = normalizeActivitySink(sink)
	}
}

// WithPasswordAuthenticator replaces the bcrypt hasher
func WithPasswordAuthenticator(hasher PasswordAuthenticator) LifecycleOption {
	return func(l *Lifecycle) {
		if hasher != nil {
			l.hasher = hasher
		}
	}
}

// WithHashIDs derives account ids from the email address
func WithHashIDs() LifecycleOption {
	return func(l *Lifecycle) {
		l.useHashIDs = true
	}
}

// NewLifecycle wires the lifecycle collaborators
func NewLifecycle(repo RepositoryManager, tokens TokenService, notifier *Notifier, opts ...LifecycleOption) *Lifecycle {
	l := &Lifecycle{
		repo:     repo,
		tokens:   tokens,
		notifier: notifier,
		hasher:   bcryptAuthenticator{},
		logger:   defLogger{},
		now:      time.Now,
		activity: activityRecorder{sink: noopActivitySink{}},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	l.activity.logger = l.logger
	l.activity.now = l.now
	l.secureTokens = NewSecureTokenGenerator(l.now)
	l.machine = NewAccountStateMachine(
		WithStateMachineClock(l.now),
		WithStateMachineLogger(l.logger),
		WithStateMachineActivitySink(l.activity.sink),
	)

	return l
}

func (l *Lifecycle) accounts() Accounts {
	return l.repo.Accounts()
}

func (l *Lifecycle) issue(account *Account) (*AuthResult, error) {
	token, expiresAt, err := l.tokens.Issue(NewIdentityFromAccount(account))
	if err != nil {
		return nil, internalError(err, "failed to issue access token")
	}
	return &AuthResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Account:   account,
	}, nil
}

// verifyPassword maps every comparison failure to InvalidCredentials.
func (l *Lifecycle) verifyPassword(password, hash string) error {
	if err := l.hasher.ComparePasswordAndHash(password, hash); err != nil {
		if !errors.Is(err, ErrMismatchedHashAndPassword) {
			l.logger.Warn("password comparison failed: %v", err)
		}
		return NewInvalidCredentialsError()
	}
	return nil
}

// missPassword burns a comparison so unknown emails cost the same as wrong passwords.
func (l *Lifecycle) missPassword(password string) error {
	l.dummyOnce.Do(func() {
		hash, err := l.hasher.HashPassword(uuid.NewString())
		if err != nil {
			hash = RandomPasswordHash()
		}
		l.dummyHash = hash
	})
	_ = l.hasher.ComparePasswordAndHash(password, l.dummyHash)
	return NewInvalidCredentialsError()
}

func (l *Lifecycle) hashPassword(password string) (string, error) {
	hash, err := l.hasher.HashPassword(password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return "", richErr
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}
	return hash, nil
}

func (l *Lifecycle) record(ctx context.Context, eventType ActivityEventType, account *Account, metadata map[string]any) {
	event := ActivityEvent{
		EventType: eventType,
		Metadata:  metadata,
	}
	if account != nil {
		event.AccountID = account.ID.String()
	}
	l.activity.record(ctx, event)
}

func checkContext(ctx context.Context, operation string) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during "+operation,
		)
	default:
		return nil
	}
}

func internalError(err error, message string) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode != "" {
		return richErr
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, message)
}

// validationError turns ozzo field errors into a BadRequest carrying
// one metadata entry per field.
func validationError(err error) error {
	fields := map[string]any{}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			fields[field] = ferr.Error()
		}
	}

	return NewBadRequestError("invalid input: " + err.Error()).
		WithMetadata(fields)
}

// passwordLength bounds a new password by its byte length
func passwordLength() validation.Rule {
	return validation.Length(PasswordMinLength, PasswordMaxBytes).
		Error(fmt.Sprintf("the length must be between %d and %d bytes", PasswordMinLength, PasswordMaxBytes))
}

// ValidateStringEquals checks that a value matches str
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}
