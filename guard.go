package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// Guard authenticates bearer tokens and authorizes roles
type Guard struct {
	tokens   TokenService
	accounts Accounts
	logger   Logger
}

// NewGuard returns a guard resolving token subjects through accounts
func NewGuard(tokens TokenService, accounts Accounts, logger Logger) *Guard {
	if logger == nil {
		logger = defLogger{}
	}
	return &Guard{
		tokens:   tokens,
		accounts: accounts,
		logger:   logger,
	}
}

// Authenticate resolves the active account a raw token was issued for.
// Every failure is Unauthenticated, the cause is only logged.
func (g *Guard) Authenticate(ctx context.Context, rawToken string) (*Account, error) {
	if rawToken == "" {
		return nil, NewUnauthenticatedError("you aren't logged in, please login first")
	}

	claims, err := g.tokens.Validate(rawToken)
	if err != nil {
		switch {
		case IsTokenExpiredError(err):
			g.logger.Debug("guard: expired token")
		case IsMalformedError(err):
			g.logger.Debug("guard: malformed token")
		default:
			g.logger.Warn("guard: token validation error: %v", err)
		}
		return nil, NewUnauthenticatedError("invalid or expired token, please login again")
	}

	account, err := g.accounts.GetActiveByID(ctx, claims.UserID())
	if err != nil {
		if !repository.IsRecordNotFound(err) {
			g.logger.Error("guard: account lookup failed: %v", err)
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve account")
		}
		return nil, NewUnauthenticatedError("the account belonging to this token no longer exists")
	}

	if account.PasswordChangedAfter(claims.IssuedAt()) {
		g.logger.Debug("guard: stale token for account %s", account.ID)
		return nil, NewUnauthenticatedError("your password has changed, please login again")
	}

	return account, nil
}

// Authorize requires the account role to be one of roles
func (g *Guard) Authorize(account *Account, roles ...AccountRole) error {
	return Authorize(account, roles...)
}

// Authorize requires the account role to be one of roles
func Authorize(account *Account, roles ...AccountRole) error {
	if account == nil {
		return NewUnauthenticatedError("you aren't logged in, please login first")
	}
	if !account.Role.In(roles...) {
		return NewForbiddenError()
	}
	return nil
}
