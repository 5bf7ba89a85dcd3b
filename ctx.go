package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

var accountCtxKey = &contextKey{"account"}

// LocalsAccountKey is the fiber Locals key holding the authenticated account
const LocalsAccountKey = "account"

type contextKey struct {
	name string
}

// WithContext sets the Account in the given context
func WithContext(r context.Context, account *Account) context.Context {
	return context.WithValue(r, accountCtxKey, account)
}

// FromContext finds the account from the context.
func FromContext(ctx context.Context) (*Account, bool) {
	raw, ok := ctx.Value(accountCtxKey).(*Account)
	return raw, ok && raw != nil
}

// CurrentAccount returns the account attached by Protect
func CurrentAccount(c *fiber.Ctx) (*Account, bool) {
	if account, ok := c.Locals(LocalsAccountKey).(*Account); ok && account != nil {
		return account, true
	}
	return FromContext(c.UserContext())
}
