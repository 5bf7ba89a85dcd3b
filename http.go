package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"

	"github.com/goliatone/go-tours-auth/middleware/jwtware"
)

// LoggedOutCookieValue replaces the token on logout
const LoggedOutCookieValue = "logged-out"

type RouteAuthenticator struct {
	guard          *Guard
	cfg            Config
	cookieDuration time.Duration
	now            Clock
	Logger         Logger
	ErrorHandler   func(c *fiber.Ctx, err error) error
}

func NewHTTPAuthenticator(guard *Guard, cfg Config) *RouteAuthenticator {
	cookieDuration := 24 * time.Hour
	if cfg.GetCookieExpiration() > 0 {
		cookieDuration = time.Duration(cfg.GetCookieExpiration()) * 24 * time.Hour
	}

	a := &RouteAuthenticator{
		guard:          guard,
		cfg:            cfg,
		cookieDuration: cookieDuration,
		now:            time.Now,
		Logger:         defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler

	return a
}

func (a RouteAuthenticator) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

// Protect authenticates the request and stores the account under
// LocalsAccountKey and in the user context.
func (a *RouteAuthenticator) Protect() fiber.Handler {
	return jwtware.New(jwtware.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var richErr *goerrors.Error
			if !goerrors.As(err, &richErr) {
				err = NewUnauthenticatedError("you aren't logged in, please login first")
			}
			return a.ErrorHandler(c, err)
		},
		Authenticator: func(ctx context.Context, raw string) (any, error) {
			account, err := a.guard.Authenticate(ctx, raw)
			if err != nil {
				return nil, err
			}
			return account, nil
		},
		ContextKey:  LocalsAccountKey,
		TokenLookup: a.cfg.GetTokenLookup(),
		AuthScheme:  a.cfg.GetAuthScheme(),
		ContextEnricher: func(ctx context.Context, subject any) context.Context {
			if account, ok := subject.(*Account); ok {
				return WithContext(ctx, account)
			}
			return ctx
		},
	})
}

// RestrictTo allows the request through only for the given roles. It
// must run after Protect.
func (a *RouteAuthenticator) RestrictTo(roles ...AccountRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		account, _ := CurrentAccount(c)
		if err := a.guard.Authorize(account, roles...); err != nil {
			return a.ErrorHandler(c, err)
		}
		return c.Next()
	}
}

func (a *RouteAuthenticator) SetTokenCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     a.cfg.GetCookieName(),
		Value:    token,
		Path:     "/",
		Expires:  a.now().Add(a.cookieDuration),
		HTTPOnly: true,
		Secure:   a.cfg.GetSecureCookie(),
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) ClearTokenCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     a.cfg.GetCookieName(),
		Value:    LoggedOutCookieValue,
		Path:     "/",
		Expires:  a.now().Add(10 * time.Second),
		HTTPOnly: true,
		Secure:   a.cfg.GetSecureCookie(),
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) defaultErrHandler(c *fiber.Ctx, err error) error {
	return WriteError(c, a.Logger, err)
}

// WriteError renders err as a JSON failure. Internal errors never expose
// their message.
func WriteError(c *fiber.Ctx, logger Logger, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	status := StatusCode(richErr)

	if logger != nil {
		logger.Info("request error: %s category=%v text_code=%s path=%s details=%v",
			richErr.Message,
			richErr.Category,
			richErr.TextCode,
			c.OriginalURL(),
			print.MaybePrettyJSON(richErr.Metadata),
		)
	}

	body := fiber.Map{
		"status":  "fail",
		"message": richErr.Message,
	}

	if richErr.TextCode != "" {
		body["code"] = richErr.TextCode
	}

	if richErr.TextCode == TextCodeBadRequest && len(richErr.Metadata) > 0 {
		body["errors"] = richErr.Metadata
	}

	if status >= http.StatusInternalServerError {
		body["status"] = "error"
		if richErr.TextCode != TextCodeEmailDeliveryFailed {
			body["message"] = "something went very wrong"
			delete(body, "code")
		}
	}

	return c.Status(status).JSON(body)
}

// StatusCode maps a rich error to its HTTP status
func StatusCode(richErr *goerrors.Error) int {
	if richErr == nil {
		return http.StatusInternalServerError
	}

	if richErr.Code >= 400 && richErr.Code < 600 {
		return richErr.Code
	}

	switch richErr.Category {
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
