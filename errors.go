package auth

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeBadRequest            = "BAD_REQUEST"
	TextCodeInvalidCredentials    = "INVALID_CREDENTIALS"
	TextCodeDuplicateEmail        = "DUPLICATE_EMAIL"
	TextCodeConfirmationPending   = "CONFIRMATION_PENDING"
	TextCodeEmailNotConfirmed     = "EMAIL_NOT_CONFIRMED"
	TextCodeTokenInvalidOrExpired = "TOKEN_INVALID_OR_EXPIRED"
	TextCodeUnauthenticated       = "UNAUTHENTICATED"
	TextCodeForbidden             = "FORBIDDEN"
	TextCodeSamePassword          = "SAME_PASSWORD"
	TextCodeEmailDeliveryFailed   = "EMAIL_DELIVERY_FAILED"
	TextCodeNotFound              = "NOT_FOUND"
	TextCodeNoSuchUser            = "NO_SUCH_USER"
	TextCodeTokenExpired          = "TOKEN_EXPIRED"
	TextCodeTokenMalformed        = "TOKEN_MALFORMED"
	TextCodeInvalidTransition     = "INVALID_ACCOUNT_TRANSITION"
)

// ErrMismatchedHashAndPassword is returned when a password does not match its hash
var ErrMismatchedHashAndPassword = goerrors.New("mismatched hash and password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryBadInput).
	WithTextCode(TextCodeBadRequest).
	WithCode(goerrors.CodeBadRequest)

// ErrPasswordTooLong is returned when hashing a password longer than bcrypt accepts
var ErrPasswordTooLong = goerrors.New("password must be at most 72 bytes", goerrors.CategoryBadInput).
	WithTextCode(TextCodeBadRequest).
	WithCode(goerrors.CodeBadRequest)

// ErrTokenExpired is returned by the token service for expired access tokens
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned by the token service for tampered or unparsable tokens
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// NewBadRequestError reports malformed or missing input.
func NewBadRequestError(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithTextCode(TextCodeBadRequest).
		WithCode(goerrors.CodeBadRequest)
}

// NewInvalidCredentialsError is shared by unknown email and wrong password.
func NewInvalidCredentialsError() *goerrors.Error {
	return goerrors.New("incorrect email or password", goerrors.CategoryAuth).
		WithTextCode(TextCodeInvalidCredentials).
		WithCode(goerrors.CodeUnauthorized)
}

func NewDuplicateEmailError() *goerrors.Error {
	return goerrors.New("this email already exists", goerrors.CategoryConflict).
		WithTextCode(TextCodeDuplicateEmail).
		WithCode(goerrors.CodeConflict)
}

func NewConfirmationPendingError() *goerrors.Error {
	return goerrors.New("open the link that was sent to your email to verify your email", goerrors.CategoryConflict).
		WithTextCode(TextCodeConfirmationPending).
		WithCode(goerrors.CodeConflict)
}

func NewEmailNotConfirmedError() *goerrors.Error {
	return goerrors.New("please confirm your email first", goerrors.CategoryAuth).
		WithTextCode(TextCodeEmailNotConfirmed).
		WithCode(goerrors.CodeUnauthorized)
}

// NewTokenInvalidOrExpiredError covers confirmation and reset tokens alike.
func NewTokenInvalidOrExpiredError() *goerrors.Error {
	return goerrors.New("token is invalid or has expired", goerrors.CategoryBadInput).
		WithTextCode(TextCodeTokenInvalidOrExpired).
		WithCode(goerrors.CodeBadRequest)
}

func NewUnauthenticatedError(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryAuth).
		WithTextCode(TextCodeUnauthenticated).
		WithCode(goerrors.CodeUnauthorized)
}

func NewForbiddenError() *goerrors.Error {
	return goerrors.New("you don't have permission to perform this action", goerrors.CategoryAuthz).
		WithTextCode(TextCodeForbidden).
		WithCode(goerrors.CodeForbidden)
}

func NewSamePasswordError() *goerrors.Error {
	return goerrors.New("your new password can't be the same as your current password", goerrors.CategoryBadInput).
		WithTextCode(TextCodeSamePassword).
		WithCode(goerrors.CodeBadRequest)
}

// NewEmailDeliveryFailedError is an upstream failure of the mail gateway.
func NewEmailDeliveryFailedError(err error) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, "there was an error sending the email").
		WithTextCode(TextCodeEmailDeliveryFailed).
		WithCode(http.StatusBadGateway)
}

func NewNoSuchUserError() *goerrors.Error {
	return goerrors.New("there is no user with this email", goerrors.CategoryNotFound).
		WithTextCode(TextCodeNoSuchUser).
		WithCode(goerrors.CodeNotFound)
}

func NewNotFoundError(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryNotFound).
		WithTextCode(TextCodeNotFound).
		WithCode(goerrors.CodeNotFound)
}

// HasTextCode reports whether err is a rich error carrying the given text code.
func HasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// IsTokenExpiredError will check for expired access tokens
func IsTokenExpiredError(err error) bool {
	return HasTextCode(err, TextCodeTokenExpired)
}

// IsMalformedError will check for tampered or unparsable access tokens
func IsMalformedError(err error) bool {
	return HasTextCode(err, TextCodeTokenMalformed)
}
